/*
Copyright © 2019 the ugrid authors.
This file is part of ugrid.

ugrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ugrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ugrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package ugridutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ugrid"
	"github.com/spatialmodel/ugrid/opendap"
)

// newLogger returns a text logger writing to w.
func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}

// newClient returns an OPeNDAP client configured by cfg.
func newClient(cfg *Config, log logrus.FieldLogger) *opendap.Client {
	c := opendap.NewClient(&http.Client{Timeout: cfg.Timeout})
	c.Retries = cfg.Retries
	c.Log = log
	return c
}

// subset opens the source file at url and finds the part of its grid
// within the bounding box.
func subset(ctx context.Context, cfg *Config, c *opendap.Client, url string, log logrus.FieldLogger) (*ugrid.Dataset, *ugrid.Subset, error) {
	log.Info("opening source file")
	ds, err := ugrid.Open(ctx, url, ugrid.OpenOptions{Client: c})
	if err != nil {
		return nil, nil, err
	}
	vm := cfg.Profile.Vars
	if err := ds.GetDimensions(ctx, vm); err != nil {
		ds.Close()
		return nil, nil, err
	}
	if first, last, err := ds.TimeBounds(); err == nil {
		log.WithFields(logrus.Fields{"first": first, "last": last, "steps": len(ds.Time)}).Debug("time range")
	} else {
		log.WithError(err).Debug("could not determine time range")
	}
	if err := ds.GetGridTopo(ctx, vm, cfg.Profile.Winding); err != nil {
		ds.Close()
		return nil, nil, err
	}
	ss, err := ds.FindNodesElesInSubset(cfg.BBox)
	if err != nil {
		ds.Close()
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"nodes": len(ss.Nodes),
		"eles":  len(ss.Eles),
	}).Infof("subset grid of %d nodes and %d elements", ds.NumNodes(), ds.NumEles())
	return ds, ss, nil
}

// resolveBoundary returns the subset boundary, creating the subset
// boundary file if necessary.
func resolveBoundary(cfg *Config, ds *ugrid.Dataset, ss *ugrid.Subset, log logrus.FieldLogger) (ugrid.Boundary, error) {
	bnd, status, err := ugrid.ResolveBoundary(cfg.SubsetBoundaryFile, cfg.BoundaryFile, ds, ss, cfg.BBox)
	if err != nil {
		return nil, err
	}
	blog := log.WithFields(logrus.Fields{"file": cfg.SubsetBoundaryFile, "segments": len(bnd), "loops": bnd.Loops()})
	if status == ugrid.Found {
		blog.Info("read subset boundary file")
		return bnd, nil
	}
	blog.Infof("subset boundary file was %s; created it", status)
	if cfg.BoundaryGeoJSON != "" {
		lon := make([]float64, len(ss.Nodes))
		lat := make([]float64, len(ss.Nodes))
		for i, n := range ss.Nodes {
			lon[i], lat[i] = ds.Lon[n], ds.Lat[n]
		}
		f, err := os.Create(cfg.BoundaryGeoJSON)
		if err != nil {
			return nil, fmt.Errorf("ugridutil: creating boundary GeoJSON file: %v", err)
		}
		if err := bnd.WriteGeoJSON(f, lon, lat); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		log.WithField("file", cfg.BoundaryGeoJSON).Info("wrote subset boundary GeoJSON")
	}
	return bnd, nil
}

// Boundary makes sure the subset boundary file for the configured
// bounding box exists, using the grid of the first source file, and
// returns the boundary.
func Boundary(ctx context.Context, cfg *Config, log logrus.FieldLogger) (ugrid.Boundary, error) {
	urls, err := cfg.URLs()
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("ugridutil: there are no source files between %v and %v", cfg.Start, cfg.End)
	}
	log = log.WithField("url", urls[0])
	ds, ss, err := subset(ctx, cfg, newClient(cfg, log), urls[0], log)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	return resolveBoundary(cfg, ds, ss, log)
}

// Run processes every source file in the configured date range, in
// order, writing one GNOME grid file per source file to cfg.DataDir.
// It stops at the first error.
func Run(ctx context.Context, cfg *Config, log logrus.FieldLogger) error {
	log = log.WithField("run", uuid.New().String())
	urls, err := cfg.URLs()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"files": len(urls),
		"model": cfg.Profile.Name,
		"bbox":  cfg.BBox.String(),
	}).Info("starting")
	c := newClient(cfg, log)
	for _, u := range urls {
		if err := processFile(ctx, cfg, c, u, log.WithField("url", u)); err != nil {
			return err
		}
	}
	log.Info("done")
	return nil
}

// processFile subsets a single source file.
func processFile(ctx context.Context, cfg *Config, c *opendap.Client, url string, log logrus.FieldLogger) error {
	ds, ss, err := subset(ctx, cfg, c, url, log)
	if err != nil {
		return err
	}
	defer ds.Close()

	bnd, err := resolveBoundary(cfg, ds, ss, log)
	if err != nil {
		return err
	}

	log.Info("downloading velocity")
	fields, err := ds.GetData(ctx, cfg.Profile.Vars, ugrid.FieldOptions{
		Nodes:    ss.Nodes,
		Eles:     ss.Eles,
		Level:    cfg.Level,
		MaxBlock: cfg.MaxBlock,
	})
	if err != nil {
		return err
	}

	out := filepath.Join(cfg.DataDir, ugrid.OutputName(url, cfg.OutputPrefix))
	if err := ugrid.WriteUnstructuredGrid(out, ugrid.NewGridFile(ds, ss, bnd, fields)); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": out, "location": fields.Location}).Info("wrote grid file")
	return nil
}
