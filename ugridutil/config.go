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
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ugrid"
	"github.com/spf13/cast"
)

// Config is the validated configuration of a run.
type Config struct {
	Start, End  time.Time
	Step        time.Duration
	URLTemplate string

	Profile ugrid.Profile
	BBox    ugrid.BBox

	DataDir string

	// BoundaryFile, SubsetBoundaryFile and BoundaryGeoJSON are paths
	// within DataDir.
	BoundaryFile, SubsetBoundaryFile, BoundaryGeoJSON string

	OutputPrefix string

	Level, MaxBlock int

	Retries int
	Timeout time.Duration

	LogLevel logrus.Level
}

// URLs returns the source file locations for the configured dates.
func (c *Config) URLs() ([]string, error) {
	return ugrid.URLs(c.Start, c.End, c.Step, c.URLTemplate)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006010215",
	"20060102",
}

// parseDate parses a date in one of dateLayouts. Dates without a time
// zone are UTC.
func parseDate(name, s string) (time.Time, error) {
	s = strings.TrimSpace(os.ExpandEnv(s))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("ugridutil: invalid %s %q; use a format such as 2014-03-21T00", name, s)
}

// LoadConfig reads and checks the configuration in cfg.
func LoadConfig(ctx context.Context, cfg *viper.Viper) (*Config, error) {
	c := new(Config)
	var err error
	if c.Start, err = parseDate("StartDate", cfg.GetString("StartDate")); err != nil {
		return nil, err
	}
	if c.End, err = parseDate("EndDate", cfg.GetString("EndDate")); err != nil {
		return nil, err
	}
	if !c.End.After(c.Start) {
		return nil, fmt.Errorf("ugridutil: EndDate (%v) must be after StartDate (%v)", c.End, c.Start)
	}
	if c.Step, err = cast.ToDurationE(cfg.Get("Step")); err != nil {
		return nil, fmt.Errorf("ugridutil: invalid Step: %v", err)
	}
	if c.Step <= 0 {
		return nil, fmt.Errorf("ugridutil: Step must be positive but is %v", c.Step)
	}
	c.URLTemplate = os.ExpandEnv(cfg.GetString("URLTemplate"))
	if c.URLTemplate == "" {
		return nil, fmt.Errorf("ugridutil: URLTemplate is not set")
	}

	var extra map[string]ugrid.Profile
	if pf := os.ExpandEnv(cfg.GetString("ProfileFile")); pf != "" {
		if extra, err = loadProfiles(ctx, pf); err != nil {
			return nil, err
		}
	}
	if c.Profile, err = ugrid.LookupProfile(cfg.GetString("Model"), extra); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"BBox.North", &c.BBox.North},
		{"BBox.South", &c.BBox.South},
		{"BBox.West", &c.BBox.West},
		{"BBox.East", &c.BBox.East},
	} {
		if *f.v, err = cast.ToFloat64E(cfg.Get(f.name)); err != nil {
			return nil, fmt.Errorf("ugridutil: invalid %s: %v", f.name, err)
		}
	}
	if err := c.BBox.Validate(); err != nil {
		return nil, err
	}

	if c.DataDir, err = checkDataDir(cfg.GetString("DataDir")); err != nil {
		return nil, err
	}
	c.BoundaryFile = inDataDir(c.DataDir, cfg.GetString("BoundaryFile"))
	c.SubsetBoundaryFile = inDataDir(c.DataDir, cfg.GetString("SubsetBoundaryFile"))
	if c.BoundaryFile == "" || c.SubsetBoundaryFile == "" {
		return nil, fmt.Errorf("ugridutil: BoundaryFile and SubsetBoundaryFile must both be set")
	}
	c.BoundaryGeoJSON = inDataDir(c.DataDir, cfg.GetString("BoundaryGeoJSON"))
	c.OutputPrefix = cfg.GetString("OutputPrefix")

	for _, f := range []struct {
		name string
		v    *int
	}{
		{"Level", &c.Level},
		{"MaxBlock", &c.MaxBlock},
		{"Retries", &c.Retries},
	} {
		if *f.v, err = cast.ToIntE(cfg.Get(f.name)); err != nil {
			return nil, fmt.Errorf("ugridutil: invalid %s: %v", f.name, err)
		}
		if *f.v < 0 {
			return nil, fmt.Errorf("ugridutil: %s must not be negative", f.name)
		}
	}
	if c.Timeout, err = cast.ToDurationE(cfg.Get("Timeout")); err != nil {
		return nil, fmt.Errorf("ugridutil: invalid Timeout: %v", err)
	}
	if c.LogLevel, err = logrus.ParseLevel(cfg.GetString("LogLevel")); err != nil {
		return nil, fmt.Errorf("ugridutil: invalid LogLevel: %v", err)
	}
	return c, nil
}

// checkDataDir expands environment variables in the data directory and
// makes sure it exists.
func checkDataDir(d string) (string, error) {
	d = os.ExpandEnv(d)
	if d == "" {
		d = "."
	}
	fi, err := os.Stat(d)
	if err != nil {
		return d, fmt.Errorf("ugridutil: the DataDir directory doesn't exist: %v", err)
	}
	if !fi.IsDir() {
		return d, fmt.Errorf("ugridutil: DataDir %s is not a directory", d)
	}
	return d, nil
}

// inDataDir returns the location of f, which is relative to dir unless
// it is an absolute path.
func inDataDir(dir, f string) string {
	f = os.ExpandEnv(f)
	if f == "" || filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(dir, f)
}

// loadProfiles reads model profiles from a local file or URL.
func loadProfiles(ctx context.Context, path string) (map[string]ugrid.Profile, error) {
	path, err := maybeDownload(ctx, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ugridutil: opening ProfileFile: %v", err)
	}
	defer f.Close()
	return ugrid.LoadProfiles(f)
}

// maybeDownload checks if the input is an existing file locally.
// If not, and it is a URL, it downloads the file and
// returns the path to the downloaded file.
func maybeDownload(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	if !ugrid.IsRemote(path) {
		return path, nil
	}
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return path, fmt.Errorf("ugridutil: downloading %s: %v", path, err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return path, fmt.Errorf("ugridutil: downloading %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return path, fmt.Errorf("ugridutil: downloading %s: %s", path, resp.Status)
	}
	w, err := ioutil.TempFile("", "ugrid")
	if err != nil {
		return path, fmt.Errorf("ugridutil: failed creating file for download: %v", err)
	}
	defer w.Close()
	if _, err = io.Copy(w, resp.Body); err != nil {
		return path, fmt.Errorf("ugridutil: downloading %s: %v", path, err)
	}
	return w.Name(), nil
}
