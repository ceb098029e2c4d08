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

package ugrid

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// GridFile is the content of a GNOME triangular grid file.
type GridFile struct {
	// Source is recorded in the file's global attributes.
	Source string

	Time      []float64
	TimeUnits string

	Lon, Lat []float64

	// NV and NBE are 0-based; -1 in NBE means no neighbour.
	NV, NBE [][3]int
	Winding Winding

	Boundary Boundary

	// Fields holds the velocity components on the grid nodes or elements.
	Fields *Fields
}

// NewGridFile assembles the grid file for subset ss of ds.
func NewGridFile(ds *Dataset, ss *Subset, bnd Boundary, f *Fields) *GridFile {
	g := &GridFile{
		Source:    ds.Location,
		Time:      ds.Time,
		TimeUnits: ds.TimeUnits,
		Lon:       make([]float64, len(ss.Nodes)),
		Lat:       make([]float64, len(ss.Nodes)),
		NV:        ss.NV,
		NBE:       ss.NBE,
		Winding:   ds.Winding,
		Boundary:  bnd,
		Fields:    f,
	}
	for i, n := range ss.Nodes {
		g.Lon[i] = ds.Lon[n]
		g.Lat[i] = ds.Lat[n]
	}
	return g
}

func (g *GridFile) check() error {
	switch {
	case len(g.Time) == 0:
		return fmt.Errorf("no time steps")
	case len(g.Lon) == 0:
		return fmt.Errorf("no nodes")
	case len(g.NV) == 0:
		return fmt.Errorf("no elements")
	case len(g.Boundary) == 0:
		return fmt.Errorf("no boundary segments")
	case len(g.Lat) != len(g.Lon):
		return fmt.Errorf("%d longitudes but %d latitudes", len(g.Lon), len(g.Lat))
	case len(g.NBE) != len(g.NV):
		return fmt.Errorf("%d elements in nv but %d in nbe", len(g.NV), len(g.NBE))
	case g.Fields == nil:
		return fmt.Errorf("no velocity fields")
	}
	n := len(g.Lon)
	if g.Fields.Location == EleLocation {
		n = len(g.NV)
	}
	for _, c := range [][][]float64{g.Fields.U, g.Fields.V} {
		if len(c) != len(g.Time) {
			return fmt.Errorf("velocity has %d time steps but time has %d", len(c), len(g.Time))
		}
		for _, t := range c {
			if len(t) != n {
				return fmt.Errorf("velocity has %d values per time step; want %d", len(t), n)
			}
		}
	}
	return nil
}

// WriteUnstructuredGrid writes g to path as a GNOME triangular grid
// NetCDF file.
func WriteUnstructuredGrid(path string, g *GridFile) error {
	if err := g.check(); err != nil {
		return fmt.Errorf("ugrid: writing %s: %w", path, err)
	}
	loc := g.Fields.Location.Dim()
	h := cdf.NewHeader(
		[]string{"time", "node", "nele", "nbnd", "nbi", "three"},
		[]int{len(g.Time), len(g.Lon), len(g.NV), len(g.Boundary), 4, 3})
	h.AddAttribute("", "grid_type", "Triangular")
	if g.Source != "" {
		h.AddAttribute("", "source", g.Source)
	}

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "long_name", "time")
	if g.TimeUnits != "" {
		h.AddAttribute("time", "units", g.TimeUnits)
	}
	h.AddVariable("lon", []string{"node"}, []float32{0})
	h.AddAttribute("lon", "long_name", "longitude")
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable("lat", []string{"node"}, []float32{0})
	h.AddAttribute("lat", "long_name", "latitude")
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("nv", []string{"three", "nele"}, []int32{0})
	h.AddAttribute("nv", "long_name", "nodes surrounding element")
	h.AddVariable("nbe", []string{"three", "nele"}, []int32{0})
	h.AddAttribute("nbe", "long_name", "elements surrounding element")
	h.AddAttribute("nbe", "order", g.Winding.String())
	h.AddVariable("bnd", []string{"nbnd", "nbi"}, []int32{0})
	h.AddAttribute("bnd", "long_name", "boundary segment node list")
	h.AddVariable("u", []string{"time", loc}, []float32{0})
	h.AddAttribute("u", "long_name", "eastward water velocity")
	h.AddAttribute("u", "units", "m s-1")
	h.AddVariable("v", []string{"time", loc}, []float32{0})
	h.AddAttribute("v", "long_name", "northward water velocity")
	h.AddAttribute("v", "units", "m s-1")
	h.Define()

	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("ugrid: creating %s: %w", path, errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ugrid: creating grid file: %w", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("ugrid: creating %s: %w", path, err)
	}

	nele := len(g.NV)
	nv := make([]int32, 3*nele)
	nbe := make([]int32, 3*nele)
	for i := range g.NV {
		for j := 0; j < 3; j++ {
			nv[j*nele+i] = int32(g.NV[i][j] + 1)
			nbe[j*nele+i] = int32(g.NBE[i][j] + 1)
		}
	}
	bnd := make([]int32, 0, 4*len(g.Boundary))
	for _, s := range g.Boundary {
		bnd = append(bnd, int32(s.N1+1), int32(s.N2+1), int32(s.Loop), int32(s.Type))
	}

	data := []struct {
		name string
		vals interface{}
	}{
		{"time", g.Time},
		{"lon", toFloat32(g.Lon)},
		{"lat", toFloat32(g.Lat)},
		{"nv", nv},
		{"nbe", nbe},
		{"bnd", bnd},
		{"u", flatten32(g.Fields.U)},
		{"v", flatten32(g.Fields.V)},
	}
	for _, d := range data {
		end := f.Header.Lengths(d.name)
		w := f.Writer(d.name, make([]int, len(end)), end)
		if _, err := w.Write(d.vals); err != nil {
			ff.Close()
			return fmt.Errorf("ugrid: writing %s to %s: %w", d.name, path, err)
		}
	}
	return ff.Close()
}

func toFloat32(v []float64) []float32 {
	o := make([]float32, len(v))
	for i, x := range v {
		o[i] = float32(x)
	}
	return o
}

func flatten32(v [][]float64) []float32 {
	var o []float32
	for _, r := range v {
		o = append(o, toFloat32(r)...)
	}
	return o
}
