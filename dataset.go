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
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/gonum/floats"
)

// Dataset is an unstructured grid opened from a Source. Its fields are
// filled in by GetDimensions and GetGridTopo.
type Dataset struct {
	// Location is the URL or path the dataset was opened from.
	Location string

	Lon, Lat []float64

	// Time holds the time coordinate in TimeUnits.
	Time      []float64
	TimeUnits string

	// NV holds the three nodes of each element and NBE the three
	// neighbouring elements. Both are 0-based; -1 in NBE means
	// there is no neighbour across that edge.
	NV, NBE [][3]int

	// Winding is the node order of the elements in NV.
	Winding Winding

	src Source
}

// NewDataset returns a Dataset reading from src.
func NewDataset(location string, src Source) *Dataset {
	return &Dataset{Location: location, src: src}
}

// Source returns the underlying data source.
func (d *Dataset) Source() Source { return d.src }

// Close closes the underlying data source.
func (d *Dataset) Close() error { return d.src.Close() }

// NumNodes returns the number of nodes in the grid.
func (d *Dataset) NumNodes() int { return len(d.Lon) }

// NumEles returns the number of elements in the grid.
func (d *Dataset) NumEles() int { return len(d.NV) }

func (d *Dataset) hasVariable(v string) bool {
	for _, vv := range d.src.Variables() {
		if vv == v {
			return true
		}
	}
	return false
}

// readVar reads the whole of the variable mapped from canonical name
// canon.
func (d *Dataset) readVar(ctx context.Context, canon, v string) ([]float64, []int, error) {
	if !d.hasVariable(v) {
		return nil, nil, fmt.Errorf("ugrid: %s (%s) in %s: %w", canon, v, d.Location, ErrMissingVariable)
	}
	l := d.src.Lengths(v)
	data, err := d.src.Slab(ctx, v, make([]int, len(l)), l)
	if err != nil {
		return nil, nil, fmt.Errorf("ugrid: reading %s from %s: %w", v, d.Location, err)
	}
	return data, l, nil
}

// GetDimensions loads the node coordinates and the time coordinate.
func (d *Dataset) GetDimensions(ctx context.Context, vm VarMap) error {
	if err := vm.Validate(); err != nil {
		return err
	}
	lon, _, err := d.readVar(ctx, "longitude", vm.Longitude)
	if err != nil {
		return err
	}
	lat, _, err := d.readVar(ctx, "latitude", vm.Latitude)
	if err != nil {
		return err
	}
	if len(lon) != len(lat) {
		return fmt.Errorf("ugrid: %s has %d longitudes but %d latitudes", d.Location, len(lon), len(lat))
	}
	t, _, err := d.readVar(ctx, "time", vm.Time)
	if err != nil {
		return err
	}
	d.Lon, d.Lat, d.Time = lon, lat, t
	d.TimeUnits, _ = d.src.StringAttribute(vm.Time, "units")
	return nil
}

// GetGridTopo loads the element connectivity. Connectivity in the
// source is 1-based and may be stored as (3, nele) or (nele, 3).
// The winding order is taken from the model profile.
func (d *Dataset) GetGridTopo(ctx context.Context, vm VarMap, w Winding) error {
	nv, err := d.readTriples(ctx, "nodes_surrounding_ele", vm.NodesSurroundingEle)
	if err != nil {
		return err
	}
	nbe, err := d.readTriples(ctx, "eles_surrounding_ele", vm.ElesSurroundingEle)
	if err != nil {
		return err
	}
	if len(nv) != len(nbe) {
		return fmt.Errorf("ugrid: %s: %s has %d elements but %s has %d",
			d.Location, vm.NodesSurroundingEle, len(nv), vm.ElesSurroundingEle, len(nbe))
	}
	nn := d.NumNodes()
	for i, e := range nv {
		for _, n := range e {
			if n < 0 || (nn > 0 && n >= nn) {
				return fmt.Errorf("ugrid: %s: element %d refers to node %d which is not in the grid", d.Location, i+1, n+1)
			}
		}
	}
	for i, e := range nbe {
		for j, n := range e {
			if n < -1 || n >= len(nbe) {
				// Some models flag open boundaries with out-of-range ids.
				nbe[i][j] = -1
			}
		}
	}
	d.NV, d.NBE, d.Winding = nv, nbe, w
	return nil
}

func (d *Dataset) readTriples(ctx context.Context, canon, v string) ([][3]int, error) {
	data, l, err := d.readVar(ctx, canon, v)
	if err != nil {
		return nil, err
	}
	if len(l) != 2 || (l[0] != 3 && l[1] != 3) {
		return nil, fmt.Errorf("ugrid: %s (%s) in %s has shape %v; it should be (3, nele) or (nele, 3)",
			canon, v, d.Location, l)
	}
	var o [][3]int
	if l[0] == 3 {
		o = make([][3]int, l[1])
		for j := 0; j < 3; j++ {
			for i := range o {
				o[i][j] = int(data[j*l[1]+i]) - 1
			}
		}
	} else {
		o = make([][3]int, l[0])
		for i := range o {
			for j := 0; j < 3; j++ {
				o[i][j] = int(data[i*3+j]) - 1
			}
		}
	}
	return o, nil
}

// Extent returns the bounds of the grid nodes.
func (d *Dataset) Extent() *geom.Bounds {
	if len(d.Lon) == 0 {
		return geom.NewBounds()
	}
	return &geom.Bounds{
		Min: geom.Point{X: floats.Min(d.Lon), Y: floats.Min(d.Lat)},
		Max: geom.Point{X: floats.Max(d.Lon), Y: floats.Max(d.Lat)},
	}
}

// TimeBounds returns the first and last time steps in the dataset.
func (d *Dataset) TimeBounds() (first, last time.Time, err error) {
	if len(d.Time) == 0 {
		return first, last, fmt.Errorf("ugrid: %s has no time steps", d.Location)
	}
	unit, ref, err := ParseTimeUnits(d.TimeUnits)
	if err != nil {
		return first, last, fmt.Errorf("ugrid: %s: %w", d.Location, err)
	}
	at := func(v float64) time.Time {
		return ref.Add(time.Duration(math.Round(v * float64(unit))))
	}
	return at(d.Time[0]), at(d.Time[len(d.Time)-1]), nil
}

var timeUnits = map[string]time.Duration{
	"msec":         time.Millisecond,
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"second":       time.Second,
	"seconds":      time.Second,
	"min":          time.Minute,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
}

var refLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimeUnits parses a CF time units string such as
// "days since 1858-11-17 00:00:00".
func ParseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q", units)
	}
	unit, ok := timeUnits[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid time unit %q in %q", parts[0], units)
	}
	ref := strings.TrimSpace(parts[1])
	ref = strings.TrimSuffix(ref, "UTC")
	ref = strings.TrimSuffix(ref, "Z")
	ref = strings.TrimSpace(ref)
	if i := strings.IndexByte(ref, '.'); i > 0 {
		ref = ref[:i]
	}
	for _, layout := range refLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return unit, t, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("invalid reference time in %q", units)
}
