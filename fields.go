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
)

// Location is where on the grid a field is defined.
type Location int

const (
	// NodeLocation fields are defined at grid nodes.
	NodeLocation Location = iota
	// EleLocation fields are defined at element centres.
	EleLocation
)

// Dim returns the name of the output file dimension for l.
func (l Location) Dim() string {
	if l == EleLocation {
		return "nele"
	}
	return "node"
}

func (l Location) String() string {
	if l == EleLocation {
		return "element"
	}
	return "node"
}

// FieldOptions specify which part of the velocity fields GetData reads.
type FieldOptions struct {
	// Nodes and Eles are the ascending full-grid indices to read for
	// fields at nodes and elements.
	Nodes, Eles []int

	// Level is the vertical layer read from 3-D fields.
	Level int

	// MaxBlock, if greater than zero, is the largest number of
	// locations read in a single request.
	MaxBlock int
}

// Fields holds velocity components indexed by [time][location].
type Fields struct {
	Location Location
	U, V     [][]float64
}

// GetData reads the u and v velocity components for all time steps at
// the locations in o.
func (d *Dataset) GetData(ctx context.Context, vm VarMap, o FieldOptions) (*Fields, error) {
	u, ul, err := d.readField(ctx, "u_velocity", vm.UVelocity, o)
	if err != nil {
		return nil, err
	}
	v, vl, err := d.readField(ctx, "v_velocity", vm.VVelocity, o)
	if err != nil {
		return nil, err
	}
	if ul != vl {
		return nil, fmt.Errorf("ugrid: %s: %s is at %ss but %s is at %ss", d.Location, vm.UVelocity, ul, vm.VVelocity, vl)
	}
	return &Fields{Location: ul, U: u, V: v}, nil
}

func (d *Dataset) fieldLocation(v string, dims []string, lengths []int) (Location, error) {
	last := len(lengths) - 1
	switch dims[last] {
	case "node":
		return NodeLocation, nil
	case "nele", "ele", "element":
		return EleLocation, nil
	}
	switch lengths[last] {
	case d.NumNodes():
		return NodeLocation, nil
	case d.NumEles():
		return EleLocation, nil
	}
	return 0, fmt.Errorf("ugrid: %s: last dimension of %s has length %d, which matches neither %d nodes nor %d elements",
		d.Location, v, lengths[last], d.NumNodes(), d.NumEles())
}

func (d *Dataset) readField(ctx context.Context, canon, v string, o FieldOptions) ([][]float64, Location, error) {
	if !d.hasVariable(v) {
		return nil, 0, fmt.Errorf("ugrid: %s (%s) in %s: %w", canon, v, d.Location, ErrMissingVariable)
	}
	lengths := d.src.Lengths(v)
	dims := d.src.Dimensions(v)
	if len(lengths) != 2 && len(lengths) != 3 {
		return nil, 0, fmt.Errorf("ugrid: %s: %s has %d dimensions; want (time, location) or (time, level, location)",
			d.Location, v, len(lengths))
	}
	loc, err := d.fieldLocation(v, dims, lengths)
	if err != nil {
		return nil, 0, err
	}
	idx := o.Nodes
	if loc == EleLocation {
		idx = o.Eles
	}
	if len(lengths) == 3 && (o.Level < 0 || o.Level >= lengths[1]) {
		return nil, 0, fmt.Errorf("ugrid: %s: level %d out of range for %s with %d levels", d.Location, o.Level, v, lengths[1])
	}

	nt := lengths[0]
	out := make([][]float64, nt)
	for t := range out {
		out[t] = make([]float64, len(idx))
	}
	for _, r := range contiguousRuns(idx, o.MaxBlock) {
		start := []int{0, idx[r.begin]}
		count := []int{nt, r.end - r.begin}
		if len(lengths) == 3 {
			start = []int{0, o.Level, idx[r.begin]}
			count = []int{nt, 1, r.end - r.begin}
		}
		data, err := d.src.Slab(ctx, v, start, count)
		if err != nil {
			return nil, 0, fmt.Errorf("ugrid: reading %s from %s: %w", v, d.Location, err)
		}
		n := r.end - r.begin
		for t := 0; t < nt; t++ {
			copy(out[t][r.begin:r.end], data[t*n:(t+1)*n])
		}
	}
	return out, loc, nil
}

// run is the half-open range [begin, end) of positions in an index list.
type run struct{ begin, end int }

// contiguousRuns splits idx into runs of consecutive values, each no
// longer than maxLen if maxLen > 0.
func contiguousRuns(idx []int, maxLen int) []run {
	var runs []run
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && idx[j] == idx[j-1]+1 && (maxLen <= 0 || j-i < maxLen) {
			j++
		}
		runs = append(runs, run{i, j})
		i = j
	}
	return runs
}
