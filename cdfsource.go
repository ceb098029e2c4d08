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
	"os"

	"github.com/ctessum/cdf"
)

// CDFSource is a Source backed by a local NetCDF classic file.
type CDFSource struct {
	f    *os.File
	nc   *cdf.File
	nrec int
}

// OpenCDF opens the NetCDF classic (version 1 or 2) file at path.
func OpenCDF(path string) (*CDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ugrid: opening %s: %w", path, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ugrid: reading NetCDF header of %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ugrid: opening %s: %w", path, err)
	}
	return &CDFSource{f: f, nc: nc, nrec: int(nc.Header.NumRecs(fi.Size()))}, nil
}

// Variables implements Source.
func (s *CDFSource) Variables() []string { return s.nc.Header.Variables() }

// Dimensions implements Source.
func (s *CDFSource) Dimensions(v string) []string { return s.nc.Header.Dimensions(v) }

// Lengths implements Source. The length of the record dimension is the
// number of records in the file.
func (s *CDFSource) Lengths(v string) []int {
	l := s.nc.Header.Lengths(v)
	if l == nil {
		return nil
	}
	o := make([]int, len(l))
	copy(o, l)
	if s.nc.Header.IsRecordVariable(v) {
		o[0] = s.nrec
	}
	return o
}

// StringAttribute implements Source.
func (s *CDFSource) StringAttribute(v, a string) (string, bool) {
	str, ok := s.nc.Header.GetAttribute(v, a).(string)
	return str, ok
}

// Slab implements Source. Each contiguous run along the last dimension
// is read separately.
func (s *CDFSource) Slab(ctx context.Context, v string, start, count []int) ([]float64, error) {
	lengths := s.Lengths(v)
	if lengths == nil {
		return nil, fmt.Errorf("ugrid: reading %s: %w", v, ErrMissingVariable)
	}
	n, err := checkSlab(v, lengths, start, count)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n)
	if n == 0 {
		return out, nil
	}
	if len(lengths) == 0 {
		r := s.nc.Reader(v, nil, nil)
		buf := r.Zero(1)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("ugrid: reading %s: %w", v, err)
		}
		return appendFloats(out, buf)
	}

	last := len(lengths) - 1
	idx := make([]int, len(start))
	copy(idx, start)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		begin := make([]int, len(idx))
		copy(begin, idx)
		end := make([]int, len(idx))
		copy(end, idx)
		end[last] = start[last] + count[last] - 1

		r := s.nc.Reader(v, begin, end)
		buf := r.Zero(count[last])
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("ugrid: reading %s%v: %w", v, begin, err)
		}
		if out, err = appendFloats(out, buf); err != nil {
			return nil, fmt.Errorf("ugrid: reading %s: %w", v, err)
		}

		d := last - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < start[d]+count[d] {
				break
			}
			idx[d] = start[d]
		}
		if d < 0 {
			break
		}
	}
	return out, nil
}

// Close implements Source.
func (s *CDFSource) Close() error { return s.f.Close() }

// checkSlab checks that a hyperslab lies within a variable and returns
// the number of elements in it.
func checkSlab(v string, lengths, start, count []int) (int, error) {
	if len(start) != len(lengths) || len(count) != len(lengths) {
		return 0, fmt.Errorf("ugrid: reading %s: slab has %d/%d dimensions but variable has %d",
			v, len(start), len(count), len(lengths))
	}
	n := 1
	for i, l := range lengths {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > l {
			return 0, fmt.Errorf("ugrid: reading %s: slab [%d,%d) out of range for dimension %d of length %d",
				v, start[i], start[i]+count[i], i, l)
		}
		n *= count[i]
	}
	return n, nil
}

// appendFloats converts a NetCDF data buffer to float64 and appends it
// to o.
func appendFloats(o []float64, buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		o = append(o, b...)
	case []float32:
		for _, v := range b {
			o = append(o, float64(v))
		}
	case []int32:
		for _, v := range b {
			o = append(o, float64(v))
		}
	case []int16:
		for _, v := range b {
			o = append(o, float64(v))
		}
	case []uint8:
		for _, v := range b {
			o = append(o, float64(v))
		}
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
	return o, nil
}
