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

package opendap

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Dataset is a remote dataset opened by Client.Open.
type Dataset struct {
	URL string
	DDS *DDS
	DAS DAS

	c *Client
}

// Variables returns the names of the arrays and grids in the dataset.
func (d *Dataset) Variables() []string {
	o := make([]string, len(d.DDS.Variables))
	for i, v := range d.DDS.Variables {
		o[i] = v.Name
	}
	return o
}

// Dimensions returns the dimension names of variable v.
func (d *Dataset) Dimensions(v string) []string {
	vv := d.DDS.Variable(v)
	if vv == nil {
		return nil
	}
	o := make([]string, len(vv.Dims))
	for i, dim := range vv.Dims {
		o[i] = dim.Name
	}
	return o
}

// Lengths returns the dimension lengths of variable v, or nil if there
// is no such variable.
func (d *Dataset) Lengths(v string) []int {
	vv := d.DDS.Variable(v)
	if vv == nil {
		return nil
	}
	o := make([]int, len(vv.Dims))
	for i, dim := range vv.Dims {
		o[i] = dim.Size
	}
	return o
}

// StringAttribute returns string attribute a of variable v, or the
// global attribute a if v is empty.
func (d *Dataset) StringAttribute(v, a string) (string, bool) {
	return d.DAS.StringAttribute(v, a)
}

// Close is a no-op; it exists so that Dataset can be used in place of a
// local file.
func (d *Dataset) Close() error { return nil }

// Constraint returns the DAP2 constraint expression selecting the
// hyperslab of v that starts at start and has count elements along each
// dimension.
func Constraint(v string, start, count []int) string {
	var b strings.Builder
	b.WriteString(v)
	for i := range start {
		fmt.Fprintf(&b, "[%d:1:%d]", start[i], start[i]+count[i]-1)
	}
	return b.String()
}

// Slab reads the hyperslab of v that starts at start and has count
// elements along each dimension. Values are returned in row-major
// order.
func (d *Dataset) Slab(ctx context.Context, v string, start, count []int) ([]float64, error) {
	vv := d.DDS.Variable(v)
	if vv == nil {
		return nil, fmt.Errorf("opendap: %s has no variable %s", d.URL, v)
	}
	if len(start) != len(vv.Dims) || len(count) != len(vv.Dims) {
		return nil, fmt.Errorf("opendap: reading %s: slab has %d/%d dimensions but variable has %d",
			v, len(start), len(count), len(vv.Dims))
	}
	n := 1
	for i, dim := range vv.Dims {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > dim.Size {
			return nil, fmt.Errorf("opendap: reading %s: slab [%d,%d) out of range for dimension %s of length %d",
				v, start[i], start[i]+count[i], dim.Name, dim.Size)
		}
		n *= count[i]
	}
	if n == 0 {
		return []float64{}, nil
	}
	ce := Constraint(v, start, count)
	u := d.URL + ".dods?" + escapeConstraint(ce)
	b, err := d.c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	_, data, err := DecodeDODS(b)
	if err != nil {
		return nil, fmt.Errorf("%w (%s?%s)", err, d.URL, ce)
	}
	if len(data) != n {
		return nil, fmt.Errorf("opendap: reading %s: got %d values but requested %d", ce, len(data), n)
	}
	return data, nil
}

var constraintEscaper = strings.NewReplacer("[", "%5B", "]", "%5D", " ", "%20")

func escapeConstraint(ce string) string { return constraintEscaper.Replace(ce) }

var dataMarker = []byte("\nData:\n")

// DecodeDODS decodes the first variable in a .dods response. For a grid
// only the array is decoded and the map vectors are ignored.
func DecodeDODS(b []byte) (Variable, []float64, error) {
	i := bytes.Index(b, dataMarker)
	if i < 0 {
		if bytes.HasPrefix(bytes.TrimSpace(b), []byte("Error")) {
			return Variable{}, nil, fmt.Errorf("opendap: server error: %s", bytes.TrimSpace(b))
		}
		return Variable{}, nil, fmt.Errorf("opendap: response has no data section")
	}
	dds, err := ParseDDS(bytes.NewReader(b[:i]))
	if err != nil {
		return Variable{}, nil, err
	}
	if len(dds.Variables) == 0 {
		return Variable{}, nil, fmt.Errorf("opendap: response has no variables")
	}
	v := dds.Variables[0]
	data := b[i+len(dataMarker):]

	n := 1
	for _, dim := range v.Dims {
		n *= dim.Size
	}
	if len(v.Dims) > 0 {
		if len(data) < 8 {
			return v, nil, fmt.Errorf("opendap: %s: truncated array length", v.Name)
		}
		n1 := int(binary.BigEndian.Uint32(data))
		n2 := int(binary.BigEndian.Uint32(data[4:]))
		if n1 != n || n2 != n {
			return v, nil, fmt.Errorf("opendap: %s: array length %d/%d does not match shape %v", v.Name, n1, n2, v.Dims)
		}
		data = data[8:]
	}

	size := baseTypes[v.Type]
	switch {
	case size == 0:
		return v, nil, fmt.Errorf("opendap: %s: type %s is not numeric", v.Name, v.Type)
	case v.Type == "Byte" && len(v.Dims) > 0:
		size = 1
	case size < 4:
		size = 4
	}
	if len(data) < n*size {
		return v, nil, fmt.Errorf("opendap: %s: have %d bytes of data but need %d", v.Name, len(data), n*size)
	}

	o := make([]float64, n)
	for j := range o {
		p := data[j*size:]
		switch v.Type {
		case "Byte":
			o[j] = float64(p[0])
		case "Int16", "Int32":
			o[j] = float64(int32(binary.BigEndian.Uint32(p)))
		case "UInt16", "UInt32":
			o[j] = float64(binary.BigEndian.Uint32(p))
		case "Float32":
			o[j] = float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
		case "Float64":
			o[j] = math.Float64frombits(binary.BigEndian.Uint64(p))
		}
	}
	return v, o, nil
}
