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

// Package testgrid provides a small FVCOM-style unstructured grid for
// tests, as a NetCDF file and as an OPeNDAP (DAP2) server.
//
// The grid has 3×3 nodes one degree apart, with node i at
// lon = i%3, lat = i/3, and 8 clockwise triangles.
package testgrid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/klauspost/compress/gzip"
)

// Var is a variable in a test dataset.
type Var struct {
	Name  string
	Type  string // Int32, Float32 or Float64
	Dims  []string
	Attrs map[string]string
	Data  []float64
}

// Dataset is a test dataset.
type Dataset struct {
	Name string
	// Dims are the dimension names in order, with their lengths. The
	// first dimension is the record dimension.
	Dims    []string
	Lengths []int
	Vars    []Var
	Global  map[string]string
}

const (
	NumNodes  = 9
	NumEles   = 8
	NumTimes  = 2
	NumLevels = 2
)

// NV returns the 0-based nodes of each element.
func NV() [][3]int {
	var nv [][3]int
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			a := r*3 + c
			b, cc, d := a+1, a+4, a+3
			nv = append(nv, [3]int{a, d, cc}, [3]int{a, cc, b})
		}
	}
	return nv
}

// NBE returns the 0-based element across the edge opposite each node
// of each element, or -1.
func NBE() [][3]int {
	nv := NV()
	nbe := make([][3]int, len(nv))
	for i, e := range nv {
		for j := 0; j < 3; j++ {
			nbe[i][j] = -1
			n1, n2 := e[(j+1)%3], e[(j+2)%3]
			for k, f := range nv {
				if k != i && contains(f, n1) && contains(f, n2) {
					nbe[i][j] = k
				}
			}
		}
	}
	return nbe
}

func contains(e [3]int, n int) bool { return e[0] == n || e[1] == n || e[2] == n }

// U returns the test value of u at time t, level l, element e.
// V is its negative.
func U(t, l, e int) float64 { return float64(t*100 + l*10 + e) }

// UNode returns the test value of the node field uwind at time t and
// node n. vwind is its negative.
func UNode(t, n int) float64 { return float64(t*100 + n) }

// TimeUnits are the units of the time variable.
const TimeUnits = "days since 2014-03-21 00:00:00"

// FullBoundary is the boundary file of the whole grid. The southern
// edge is open water.
const FullBoundary = `1 4 1 0
4 7 1 0
7 8 1 0
8 9 1 0
9 6 1 0
6 3 1 0
3 2 1 1
2 1 1 1
`

// FVCOM returns the test grid in FVCOM layout: time is a record
// dimension, connectivity is (three, nele), and u and v are at
// elements on sigma layers.
func FVCOM() *Dataset {
	d := &Dataset{
		Name:    "nos.test.fields.nowcast.20140321.t00z.nc",
		Dims:    []string{"time", "node", "nele", "three", "siglay"},
		Lengths: []int{NumTimes, NumNodes, NumEles, 3, NumLevels},
		Global:  map[string]string{"title": "test grid", "source": "FVCOM"},
	}
	lon := make([]float64, NumNodes)
	lat := make([]float64, NumNodes)
	for i := range lon {
		lon[i] = float64(i % 3)
		lat[i] = float64(i / 3)
	}
	nv, nbe := NV(), NBE()
	nvData := make([]float64, 3*NumEles)
	nbeData := make([]float64, 3*NumEles)
	for i := range nv {
		for j := 0; j < 3; j++ {
			nvData[j*NumEles+i] = float64(nv[i][j] + 1)
			nbeData[j*NumEles+i] = float64(nbe[i][j] + 1)
		}
	}
	var u, v, un, vn []float64
	for t := 0; t < NumTimes; t++ {
		for l := 0; l < NumLevels; l++ {
			for e := 0; e < NumEles; e++ {
				u = append(u, U(t, l, e))
				v = append(v, -U(t, l, e))
			}
		}
		for n := 0; n < NumNodes; n++ {
			un = append(un, UNode(t, n))
			vn = append(vn, -UNode(t, n))
		}
	}
	d.Vars = []Var{
		{Name: "lon", Type: "Float32", Dims: []string{"node"}, Data: lon,
			Attrs: map[string]string{"long_name": "nodal longitude", "units": "degrees_east"}},
		{Name: "lat", Type: "Float32", Dims: []string{"node"}, Data: lat,
			Attrs: map[string]string{"long_name": "nodal latitude", "units": "degrees_north"}},
		{Name: "nv", Type: "Int32", Dims: []string{"three", "nele"}, Data: nvData,
			Attrs: map[string]string{"long_name": "nodes surrounding element"}},
		{Name: "nbe", Type: "Int32", Dims: []string{"three", "nele"}, Data: nbeData,
			Attrs: map[string]string{"long_name": "elements surrounding each element"}},
		{Name: "time", Type: "Float32", Dims: []string{"time"}, Data: []float64{0, 0.25},
			Attrs: map[string]string{"long_name": "time", "units": TimeUnits}},
		{Name: "u", Type: "Float32", Dims: []string{"time", "siglay", "nele"}, Data: u,
			Attrs: map[string]string{"long_name": "Eastward Water Velocity", "units": "meters s-1"}},
		{Name: "v", Type: "Float32", Dims: []string{"time", "siglay", "nele"}, Data: v,
			Attrs: map[string]string{"long_name": "Northward Water Velocity", "units": "meters s-1"}},
		{Name: "uwind", Type: "Float32", Dims: []string{"time", "node"}, Data: un},
		{Name: "vwind", Type: "Float32", Dims: []string{"time", "node"}, Data: vn},
	}
	return d
}

// Var returns the variable named name, or nil.
func (d *Dataset) Var(name string) *Var {
	for i := range d.Vars {
		if d.Vars[i].Name == name {
			return &d.Vars[i]
		}
	}
	return nil
}

func (d *Dataset) length(dim string) int {
	for i, n := range d.Dims {
		if n == dim {
			return d.Lengths[i]
		}
	}
	panic("testgrid: no dimension " + dim)
}

func (d *Dataset) shape(v *Var) []int {
	s := make([]int, len(v.Dims))
	for i, dim := range v.Dims {
		s[i] = d.length(dim)
	}
	return s
}

func zeroOf(typ string) interface{} {
	switch typ {
	case "Int32":
		return []int32{0}
	case "Float32":
		return []float32{0}
	case "Float64":
		return []float64{0}
	}
	panic("testgrid: invalid type " + typ)
}

func convert(typ string, data []float64) interface{} {
	switch typ {
	case "Int32":
		o := make([]int32, len(data))
		for i, x := range data {
			o[i] = int32(x)
		}
		return o
	case "Float32":
		o := make([]float32, len(data))
		for i, x := range data {
			o[i] = float32(x)
		}
		return o
	case "Float64":
		return data
	}
	panic("testgrid: invalid type " + typ)
}

// WriteNetCDF writes d to path as a NetCDF classic file.
func (d *Dataset) WriteNetCDF(path string) error {
	lengths := make([]int, len(d.Lengths))
	copy(lengths, d.Lengths)
	lengths[0] = 0 // record dimension
	h := cdf.NewHeader(d.Dims, lengths)
	for k, v := range d.Global {
		h.AddAttribute("", k, v)
	}
	// Non-record variables first, so that the record variables are
	// written in one pass.
	vars := make([]Var, len(d.Vars))
	copy(vars, d.Vars)
	sort.SliceStable(vars, func(i, j int) bool {
		return vars[i].Dims[0] != d.Dims[0] && vars[j].Dims[0] == d.Dims[0]
	})
	for _, v := range vars {
		h.AddVariable(v.Name, v.Dims, zeroOf(v.Type))
		for k, a := range v.Attrs {
			h.AddAttribute(v.Name, k, a)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return errs[0]
	}
	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return err
	}
	for _, v := range vars {
		var w cdf.Writer
		if v.Dims[0] == d.Dims[0] {
			w = f.Writer(v.Name, nil, nil)
		} else {
			end := f.Header.Lengths(v.Name)
			w = f.Writer(v.Name, make([]int, len(end)), end)
		}
		if _, err := w.Write(convert(v.Type, v.Data)); err != nil {
			ff.Close()
			return fmt.Errorf("testgrid: writing %s: %v", v.Name, err)
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return err
	}
	return ff.Close()
}

// DDS returns the dataset descriptor structure of d.
func (d *Dataset) DDS() string {
	var b strings.Builder
	b.WriteString("Dataset {\n")
	for i := range d.Vars {
		v := &d.Vars[i]
		b.WriteString("    " + declaration(v.Type, v.Name, v.Dims, d.shape(v)) + "\n")
	}
	fmt.Fprintf(&b, "} %s;\n", d.Name)
	return b.String()
}

func declaration(typ, name string, dims []string, shape []int) string {
	s := typ + " " + name
	for i := range dims {
		s += fmt.Sprintf("[%s = %d]", dims[i], shape[i])
	}
	return s + ";"
}

func quote(s string) string {
	return `"` + strings.Replace(strings.Replace(s, `\`, `\\`, -1), `"`, `\"`, -1) + `"`
}

func sortedKeys(m map[string]string) []string {
	var k []string
	for kk := range m {
		k = append(k, kk)
	}
	sort.Strings(k)
	return k
}

// DAS returns the dataset attribute structure of d.
func (d *Dataset) DAS() string {
	var b strings.Builder
	b.WriteString("Attributes {\n")
	for _, v := range d.Vars {
		fmt.Fprintf(&b, "    %s {\n", v.Name)
		for _, k := range sortedKeys(v.Attrs) {
			fmt.Fprintf(&b, "        String %s %s;\n", k, quote(v.Attrs[k]))
		}
		if v.Type != "Int32" {
			fmt.Fprintf(&b, "        %s _FillValue -999.0;\n", v.Type)
		}
		b.WriteString("    }\n")
	}
	b.WriteString("    NC_GLOBAL {\n")
	for _, k := range sortedKeys(d.Global) {
		fmt.Fprintf(&b, "        String %s %s;\n", k, quote(d.Global[k]))
	}
	b.WriteString("    }\n")
	b.WriteString("    DODS_EXTRA {\n        String Unlimited_Dimension \"time\";\n    }\n")
	b.WriteString("}\n")
	return b.String()
}

// parseConstraint parses "name[a:s:b][a:s:b]...".
func parseConstraint(ce string) (string, [][3]int, error) {
	i := strings.IndexByte(ce, '[')
	if i < 0 {
		return ce, nil, nil
	}
	name := ce[:i]
	var ranges [][3]int
	for _, part := range strings.Split(strings.TrimSuffix(ce[i+1:], "]"), "][") {
		f := strings.Split(part, ":")
		if len(f) != 3 {
			return "", nil, fmt.Errorf("invalid hyperslab %q", part)
		}
		var r [3]int
		for j := range f {
			x, err := strconv.Atoi(f[j])
			if err != nil {
				return "", nil, err
			}
			r[j] = x
		}
		ranges = append(ranges, r)
	}
	return name, ranges, nil
}

// DODS returns the .dods response for constraint expression ce.
func (d *Dataset) DODS(ce string) ([]byte, error) {
	name, ranges, err := parseConstraint(ce)
	if err != nil {
		return nil, err
	}
	v := d.Var(name)
	if v == nil {
		return nil, fmt.Errorf("no variable %s", name)
	}
	shape := d.shape(v)
	if ranges == nil {
		for _, s := range shape {
			ranges = append(ranges, [3]int{0, 1, s - 1})
		}
	}
	if len(ranges) != len(shape) {
		return nil, fmt.Errorf("%s has %d dimensions", name, len(shape))
	}
	count := make([]int, len(shape))
	n := 1
	for i, r := range ranges {
		if r[0] < 0 || r[2] >= shape[i] || r[2] < r[0] || r[1] < 1 {
			return nil, fmt.Errorf("invalid range %v for dimension of length %d", r, shape[i])
		}
		count[i] = (r[2]-r[0])/r[1] + 1
		n *= count[i]
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Dataset {\n    %s\n} %s;\nData:\n", declaration(v.Type, v.Name, v.Dims, count), d.Name)
	binary.Write(&buf, binary.BigEndian, uint32(n))
	binary.Write(&buf, binary.BigEndian, uint32(n))
	idx := make([]int, len(shape))
	for k := 0; k < n; k++ {
		rem := k
		for i := len(shape) - 1; i >= 0; i-- {
			idx[i] = ranges[i][0] + (rem%count[i])*ranges[i][1]
			rem /= count[i]
		}
		flat := 0
		for i := range shape {
			flat = flat*shape[i] + idx[i]
		}
		x := v.Data[flat]
		switch v.Type {
		case "Int32":
			binary.Write(&buf, binary.BigEndian, int32(x))
		case "Float32":
			binary.Write(&buf, binary.BigEndian, math.Float32bits(float32(x)))
		case "Float64":
			binary.Write(&buf, binary.BigEndian, math.Float64bits(x))
		}
	}
	return buf.Bytes(), nil
}

// Handler serves d as a DAP2 dataset at path. Responses are gzipped
// when the client accepts it.
func (d *Dataset) Handler(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		switch r.URL.Path {
		case path + ".dds":
			body = []byte(d.DDS())
		case path + ".das":
			body = []byte(d.DAS())
		case path + ".dods":
			ce, err := url.QueryUnescape(r.URL.RawQuery)
			if err == nil {
				body, err = d.DODS(ce)
			}
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, "Error {\n    code = 1001;\n    message = %q;\n};\n", err.Error())
				return
			}
		default:
			http.NotFound(w, r)
			return
		}
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			gz.Write(body)
			gz.Close()
			return
		}
		w.Write(body)
	})
}
