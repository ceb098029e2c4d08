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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// BoundaryType is the kind of a boundary segment.
type BoundaryType int

const (
	// Land segments are closed coastline.
	Land BoundaryType = iota
	// OpenWater segments are water boundaries where flow can cross.
	OpenWater
)

func (t BoundaryType) String() string {
	switch t {
	case Land:
		return "land"
	case OpenWater:
		return "open"
	default:
		return fmt.Sprintf("BoundaryType(%d)", int(t))
	}
}

// Segment is one edge of a grid boundary. N1 and N2 are 0-based node
// indices and Loop is the 1-based number of the boundary loop the
// segment belongs to.
type Segment struct {
	N1, N2 int
	Loop   int
	Type   BoundaryType
}

// Boundary is an ordered list of boundary segments.
type Boundary []Segment

type edge struct{ a, b int }

func undirected(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// FindBoundary returns the boundary of the mesh with connectivity nv and
// node locations pts. Boundary edges are the element edges that belong
// to exactly one element; they are chained in element node order into
// closed loops. The loop with the largest extent comes first. All
// segments are marked Land.
func FindBoundary(nv [][3]int, pts []geom.Point) (Boundary, error) {
	count := make(map[edge]int)
	for _, e := range nv {
		for j := 0; j < 3; j++ {
			count[undirected(e[j], e[(j+1)%3])]++
		}
	}

	var edges []edge
	next := make(map[int][]int)
	for _, e := range nv {
		for j := 0; j < 3; j++ {
			a, b := e[j], e[(j+1)%3]
			if count[undirected(a, b)] == 1 {
				edges = append(edges, edge{a, b})
				next[a] = append(next[a], len(edges)-1)
			}
		}
	}

	used := make([]bool, len(edges))
	var loops [][]edge
	for i := range edges {
		if used[i] {
			continue
		}
		var loop []edge
		start := edges[i].a
		cur := i
		for {
			used[cur] = true
			loop = append(loop, edges[cur])
			end := edges[cur].b
			if end == start {
				break
			}
			cur = -1
			for _, k := range next[end] {
				if !used[k] {
					cur = k
					break
				}
			}
			if cur < 0 {
				return nil, fmt.Errorf("ugrid: boundary starting at node %d is not closed at node %d", start+1, end+1)
			}
		}
		loops = append(loops, loop)
	}

	extent := make([]float64, len(loops))
	for i, loop := range loops {
		ls := make(geom.LineString, 0, len(loop))
		for _, e := range loop {
			if e.a < 0 || e.a >= len(pts) {
				return nil, fmt.Errorf("ugrid: boundary node %d has no location", e.a+1)
			}
			ls = append(ls, pts[e.a])
		}
		b := ls.Bounds()
		extent[i] = (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y)
	}
	order := make([]int, len(loops))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return extent[order[i]] > extent[order[j]] })

	var bnd Boundary
	for n, i := range order {
		for _, e := range loops[i] {
			bnd = append(bnd, Segment{N1: e.a, N2: e.b, Loop: n + 1, Type: Land})
		}
	}
	return bnd, nil
}

// Remap sets the types of the segments in sub, a boundary of the subset
// with full-grid node indices nodes. A segment that is also a segment of
// full, the boundary of the full grid, takes its type; any other
// segment cuts through the grid and is OpenWater.
func Remap(full, sub Boundary, nodes []int) (Boundary, error) {
	types := make(map[edge]BoundaryType, len(full))
	for _, s := range full {
		types[undirected(s.N1, s.N2)] = s.Type
	}
	o := make(Boundary, len(sub))
	for i, s := range sub {
		if s.N1 < 0 || s.N1 >= len(nodes) || s.N2 < 0 || s.N2 >= len(nodes) {
			return nil, fmt.Errorf("ugrid: remapping boundary: segment %d-%d is outside of the subset", s.N1+1, s.N2+1)
		}
		o[i] = s
		if t, ok := types[undirected(nodes[s.N1], nodes[s.N2])]; ok {
			o[i].Type = t
		} else {
			o[i].Type = OpenWater
		}
	}
	return o, nil
}

// Loops returns the number of boundary loops.
func (b Boundary) Loops() int {
	n := 0
	for _, s := range b {
		if s.Loop > n {
			n = s.Loop
		}
	}
	return n
}

const bboxHeader = "# bbox "

// WriteBoundary writes b in boundary file format: one segment per line
// as "n1 n2 loop type" with 1-based nodes and type 0 for land and 1 for
// open water. If key is not empty it is recorded in a header line.
func WriteBoundary(w io.Writer, b Boundary, key string) error {
	bw := bufio.NewWriter(w)
	if key != "" {
		fmt.Fprintf(bw, "%s%s\n", bboxHeader, key)
	}
	for _, s := range b {
		fmt.Fprintf(bw, "%d %d %d %d\n", s.N1+1, s.N2+1, s.Loop, int(s.Type))
	}
	return bw.Flush()
}

// ReadBoundary reads a boundary in the format written by WriteBoundary
// and returns it along with the bounding box key, if any. The loop and
// type columns may be omitted, in which case they default to 1 and
// Land.
func ReadBoundary(r io.Reader) (Boundary, string, error) {
	var b Boundary
	var key string
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			continue
		}
		if strings.HasPrefix(txt, "#") {
			if strings.HasPrefix(txt, bboxHeader) {
				key = strings.TrimSpace(strings.TrimPrefix(txt, bboxHeader))
			}
			continue
		}
		f := strings.Fields(txt)
		if len(f) < 2 || len(f) > 4 {
			return nil, "", fmt.Errorf("ugrid: boundary line %d: want 2 to 4 columns but have %d", line, len(f))
		}
		v := []int{0, 0, 1, int(Land)}
		for i, ff := range f {
			x, err := strconv.Atoi(ff)
			if err != nil {
				return nil, "", fmt.Errorf("ugrid: boundary line %d: %w", line, err)
			}
			v[i] = x
		}
		if v[0] < 1 || v[1] < 1 {
			return nil, "", fmt.Errorf("ugrid: boundary line %d: node numbers start at 1", line)
		}
		if v[3] != int(Land) && v[3] != int(OpenWater) {
			return nil, "", fmt.Errorf("ugrid: boundary line %d: invalid segment type %d", line, v[3])
		}
		b = append(b, Segment{N1: v[0] - 1, N2: v[1] - 1, Loop: v[2], Type: BoundaryType(v[3])})
	}
	if err := s.Err(); err != nil {
		return nil, "", fmt.Errorf("ugrid: reading boundary: %w", err)
	}
	return b, key, nil
}

// WriteBoundaryFile writes b to the file at path.
func WriteBoundaryFile(path string, b Boundary, key string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ugrid: writing boundary file: %w", err)
	}
	if err := WriteBoundary(f, b, key); err != nil {
		f.Close()
		return fmt.Errorf("ugrid: writing boundary file %s: %w", path, err)
	}
	return f.Close()
}

// ReadBoundaryFile reads the boundary file at path. If the file does
// not exist the returned error wraps os.ErrNotExist.
func ReadBoundaryFile(path string) (Boundary, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("ugrid: reading boundary file: %w", err)
	}
	defer f.Close()
	b, key, err := ReadBoundary(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w (%s)", err, path)
	}
	return b, key, nil
}

// BoundaryStatus is the state of a subset boundary file.
type BoundaryStatus int

const (
	// Found means the file exists and matches the bounding box.
	Found BoundaryStatus = iota
	// Missing means the file does not exist.
	Missing
	// Stale means the file was written for a different bounding box.
	Stale
)

func (s BoundaryStatus) String() string {
	switch s {
	case Found:
		return "found"
	case Missing:
		return "missing"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("BoundaryStatus(%d)", int(s))
	}
}

// CheckBoundaryFile reports whether the subset boundary file at path
// can be used for bounding box b. A file without a bounding box header
// is assumed to match.
func CheckBoundaryFile(path string, b BBox) (BoundaryStatus, error) {
	_, key, err := ReadBoundaryFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Missing, nil
	} else if err != nil {
		return Missing, err
	}
	if key != "" && key != b.Key() {
		return Stale, nil
	}
	return Found, nil
}

// ResolveBoundary returns the boundary of subset ss of ds. If
// subsetFile holds a boundary for b it is used. Otherwise the boundary
// is derived from the subset and the full grid boundary in fullFile,
// written to subsetFile, and read back.
func ResolveBoundary(subsetFile, fullFile string, ds *Dataset, ss *Subset, b BBox) (Boundary, BoundaryStatus, error) {
	status, err := CheckBoundaryFile(subsetFile, b)
	if err != nil {
		return nil, status, err
	}
	if status != Found {
		full, _, err := ReadBoundaryFile(fullFile)
		if err != nil {
			return nil, status, fmt.Errorf("ugrid: full grid boundary: %w", err)
		}
		pts := make([]geom.Point, len(ss.Nodes))
		for i, n := range ss.Nodes {
			pts[i] = geom.Point{X: ds.Lon[n], Y: ds.Lat[n]}
		}
		sub, err := FindBoundary(ss.NV, pts)
		if err != nil {
			return nil, status, err
		}
		sub, err = Remap(full, sub, ss.Nodes)
		if err != nil {
			return nil, status, err
		}
		if err := WriteBoundaryFile(subsetFile, sub, b.Key()); err != nil {
			return nil, status, err
		}
	}
	bnd, _, err := ReadBoundaryFile(subsetFile)
	if err != nil {
		return nil, status, err
	}
	for _, s := range bnd {
		if s.N1 >= len(ss.Nodes) || s.N2 >= len(ss.Nodes) {
			return nil, status, fmt.Errorf("ugrid: boundary file %s refers to node %d but the subset has %d nodes",
				subsetFile, max(s.N1, s.N2)+1, len(ss.Nodes))
		}
	}
	return bnd, status, nil
}
