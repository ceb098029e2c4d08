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
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"github.com/spatialmodel/ugrid/internal/testgrid"
)

func testGridPoints() []geom.Point {
	pts := make([]geom.Point, testgrid.NumNodes)
	for i := range pts {
		pts[i] = geom.Point{X: float64(i % 3), Y: float64(i / 3)}
	}
	return pts
}

// quadrantBoundary is the boundary of the lower-left quadrant after
// matching against testgrid.FullBoundary.
var quadrantBoundary = Boundary{
	{N1: 0, N2: 2, Loop: 1, Type: Land},
	{N1: 2, N2: 3, Loop: 1, Type: OpenWater},
	{N1: 3, N2: 1, Loop: 1, Type: OpenWater},
	{N1: 1, N2: 0, Loop: 1, Type: OpenWater},
}

func TestFindBoundary(t *testing.T) {
	t.Run("full grid", func(t *testing.T) {
		b, err := FindBoundary(testgrid.NV(), testGridPoints())
		if err != nil {
			t.Fatal(err)
		}
		full, _, err := ReadBoundary(strings.NewReader(testgrid.FullBoundary))
		if err != nil {
			t.Fatal(err)
		}
		for i := range full {
			full[i].Type = Land
		}
		if !reflect.DeepEqual(b, full) {
			t.Errorf("have %v, want %v", b, full)
		}
	})
	t.Run("quadrant", func(t *testing.T) {
		pts := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
		b, err := FindBoundary([][3]int{{0, 2, 3}, {0, 3, 1}}, pts)
		if err != nil {
			t.Fatal(err)
		}
		want := Boundary{{0, 2, 1, Land}, {2, 3, 1, Land}, {3, 1, 1, Land}, {1, 0, 1, Land}}
		if !reflect.DeepEqual(b, want) {
			t.Errorf("have %v, want %v", b, want)
		}
	})
	t.Run("island order", func(t *testing.T) {
		pts := []geom.Point{
			{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 0},
			{X: 20, Y: 20}, {X: 20, Y: 21}, {X: 21, Y: 20},
		}
		b, err := FindBoundary([][3]int{{3, 4, 5}, {0, 1, 2}}, pts)
		if err != nil {
			t.Fatal(err)
		}
		want := Boundary{
			{0, 1, 1, Land}, {1, 2, 1, Land}, {2, 0, 1, Land},
			{3, 4, 2, Land}, {4, 5, 2, Land}, {5, 3, 2, Land},
		}
		if !reflect.DeepEqual(b, want) {
			t.Errorf("have %v, want %v", b, want)
		}
		if b.Loops() != 2 {
			t.Errorf("%d loops", b.Loops())
		}
	})
	t.Run("empty", func(t *testing.T) {
		b, err := FindBoundary(nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != 0 {
			t.Errorf("have %v", b)
		}
	})
}

func TestRemap(t *testing.T) {
	full, _, err := ReadBoundary(strings.NewReader(testgrid.FullBoundary))
	if err != nil {
		t.Fatal(err)
	}
	sub := Boundary{{0, 2, 1, Land}, {2, 3, 1, Land}, {3, 1, 1, Land}, {1, 0, 1, Land}}
	b, err := Remap(full, sub, []int{0, 1, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b, quadrantBoundary) {
		t.Errorf("have %v, want %v: %v", b, quadrantBoundary, pretty.Diff(b, quadrantBoundary))
	}
	if _, err := Remap(full, Boundary{{0, 9, 1, Land}}, []int{0, 1}); err == nil {
		t.Error("segment outside of subset should fail")
	}
}

func TestBoundaryFile(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBoundary(&buf, quadrantBoundary, "abc"); err != nil {
		t.Fatal(err)
	}
	want := "# bbox abc\n1 3 1 0\n3 4 1 1\n4 2 1 1\n2 1 1 1\n"
	if buf.String() != want {
		t.Errorf("have\n%s\nwant\n%s", buf.String(), want)
	}
	b, key, err := ReadBoundary(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if key != "abc" || !reflect.DeepEqual(b, quadrantBoundary) {
		t.Errorf("read back %v %q", b, key)
	}

	t.Run("short lines", func(t *testing.T) {
		b, key, err := ReadBoundary(strings.NewReader("# comment\n\n1 2\n2 3 4\n"))
		if err != nil {
			t.Fatal(err)
		}
		want := Boundary{{0, 1, 1, Land}, {1, 2, 4, Land}}
		if key != "" || !reflect.DeepEqual(b, want) {
			t.Errorf("have %v %q, want %v", b, key, want)
		}
	})
	for _, bad := range []string{"1\n", "1 2 3 4 5\n", "0 1 1 0\n", "1 2 1 7\n", "a b\n"} {
		if _, _, err := ReadBoundary(strings.NewReader(bad)); err == nil {
			t.Errorf("%q should fail", bad)
		}
	}
}

func TestResolveBoundary(t *testing.T) {
	ds := openTestGrid(t)
	ss, err := ds.FindNodesElesInSubset(quadrant)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	fullFile := filepath.Join(dir, "test.bry")
	subFile := filepath.Join(dir, "test_q.bry")

	t.Run("no full boundary", func(t *testing.T) {
		_, _, err := ResolveBoundary(subFile, fullFile, ds, ss, quadrant)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("have %v, want not exist", err)
		}
	})

	if err := ioutil.WriteFile(fullFile, []byte(testgrid.FullBoundary), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("missing", func(t *testing.T) {
		if s, err := CheckBoundaryFile(subFile, quadrant); err != nil || s != Missing {
			t.Fatalf("status %v, %v", s, err)
		}
		b, s, err := ResolveBoundary(subFile, fullFile, ds, ss, quadrant)
		if err != nil {
			t.Fatal(err)
		}
		if s != Missing {
			t.Errorf("status %v", s)
		}
		if !reflect.DeepEqual(b, quadrantBoundary) {
			t.Errorf("have %v, want %v", b, quadrantBoundary)
		}
		if s, err := CheckBoundaryFile(subFile, quadrant); err != nil || s != Found {
			t.Errorf("after creation: status %v, %v", s, err)
		}
	})

	t.Run("found", func(t *testing.T) {
		before, err := ioutil.ReadFile(subFile)
		if err != nil {
			t.Fatal(err)
		}
		b, s, err := ResolveBoundary(subFile, fullFile, ds, ss, quadrant)
		if err != nil {
			t.Fatal(err)
		}
		if s != Found {
			t.Errorf("status %v", s)
		}
		if !reflect.DeepEqual(b, quadrantBoundary) {
			t.Errorf("have %v, want %v", b, quadrantBoundary)
		}
		after, err := ioutil.ReadFile(subFile)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(before, after) {
			t.Error("found boundary file was rewritten")
		}
	})

	t.Run("stale", func(t *testing.T) {
		moved := quadrant
		moved.West = -0.2
		if s, err := CheckBoundaryFile(subFile, moved); err != nil || s != Stale {
			t.Fatalf("status %v, %v", s, err)
		}
		b, s, err := ResolveBoundary(subFile, fullFile, ds, ss, moved)
		if err != nil {
			t.Fatal(err)
		}
		if s != Stale {
			t.Errorf("status %v", s)
		}
		if !reflect.DeepEqual(b, quadrantBoundary) {
			t.Errorf("have %v, want %v", b, quadrantBoundary)
		}
		if s, err := CheckBoundaryFile(subFile, moved); err != nil || s != Found {
			t.Errorf("after regeneration: status %v, %v", s, err)
		}
	})

	t.Run("wrong subset", func(t *testing.T) {
		f := filepath.Join(dir, "big.bry")
		if err := WriteBoundaryFile(f, Boundary{{0, 8, 1, Land}}, ""); err != nil {
			t.Fatal(err)
		}
		if _, _, err := ResolveBoundary(f, fullFile, ds, ss, quadrant); err == nil {
			t.Error("boundary with nodes outside of the subset should fail")
		}
	})
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	b := Boundary{{0, 1, 1, OpenWater}}
	if err := b.WriteGeoJSON(&buf, []float64{-95, -94.5}, []float64{29, 29.5}); err != nil {
		t.Fatal(err)
	}
	want := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[-95,29],[-94.5,29.5]]},"properties":{"loop":1,"n1":1,"n2":2,"type":"open"}}]}` + "\n"
	if buf.String() != want {
		t.Errorf("have %s\nwant %s", buf.String(), want)
	}
	if err := b.WriteGeoJSON(&buf, []float64{0}, []float64{0}); err == nil {
		t.Error("segment without location should fail")
	}
}

func TestBoundaryType(t *testing.T) {
	for typ, want := range map[BoundaryType]string{
		Land:            "land",
		OpenWater:       "open",
		BoundaryType(5): "BoundaryType(5)",
	} {
		if have := typ.String(); have != want {
			t.Errorf("have %s, want %s", have, want)
		}
	}
	b, _, err := ReadBoundary(strings.NewReader("1 2 1 1\n2 3 1 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if b[0].Type != OpenWater || b[1].Type != Land {
		t.Errorf("types %v, %v", b[0].Type, b[1].Type)
	}
}
