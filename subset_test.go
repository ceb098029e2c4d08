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
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

// quadrant is the lower-left quadrant of the test grid.
var quadrant = BBox{North: 1, South: -0.1, West: -0.1, East: 1}

func TestFindNodesElesInSubset(t *testing.T) {
	ds := openTestGrid(t)

	tests := []struct {
		name string
		b    BBox
		want *Subset
	}{
		{
			name: "centre node",
			b:    BBox{North: 1.5, South: 0.5, West: 0.5, East: 1.5},
			want: &Subset{Nodes: []int{4}, NBE: [][3]int{}},
		},
		{
			name: "quadrant",
			b:    quadrant,
			want: &Subset{
				Nodes: []int{0, 1, 3, 4},
				Eles:  []int{0, 1},
				NV:    [][3]int{{0, 2, 3}, {0, 3, 1}},
				NBE:   [][3]int{{-1, 1, -1}, {-1, -1, 0}},
			},
		},
		{
			name: "whole grid",
			b:    BBox{North: 2, South: 0, West: 0, East: 2},
			want: &Subset{
				Nodes: []int{0, 1, 2, 3, 4, 5, 6, 7, 8},
				Eles:  []int{0, 1, 2, 3, 4, 5, 6, 7},
				NV:    ds.NV,
				NBE:   ds.NBE,
			},
		},
		{
			name: "outside",
			b:    BBox{North: 10, South: 5, West: 5, East: 10},
			want: &Subset{NBE: [][3]int{}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ss, err := ds.FindNodesElesInSubset(test.b)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ss, test.want) {
				t.Errorf("have %v, want %v: %v", ss, test.want, pretty.Diff(ss, test.want))
			}
			again, err := ds.FindNodesElesInSubset(test.b)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ss, again) {
				t.Error("subset is not idempotent")
			}
			for i, e := range ss.Eles {
				for j, n := range ds.NV[e] {
					if ss.Nodes[ss.NV[i][j]] != n {
						t.Errorf("element %d node %d is not in subset", e, n)
					}
				}
			}
		})
	}
}
