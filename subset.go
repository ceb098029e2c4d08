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
	"errors"

	"github.com/ctessum/geom"
)

// Subset is the part of a grid that falls within a bounding box.
type Subset struct {
	// Nodes and Eles are the full-grid indices of the nodes and
	// elements in the subset, in ascending order.
	Nodes, Eles []int

	// NV and NBE are the connectivity of the subset, numbered by
	// position in Nodes and Eles. NBE is -1 where the neighbour is
	// outside of the subset.
	NV, NBE [][3]int
}

// FindNodesElesInSubset returns the nodes within b (edges included)
// and the elements whose nodes are all within b.
func (d *Dataset) FindNodesElesInSubset(b BBox) (*Subset, error) {
	if len(d.Lon) == 0 {
		return nil, errors.New("ugrid: finding subset: grid coordinates have not been loaded")
	}
	if d.NV == nil {
		return nil, errors.New("ugrid: finding subset: grid topology has not been loaded")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	bounds := b.Bounds()

	s := new(Subset)
	nodeIndex := make(map[int]int)
	for i := range d.Lon {
		if bounds.Overlaps(geom.NewBoundsPoint(geom.Point{X: d.Lon[i], Y: d.Lat[i]})) {
			nodeIndex[i] = len(s.Nodes)
			s.Nodes = append(s.Nodes, i)
		}
	}

	eleIndex := make(map[int]int)
	for i, e := range d.NV {
		var nv [3]int
		in := true
		for j, n := range e {
			k, ok := nodeIndex[n]
			if !ok {
				in = false
				break
			}
			nv[j] = k
		}
		if in {
			eleIndex[i] = len(s.Eles)
			s.Eles = append(s.Eles, i)
			s.NV = append(s.NV, nv)
		}
	}

	s.NBE = make([][3]int, len(s.Eles))
	for k, i := range s.Eles {
		for j := 0; j < 3; j++ {
			s.NBE[k][j] = -1
			if i < len(d.NBE) {
				if kk, ok := eleIndex[d.NBE[i][j]]; ok {
					s.NBE[k][j] = kk
				}
			}
		}
	}
	return s, nil
}
