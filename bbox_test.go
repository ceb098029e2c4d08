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
	"strings"
	"testing"
)

func TestBBox(t *testing.T) {
	b := BBox{North: 29.7, South: 28.1, West: -96.9, East: -94.1}
	if err := b.Validate(); err != nil {
		t.Fatal(err)
	}
	bounds := b.Bounds()
	if bounds.Min.X != -96.9 || bounds.Max.X != -94.1 || bounds.Min.Y != 28.1 || bounds.Max.Y != 29.7 {
		t.Errorf("bounds %+v", bounds)
	}

	if b.Key() != b.Key() {
		t.Error("key should be stable")
	}
	b2 := b
	b2.North = 29.8
	if b.Key() == b2.Key() {
		t.Error("different boxes should have different keys")
	}

	tests := []struct {
		name string
		b    BBox
		msg  string
	}{
		{name: "inverted latitude", b: BBox{North: 28, South: 29, West: -96, East: -94}, msg: "north"},
		{name: "inverted longitude", b: BBox{North: 29, South: 28, West: -94, East: -96}, msg: "east"},
		{name: "latitude range", b: BBox{North: 95, South: 28, West: -96, East: -94}, msg: "north"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.b.Validate()
			if err == nil {
				t.Fatal("should fail")
			}
			if !strings.Contains(strings.ToLower(err.Error()), test.msg) {
				t.Errorf("error %q should mention %s", err, test.msg)
			}
		})
	}
}
