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

package hash

import "testing"

type box struct {
	North, South, West, East float64
}

func TestHash(t *testing.T) {
	a := Hash(box{29.7, 28.1, -96.9, -94.1})
	if len(a) != 16 {
		t.Errorf("key %q should have 16 hex digits", a)
	}
	if b := Hash(box{29.7, 28.1, -96.9, -94.1}); a != b {
		t.Errorf("equal values give different keys: %s != %s", a, b)
	}
	if b := Hash(box{29.7, 28.2, -96.9, -94.1}); a == b {
		t.Errorf("different values give the same key %s", a)
	}
}

func TestHashFallback(t *testing.T) {
	type other struct{ X int }
	type withFunc struct{ F func() }
	tests := []struct {
		name string
		a, b interface{}
	}{
		{name: "nil pointer", a: (*box)(nil), b: (*other)(nil)},
		{name: "func field", a: withFunc{}, b: struct{ G func() }{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := Hash(test.a)
			if len(a) != 16 {
				t.Errorf("key %q should have 16 hex digits", a)
			}
			if b := Hash(test.a); a != b {
				t.Errorf("equal values give different keys: %s != %s", a, b)
			}
			if b := Hash(test.b); a == b {
				t.Errorf("different types give the same key %s", a)
			}
		})
	}
}
