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

// Package hash creates stable keys for configuration values, so that
// files generated from one configuration can be recognized later.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a hex key for object. Equal values give equal keys
// across runs.
func Hash(object interface{}) string {
	h := fnv.New64a()
	if err := encode(h, object); err != nil {
		// gob rejects some values, such as structs with only func
		// fields or nil pointers, so fall back to a deterministic dump.
		h.Reset()
		printer := spew.ConfigState{
			Indent:                  " ",
			SortKeys:                true,
			DisableMethods:          true,
			SpewKeys:                true,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
		}
		printer.Fprintf(h, "%#v", object)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// encode gob-encodes object to w. gob panics rather than returning an
// error for some values, so panics are returned as errors.
func encode(w io.Writer, object interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hash: %v", r)
		}
	}()
	return gob.NewEncoder(w).Encode(object)
}
