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

// Package ugrid retrieves unstructured-grid ocean model output, subsets
// it to a bounding box, derives the subset boundary, and writes grid files
// that can be read by the GNOME particle tracking model.
package ugrid

import "errors"

// Version gives the version number.
const Version = "0.3.0"

// ErrMissingVariable is returned when a mapped variable is not present
// in a dataset.
var ErrMissingVariable = errors.New("ugrid: variable not found")
