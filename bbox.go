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
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/go-playground/validator/v10"
	"github.com/spatialmodel/ugrid/internal/hash"
)

// BBox is a latitude/longitude bounding box.
type BBox struct {
	North float64 `toml:"north" validate:"gte=-90,lte=90,gtfield=South"`
	South float64 `toml:"south" validate:"gte=-90,lte=90"`
	West  float64 `toml:"west" validate:"gte=-360,lte=360"`
	East  float64 `toml:"east" validate:"gte=-360,lte=360,gtfield=West"`
}

// Validate checks that the box is non-empty and within valid
// coordinate ranges.
func (b BBox) Validate() error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("ugrid: validating bounding box: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "gtfield":
			msgs[i] = fmt.Sprintf("%s (%v) must be greater than %s", fe.Field(), fe.Value(), strings.ToLower(fe.Param()))
		default:
			msgs[i] = fmt.Sprintf("%s (%v) fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
		}
	}
	return fmt.Errorf("ugrid: invalid bounding box: %s", strings.Join(msgs, "; "))
}

// Bounds returns the box as geometry bounds, with X as longitude and Y
// as latitude.
func (b BBox) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.West, Y: b.South},
		Max: geom.Point{X: b.East, Y: b.North},
	}
}

// Key returns a string that identifies the box, for checking whether a
// stored boundary file was generated for it.
func (b BBox) Key() string {
	return hash.Hash([4]float64{b.North, b.South, b.West, b.East})
}

func (b BBox) String() string {
	return fmt.Sprintf("N%g S%g W%g E%g", b.North, b.South, b.West, b.East)
}
