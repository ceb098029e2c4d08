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
	"encoding/json"
	"fmt"
	"io"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
)

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// WriteGeoJSON writes the boundary to w as a GeoJSON FeatureCollection
// with one LineString per segment. lon and lat are the locations of the
// nodes the segments refer to.
func (b Boundary) WriteGeoJSON(w io.Writer, lon, lat []float64) error {
	fc := geoJSONCollection{Type: "FeatureCollection", Features: make([]geoJSONFeature, len(b))}
	for i, s := range b {
		if s.N1 >= len(lon) || s.N2 >= len(lon) || len(lon) != len(lat) {
			return fmt.Errorf("ugrid: writing boundary GeoJSON: segment %d-%d has no location", s.N1+1, s.N2+1)
		}
		g, err := geojson.ToGeoJSON(geom.LineString{
			{X: lon[s.N1], Y: lat[s.N1]},
			{X: lon[s.N2], Y: lat[s.N2]},
		})
		if err != nil {
			return fmt.Errorf("ugrid: writing boundary GeoJSON: %w", err)
		}
		fc.Features[i] = geoJSONFeature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]interface{}{
				"n1":   s.N1 + 1,
				"n2":   s.N2 + 1,
				"loop": s.Loop,
				"type": s.Type.String(),
			},
		}
	}
	e := json.NewEncoder(w)
	if err := e.Encode(fc); err != nil {
		return fmt.Errorf("ugrid: writing boundary GeoJSON: %w", err)
	}
	return nil
}
