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
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// VarMap maps the canonical variable names used by this package to the
// names of the corresponding variables in a model dataset.
type VarMap struct {
	Longitude           string `toml:"longitude" validate:"required"`
	Latitude            string `toml:"latitude" validate:"required"`
	Time                string `toml:"time" validate:"required"`
	UVelocity           string `toml:"u_velocity" validate:"required"`
	VVelocity           string `toml:"v_velocity" validate:"required"`
	NodesSurroundingEle string `toml:"nodes_surrounding_ele" validate:"required"`
	ElesSurroundingEle  string `toml:"eles_surrounding_ele" validate:"required"`
}

var validate = newValidator()

// newValidator returns a validator that reports fields by their
// canonical (toml) names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns an error listing every canonical name that is not
// mapped to a dataset variable.
func (vm VarMap) Validate() error {
	err := validate.Struct(vm)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("ugrid: validating variable map: %w", err)
	}
	missing := make([]string, len(verrs))
	for i, fe := range verrs {
		missing[i] = fe.Field()
	}
	return fmt.Errorf("ugrid: variable map has no entry for: %s", strings.Join(missing, ", "))
}

// Winding is the rotational direction in which the nodes of a mesh
// element are listed.
type Winding int

const (
	// Clockwise winding, as used by FVCOM.
	Clockwise Winding = iota
	// CounterClockwise winding, as used by SELFE and ADCIRC.
	CounterClockwise
)

func (w Winding) String() string {
	switch w {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return fmt.Sprintf("Winding(%d)", int(w))
	}
}

// ParseWinding parses "cw" or "ccw".
func ParseWinding(s string) (Winding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cw", "clockwise":
		return Clockwise, nil
	case "ccw", "counterclockwise", "counter-clockwise":
		return CounterClockwise, nil
	}
	return 0, fmt.Errorf("ugrid: invalid winding order %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Winding) UnmarshalText(b []byte) error {
	ww, err := ParseWinding(string(b))
	if err != nil {
		return err
	}
	*w = ww
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (w Winding) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// Profile holds the static per-model-family information needed to read
// a dataset.
type Profile struct {
	Name    string  `toml:"-"`
	Vars    VarMap  `toml:"vars"`
	Winding Winding `toml:"winding"`
}

// Profiles holds the built-in model profiles, keyed by model family.
var Profiles = map[string]Profile{
	"FVCOM": {
		Name: "FVCOM",
		Vars: VarMap{
			Longitude:           "lon",
			Latitude:            "lat",
			Time:                "time",
			UVelocity:           "u",
			VVelocity:           "v",
			NodesSurroundingEle: "nv",
			ElesSurroundingEle:  "nbe",
		},
		Winding: Clockwise,
	},
	"SELFE": {
		Name: "SELFE",
		Vars: VarMap{
			Longitude:           "lon",
			Latitude:            "lat",
			Time:                "time",
			UVelocity:           "u",
			VVelocity:           "v",
			NodesSurroundingEle: "ele",
			ElesSurroundingEle:  "nbe",
		},
		Winding: CounterClockwise,
	},
}

// LoadProfiles reads model profiles from TOML in the form:
//
//	[profile.NAME]
//	winding = "cw"
//	[profile.NAME.vars]
//	longitude = "lon"
//	...
func LoadProfiles(r io.Reader) (map[string]Profile, error) {
	var f struct {
		Profile map[string]Profile `toml:"profile"`
	}
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("ugrid: reading model profiles: %w", err)
	}
	for name, p := range f.Profile {
		p.Name = name
		if err := p.Vars.Validate(); err != nil {
			return nil, fmt.Errorf("ugrid: model profile %s: %w", name, err)
		}
		f.Profile[name] = p
	}
	return f.Profile, nil
}

// LookupProfile returns the named profile from extra, or from the
// built-in Profiles if extra does not have it.
func LookupProfile(name string, extra map[string]Profile) (Profile, error) {
	if p, ok := extra[name]; ok {
		return p, nil
	}
	if p, ok := Profiles[name]; ok {
		return p, nil
	}
	var names []string
	for n := range Profiles {
		names = append(names, n)
	}
	for n := range extra {
		names = append(names, n)
	}
	sort.Strings(names)
	return Profile{}, fmt.Errorf("ugrid: unknown model %q; available models are %s",
		name, strings.Join(names, ", "))
}
