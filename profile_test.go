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

func TestVarMapValidate(t *testing.T) {
	if err := Profiles["FVCOM"].Vars.Validate(); err != nil {
		t.Errorf("FVCOM variable map: %v", err)
	}
	vm := Profiles["FVCOM"].Vars
	vm.UVelocity = ""
	vm.ElesSurroundingEle = ""
	err := vm.Validate()
	if err == nil {
		t.Fatal("incomplete variable map should fail")
	}
	for _, name := range []string{"u_velocity", "eles_surrounding_ele"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
	if strings.Contains(err.Error(), "longitude") {
		t.Errorf("error %q names a mapped variable", err)
	}
}

func TestWinding(t *testing.T) {
	if Profiles["FVCOM"].Winding != Clockwise {
		t.Error("FVCOM should be clockwise")
	}
	if Profiles["SELFE"].Winding != CounterClockwise {
		t.Error("SELFE should be counter-clockwise")
	}
	for s, want := range map[string]Winding{"cw": Clockwise, "CCW": CounterClockwise, "counterclockwise": CounterClockwise} {
		w, err := ParseWinding(s)
		if err != nil {
			t.Fatal(err)
		}
		if w != want {
			t.Errorf("ParseWinding(%q) = %v, want %v", s, w, want)
		}
	}
	if _, err := ParseWinding("sideways"); err == nil {
		t.Error("invalid winding should fail")
	}
	if Clockwise.String() != "cw" || CounterClockwise.String() != "ccw" {
		t.Errorf("winding strings: %s, %s", Clockwise, CounterClockwise)
	}
}

func TestLoadProfiles(t *testing.T) {
	const profiles = `
[profile.ADCIRC]
winding = "ccw"
[profile.ADCIRC.vars]
longitude = "x"
latitude = "y"
time = "time"
u_velocity = "u-vel"
v_velocity = "v-vel"
nodes_surrounding_ele = "element"
eles_surrounding_ele = "nbe"
`
	p, err := LoadProfiles(strings.NewReader(profiles))
	if err != nil {
		t.Fatal(err)
	}
	adcirc, err := LookupProfile("ADCIRC", p)
	if err != nil {
		t.Fatal(err)
	}
	if adcirc.Name != "ADCIRC" || adcirc.Winding != CounterClockwise || adcirc.Vars.UVelocity != "u-vel" {
		t.Errorf("unexpected profile %+v", adcirc)
	}
	fvcom, err := LookupProfile("FVCOM", p)
	if err != nil {
		t.Fatal(err)
	}
	if fvcom.Vars.NodesSurroundingEle != "nv" {
		t.Errorf("unexpected FVCOM profile %+v", fvcom)
	}
	if _, err := LookupProfile("ROMS", p); err == nil || !strings.Contains(err.Error(), "ADCIRC") {
		t.Errorf("unknown model error should list available models: %v", err)
	}

	t.Run("incomplete", func(t *testing.T) {
		_, err := LoadProfiles(strings.NewReader(`
[profile.BAD.vars]
longitude = "lon"
`))
		if err == nil || !strings.Contains(err.Error(), "latitude") {
			t.Errorf("incomplete profile should fail naming missing variables: %v", err)
		}
	})
}
