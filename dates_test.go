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
	"time"
)

func TestURLs(t *testing.T) {
	start := time.Date(2014, 3, 21, 0, 0, 0, 0, time.UTC)
	end := time.Date(2014, 3, 25, 0, 0, 0, 0, time.UTC)

	t.Run("ngofs", func(t *testing.T) {
		urls, err := URLs(start, end, DefaultStep, DefaultURLTemplate)
		if err != nil {
			t.Fatal(err)
		}
		if len(urls) != 16 {
			t.Errorf("have %d urls, want 16", len(urls))
		}
		want0 := "http://opendap.co-ops.nos.noaa.gov/thredds/dodsC/NOAA/NGOFS/MODELS/201403/nos.ngofs.fields.nowcast.20140321.t00z.nc"
		if urls[0] != want0 {
			t.Errorf("first url: have %s, want %s", urls[0], want0)
		}
		wantLast := "http://opendap.co-ops.nos.noaa.gov/thredds/dodsC/NOAA/NGOFS/MODELS/201403/nos.ngofs.fields.nowcast.20140324.t18z.nc"
		if urls[len(urls)-1] != wantLast {
			t.Errorf("last url: have %s, want %s", urls[len(urls)-1], wantLast)
		}
		for i := 1; i < len(urls); i++ {
			if urls[i] <= urls[i-1] {
				t.Errorf("urls not increasing: %s then %s", urls[i-1], urls[i])
			}
		}
	})

	t.Run("count", func(t *testing.T) {
		tests := []struct {
			end  time.Time
			step time.Duration
			n    int
		}{
			{end: start.Add(24 * time.Hour), step: 6 * time.Hour, n: 4},
			{end: start.Add(25 * time.Hour), step: 6 * time.Hour, n: 5},
			{end: start.Add(time.Hour), step: 6 * time.Hour, n: 1},
			{end: start, step: 6 * time.Hour, n: 0},
			{end: start.Add(-time.Hour), step: 6 * time.Hour, n: 0},
		}
		for _, test := range tests {
			urls, err := URLs(start, test.end, test.step, "[YYYYMMDD][HH]")
			if err != nil {
				t.Fatal(err)
			}
			if len(urls) != test.n {
				t.Errorf("%v to %v by %v: have %d urls, want %d", start, test.end, test.step, len(urls), test.n)
			}
		}
	})

	t.Run("month boundary", func(t *testing.T) {
		s := time.Date(2014, 3, 31, 18, 0, 0, 0, time.UTC)
		urls, err := URLs(s, s.Add(12*time.Hour), DefaultStep, "[YYYYMM]/[YYYY]-[MM]-[DD]T[HH]")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"201403/2014-03-31T18", "201404/2014-04-01T00"}
		if !reflect.DeepEqual(urls, want) {
			t.Errorf("have %v, want %v", urls, want)
		}
	})

	t.Run("bad step", func(t *testing.T) {
		for _, step := range []time.Duration{0, -time.Hour} {
			if _, err := URLs(start, end, step, DefaultURLTemplate); err == nil {
				t.Errorf("step %v should fail", step)
			}
		}
	})
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		source, prefix, want string
	}{
		{
			source: "http://opendap.co-ops.nos.noaa.gov/thredds/dodsC/NOAA/NGOFS/MODELS/201403/nos.ngofs.fields.nowcast.20140321.t00z.nc",
			prefix: DefaultOutputPrefix,
			want:   "20140321.t00z.nc",
		},
		{source: "/data/nos.ngofs.fields.nowcast.20140321.t06z.nc", prefix: "nowcast.", want: "20140321.t06z.nc"},
		{source: "/data/model_output.nc", prefix: "nowcast.", want: "model_output.nc"},
		{source: "/data/model_output.nc", prefix: "", want: "model_output.nc"},
		{source: "/data/a.nowcast.b.nowcast.c.nc", prefix: "nowcast.", want: "c.nc"},
	}
	for _, test := range tests {
		if have := OutputName(test.source, test.prefix); have != test.want {
			t.Errorf("OutputName(%q, %q) = %q, want %q", test.source, test.prefix, have, test.want)
		}
	}
}
