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
	"fmt"
	"path"
	"strings"
	"time"
)

// DefaultURLTemplate is the location of NGOFS nowcast field files on the
// NOAA CO-OPS OPeNDAP server.
const DefaultURLTemplate = "http://opendap.co-ops.nos.noaa.gov/thredds/dodsC/NOAA/NGOFS/MODELS/[YYYYMM]/nos.ngofs.fields.nowcast.[YYYYMMDD].t[HH]z.nc"

// DefaultStep is the interval between NGOFS nowcast cycles.
const DefaultStep = 6 * time.Hour

// templateFields are the date wildcards that can be used in URL
// templates, longest first so that [YYYYMMDD] is not consumed by [YYYY].
var templateFields = []struct{ wildcard, layout string }{
	{"[YYYYMMDD]", "20060102"},
	{"[YYYYMM]", "200601"},
	{"[YYYY]", "2006"},
	{"[MM]", "01"},
	{"[DD]", "02"},
	{"[HH]", "15"},
}

// ExpandTemplate replaces the date wildcards in template with the
// corresponding fields of t.
func ExpandTemplate(template string, t time.Time) string {
	for _, f := range templateFields {
		template = strings.Replace(template, f.wildcard, t.Format(f.layout), -1)
	}
	return template
}

// URLs returns the source locations for every cycle from start
// (inclusive) to end (exclusive), step apart, in chronological order.
func URLs(start, end time.Time, step time.Duration, template string) ([]string, error) {
	if step <= 0 {
		return nil, fmt.Errorf("ugrid: URL step must be positive, got %v", step)
	}
	var urls []string
	for t := start; t.Before(end); t = t.Add(step) {
		urls = append(urls, ExpandTemplate(template, t))
	}
	return urls, nil
}

// DefaultOutputPrefix is the part of an NGOFS file name that precedes
// the date in output file names.
const DefaultOutputPrefix = "nowcast."

// OutputName derives an output file name from a source URL or path by
// keeping what follows the last occurrence of prefix. If prefix does not
// occur, the base name is returned.
func OutputName(source, prefix string) string {
	base := path.Base(source)
	if prefix == "" {
		return base
	}
	if i := strings.LastIndex(base, prefix); i >= 0 && i+len(prefix) < len(base) {
		return base[i+len(prefix):]
	}
	return base
}
