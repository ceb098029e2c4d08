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
	"context"
	"strings"

	"github.com/spatialmodel/ugrid/opendap"
)

// Source is an opened NetCDF-like dataset, either a local file or a
// remote OPeNDAP dataset.
type Source interface {
	// Variables returns the names of the variables in the dataset.
	Variables() []string

	// Dimensions returns the dimension names of variable v, or nil if v
	// does not exist.
	Dimensions(v string) []string

	// Lengths returns the dimension lengths of variable v, or nil if v
	// does not exist.
	Lengths(v string) []int

	// StringAttribute returns the text attribute a of variable v, or the
	// global attribute a if v is empty.
	StringAttribute(v, a string) (string, bool)

	// Slab reads the hyperslab of variable v starting at start with
	// count elements along each dimension, in row-major order.
	Slab(ctx context.Context, v string, start, count []int) ([]float64, error)

	Close() error
}

// OpenOptions configures how remote datasets are opened.
type OpenOptions struct {
	// Client is used for remote datasets. If nil, a default client is
	// used.
	Client *opendap.Client
}

// Open opens the dataset at location, which is treated as an OPeNDAP
// URL if it starts with http:// or https:// and as a local NetCDF classic
// file otherwise.
func Open(ctx context.Context, location string, o OpenOptions) (*Dataset, error) {
	var src Source
	var err error
	if IsRemote(location) {
		c := o.Client
		if c == nil {
			c = opendap.NewClient(nil)
		}
		src, err = c.Open(ctx, location)
	} else {
		src, err = OpenCDF(location)
	}
	if err != nil {
		return nil, err
	}
	return NewDataset(location, src), nil
}

// IsRemote returns whether location refers to a remote dataset.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
