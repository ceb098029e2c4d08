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

package opendap

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Attribute is a DAS attribute. String values are unquoted.
type Attribute struct {
	Type   string
	Values []string
}

// DAS holds the attributes of each variable, keyed by variable name and
// then attribute name. Global attributes are kept under the container
// names the server uses, such as NC_GLOBAL. Nested containers are
// stored under their own name.
type DAS map[string]map[string]Attribute

// GlobalContainer is the container name for global attributes.
const GlobalContainer = "NC_GLOBAL"

// StringAttribute returns the value of a string attribute of variable v,
// or of the global attributes if v is empty.
func (d DAS) StringAttribute(v, a string) (string, bool) {
	if v == "" {
		v = GlobalContainer
	}
	attr, ok := d[v][a]
	if !ok || len(attr.Values) == 0 {
		return "", false
	}
	if attr.Type != "String" && attr.Type != "Url" {
		return "", false
	}
	return strings.Join(attr.Values, ""), true
}

// ParseDAS parses a DAP2 Dataset Attribute Structure.
func ParseDAS(r io.Reader) (DAS, error) {
	t := newTokenizer(r)
	if err := t.expect("Attributes"); err != nil {
		return nil, fmt.Errorf("opendap: parsing DAS: %w", err)
	}
	if err := t.expect("{"); err != nil {
		return nil, fmt.Errorf("opendap: parsing DAS: %w", err)
	}
	d := make(DAS)
	for {
		tok, err := t.next()
		if err == io.EOF {
			return nil, fmt.Errorf("opendap: parsing DAS: unexpected end of document")
		} else if err != nil {
			return nil, fmt.Errorf("opendap: parsing DAS: %w", err)
		}
		if tok == "}" {
			return d, nil
		}
		if err := t.expect("{"); err != nil {
			return nil, fmt.Errorf("opendap: parsing DAS: container %s: %w", tok, err)
		}
		if err := parseContainer(t, d, tok); err != nil {
			return nil, fmt.Errorf("opendap: parsing DAS: container %s: %w", tok, err)
		}
	}
}

// parseContainer parses attributes up to and including the closing brace
// of the container named name.
func parseContainer(t *tokenizer, d DAS, name string) error {
	attrs := d[name]
	if attrs == nil {
		attrs = make(map[string]Attribute)
		d[name] = attrs
	}
	for {
		tok, err := t.next()
		if err != nil {
			return err
		}
		if tok == "}" {
			return nil
		}
		next, err := t.next()
		if err != nil {
			return err
		}
		if next == "{" {
			if err := parseContainer(t, d, tok); err != nil {
				return fmt.Errorf("container %s: %w", tok, err)
			}
			continue
		}
		a := Attribute{Type: tok}
		attrName := next
		for {
			val, err := t.next()
			if err != nil {
				return err
			}
			if strings.HasPrefix(val, `"`) {
				if val, err = unquote(val); err != nil {
					return fmt.Errorf("attribute %s: %w", attrName, err)
				}
			}
			a.Values = append(a.Values, val)
			sep, err := t.next()
			if err != nil {
				return err
			}
			if sep == ";" {
				break
			}
			if sep != "," {
				return fmt.Errorf("attribute %s: expected \",\" or \";\" but found %q", attrName, sep)
			}
		}
		attrs[attrName] = a
	}
}

func unquote(s string) (string, error) {
	if s, err := strconv.Unquote(s); err == nil {
		return s, nil
	}
	if len(s) < 2 || !strings.HasSuffix(s, `"`) {
		return "", fmt.Errorf("invalid string %s", s)
	}
	s = s[1 : len(s)-1]
	s = strings.Replace(s, `\"`, `"`, -1)
	return strings.Replace(s, `\\`, `\`, -1), nil
}
