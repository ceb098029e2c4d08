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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Dim is a named array dimension.
type Dim struct {
	Name string
	Size int
}

// Variable is an array or grid declared in a DDS. For a grid, Type and
// Dims describe the grid's array.
type Variable struct {
	Name string
	Type string
	Dims []Dim
	Grid bool
}

// DDS is a parsed Dataset Descriptor Structure. Structures and
// sequences are skipped.
type DDS struct {
	Name      string
	Variables []Variable
}

// Variable returns the variable named name, or nil.
func (d *DDS) Variable(name string) *Variable {
	for i := range d.Variables {
		if d.Variables[i].Name == name {
			return &d.Variables[i]
		}
	}
	return nil
}

var baseTypes = map[string]int{
	"Byte":    1,
	"Int16":   2,
	"UInt16":  2,
	"Int32":   4,
	"UInt32":  4,
	"Float32": 4,
	"Float64": 8,
	"String":  0,
	"Url":     0,
}

// tokenizer splits DDS and DAS documents into words, punctuation and
// quoted strings.
type tokenizer struct {
	r    *bufio.Reader
	peek []string
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{r: bufio.NewReader(r)}
}

func isPunct(r rune) bool {
	switch r {
	case '{', '}', '[', ']', ';', '=', ':', ',':
		return true
	}
	return false
}

// next returns the next token, or io.EOF. Quoted strings are returned
// with their quotes so that they can be told apart from words.
func (t *tokenizer) next() (string, error) {
	if len(t.peek) > 0 {
		tok := t.peek[len(t.peek)-1]
		t.peek = t.peek[:len(t.peek)-1]
		return tok, nil
	}
	var r rune
	var err error
	for {
		r, _, err = t.r.ReadRune()
		if err != nil {
			return "", err
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if isPunct(r) {
		return string(r), nil
	}
	var b strings.Builder
	b.WriteRune(r)
	if r == '"' {
		for {
			r, _, err = t.r.ReadRune()
			if err != nil {
				return "", fmt.Errorf("unterminated string")
			}
			b.WriteRune(r)
			if r == '\\' {
				r, _, err = t.r.ReadRune()
				if err != nil {
					return "", fmt.Errorf("unterminated string")
				}
				b.WriteRune(r)
				continue
			}
			if r == '"' {
				return b.String(), nil
			}
		}
	}
	for {
		r, _, err = t.r.ReadRune()
		if err == io.EOF {
			return b.String(), nil
		} else if err != nil {
			return "", err
		}
		if unicode.IsSpace(r) || isPunct(r) || r == '"' {
			t.r.UnreadRune()
			return b.String(), nil
		}
		b.WriteRune(r)
	}
}

func (t *tokenizer) unread(tok string) { t.peek = append(t.peek, tok) }

func (t *tokenizer) expect(want string) error {
	tok, err := t.next()
	if err != nil {
		return fmt.Errorf("expected %q: %w", want, err)
	}
	if !strings.EqualFold(tok, want) {
		return fmt.Errorf("expected %q but found %q", want, tok)
	}
	return nil
}

// ParseDDS parses a DAP2 Dataset Descriptor Structure.
func ParseDDS(r io.Reader) (*DDS, error) {
	t := newTokenizer(r)
	if err := t.expect("Dataset"); err != nil {
		return nil, fmt.Errorf("opendap: parsing DDS: %w", err)
	}
	if err := t.expect("{"); err != nil {
		return nil, fmt.Errorf("opendap: parsing DDS: %w", err)
	}
	d := new(DDS)
	vars, err := parseDecls(t)
	if err != nil {
		return nil, fmt.Errorf("opendap: parsing DDS: %w", err)
	}
	d.Variables = vars
	if d.Name, err = t.next(); err != nil {
		return nil, fmt.Errorf("opendap: parsing DDS: dataset name: %w", err)
	}
	if err := t.expect(";"); err != nil {
		return nil, fmt.Errorf("opendap: parsing DDS: %w", err)
	}
	return d, nil
}

// parseDecls parses declarations up to and including the closing brace.
func parseDecls(t *tokenizer) ([]Variable, error) {
	var vars []Variable
	for {
		tok, err := t.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok == "}":
			return vars, nil
		case strings.EqualFold(tok, "Grid"):
			v, err := parseGrid(t)
			if err != nil {
				return nil, err
			}
			vars = append(vars, v)
		case strings.EqualFold(tok, "Structure") || strings.EqualFold(tok, "Sequence"):
			if err := t.expect("{"); err != nil {
				return nil, err
			}
			if _, err := parseDecls(t); err != nil {
				return nil, err
			}
			if _, err := t.next(); err != nil {
				return nil, err
			}
			if err := t.expect(";"); err != nil {
				return nil, err
			}
		default:
			t.unread(tok)
			v, err := parseArray(t)
			if err != nil {
				return nil, err
			}
			vars = append(vars, v)
		}
	}
}

// parseArray parses "Type name[dim = n]...;".
func parseArray(t *tokenizer) (Variable, error) {
	var v Variable
	typ, err := t.next()
	if err != nil {
		return v, err
	}
	if _, ok := baseTypes[typ]; !ok {
		return v, fmt.Errorf("unknown type %q", typ)
	}
	v.Type = typ
	if v.Name, err = t.next(); err != nil {
		return v, err
	}
	for {
		tok, err := t.next()
		if err != nil {
			return v, err
		}
		if tok == ";" {
			return v, nil
		}
		if tok != "[" {
			return v, fmt.Errorf("variable %s: expected \"[\" or \";\" but found %q", v.Name, tok)
		}
		var parts []string
		for {
			tok, err := t.next()
			if err != nil {
				return v, err
			}
			if tok == "]" {
				break
			}
			parts = append(parts, tok)
		}
		var dim Dim
		switch {
		case len(parts) == 1:
			dim.Size, err = strconv.Atoi(parts[0])
		case len(parts) == 3 && parts[1] == "=":
			dim.Name = parts[0]
			dim.Size, err = strconv.Atoi(parts[2])
		default:
			err = fmt.Errorf("invalid dimension %v", parts)
		}
		if err != nil {
			return v, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		v.Dims = append(v.Dims, dim)
	}
}

// parseGrid parses the remainder of a "Grid { ARRAY: ... MAPS: ... } name;"
// declaration.
func parseGrid(t *tokenizer) (Variable, error) {
	for _, want := range []string{"{", "ARRAY", ":"} {
		if err := t.expect(want); err != nil {
			return Variable{}, err
		}
	}
	v, err := parseArray(t)
	if err != nil {
		return v, err
	}
	for _, want := range []string{"MAPS", ":"} {
		if err := t.expect(want); err != nil {
			return v, err
		}
	}
	if _, err := parseDecls(t); err != nil {
		return v, err
	}
	if v.Name, err = t.next(); err != nil {
		return v, err
	}
	v.Grid = true
	return v, t.expect(";")
}
