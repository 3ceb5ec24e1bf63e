// This file is part of Goba.
//
// Goba is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Goba is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Goba.  If not, see <https://www.gnu.org/licenses/>.

// Package prefs implements the front end's configuration values: the CLI
// surface of spec.md §6 (--bios, --skip-bios, --scale, --fullscreen,
// --mute). The core never imports this package; it exists for a future
// front end to load and then decide how to invoke the core.
package prefs

import (
	"fmt"
	"strconv"
)

// Value is the underlying Go value of a preference.
type Value interface{}

// Bool is a boolean preference.
type Bool struct {
	value bool
}

func (b *Bool) Set(v Value) error {
	switch v := v.(type) {
	case bool:
		b.value = v
	case string:
		p, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		b.value = p
	default:
		return fmt.Errorf("prefs: unsupported value type for Bool: %T", v)
	}
	return nil
}

func (b *Bool) Get() bool   { return b.value }
func (b *Bool) String() string { return strconv.FormatBool(b.value) }

// Int is an integer preference.
type Int struct {
	value int
}

func (i *Int) Set(v Value) error {
	switch v := v.(type) {
	case int:
		i.value = v
	case string:
		p, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		i.value = p
	default:
		return fmt.Errorf("prefs: unsupported value type for Int: %T", v)
	}
	return nil
}

func (i *Int) Get() int      { return i.value }
func (i *Int) String() string { return strconv.Itoa(i.value) }

// String is a string preference.
type String struct {
	value string
}

func (s *String) Set(v Value) error {
	sv, ok := v.(string)
	if !ok {
		return fmt.Errorf("prefs: unsupported value type for String: %T", v)
	}
	s.value = sv
	return nil
}

func (s *String) Get() string   { return s.value }
func (s *String) String() string { return s.value }
