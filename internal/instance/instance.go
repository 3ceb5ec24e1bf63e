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

// Package instance defines those parts of the emulation that might change
// from instance to instance of the core, but are not the core itself.
// Particularly useful for running more than one instance of the emulation
// in parallel (e.g. a thumbnailer alongside the main play session).
package instance

import (
	"github.com/exampleorg/goba/internal/prefs"
	"github.com/exampleorg/goba/internal/randfill"
)

// Label indicates the context an instance is running in.
type Label string

// List of valid Label values.
const (
	Main        Label = ""
	Thumbnailer Label = "thumbnailer"
	Headless    Label = "headless"
)

// Instance groups the services of a single emulation session. The Core
// and the Bus hold it; the Bus draws its RAM fill from Rand on Reset.
type Instance struct {
	Label Label

	Rand *randfill.Source

	Prefs *prefs.Preferences
}

// New creates an Instance. If p is nil a fresh default Preferences is
// created.
func New(label Label, p *prefs.Preferences) *Instance {
	if p == nil {
		p = prefs.NewDefault()
	}
	return &Instance{
		Label: label,
		Rand:  randfill.New(string(label)),
		Prefs: p,
	}
}
