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

// Package randfill should be used in preference to math/rand whenever the
// core needs a random value: initial RAM contents on Reset and the openbus
// fallback when there is nothing sensible to return. Real hardware's RAM
// and register state at power-on is not deterministic and some games rely
// on that non-determinism being present (and some, conversely, rely on it
// being silenceable for testing). Set ZeroSeed to make the sequence
// reproducible.
package randfill

import (
	"math/rand"
)

// ZeroSeed forces the generator to a fixed seed. Useful for deterministic
// tests and for golden-dump regression scenarios (spec.md §8 scenario 3).
var ZeroSeed bool

// Source generates the byte stream used to fill freshly allocated memory.
type Source struct {
	rng *rand.Rand
}

// New creates a Source. Label is mixed into the seed so that distinct
// instances (main emulation vs a thumbnailer run) don't draw from
// correlated streams unless ZeroSeed is set.
func New(label string) *Source {
	seed := int64(1)
	if !ZeroSeed {
		h := int64(0)
		for _, c := range label {
			h = h*31 + int64(c)
		}
		seed = h ^ int64(0x5bd1e995)
	}
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Fill writes pseudo-random bytes into buf.
func (s *Source) Fill(buf []byte) {
	s.rng.Read(buf)
}

// Byte returns a single pseudo-random byte.
func (s *Source) Byte() uint8 {
	return uint8(s.rng.Intn(256))
}
