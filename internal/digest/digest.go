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

// Package digest produces a chained SHA-1 hash of a frame stream, used by
// regression tests and save-state round-trip checks to confirm that running
// N cycles from two states produces the same frame (spec.md §8
// "Round-trips"). Not a cryptographic use of SHA-1; collisions only matter
// for accidental, not adversarial, divergence.
package digest

import (
	"crypto/sha1"
	"fmt"

	"github.com/exampleorg/goba/internal/gba/ppu"
)

// Video chains a SHA-1 over each frame handed to Add, folding in the
// previous frame's digest first so divergence anywhere in the run, not
// just in the final frame, changes the final Hash.
type Video struct {
	digest [sha1.Size]byte
	buf    []byte
}

// NewVideo creates an empty chain; the first Add establishes the running
// digest.
func NewVideo() *Video {
	size := sha1.Size + ppu.VisibleWidth*ppu.VisibleHeight*2
	return &Video{buf: make([]byte, size)}
}

// Add folds one frame into the chain.
func (v *Video) Add(fb *[ppu.VisibleHeight][ppu.VisibleWidth]uint16) {
	copy(v.buf, v.digest[:])
	off := len(v.digest)
	for y := 0; y < ppu.VisibleHeight; y++ {
		for x := 0; x < ppu.VisibleWidth; x++ {
			px := fb[y][x]
			v.buf[off] = byte(px)
			v.buf[off+1] = byte(px >> 8)
			off += 2
		}
	}
	v.digest = sha1.Sum(v.buf)
}

// Hash returns the current chained digest as a hex string.
func (v *Video) Hash() string { return fmt.Sprintf("%x", v.digest) }

// Reset zeroes the chain, starting a fresh run.
func (v *Video) Reset() {
	for i := range v.digest {
		v.digest[i] = 0
	}
}
