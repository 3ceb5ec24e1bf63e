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

// Package rewind keeps a circular history of save states, one per completed
// frame, so a front end can step backwards through a session. Unlike the
// teacher's scanline/horizpos-precise rewind, which re-executes a TIA/CPU
// pair up to a specific colour clock, this rewind is frame-granular: the
// core's coarsest unit of re-execution is RunUntilFrame, so there is no
// finer breakpoint to catch up to.
package rewind

import (
	"github.com/exampleorg/goba/internal/gba/core"
	"github.com/exampleorg/goba/internal/gbaerrors"
)

// overhead mirrors the teacher's circular-buffer sizing: two spare slots so
// append/trim never has to special-case a full buffer.
const overhead = 2

// maxEntries bounds how many frames of history are kept before the oldest
// are forgotten.
const maxEntries = 200 + overhead

// entry is one snapshotted frame.
type entry struct {
	frame uint64
	state []byte
}

// Rewind records a snapshot after every completed frame and lets a caller
// plumb an earlier one back into the core.
type Rewind struct {
	core *core.Core

	entries [maxEntries]entry
	start   int
	end     int
	curr    int
}

// New creates a Rewind over core. Call Reset once a cartridge is loaded to
// start recording.
func New(c *core.Core) *Rewind {
	return &Rewind{core: c}
}

// Reset clears all history and takes a snapshot of the core's current
// state, as its first entry. Call this whenever a new cartridge is
// attached, mirroring the teacher's "call on cartridge attach" contract.
func (r *Rewind) Reset() error {
	r.start, r.end, r.curr = 0, 0, 0

	s, err := r.core.SaveState()
	if err != nil {
		return err
	}
	r.entries[0] = entry{frame: r.core.FrameCount(), state: s}
	r.end = 1
	r.curr = 0
	return nil
}

// Check should be called once after every RunUntilFrame. It snapshots the
// core's now-current frame and appends it to the history, discarding the
// oldest entry once the buffer is full.
func (r *Rewind) Check() error {
	s, err := r.core.SaveState()
	if err != nil {
		return err
	}

	e := r.curr + 1
	if e >= maxEntries {
		e = 0
	}
	r.entries[e] = entry{frame: r.core.FrameCount(), state: s}
	r.curr = e
	r.end = r.curr + 1
	if r.end >= maxEntries {
		r.end = 0
	}
	if r.end == r.start {
		r.start++
		if r.start >= maxEntries {
			r.start = 0
		}
	}
	return nil
}

// Frames reports the oldest and newest frame numbers currently held, plus
// the core's own current frame number.
type Frames struct {
	Start, End, Current uint64
}

// GetFrames returns the current extent of the recorded history.
func (r *Rewind) GetFrames() Frames {
	e := r.end - 1
	if e < 0 {
		e += maxEntries
	}
	return Frames{
		Start:   r.entries[r.start].frame,
		End:     r.entries[e].frame,
		Current: r.core.FrameCount(),
	}
}

// GotoFrame restores the core to the nearest recorded frame at or before
// the requested one, and returns the frame number actually reached. Since
// this rewind keeps one entry per frame exactly (no frequency gap, unlike
// the teacher's configurable sampling), "nearest at or before" degenerates
// to an exact match whenever frame falls within the recorded range.
func (r *Rewind) GotoFrame(frame uint64) (uint64, error) {
	s := r.start
	e := r.end - 1
	if e < 0 {
		e += maxEntries
	}

	if frame <= r.entries[r.start].frame {
		return r.entries[r.start].frame, r.core.LoadState(r.entries[r.start].state)
	}
	if frame >= r.entries[e].frame {
		return r.entries[e].frame, r.core.LoadState(r.entries[e].state)
	}

	if r.start > e {
		if frame <= r.entries[maxEntries-1].frame {
			e = maxEntries - 1
		} else {
			e = r.start - 1
			s = 0
		}
	}

	for s <= e {
		m := (s + e) / 2
		fn := r.entries[m].frame
		switch {
		case frame == fn:
			return fn, r.core.LoadState(r.entries[m].state)
		case frame < fn:
			e = m - 1
		default:
			s = m + 1
		}
	}

	return 0, gbaerrors.New(gbaerrors.SaveStateCorrupt, "no recorded frame near the requested one")
}
