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

package rewind_test

import (
	"testing"

	"github.com/exampleorg/goba/internal/gba/core"
	"github.com/exampleorg/goba/internal/rewind"
)

func romWithARM(opcodes ...uint32) []byte {
	rom := make([]byte, 0x1000)
	for i, op := range opcodes {
		off := i * 4
		rom[off] = byte(op)
		rom[off+1] = byte(op >> 8)
		rom[off+2] = byte(op >> 16)
		rom[off+3] = byte(op >> 24)
	}
	return rom
}

func newRecordingSession(t *testing.T, frames int) (*core.Core, *rewind.Rewind) {
	t.Helper()

	c := core.New(nil)
	if err := c.LoadROM(romWithARM(0xE1A00000), nil); err != nil { // NOP, forever
		t.Fatalf("LoadROM: %v", err)
	}

	r := rewind.New(c)
	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	for i := 0; i < frames; i++ {
		c.RunUntilFrame()
		if err := r.Check(); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}
	return c, r
}

func TestGetFramesTracksTheRecordedRange(t *testing.T) {
	c, r := newRecordingSession(t, 5)

	fr := r.GetFrames()
	if fr.Start != 0 {
		t.Fatalf("Start = %d, want 0 (the reset snapshot)", fr.Start)
	}
	if fr.End != 5 {
		t.Fatalf("End = %d, want 5", fr.End)
	}
	if fr.Current != c.FrameCount() {
		t.Fatalf("Current = %d, want %d", fr.Current, c.FrameCount())
	}
}

func TestGotoFrameRestoresAnEarlierFrame(t *testing.T) {
	c, r := newRecordingSession(t, 10)

	if _, err := r.GotoFrame(3); err != nil {
		t.Fatalf("GotoFrame: %v", err)
	}
	if got := c.FrameCount(); got != 3 {
		t.Fatalf("FrameCount after GotoFrame(3) = %d, want 3", got)
	}
}

func TestGotoFrameBelowRangeClampsToTheOldestEntry(t *testing.T) {
	_, r := newRecordingSession(t, 10)

	fn, err := r.GotoFrame(0)
	if err != nil {
		t.Fatalf("GotoFrame: %v", err)
	}
	if fn != 0 {
		t.Fatalf("GotoFrame(0) returned frame %d, want 0", fn)
	}
}

func TestGotoFrameAboveRangeClampsToTheNewestEntry(t *testing.T) {
	_, r := newRecordingSession(t, 10)

	fn, err := r.GotoFrame(1000)
	if err != nil {
		t.Fatalf("GotoFrame: %v", err)
	}
	if fn != 10 {
		t.Fatalf("GotoFrame(1000) returned frame %d, want 10", fn)
	}
}
