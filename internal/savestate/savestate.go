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

// Package savestate defines the on-disk record a session is serialized
// into: a version tag the loader checks before trusting anything else,
// plus the exported state of every subsystem the core owns. Each
// subsystem is responsible for its own Export/Import pair; this package
// only aggregates them and handles the gob envelope, per spec.md §6's
// "Persisted state layout".
package savestate

import (
	"bytes"
	"encoding/gob"

	"github.com/exampleorg/goba/internal/gba/bus"
	"github.com/exampleorg/goba/internal/gba/cpu"
	"github.com/exampleorg/goba/internal/gba/ppu"
	"github.com/exampleorg/goba/internal/gba/scheduler"
	"github.com/exampleorg/goba/internal/gbaerrors"
)

// Version identifies the record layout below. Bump it whenever a field is
// added, removed or reinterpreted, so a loader never silently misreads an
// older or newer record.
const Version = 1

// Record is everything needed to resume a session exactly where it left
// off: every subsystem's exported state, plus the cartridge's backup
// store (snapshotted separately since the bus treats it as opaque bytes,
// per spec.md §6).
type Record struct {
	Version int

	CPU       cpu.State
	Bus       bus.State
	PPU       ppu.State
	Scheduler scheduler.State

	// Backup is the cartridge's SRAM/Flash/EEPROM image at the moment of
	// the snapshot, or nil if the cartridge carries none.
	Backup []byte

	// FrameCount mirrors the orchestrator's own frame counter so a
	// restored FrameHandle continues the same numbering instead of
	// restarting at 1.
	FrameCount uint64
}

// Encode serializes r with gob. Decode rejects the result if its Version
// differs from the one this build reads.
func Encode(r Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, gbaerrors.New(gbaerrors.SaveStateCorrupt, err.Error())
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode, rejecting the record outright if its version
// doesn't match the version this build knows how to read.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return Record{}, gbaerrors.New(gbaerrors.SaveStateCorrupt, err.Error())
	}
	if r.Version != Version {
		return Record{}, gbaerrors.New(gbaerrors.SaveStateVersionMismatch, r.Version, Version)
	}
	return r, nil
}
