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

package bus_test

import (
	"testing"

	"github.com/exampleorg/goba/internal/gba/bus"
	"github.com/exampleorg/goba/internal/gba/scheduler"
	"github.com/exampleorg/goba/internal/instance"
)

func newTestBus() *bus.Bus {
	inst := instance.New(instance.Headless, nil)
	sched := scheduler.New()
	return bus.New(inst, sched)
}

func TestExportImportRoundTripsRAMAndRegisters(t *testing.T) {
	b := newTestBus()

	b.Write8(0x02000000, 0xAB, bus.Sequential) // EWRAM
	b.Write8(0x03000000, 0xCD, bus.Sequential) // IWRAM
	b.Write16(0x04000200, 0x0001, bus.Sequential) // IE
	b.SetKeys(0x03FF &^ 1)

	s := b.Export()

	other := newTestBus()
	other.Import(s)

	if got, _ := other.Read8(0x02000000, bus.Sequential); got != 0xAB {
		t.Fatalf("EWRAM byte after import = %#02x, want 0xAB", got)
	}
	if got, _ := other.Read8(0x03000000, bus.Sequential); got != 0xCD {
		t.Fatalf("IWRAM byte after import = %#02x, want 0xCD", got)
	}
	if got := other.ReadIE(); got != 0x0001 {
		t.Fatalf("IE after import = %#04x, want 0x0001", got)
	}
}

func TestExportIsASnapshotNotAView(t *testing.T) {
	b := newTestBus()
	s := b.Export()

	b.Write8(0x02000000, 0xFF, bus.Sequential)

	if s.EWRAM[0] == 0xFF {
		t.Fatal("Export result aliases live EWRAM; mutating the bus after Export changed the snapshot")
	}
}
