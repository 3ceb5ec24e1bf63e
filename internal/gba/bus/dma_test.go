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
)

// TestImmediateDMAChargesItsCyclesToConsumeDMACycles covers a regression:
// an immediate-timing DMA transfer used to compute a cycle cost that no
// caller ever collected, so it advanced the scheduler/PPU/timers by zero
// cycles no matter how large the transfer was. The cost must now reach
// ConsumeDMACycles, and draining it once must zero the accumulator.
func TestImmediateDMAChargesItsCyclesToConsumeDMACycles(t *testing.T) {
	b := newTestBus()

	const (
		dma0SAD  = 0x040000B0
		dma0DAD  = 0x040000B4
		dma0CNTL = 0x040000B8
		dma0CNTH = 0x040000BA
	)

	b.Write32(dma0SAD, 0x02000000, bus.Sequential) // source: EWRAM
	b.Write32(dma0DAD, 0x03000000, bus.Sequential) // dest: IWRAM
	b.Write16(dma0CNTL, 4, bus.Sequential)         // 4 halfwords
	b.Write16(dma0CNTH, 0x8000, bus.Sequential)    // enable, immediate timing, halfword

	// 2-cycle start latency plus, per halfword, an EWRAM read (3) and an
	// IWRAM write (1), per fixedWaits's per-region costs.
	want := 2 + 4*(3+1)

	if got := b.ConsumeDMACycles(); got != want {
		t.Fatalf("ConsumeDMACycles() = %d, want %d", got, want)
	}
	if got := b.ConsumeDMACycles(); got != 0 {
		t.Fatalf("ConsumeDMACycles() after drain = %d, want 0", got)
	}
}

// TestConsumeDMACyclesIsZeroWithoutADMA ensures the accumulator starts at
// zero and stays there until a transfer actually runs.
func TestConsumeDMACyclesIsZeroWithoutADMA(t *testing.T) {
	b := newTestBus()

	if got := b.ConsumeDMACycles(); got != 0 {
		t.Fatalf("ConsumeDMACycles() on a fresh bus = %d, want 0", got)
	}
}
