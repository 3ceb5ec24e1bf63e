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

package bus

// waitstateControl models WAITCNT (I/O offset 0x204): per-ROM-view N/S
// cycle counts, plus the prefetch-buffer enable bit.
type waitstateControl struct {
	raw uint16
}

func (w *waitstateControl) set(lo, hi uint8, which int) {
	switch which {
	case 0:
		w.raw = uint16(lo) | uint16(hi)<<8
	}
}

// sram returns the wait cycle count for SRAM accesses (bits 0-1).
func (w waitstateControl) sramWaits() int {
	table := [4]int{4, 3, 2, 8}
	return table[w.raw&0x3]
}

// waitstate table indices: [waitstate set][first/second access]
var romFirstAccessTable = [3][4]int{
	{4, 3, 2, 8}, // WS0 first access (bits 2-3)
	{4, 3, 2, 8}, // WS1 first access (bits 5-6)
	{4, 3, 2, 8}, // WS2 first access (bits 8-9)
}

// second-access (sequential) tables differ per waitstate set and are
// selected by a single bit each.
var romSecondAccessTable = [3][2]int{
	{2, 1}, // WS0 second access (bit 4)
	{4, 1}, // WS1 second access (bit 7)
	{8, 1}, // WS2 second access (bit 10)
}

func (w waitstateControl) romWaits(view int, seq bool) int {
	switch view {
	case 0:
		if seq {
			bit := (w.raw >> 4) & 1
			return romSecondAccessTable[0][bit]
		}
		bits := (w.raw >> 2) & 0x3
		return romFirstAccessTable[0][bits]
	case 1:
		if seq {
			bit := (w.raw >> 7) & 1
			return romSecondAccessTable[1][bit]
		}
		bits := (w.raw >> 5) & 0x3
		return romFirstAccessTable[1][bits]
	case 2:
		if seq {
			bit := (w.raw >> 10) & 1
			return romSecondAccessTable[2][bit]
		}
		bits := (w.raw >> 8) & 0x3
		return romFirstAccessTable[2][bits]
	}
	return 4
}

func (w waitstateControl) prefetchEnabled() bool {
	return w.raw&(1<<14) != 0
}

// cyclesForROM computes the bus-side wait cycles for a ROM access, folding
// in the cartridge prefetch buffer per spec.md §4.2 and §9's "open
// question (c)": a sequential fetch from the address immediately following
// the previous ROM access is a 1-cycle hit once the prefetch line has been
// primed, and any non-sequential fetch invalidates it.
func (b *Bus) cyclesForROM(addr uint32, view int, kind Kind) int {
	seq := kind == Sequential && addr == b.lastROMAddr+2 // prefetch advances in halfwords
	if kind != Sequential {
		seq = false
	}

	hit := b.waitcnt.prefetchEnabled() && seq && b.lastROMAccessSeq
	b.lastROMAddr = addr
	b.lastROMAccessSeq = kind == Sequential

	if hit {
		return 1
	}
	return 1 + b.waitcnt.romWaits(view, kind == Sequential)
}
