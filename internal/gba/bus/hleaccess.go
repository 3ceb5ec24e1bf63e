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

// Peek8/16/32 and Poke8/16/32 access memory the same way the CPU's
// ordinary Read/Write do, but discard the cycle cost: the HLE-BIOS table
// in internal/bios performs its own multi-unit transfers (CpuSet,
// decompression, ...) and charges them as a single flat SWI cost rather
// than unit-by-unit bus timing, matching how a real BIOS call's own cost
// is opaque to the guest.
func (b *Bus) Peek8(addr uint32) uint8 {
	v, _ := b.Read8(addr, Sequential)
	return v
}

func (b *Bus) Peek16(addr uint32) uint16 {
	v, _ := b.Read16(addr, Sequential)
	return v
}

func (b *Bus) Peek32(addr uint32) uint32 {
	v, _ := b.Read32(addr, Sequential)
	return v
}

func (b *Bus) Poke8(addr uint32, v uint8) { b.Write8(addr, v, Sequential) }

func (b *Bus) Poke16(addr uint32, v uint16) { b.Write16(addr, v, Sequential) }

func (b *Bus) Poke32(addr uint32, v uint32) { b.Write32(addr, v, Sequential) }
