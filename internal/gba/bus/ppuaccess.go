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

// PPUReadVRAM8, PPUReadVRAM16, PPUReadOAM16 and PPUReadPalette16 give the
// renderer direct access to the relevant RAM blocks, bypassing area
// decoding and waitstate accounting: the PPU's own pixel fetches don't
// contend with the CPU's bus cycles in this core's timing model (spec.md
// §4.3 treats rendering as happening "for free" alongside the scanline it
// describes, exactly as spec.md §1's Non-goals exclude cycle-accurate
// PPU/CPU bus contention).
func (b *Bus) PPUReadVRAM8(off uint32) uint8 {
	return b.vram[off%SizeVRAM]
}

func (b *Bus) PPUReadVRAM16(off uint32) uint16 {
	off %= SizeVRAM
	return uint16(b.vram[off]) | uint16(b.vram[off+1])<<8
}

func (b *Bus) PPUReadOAM16(off uint32) uint16 {
	off %= SizeOAM
	return uint16(b.oam[off]) | uint16(b.oam[off+1])<<8
}

func (b *Bus) PPUReadPalette16(off uint32) uint16 {
	off %= SizePaletteRAM
	return uint16(b.paletteRAM[off]) | uint16(b.paletteRAM[off+1])<<8
}
