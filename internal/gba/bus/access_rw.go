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

import "math/bits"

// fixedWaits gives the bus-side cycle cost for every region whose timing
// doesn't depend on WAITCNT (everything but the three ROM views and
// SRAM). Costs are per spec.md §4.2's "design level" model, not a
// cycle-exact contention simulation (explicitly a Non-goal).
func fixedWaits(area Area, width Width) int {
	switch area {
	case AreaBIOS, AreaIWRAM, AreaIO:
		return 1
	case AreaPaletteRAM, AreaVRAM, AreaOAM:
		if width == Width32 {
			return 2
		}
		return 1
	case AreaEWRAM:
		if width == Width32 {
			return 6
		}
		return 3
	}
	return 1
}

func (b *Bus) cycleCost(area Area, addr uint32, width Width, kind Kind) int {
	switch area {
	case AreaROM0:
		return b.cyclesForROM(addr, 0, kind)
	case AreaROM1:
		return b.cyclesForROM(addr, 1, kind)
	case AreaROM2:
		return b.cyclesForROM(addr, 2, kind)
	case AreaSRAM:
		return 1 + b.waitcnt.sramWaits()
	}
	return fixedWaits(area, width)
}

// Read8 reads a byte and returns it with the bus cycle cost.
func (b *Bus) Read8(addr uint32, kind Kind) (uint8, int) {
	area, off := Decode(addr)
	cost := b.cycleCost(area, addr, Width8, kind)

	switch area {
	case AreaBIOS:
		return b.readBIOS8(off), cost
	case AreaEWRAM:
		return b.ewram[off], cost
	case AreaIWRAM:
		return b.iwram[off], cost
	case AreaIO:
		return b.readIO8(off), cost
	case AreaPaletteRAM:
		return b.paletteRAM[off], cost
	case AreaVRAM:
		return b.vram[off], cost
	case AreaOAM:
		return b.oam[off], cost
	case AreaROM0, AreaROM1, AreaROM2:
		if b.cart != nil {
			return b.cart.ReadROM8(off), cost
		}
	case AreaSRAM:
		if b.cart != nil {
			return b.cart.ReadSRAM8(off), cost
		}
	}

	warnSuspicious("bus", "unmapped read8 at %s", DescribeAccess(addr))
	return uint8(b.openBus), cost
}

// Read16 reads a halfword. Odd addresses rotate, per ARM unaligned-access
// behavior (spec.md §3, §8 "Boundary behaviors").
func (b *Bus) Read16(addr uint32, kind Kind) (uint16, int) {
	aligned := addr &^ 1
	area, off := Decode(aligned)
	cost := b.cycleCost(area, aligned, Width16, kind)

	var v uint16
	switch area {
	case AreaBIOS:
		v = b.readBIOS16(off)
	case AreaEWRAM:
		v = uint16(b.ewram[off]) | uint16(b.ewram[off+1])<<8
	case AreaIWRAM:
		v = uint16(b.iwram[off]) | uint16(b.iwram[off+1])<<8
	case AreaIO:
		v = uint16(b.readIO8(off)) | uint16(b.readIO8(off+1))<<8
	case AreaPaletteRAM:
		v = uint16(b.paletteRAM[off]) | uint16(b.paletteRAM[off+1])<<8
	case AreaVRAM:
		v = uint16(b.vram[off]) | uint16(b.vram[off+1])<<8
	case AreaOAM:
		v = uint16(b.oam[off]) | uint16(b.oam[off+1])<<8
	case AreaROM0, AreaROM1, AreaROM2:
		if b.cart != nil {
			v = b.cart.ReadROM16(off)
		}
	case AreaSRAM:
		if b.cart != nil {
			v = b.cart.ReadSRAM16(off)
		}
	default:
		warnSuspicious("bus", "unmapped read16 at %s", DescribeAccess(addr))
		v = uint16(b.openBus)
	}

	if addr&1 != 0 {
		v = bits.RotateLeft16(v, -8)
	}
	return v, cost
}

// Read32 reads a word, rotating for unaligned addresses exactly as ARM
// hardware does (spec.md §8 "ROR #0 encodes RRX..." family of rules applies
// to the barrel shifter; this is the separate "unaligned LDR rotates"
// rule).
func (b *Bus) Read32(addr uint32, kind Kind) (uint32, int) {
	aligned := addr &^ 3
	area, off := Decode(aligned)
	cost := b.cycleCost(area, aligned, Width32, kind)

	var v uint32
	switch area {
	case AreaBIOS:
		v = b.readBIOS32(off)
	case AreaEWRAM:
		v = le32(b.ewram[off : off+4])
	case AreaIWRAM:
		v = le32(b.iwram[off : off+4])
	case AreaIO:
		v = uint32(b.readIO8(off)) | uint32(b.readIO8(off+1))<<8 | uint32(b.readIO8(off+2))<<16 | uint32(b.readIO8(off+3))<<24
	case AreaPaletteRAM:
		v = le32(b.paletteRAM[off : off+4])
	case AreaVRAM:
		v = le32(b.vram[off : off+4])
	case AreaOAM:
		v = le32(b.oam[off : off+4])
	case AreaROM0, AreaROM1, AreaROM2:
		if b.cart != nil {
			v = b.cart.ReadROM32(off)
		}
	case AreaSRAM:
		if b.cart != nil {
			v = b.cart.ReadSRAM32(off)
		}
	default:
		warnSuspicious("bus", "unmapped read32 at %s", DescribeAccess(addr))
		v = b.openBus
	}

	if rot := (addr & 3) * 8; rot != 0 {
		v = bits.RotateLeft32(v, -int(rot))
	}
	return v, cost
}

// Write8 writes a byte. Byte writes to VRAM in BG modes duplicate into both
// halves of the addressed halfword (spec.md §3); OAM/Palette byte writes
// are simply dropped, per the hardware behavior spec.md §9 open question
// (b) resolves in favor of.
func (b *Bus) Write8(addr uint32, v uint8, kind Kind) int {
	area, off := Decode(addr)
	cost := b.cycleCost(area, addr, Width8, kind)

	switch area {
	case AreaEWRAM:
		b.ewram[off] = v
	case AreaIWRAM:
		b.iwram[off] = v
	case AreaIO:
		b.writeIO8(off, v)
	case AreaPaletteRAM:
		warnSuspicious("bus", "byte write to palette RAM dropped at %s", DescribeAccess(addr))
	case AreaVRAM:
		aligned := off &^ 1
		b.vram[aligned] = v
		b.vram[aligned+1] = v
	case AreaOAM:
		warnSuspicious("bus", "byte write to OAM dropped at %s", DescribeAccess(addr))
	case AreaROM0, AreaROM1, AreaROM2:
		if b.cart != nil {
			b.cart.WriteROM8(off, v)
		}
	case AreaSRAM:
		if b.cart != nil {
			b.cart.WriteSRAM8(off, v)
		}
	default:
		warnSuspicious("bus", "unmapped write8 at %s", DescribeAccess(addr))
	}
	return cost
}

func (b *Bus) Write16(addr uint32, v uint16, kind Kind) int {
	aligned := addr &^ 1
	area, off := Decode(aligned)
	cost := b.cycleCost(area, aligned, Width16, kind)

	switch area {
	case AreaEWRAM:
		b.ewram[off] = uint8(v)
		b.ewram[off+1] = uint8(v >> 8)
	case AreaIWRAM:
		b.iwram[off] = uint8(v)
		b.iwram[off+1] = uint8(v >> 8)
	case AreaIO:
		b.writeIO8(off, uint8(v))
		b.writeIO8(off+1, uint8(v>>8))
	case AreaPaletteRAM:
		b.paletteRAM[off] = uint8(v)
		b.paletteRAM[off+1] = uint8(v >> 8)
	case AreaVRAM:
		b.vram[off] = uint8(v)
		b.vram[off+1] = uint8(v >> 8)
	case AreaOAM:
		b.oam[off] = uint8(v)
		b.oam[off+1] = uint8(v >> 8)
	case AreaROM0, AreaROM1, AreaROM2:
		if b.cart != nil {
			b.cart.WriteROM16(off, v)
		}
	case AreaSRAM:
		if b.cart != nil {
			b.cart.WriteSRAM16(off, v)
		}
	default:
		warnSuspicious("bus", "unmapped write16 at %s", DescribeAccess(addr))
	}
	return cost
}

func (b *Bus) Write32(addr uint32, v uint32, kind Kind) int {
	aligned := addr &^ 3
	area, off := Decode(aligned)
	cost := b.cycleCost(area, aligned, Width32, kind)

	switch area {
	case AreaEWRAM:
		putLE32(b.ewram[off:off+4], v)
	case AreaIWRAM:
		putLE32(b.iwram[off:off+4], v)
	case AreaIO:
		b.writeIO8(off, uint8(v))
		b.writeIO8(off+1, uint8(v>>8))
		b.writeIO8(off+2, uint8(v>>16))
		b.writeIO8(off+3, uint8(v>>24))
	case AreaPaletteRAM:
		putLE32(b.paletteRAM[off:off+4], v)
	case AreaVRAM:
		putLE32(b.vram[off:off+4], v)
	case AreaOAM:
		putLE32(b.oam[off:off+4], v)
	case AreaROM0, AreaROM1, AreaROM2:
		if b.cart != nil {
			b.cart.WriteROM32(off, v)
		}
	case AreaSRAM:
		if b.cart != nil {
			b.cart.WriteSRAM32(off, v)
		}
	default:
		warnSuspicious("bus", "unmapped write32 at %s", DescribeAccess(addr))
	}
	return cost
}

// NotifyFetch records the last fetched opcode for the openbus mechanism,
// called by the CPU after every successful code fetch.
func (b *Bus) NotifyFetch(opcode uint32) {
	b.openBus = opcode
}

// NotifyPC tells the bus where the CPU's program counter currently is, so
// that readBIOS* can decide whether a BIOS-region read is legitimate.
func (b *Bus) NotifyPC(pc uint32) {
	b.pcInBIOS = pc < SizeBIOS
}

func (b *Bus) readBIOS8(off uint32) uint8 {
	if !b.biosInFetchWindow() {
		warnSuspicious("bus", "BIOS read outside of fetch window at %#x", off)
		return uint8(b.openBus)
	}
	return b.bios[off]
}

func (b *Bus) readBIOS16(off uint32) uint16 {
	if !b.biosInFetchWindow() {
		return uint16(b.openBus)
	}
	return uint16(b.bios[off]) | uint16(b.bios[off+1])<<8
}

func (b *Bus) readBIOS32(off uint32) uint32 {
	if !b.biosInFetchWindow() {
		return b.openBus
	}
	return le32(b.bios[off : off+4])
}

// biosInFetchWindow reports whether a BIOS-region read is legitimate: the
// BIOS is loaded and the CPU's PC (as last reported via NotifyPC) is
// itself inside the BIOS. Otherwise, per spec.md §3, BIOS reads return the
// last-fetched opcode rather than BIOS contents.
func (b *Bus) biosInFetchWindow() bool {
	return b.biosLoaded && b.pcInBIOS
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE32(b []byte, v uint32) {
	b[0] = uint8(v)
	b[1] = uint8(v >> 8)
	b[2] = uint8(v >> 16)
	b[3] = uint8(v >> 24)
}
