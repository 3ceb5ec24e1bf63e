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

// Package bus implements the GBA's memory map: address decoding, region
// mirroring, waitstates, DMA, timers and the interrupt controller. Every
// access the CPU or PPU makes to memory passes through here.
package bus

import "fmt"

// Area identifies which memory region an address decodes into.
type Area int

// The memory areas of the GBA address space, decoded from the top byte of
// the address (spec.md §3 "Memory regions").
const (
	AreaUnmapped Area = iota
	AreaBIOS
	AreaEWRAM
	AreaIWRAM
	AreaIO
	AreaPaletteRAM
	AreaVRAM
	AreaOAM
	AreaROM0
	AreaROM1
	AreaROM2
	AreaSRAM
)

func (a Area) String() string {
	switch a {
	case AreaBIOS:
		return "BIOS"
	case AreaEWRAM:
		return "EWRAM"
	case AreaIWRAM:
		return "IWRAM"
	case AreaIO:
		return "IO"
	case AreaPaletteRAM:
		return "PaletteRAM"
	case AreaVRAM:
		return "VRAM"
	case AreaOAM:
		return "OAM"
	case AreaROM0:
		return "ROM0"
	case AreaROM1:
		return "ROM1"
	case AreaROM2:
		return "ROM2"
	case AreaSRAM:
		return "SRAM"
	}
	return "Unmapped"
}

// Sizes of the fixed memory regions, used for mirroring.
const (
	SizeBIOS       = 0x00004000 // 16 KiB
	SizeEWRAM      = 0x00040000 // 256 KiB
	SizeIWRAM      = 0x00008000 // 32 KiB
	SizeIO         = 0x00000400 // ~1 KiB, only ~3FE used
	SizePaletteRAM = 0x00000400 // 1 KiB
	SizeVRAM       = 0x00018000 // 96 KiB
	SizeVRAMMirror = 0x00020000 // mirror period: 0x18000-aligned 32KiB block mirrors across this span
	SizeOAM        = 0x00000400 // 1 KiB
	SizeROM        = 0x02000000 // up to 32 MiB
	SizeSRAM       = 0x00010000 // up to 64 KiB
)

// Origins of each region's primary mirror.
const (
	OriginBIOS  = uint32(0x00000000)
	OriginEWRAM = uint32(0x02000000)
	OriginIWRAM = uint32(0x03000000)
	OriginIO    = uint32(0x04000000)
	OriginPal   = uint32(0x05000000)
	OriginVRAM  = uint32(0x06000000)
	OriginOAM   = uint32(0x07000000)
	OriginROM0  = uint32(0x08000000)
	OriginROM1  = uint32(0x0A000000)
	OriginROM2  = uint32(0x0C000000)
	OriginSRAM  = uint32(0x0E000000)
)

// Decode maps a full 32-bit address to its Area and an offset within that
// area, with mirroring already applied. Decoding uses the top 8 bits, per
// spec.md §3.
func Decode(addr uint32) (area Area, offset uint32) {
	page := addr >> 24

	switch page {
	case 0x00:
		if addr < SizeBIOS {
			return AreaBIOS, addr
		}
		return AreaUnmapped, 0
	case 0x02:
		return AreaEWRAM, addr % SizeEWRAM
	case 0x03:
		return AreaIWRAM, addr % SizeIWRAM
	case 0x04:
		off := addr - OriginIO
		if off < SizeIO {
			return AreaIO, off
		}
		return AreaUnmapped, 0
	case 0x05:
		return AreaPaletteRAM, addr % SizePaletteRAM
	case 0x06:
		// Each 0x20000 span holds the 96KiB of VRAM followed by a 32KiB
		// mirror: offsets 0x18000-0x1FFFF map onto 0x10000-0x17FFF.
		off := addr % SizeVRAMMirror
		if off >= SizeVRAM {
			off -= 0x8000
		}
		return AreaVRAM, off
	case 0x07:
		return AreaOAM, addr % SizeOAM
	case 0x08, 0x09:
		return AreaROM0, addr % SizeROM
	case 0x0A, 0x0B:
		return AreaROM1, addr % SizeROM
	case 0x0C, 0x0D:
		return AreaROM2, addr % SizeROM
	case 0x0E, 0x0F:
		return AreaSRAM, addr % SizeSRAM
	}
	return AreaUnmapped, 0
}

// DescribeAccess is a debug helper used by the logger when reporting unmapped or
// suspicious accesses.
func DescribeAccess(addr uint32) string {
	area, off := Decode(addr)
	return fmt.Sprintf("%s+%#x (addr %#08x)", area, off, addr)
}
