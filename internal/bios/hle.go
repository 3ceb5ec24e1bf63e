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

// Package bios implements the documented effects of the GBA's BIOS SWI
// calls without running any firmware: the orchestrator calls into this
// table in place of letting the CPU execute real BIOS code whenever no
// BIOS image was loaded (spec.md §4.3 "A built-in HLE-BIOS").
package bios

import (
	"math"

	"github.com/exampleorg/goba/internal/logger"
)

// Regs is the subset of cpu.Registers the HLE table needs: argument and
// result registers r0-r3.
type Regs interface {
	R(n int) uint32
	SetR(n int, v uint32)
}

// Memory is the subset of bus.Bus the HLE table needs for bulk memory
// operations (CpuSet, the decompression calls, BitUnPack, ...).
type Memory interface {
	Peek8(addr uint32) uint8
	Peek16(addr uint32) uint16
	Peek32(addr uint32) uint32
	Poke8(addr uint32, v uint8)
	Poke16(addr uint32, v uint16)
	Poke32(addr uint32, v uint32)
}

// IRQRegs is the subset of the interrupt controller IntrWait/VBlankIntrWait
// need.
type IRQRegs interface {
	ReadIE() uint16
	WriteIE(v uint16)
	ReadIF() uint16
	ClearIF(mask uint16)
}

// PowerControl is the subset of the bus the low-power SWIs need.
type PowerControl interface {
	Halt()
	Stop()
}

// Machine groups every collaborator a call might need. The orchestrator
// constructs one from its Bus/CPU each time it services a call.
type Machine struct {
	Regs  Regs
	Mem   Memory
	IRQ   IRQRegs
	Power PowerControl

	// ResetVector is branched to by SoftReset; it's a collaborator rather
	// than a constant because skip-BIOS sessions reset straight into the
	// cartridge's entry point instead of 0x00000000.
	ResetVector func()
}

// SWI call numbers, per the documented GBA BIOS table.
const (
	SoftReset             = 0x00
	RegisterRamReset      = 0x01
	Halt                  = 0x02
	Stop                  = 0x03
	IntrWait              = 0x04
	VBlankIntrWait        = 0x05
	Div                   = 0x06
	DivArm                = 0x07
	Sqrt                  = 0x08
	ArcTan                = 0x09
	ArcTan2               = 0x0A
	CpuSet                = 0x0B
	CpuFastSet            = 0x0C
	GetBiosChecksum       = 0x0D
	BgAffineSet           = 0x0E
	ObjAffineSet          = 0x0F
	BitUnPack             = 0x10
	LZ77UnCompWram        = 0x11
	LZ77UnCompVram        = 0x12
	HuffUnComp            = 0x13
	RLUnCompWram          = 0x14
	RLUnCompVram          = 0x15
	Diff8bitUnFilterWram  = 0x16
	Diff8bitUnFilterVram  = 0x17
	Diff16bitUnFilter     = 0x18
	SoundBias             = 0x19
	MultiBoot             = 0x25
)

// Handle services one SWI call, reading arguments from r0-r3 and writing
// results back the same way a real BIOS return would leave them. Numbers
// this table doesn't implement are logged at warn and treated as a no-op,
// per spec.md §7's "never abort on guest behavior" policy.
func Handle(m Machine, number uint8) {
	switch number {
	case SoftReset:
		if m.ResetVector != nil {
			m.ResetVector()
		}
	case RegisterRamReset:
		// Flags select which regions to clear; the core has no audio/display
		// chip state to reset beyond what Bus.Reset already covers, so this
		// is a no-op beyond what a fresh session already guarantees.
	case Halt:
		m.Power.Halt()
	case Stop:
		m.Power.Stop()
	case IntrWait:
		handleIntrWait(m, m.Regs.R(0) != 0, m.Regs.R(1))
	case VBlankIntrWait:
		handleIntrWait(m, true, 1) // bit 0 = VBlank
	case Div:
		quotient, remainder, absQuotient := divmod(int32(m.Regs.R(0)), int32(m.Regs.R(1)))
		m.Regs.SetR(0, uint32(quotient))
		m.Regs.SetR(1, uint32(remainder))
		m.Regs.SetR(3, uint32(absQuotient))
	case DivArm:
		quotient, remainder, absQuotient := divmod(int32(m.Regs.R(1)), int32(m.Regs.R(0)))
		m.Regs.SetR(0, uint32(quotient))
		m.Regs.SetR(1, uint32(remainder))
		m.Regs.SetR(3, uint32(absQuotient))
	case Sqrt:
		m.Regs.SetR(0, uint32(math.Sqrt(float64(m.Regs.R(0)))))
	case ArcTan:
		m.Regs.SetR(0, arcTan(int32(m.Regs.R(0))))
	case ArcTan2:
		m.Regs.SetR(0, arcTan2(int32(m.Regs.R(0)), int32(m.Regs.R(1))))
	case CpuSet:
		cpuSet(m)
	case CpuFastSet:
		cpuFastSet(m)
	case GetBiosChecksum:
		m.Regs.SetR(0, 0xBAAE187F) // the well-known GBA BIOS's checksum
	case BgAffineSet:
		affineSet(m, false)
	case ObjAffineSet:
		affineSet(m, true)
	case BitUnPack:
		bitUnPack(m)
	case LZ77UnCompWram, LZ77UnCompVram:
		lz77UnComp(m)
	case HuffUnComp:
		huffUnComp(m)
	case RLUnCompWram, RLUnCompVram:
		rlUnComp(m)
	case Diff8bitUnFilterWram, Diff8bitUnFilterVram:
		diffUnFilter(m, 8)
	case Diff16bitUnFilter:
		diffUnFilter(m, 16)
	case SoundBias:
		// No APU in this core (spec.md §1 non-goal); the bias ramp has no
		// observable effect here.
	case MultiBoot:
		logger.Warnf("bios", "MultiBoot is not supported by the HLE table")
		m.Regs.SetR(0, 1) // non-zero return indicates failure, per the real BIOS
	default:
		logger.Warnf("bios", "unimplemented HLE SWI %#02x", number)
	}
}

func handleIntrWait(m Machine, discardCurrent bool, flags uint32) {
	if discardCurrent {
		m.IRQ.ClearIF(uint16(flags))
	}
	m.IRQ.WriteIE(m.IRQ.ReadIE() | uint16(flags))
	m.Power.Halt()
}

// divmod mirrors the BIOS Div call's division-by-zero case without
// trapping: the quotient is 1 (-1 for a negative dividend), the remainder
// is the dividend and the absolute quotient is 1.
func divmod(numerator, denominator int32) (quotient, remainder, absQuotient int32) {
	if denominator == 0 {
		if numerator < 0 {
			return -1, numerator, 1
		}
		return 1, numerator, 1
	}
	q := numerator / denominator
	r := numerator - q*denominator
	aq := q
	if aq < 0 {
		aq = -aq
	}
	return q, r, aq
}

// arcTan/arcTan2 return the BIOS's 16.16-style fixed-point angle, scaled
// to a 16-bit circle (0x0000-0xFFFF represents 0-2π), computed with the
// standard library's trig instead of the BIOS's original CORDIC-like
// approximation — observably close enough for guest code that merely
// orients sprites, and within the core's non-goal of bit-exact BIOS math.
func arcTan(x int32) uint32 {
	v := math.Atan(float64(x) / 0x4000)
	return uint32(int32(v / (2 * math.Pi) * 0x10000))
}

func arcTan2(x, y int32) uint32 {
	v := math.Atan2(float64(y), float64(x))
	if v < 0 {
		v += 2 * math.Pi
	}
	return uint32(v / (2 * math.Pi) * 0x10000)
}

func cpuSet(m Machine) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)
	ctl := m.Regs.R(2)

	count := ctl & 0x1FFFFF
	fixedSrc := ctl&(1<<24) != 0
	word := ctl&(1<<26) != 0

	if word {
		for i := uint32(0); i < count; i++ {
			v := m.Mem.Peek32(src)
			m.Mem.Poke32(dst+i*4, v)
			if !fixedSrc {
				src += 4
			}
		}
	} else {
		for i := uint32(0); i < count; i++ {
			v := m.Mem.Peek16(src)
			m.Mem.Poke16(dst+i*2, v)
			if !fixedSrc {
				src += 2
			}
		}
	}
}

func cpuFastSet(m Machine) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)
	ctl := m.Regs.R(2)

	count := ctl & 0x1FFFFF
	// CpuFastSet always moves 32-byte blocks of words; round up like real
	// hardware does, rather than truncating a partial final block.
	count = (count + 7) &^ 7
	fixedSrc := ctl&(1<<24) != 0

	for i := uint32(0); i < count; i++ {
		v := m.Mem.Peek32(src)
		m.Mem.Poke32(dst+i*4, v)
		if !fixedSrc {
			src += 4
		}
	}
}

// affineSet computes the PA/PB/PC/PD rotation/scaling matrix the BIOS's
// BgAffineSet/ObjAffineSet calls derive from a source array of
// (origin X/Y, display X/Y, scale X/Y, angle) structs, writing out to a
// destination array of (PA,PB,PC,PD,[X,Y for BG only]) entries.
func affineSet(m Machine, obj bool) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)
	count := m.Regs.R(2)

	srcStride := uint32(20) // 2 i32 origin + 2 i16 display + 2 i16 scale + 1 u16 angle (+2 pad) = 20 for BG layout
	dstStride := uint32(16) // PA,PB,PC,PD + 32-bit X,Y
	if obj {
		dstStride = 8
	}

	for i := uint32(0); i < count; i++ {
		base := src + i*srcStride
		origX := int32(m.Mem.Peek32(base))
		origY := int32(m.Mem.Peek32(base + 4))
		dispX := int16(m.Mem.Peek16(base + 8))
		dispY := int16(m.Mem.Peek16(base + 10))
		scaleX := int16(m.Mem.Peek16(base + 12))
		scaleY := int16(m.Mem.Peek16(base + 14))
		angle := m.Mem.Peek16(base + 16)

		theta := float64(angle) / 0x10000 * 2 * math.Pi
		sin, cos := math.Sincos(theta)

		sx := float64(scaleX) / 256
		sy := float64(scaleY) / 256

		pa := int16(cos * sx * 256)
		pb := int16(-sin * sx * 256)
		pc := int16(sin * sy * 256)
		pd := int16(cos * sy * 256)

		dbase := dst + i*dstStride
		m.Mem.Poke16(dbase, uint16(pa))
		m.Mem.Poke16(dbase+2, uint16(pb))
		m.Mem.Poke16(dbase+4, uint16(pc))
		m.Mem.Poke16(dbase+6, uint16(pd))

		if !obj {
			refX := int32(origX) - int32(float64(dispX)*float64(pa)/256+float64(dispY)*float64(pb)/256)
			refY := int32(origY) - int32(float64(dispX)*float64(pc)/256+float64(dispY)*float64(pd)/256)
			m.Mem.Poke32(dbase+8, uint32(refX))
			m.Mem.Poke32(dbase+12, uint32(refY))
		}
	}
}

// bitUnPack expands a bitstream of sourceWidth-bit samples into
// destWidth-bit destination samples, per the BIOS's BitUnPack header at
// headerAddr: {srcLen u16, srcWidth u8, destWidth u8, dataOffset u32
// (top bit = add-to-zero-entries-too)}.
func bitUnPack(m Machine) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)
	header := m.Regs.R(2)

	srcLen := m.Mem.Peek16(header)
	srcWidth := m.Mem.Peek8(header + 2)
	destWidth := m.Mem.Peek8(header + 3)
	dataOffset := m.Mem.Peek32(header + 4)
	addBase := dataOffset&0x8000_0000 != 0
	offset := dataOffset &^ 0x8000_0000

	var srcBit, destBit uint32
	var destAccum uint32
	var destPos uint32

	flushDest := func() {
		switch destWidth {
		case 8:
			m.Mem.Poke8(dst+destPos, uint8(destAccum))
			destPos++
		case 16:
			m.Mem.Poke16(dst+destPos, uint16(destAccum))
			destPos += 2
		case 32:
			m.Mem.Poke32(dst+destPos, destAccum)
			destPos += 4
		}
		destAccum = 0
		destBit = 0
	}

	for i := uint32(0); i < uint32(srcLen); i++ {
		b := m.Mem.Peek8(src + i)
		for bit := uint32(0); bit < 8; bit += uint32(srcWidth) {
			sample := uint32(b>>bit) & (uint32(1)<<srcWidth - 1)
			if sample != 0 || addBase {
				sample += offset
			}
			destAccum |= sample << destBit
			destBit += uint32(srcWidth)
			if destBit >= uint32(destWidth) {
				flushDest()
			}
		}
		srcBit += 8
	}
}

func lz77UnComp(m Machine) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)

	header := m.Mem.Peek32(src)
	size := header >> 8
	src += 4

	var out uint32
	for out < size {
		flags := m.Mem.Peek8(src)
		src++
		for bit := 0; bit < 8 && out < size; bit++ {
			if flags&(0x80>>uint(bit)) == 0 {
				m.Mem.Poke8(dst+out, m.Mem.Peek8(src))
				src++
				out++
				continue
			}

			b0 := m.Mem.Peek8(src)
			b1 := m.Mem.Peek8(src + 1)
			src += 2

			length := uint32(b0>>4) + 3
			disp := (uint32(b0&0xF)<<8 | uint32(b1)) + 1

			for n := uint32(0); n < length && out < size; n++ {
				m.Mem.Poke8(dst+out, m.Mem.Peek8(dst+out-disp))
				out++
			}
		}
	}
}

func rlUnComp(m Machine) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)

	header := m.Mem.Peek32(src)
	size := header >> 8
	src += 4

	var out uint32
	for out < size {
		flag := m.Mem.Peek8(src)
		src++
		if flag&0x80 != 0 {
			length := uint32(flag&0x7F) + 3
			v := m.Mem.Peek8(src)
			src++
			for n := uint32(0); n < length && out < size; n++ {
				m.Mem.Poke8(dst+out, v)
				out++
			}
		} else {
			length := uint32(flag&0x7F) + 1
			for n := uint32(0); n < length && out < size; n++ {
				m.Mem.Poke8(dst+out, m.Mem.Peek8(src))
				src++
				out++
			}
		}
	}
}

// huffUnComp decodes the BIOS's 4-bit- or 8-bit-symbol Huffman format: a
// 32-bit header (symbol bit width in the low nibble, output size in bits
// 8-31), followed by a binary
// tree encoded as sibling-pair nodes, followed by the bitstream.
func huffUnComp(m Machine) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)

	header := m.Mem.Peek32(src)
	size := header >> 8
	symBits := header & 0xF
	treeSize := (m.Mem.Peek8(src+4) + 1) * 2
	treeBase := src + 5
	dataStart := src + 4 + uint32(treeSize)

	readBit := func(bitPos *uint32) uint32 {
		word := m.Mem.Peek32(dataStart + (*bitPos/32)*4)
		bit := (word >> (31 - (*bitPos % 32))) & 1
		*bitPos++
		return bit
	}

	decodeSymbol := func(bitPos *uint32) uint32 {
		nodeAddr := treeBase
		for {
			node := m.Mem.Peek8(nodeAddr)
			offset := uint32(node&0x3F) + 1
			isLeaf0 := node&0x80 != 0
			isLeaf1 := node&0x40 != 0

			base := (nodeAddr &^ 1) + offset*2

			bit := readBit(bitPos)
			var childAddr uint32
			var isLeaf bool
			if bit == 0 {
				childAddr = base
				isLeaf = isLeaf0
			} else {
				childAddr = base + 1
				isLeaf = isLeaf1
			}

			if isLeaf {
				return uint32(m.Mem.Peek8(childAddr))
			}
			nodeAddr = childAddr
		}
	}

	var bitPos uint32
	var out uint32
	var accum uint32
	var accumBits uint32
	for out < size {
		sym := decodeSymbol(&bitPos)
		accum |= sym << accumBits
		accumBits += symBits
		if accumBits >= 8 {
			m.Mem.Poke8(dst+out, uint8(accum))
			out++
			accum >>= 8
			accumBits -= 8
		}
	}
}

// diffUnFilter reverses the BIOS's Diff8bit/Diff16bit delta filters: each
// output sample is the running sum of the input stream, used by games that
// store gradient-compressed graphics.
func diffUnFilter(m Machine, bits int) {
	src := m.Regs.R(0)
	dst := m.Regs.R(1)

	header := m.Mem.Peek32(src)
	size := header >> 8
	src += 4

	if bits == 8 {
		var acc uint8
		for out := uint32(0); out < size; out++ {
			acc += m.Mem.Peek8(src + out)
			m.Mem.Poke8(dst+out, acc)
		}
		return
	}

	var acc uint16
	for out := uint32(0); out < size; out += 2 {
		acc += m.Mem.Peek16(src + out)
		m.Mem.Poke16(dst+out, acc)
	}
}
