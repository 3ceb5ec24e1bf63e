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

package cpu

import "github.com/exampleorg/goba/internal/gba/bus"

// stepThumb fetches, decodes and executes one 16-bit THUMB instruction.
func (c *CPU) stepThumb() int {
	instrAddr := c.Regs.PC()
	opcode, cost := c.mem.Read16(instrAddr, c.fetchKind())
	c.mem.NotifyFetch(uint32(opcode) | uint32(opcode)<<16)
	c.flushPending = false
	c.Regs.SetPC(instrAddr + 2)

	pcOp := instrAddr + 4
	return cost + c.execThumb(opcode, pcOp)
}

// execThumb dispatches on the THUMB instruction's leading bits, matching
// the nineteen format classes of the architecture reference manual's THUMB
// instruction summary.
func (c *CPU) execThumb(opcode uint16, pcOp uint32) int {
	switch {
	case opcode&0xF800 == 0x1800: // format 2: add/subtract
		return c.thumbAddSub(opcode, pcOp)
	case opcode&0xE000 == 0x0000: // format 1: move shifted register
		return c.thumbShifted(opcode, pcOp)
	case opcode&0xE000 == 0x2000: // format 3: move/cmp/add/sub immediate
		return c.thumbImmediate(opcode, pcOp)
	case opcode&0xFC00 == 0x4000: // format 4: ALU operations
		return c.thumbALU(opcode, pcOp)
	case opcode&0xFC00 == 0x4400: // format 5: hi register ops / BX
		return c.thumbHiOps(opcode, pcOp)
	case opcode&0xF800 == 0x4800: // format 6: PC-relative load
		return c.thumbPCRelativeLoad(opcode, pcOp)
	case opcode&0xF200 == 0x5000: // format 7: load/store register offset
		return c.thumbLoadStoreReg(opcode, pcOp)
	case opcode&0xF200 == 0x5200: // format 8: load/store sign-extended
		return c.thumbLoadStoreSignExt(opcode, pcOp)
	case opcode&0xE000 == 0x6000: // format 9: load/store immediate offset
		return c.thumbLoadStoreImm(opcode, pcOp)
	case opcode&0xF000 == 0x8000: // format 10: load/store halfword
		return c.thumbLoadStoreHalfword(opcode, pcOp)
	case opcode&0xF000 == 0x9000: // format 11: SP-relative load/store
		return c.thumbSPRelative(opcode, pcOp)
	case opcode&0xF000 == 0xA000: // format 12: load address
		return c.thumbLoadAddress(opcode, pcOp)
	case opcode&0xFF00 == 0xB000: // format 13: add offset to SP
		return c.thumbAddSP(opcode, pcOp)
	case opcode&0xF600 == 0xB400: // format 14: push/pop
		return c.thumbPushPop(opcode, pcOp)
	case opcode&0xF000 == 0xC000: // format 15: multiple load/store
		return c.thumbMultipleTransfer(opcode, pcOp)
	case opcode&0xFF00 == 0xDF00: // format 17: software interrupt
		return c.RaiseSWI(uint8(opcode & 0xFF))
	case opcode&0xF000 == 0xD000: // format 16: conditional branch
		return c.thumbCondBranch(opcode, pcOp)
	case opcode&0xF800 == 0xE000: // format 18: unconditional branch
		return c.thumbUncondBranch(opcode, pcOp)
	case opcode&0xF000 == 0xF000: // format 19: long branch with link
		return c.thumbLongBranchLink(opcode, pcOp)
	}
	return c.RaiseUndefined()
}

func (c *CPU) thumbShifted(opcode uint16, pcOp uint32) int {
	st := ShiftType((opcode >> 11) & 0x3)
	amount := uint32((opcode >> 6) & 0x1F)
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	result, carry := shift(st, c.Regs.R(rs), amount, true, c.Regs.C())
	c.Regs.SetR(rd, result)
	c.Regs.SetNZ(result)
	c.Regs.SetC(carry)
	return 0
}

func (c *CPU) thumbAddSub(opcode uint16, pcOp uint32) int {
	sub := opcode&(1<<9) != 0
	immediate := opcode&(1<<10) != 0
	rn := int((opcode >> 6) & 0x7)
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	a := c.Regs.R(rs)
	var b uint32
	if immediate {
		b = uint32(rn)
	} else {
		b = c.Regs.R(rn)
	}

	var result uint32
	var carryOut, overflow bool
	if sub {
		result, carryOut, overflow = subWithBorrow(a, b, true)
	} else {
		result, carryOut, overflow = addWithCarry(a, b, false)
	}
	c.Regs.SetR(rd, result)
	c.Regs.SetNZ(result)
	c.Regs.SetC(carryOut)
	c.Regs.SetV(overflow)
	return 0
}

func (c *CPU) thumbImmediate(opcode uint16, pcOp uint32) int {
	op := (opcode >> 11) & 0x3
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode & 0xFF)

	a := c.Regs.R(rd)
	switch op {
	case 0: // MOV
		c.Regs.SetR(rd, imm)
		c.Regs.SetNZ(imm)
	case 1: // CMP
		result, carryOut, overflow := subWithBorrow(a, imm, true)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 2: // ADD
		result, carryOut, overflow := addWithCarry(a, imm, false)
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 3: // SUB
		result, carryOut, overflow := subWithBorrow(a, imm, true)
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	}
	return 0
}

func (c *CPU) thumbALU(opcode uint16, pcOp uint32) int {
	op := (opcode >> 6) & 0xF
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	a := c.Regs.R(rd)
	b := c.Regs.R(rs)
	extra := 0

	switch op {
	case 0x0: // AND
		result := a & b
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
	case 0x1: // EOR
		result := a ^ b
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
	case 0x2: // LSL
		result, carry := shiftLSL(a, b&0xFF, c.Regs.C())
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carry)
		extra = 1
	case 0x3: // LSR
		result, carry := shiftLSR(a, b&0xFF, false, c.Regs.C())
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carry)
		extra = 1
	case 0x4: // ASR
		result, carry := shiftASR(a, b&0xFF, false, c.Regs.C())
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carry)
		extra = 1
	case 0x5: // ADC
		result, carryOut, overflow := addWithCarry(a, b, c.Regs.C())
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 0x6: // SBC
		result, carryOut, overflow := subWithBorrow(a, b, c.Regs.C())
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 0x7: // ROR
		result, carry := shiftROR(a, b&0xFF, false, c.Regs.C())
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carry)
		extra = 1
	case 0x8: // TST
		result := a & b
		c.Regs.SetNZ(result)
	case 0x9: // NEG
		result, carryOut, overflow := subWithBorrow(0, b, true)
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 0xA: // CMP
		result, carryOut, overflow := subWithBorrow(a, b, true)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 0xB: // CMN
		result, carryOut, overflow := addWithCarry(a, b, false)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 0xC: // ORR
		result := a | b
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
	case 0xD: // MUL
		result := a * b
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
		extra = 1
	case 0xE: // BIC
		result := a &^ b
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
	case 0xF: // MVN
		result := ^b
		c.Regs.SetR(rd, result)
		c.Regs.SetNZ(result)
	}
	return extra
}

func (c *CPU) thumbHiOps(opcode uint16, pcOp uint32) int {
	op := (opcode >> 8) & 0x3
	h1 := opcode&(1<<7) != 0
	h2 := opcode&(1<<6) != 0
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	if h1 {
		rd += 8
	}
	if h2 {
		rs += 8
	}

	b := c.regRead(rs, pcOp)

	switch op {
	case 0x0: // ADD
		result, _, _ := addWithCarry(c.regRead(rd, pcOp), b, false)
		if rd == 15 {
			c.LoadPC(result &^ 1)
		} else {
			c.Regs.SetR(rd, result)
		}
	case 0x1: // CMP
		result, carryOut, overflow := subWithBorrow(c.regRead(rd, pcOp), b, true)
		c.Regs.SetNZ(result)
		c.Regs.SetC(carryOut)
		c.Regs.SetV(overflow)
	case 0x2: // MOV
		if rd == 15 {
			c.LoadPC(b &^ 1)
		} else {
			c.Regs.SetR(rd, b)
		}
	case 0x3: // BX (and BLX, unsupported on ARMv4T, decoded identically)
		c.Regs.SetThumb(b&1 != 0)
		c.LoadPC(b)
	}
	return 2
}

func (c *CPU) thumbPCRelativeLoad(opcode uint16, pcOp uint32) int {
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	addr := (pcOp &^ 3) + imm
	v, cycles := c.mem.Read32(addr, bus.NonSequential)
	c.Regs.SetR(rd, v)
	return cycles + 1
}

func (c *CPU) thumbLoadStoreReg(opcode uint16, pcOp uint32) int {
	load := opcode&(1<<11) != 0
	byteAccess := opcode&(1<<10) != 0
	ro := int((opcode >> 6) & 0x7)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	addr := c.Regs.R(rb) + c.Regs.R(ro)
	var cycles int
	if load {
		var v uint32
		if byteAccess {
			b, rc := c.mem.Read8(addr, bus.NonSequential)
			v, cycles = uint32(b), rc
		} else {
			w, rc := c.mem.Read32(addr, bus.NonSequential)
			v, cycles = w, rc
		}
		c.Regs.SetR(rd, v)
	} else {
		if byteAccess {
			cycles = c.mem.Write8(addr, uint8(c.Regs.R(rd)), bus.NonSequential)
		} else {
			cycles = c.mem.Write32(addr, c.Regs.R(rd), bus.NonSequential)
		}
	}
	return cycles + 1
}

func (c *CPU) thumbLoadStoreSignExt(opcode uint16, pcOp uint32) int {
	opBits := (opcode >> 10) & 0x3
	ro := int((opcode >> 6) & 0x7)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	addr := c.Regs.R(rb) + c.Regs.R(ro)
	var v uint32
	var cycles int
	switch opBits {
	case 0x0: // STRH
		cycles = c.mem.Write16(addr, uint16(c.Regs.R(rd)), bus.NonSequential)
		return cycles + 1
	case 0x1: // LDSB
		b, rc := c.mem.Read8(addr, bus.NonSequential)
		v, cycles = uint32(int32(int8(b))), rc
	case 0x2: // LDRH
		h, rc := c.mem.Read16(addr, bus.NonSequential)
		v, cycles = uint32(h), rc
	case 0x3: // LDSH
		h, rc := c.mem.Read16(addr, bus.NonSequential)
		v, cycles = uint32(int32(int16(h))), rc
	}
	c.Regs.SetR(rd, v)
	return cycles + 1
}

func (c *CPU) thumbLoadStoreImm(opcode uint16, pcOp uint32) int {
	byteAccess := opcode&(1<<12) != 0
	load := opcode&(1<<11) != 0
	imm := uint32((opcode >> 6) & 0x1F)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	if !byteAccess {
		imm *= 4
	}

	addr := c.Regs.R(rb) + imm
	var cycles int
	if load {
		var v uint32
		if byteAccess {
			b, rc := c.mem.Read8(addr, bus.NonSequential)
			v, cycles = uint32(b), rc
		} else {
			w, rc := c.mem.Read32(addr, bus.NonSequential)
			v, cycles = w, rc
		}
		c.Regs.SetR(rd, v)
	} else {
		if byteAccess {
			cycles = c.mem.Write8(addr, uint8(c.Regs.R(rd)), bus.NonSequential)
		} else {
			cycles = c.mem.Write32(addr, c.Regs.R(rd), bus.NonSequential)
		}
	}
	return cycles + 1
}

func (c *CPU) thumbLoadStoreHalfword(opcode uint16, pcOp uint32) int {
	load := opcode&(1<<11) != 0
	imm := uint32((opcode>>6)&0x1F) * 2
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	addr := c.Regs.R(rb) + imm
	var cycles int
	if load {
		h, rc := c.mem.Read16(addr, bus.NonSequential)
		c.Regs.SetR(rd, uint32(h))
		cycles = rc
	} else {
		cycles = c.mem.Write16(addr, uint16(c.Regs.R(rd)), bus.NonSequential)
	}
	return cycles + 1
}

func (c *CPU) thumbSPRelative(opcode uint16, pcOp uint32) int {
	load := opcode&(1<<11) != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4

	addr := c.Regs.R(13) + imm
	var cycles int
	if load {
		v, rc := c.mem.Read32(addr, bus.NonSequential)
		c.Regs.SetR(rd, v)
		cycles = rc
	} else {
		cycles = c.mem.Write32(addr, c.Regs.R(rd), bus.NonSequential)
	}
	return cycles + 1
}

func (c *CPU) thumbLoadAddress(opcode uint16, pcOp uint32) int {
	usesSP := opcode&(1<<11) != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4

	var base uint32
	if usesSP {
		base = c.Regs.R(13)
	} else {
		base = pcOp &^ 3
	}
	c.Regs.SetR(rd, base+imm)
	return 0
}

func (c *CPU) thumbAddSP(opcode uint16, pcOp uint32) int {
	negative := opcode&(1<<7) != 0
	imm := uint32(opcode&0x7F) * 4
	if negative {
		c.Regs.SetR(13, c.Regs.R(13)-imm)
	} else {
		c.Regs.SetR(13, c.Regs.R(13)+imm)
	}
	return 0
}

func (c *CPU) thumbPushPop(opcode uint16, pcOp uint32) int {
	load := opcode&(1<<11) != 0
	includePCLR := opcode&(1<<8) != 0
	regList := opcode & 0xFF

	count := 0
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}
	if includePCLR {
		count++
	}

	cycles := 0
	if load { // POP
		addr := c.Regs.R(13)
		kind := bus.NonSequential
		for i := 0; i < 8; i++ {
			if regList&(1<<uint(i)) == 0 {
				continue
			}
			v, rc := c.mem.Read32(addr, kind)
			c.Regs.SetR(i, v)
			addr += 4
			cycles += rc
			kind = bus.Sequential
		}
		if includePCLR {
			v, rc := c.mem.Read32(addr, kind)
			c.LoadPC(v &^ 1)
			addr += 4
			cycles += rc
		}
		c.Regs.SetR(13, addr)
		extra := 1
		if includePCLR {
			extra = 3
		}
		return cycles + extra
	}

	// PUSH
	addr := c.Regs.R(13) - uint32(count)*4
	start := addr
	kind := bus.NonSequential
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		cycles += c.mem.Write32(addr, c.Regs.R(i), kind)
		addr += 4
		kind = bus.Sequential
	}
	if includePCLR {
		cycles += c.mem.Write32(addr, c.Regs.R(14), kind)
	}
	c.Regs.SetR(13, start)
	return cycles + 1
}

func (c *CPU) thumbMultipleTransfer(opcode uint16, pcOp uint32) int {
	load := opcode&(1<<11) != 0
	rb := int((opcode >> 8) & 0x7)
	regList := opcode & 0xFF

	base := c.Regs.R(rb)
	count := 0
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}

	// empty-list THUMB LDMIA/STMIA shares the ARM quirk: transfers nothing
	// useful but still steps the base by 0x40 (spec.md §8).
	if count == 0 {
		addr := base
		if load {
			v, rc := c.mem.Read32(addr, bus.NonSequential)
			c.Regs.SetR(15, v&^1)
			c.flushPending = true
			c.Regs.SetR(rb, base+0x40)
			return rc + 2
		}
		rc := c.mem.Write32(addr, c.Regs.PC()+2, bus.NonSequential)
		c.Regs.SetR(rb, base+0x40)
		return rc + 1
	}

	addr := base
	cycles := 0
	kind := bus.NonSequential
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		if load {
			v, rc := c.mem.Read32(addr, kind)
			c.Regs.SetR(i, v)
			cycles += rc
		} else {
			cycles += c.mem.Write32(addr, c.Regs.R(i), kind)
		}
		addr += 4
		kind = bus.Sequential
	}

	// Rb is not written back when it is also the last register loaded; in
	// every other case (including STMIA) it is updated to the final
	// address.
	lastLoadedIsRb := load && regList&(1<<uint(rb)) != 0 && highestSetBit(regList) == rb
	if !lastLoadedIsRb {
		c.Regs.SetR(rb, addr)
	}

	extra := 1
	if load {
		extra = 2
	}
	return cycles + extra
}

func highestSetBit(mask uint16) int {
	for i := 7; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

func (c *CPU) thumbCondBranch(opcode uint16, pcOp uint32) int {
	cond := uint32((opcode >> 8) & 0xF)
	offset := int32(int8(uint8(opcode&0xFF))) * 2

	if !checkCondition(cond, c.Regs) {
		return 0
	}
	target := uint32(int32(pcOp) + offset)
	c.LoadPC(target)
	return 3
}

func (c *CPU) thumbUncondBranch(opcode uint16, pcOp uint32) int {
	offset := signExtend11(opcode&0x7FF) * 2
	target := uint32(int32(pcOp) + offset)
	c.LoadPC(target)
	return 3
}

func signExtend11(v uint16) int32 {
	return int32(v) << 21 >> 21
}

func (c *CPU) thumbLongBranchLink(opcode uint16, pcOp uint32) int {
	low := opcode&(1<<11) != 0
	offset := uint32(opcode & 0x7FF)

	if !low {
		// first half: LR = PC + (offset << 12), sign-extended
		hi := uint32(signExtend11(uint16(offset))) << 12
		c.Regs.SetR(14, pcOp+hi)
		return 0
	}

	target := c.Regs.R(14) + (offset << 1)
	c.Regs.SetR(14, c.Regs.PC()|1)
	c.LoadPC(target)
	return 3
}
