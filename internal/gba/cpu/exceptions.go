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

// Exception vector addresses.
const (
	vectorReset    = 0x00000000
	vectorUndef    = 0x00000004
	vectorSWI      = 0x00000008
	vectorPrefetch = 0x0000000C
	vectorDataAbt  = 0x00000010
	vectorIRQ      = 0x00000018
	vectorFIQ      = 0x0000001C
)

// enterException performs the common exception-entry sequence: bank LR to
// the return address, copy CPSR to SPSR_mode, switch mode, mask I (and F
// for reset/FIQ, handled by the caller setting maskFIQ), clear T, and
// branch to the vector. Returns the instruction's reported cycle cost: an
// exception entry behaves like a branch (2S+1N) at the bus level, charged
// by the caller's subsequent fetch.
//
// armOffset/thumbOffset are the LR-from-PC offsets for this exception kind
// in each state, per the architecture reference manual's exception-entry
// table: SWI/Undefined are (4, 2) since THUMB opcodes are half the width
// of ARM ones, but IRQ/FIQ/PrefetchAbort are (4, 4) — the pipeline
// refill that precedes an interrupt's entry already accounts for the
// narrower THUMB fetch, so IRQ's offset does not halve the way SWI's does.
func (c *CPU) enterException(vector uint32, mode Mode, armOffset, thumbOffset uint32, maskFIQUnchanged bool) int {
	// the offsets apply to the raw PC: for an IRQ taken at the start of
	// Step that is the next instruction to run (not yet fetched); for
	// SWI/Undefined the caller has wound PC back to the raising
	// instruction's own address.
	returnAddr := c.Regs.PC()
	savedCPSR := c.Regs.CPSR()

	offset := armOffset
	if savedCPSR&flagT != 0 {
		offset = thumbOffset
	}

	c.Regs.SetMode(mode)
	c.Regs.SetSPSR(savedCPSR)
	c.Regs.SetR(14, returnAddr+offset)
	c.Regs.SetIRQDisabled(true)
	if !maskFIQUnchanged {
		c.Regs.SetFIQDisabled(true)
	}
	c.Regs.SetThumb(false)
	c.LoadPC(vector)

	return 3 // 2S + 1N, approximated as a flat 3-cycle branch-like cost
}

// RaiseSWI is called by the ARM/THUMB SWI decode. lr points to the
// instruction after the SWI.
func (c *CPU) RaiseSWI(swiNumber uint8) int {
	c.SWIRequested = true
	c.SWINumber = swiNumber
	c.rewindToCurrentInstruction()
	return c.enterException(vectorSWI, ModeSVC, 4, 2, true)
}

// RaiseUndefined is called when decode fails to recognize an opcode.
func (c *CPU) RaiseUndefined() int {
	c.rewindToCurrentInstruction()
	return c.enterException(vectorUndef, ModeUND, 4, 2, true)
}

// rewindToCurrentInstruction moves PC back from the already-advanced fetch
// address to the executing instruction's own address.
func (c *CPU) rewindToCurrentInstruction() {
	if c.Regs.Thumb() {
		c.Regs.SetPC(c.Regs.PC() - 2)
	} else {
		c.Regs.SetPC(c.Regs.PC() - 4)
	}
}

// ReturnFromSWI unwinds the exception-entry sequence RaiseSWI performed,
// without ever having executed any BIOS code in between. It's how the
// orchestrator resumes the guest after servicing a call through the
// HLE-BIOS table (internal/bios) instead of a loaded BIOS image.
func (c *CPU) ReturnFromSWI() {
	spsr := c.Regs.SPSR()
	newMode := Mode(spsr & 0x1F)
	returnAddr := c.Regs.R(14)

	c.Regs.SetMode(newMode)
	c.Regs.SetCPSR(spsr)
	c.LoadPC(returnAddr)

	c.SWIRequested = false
}
