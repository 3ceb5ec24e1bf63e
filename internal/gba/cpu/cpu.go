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

import (
	"github.com/exampleorg/goba/internal/gba/bus"
)

// MemoryBus is the subset of Bus the CPU needs. Defining it here, rather
// than depending on the concrete *bus.Bus type, keeps the CPU's tests free
// to plug in a trivial mock memory (mirroring the teacher's own
// hardware/cpu/cpu_test.go mockMem).
type MemoryBus interface {
	Read8(addr uint32, kind bus.Kind) (uint8, int)
	Read16(addr uint32, kind bus.Kind) (uint16, int)
	Read32(addr uint32, kind bus.Kind) (uint32, int)
	Write8(addr uint32, v uint8, kind bus.Kind) int
	Write16(addr uint32, v uint16, kind bus.Kind) int
	Write32(addr uint32, v uint32, kind bus.Kind) int
	NotifyFetch(opcode uint32)
	NotifyPC(pc uint32)
	IRQLine() bool
}

// CPU implements the ARM7TDMI found in the GBA.
type CPU struct {
	Regs *Registers

	mem MemoryBus

	// flushPending is set by LoadPC (branches, exception entry and loads
	// into R15) and by Reset; an MSR that changes mode or T does not set
	// it. It only makes the next opcode fetch a non-sequential access: no
	// prefetched opcodes are held, so there is nothing to refill.
	flushPending bool

	// Halted is cleared by Reset and carried through save states; nothing
	// in the CPU sets it. The orchestrator decides whether to call Step
	// from the bus's own Halted state; the CPU itself never blocks.
	Halted bool

	// SWIRequested and SWINumber are read by the orchestrator to route a
	// BIOS call through the HLE table when no BIOS image is loaded. RaiseSWI
	// sets them and ReturnFromSWI clears SWIRequested once serviced.
	SWIRequested bool
	SWINumber    uint8
}

// New creates a CPU wired to mem, in its post-reset state.
func New(mem MemoryBus) *CPU {
	c := &CPU{Regs: NewRegisters(), mem: mem}
	return c
}

// Reset reinitializes the CPU to the ARM7TDMI's documented reset state and
// flushes the pipeline. It does not itself branch to the reset vector —
// that's the orchestrator's job, since whether it's 0x00000000 (with a
// BIOS loaded) or straight into ROM (skip-BIOS) is a front-end decision.
func (c *CPU) Reset() {
	c.Regs = NewRegisters()
	c.flushPending = true
	c.Halted = false
}

// LoadPC sets the program counter and flushes the pipeline — the CPU-level
// primitive every branch, exception entry and LDM-into-R15 goes through.
func (c *CPU) LoadPC(addr uint32) {
	if c.Regs.Thumb() {
		addr &^= 1
	} else {
		addr &^= 3
	}
	c.Regs.SetPC(addr)
	c.flushPending = true
}

// Step executes exactly one instruction (one ARM or one THUMB opcode) and
// returns the number of cycles it consumed, folding in bus wait states.
// It checks for a pending IRQ at the start of the call, which is the
// "next fetch boundary" spec.md §4.2 refers to.
func (c *CPU) Step() int {
	if c.mem.IRQLine() && !c.Regs.IRQDisabled() {
		return c.enterException(vectorIRQ, ModeIRQ, 4, 4, true)
	}

	c.mem.NotifyPC(c.Regs.PC())

	if c.Regs.Thumb() {
		return c.stepThumb()
	}
	return c.stepARM()
}

// fetchKind returns the access kind for the opcode fetch about to happen:
// non-sequential immediately after a pipeline flush (branch target),
// sequential otherwise.
func (c *CPU) fetchKind() bus.Kind {
	if c.flushPending {
		return bus.NonSequential
	}
	return bus.Sequential
}
