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

// Package cpu implements the ARM7TDMI: ARM and THUMB decode/execute,
// register banking, the barrel shifter and the exception pathway.
package cpu

import "fmt"

// Mode is one of the seven valid CPSR mode-bit patterns (spec.md §3).
type Mode uint32

const (
	ModeUSR Mode = 0x10
	ModeFIQ Mode = 0x11
	ModeIRQ Mode = 0x12
	ModeSVC Mode = 0x13
	ModeABT Mode = 0x17
	ModeUND Mode = 0x1B
	ModeSYS Mode = 0x1F
)

func (m Mode) Valid() bool {
	switch m {
	case ModeUSR, ModeFIQ, ModeIRQ, ModeSVC, ModeABT, ModeUND, ModeSYS:
		return true
	}
	return false
}

func (m Mode) String() string {
	switch m {
	case ModeUSR:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSVC:
		return "SVC"
	case ModeABT:
		return "ABT"
	case ModeUND:
		return "UND"
	case ModeSYS:
		return "SYS"
	}
	return fmt.Sprintf("INVALID(%#x)", uint32(m))
}

// CPSR flag bit positions.
const (
	flagN = 1 << 31
	flagZ = 1 << 30
	flagC = 1 << 29
	flagV = 1 << 28
	flagI = 1 << 7
	flagF = 1 << 6
	flagT = 1 << 5
)

// Registers holds the full banked register file of the ARM7TDMI.
//
// R15 (PC) is stored as the address of the instruction about to be
// fetched; callers that need the ARM "PC+8" / THUMB "PC+4" pipeline-visible
// value must add the offset themselves (see PCForOperand).
type Registers struct {
	r [16]uint32

	// banked copies for registers that differ by mode. usr/sys share a
	// bank; the others (fiq/irq/svc/abt/und) have independent r13/r14.
	// r8-r12 are banked only for fiq; every other mode (including
	// usr/sys) shares the one sharedR8_12 bank.
	bankedSP    [6]uint32 // indexed by bankIndex
	bankedLR    [6]uint32
	fiqR8_12    [5]uint32
	sharedR8_12 [5]uint32

	cpsr uint32
	spsr [6]uint32 // indexed by bankIndex; usr/sys has no SPSR (index 0 unused)
}

// bankIndex maps a Mode to an index into the banked SP/LR/SPSR arrays.
func bankIndex(m Mode) int {
	switch m {
	case ModeUSR, ModeSYS:
		return 0
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSVC:
		return 3
	case ModeABT:
		return 4
	case ModeUND:
		return 5
	}
	return 0
}

// NewRegisters creates a Registers value with the CPU in Supervisor mode,
// IRQ and FIQ masked, ARM state — the state the ARM7TDMI's reset pin
// leaves it in.
func NewRegisters() *Registers {
	r := &Registers{}
	r.cpsr = uint32(ModeSVC) | flagI | flagF
	return r
}

// Mode returns the current CPSR mode bits.
func (r *Registers) Mode() Mode { return Mode(r.cpsr & 0x1F) }

// SetMode changes the active mode, banking SP/LR (and, for FIQ, R8-R12)
// consistently. It does not touch any other CPSR bits.
func (r *Registers) SetMode(m Mode) {
	old := r.Mode()
	if old == m {
		return
	}

	// stash the outgoing mode's banked registers.
	oi := bankIndex(old)
	r.bankedSP[oi] = r.r[13]
	r.bankedLR[oi] = r.r[14]
	if old == ModeFIQ {
		copy(r.fiqR8_12[:], r.r[8:13])
	} else {
		// R8-R12 are shared by every non-FIQ mode (USR, SYS, IRQ, SVC, ABT,
		// UND); stash them regardless of which one we're leaving, so a
		// write made in e.g. IRQ isn't lost on the next mode switch.
		copy(r.sharedR8_12[:], r.r[8:13])
	}

	// load the incoming mode's banked registers.
	ni := bankIndex(m)
	r.r[13] = r.bankedSP[ni]
	r.r[14] = r.bankedLR[ni]
	if m == ModeFIQ {
		copy(r.r[8:13], r.fiqR8_12[:])
	} else if old == ModeFIQ {
		// leaving FIQ into a non-FIQ mode restores the shared R8-R12 bank.
		copy(r.r[8:13], r.sharedR8_12[:])
	}

	r.cpsr = (r.cpsr &^ 0x1F) | uint32(m)
}

// R returns general register n (0-15) as currently banked.
func (r *Registers) R(n int) uint32 { return r.r[n] }

// SetR sets general register n (0-15) as currently banked. Callers that
// write R15 are responsible for triggering a pipeline flush.
func (r *Registers) SetR(n int, v uint32) { r.r[n] = v }

// PC returns the raw program counter (the address of the instruction about
// to be fetched), without the pipeline-visible +8/+4 offset.
func (r *Registers) PC() uint32 { return r.r[15] }

// SetPC sets the raw program counter.
func (r *Registers) SetPC(v uint32) { r.r[15] = v }

// CPSR accessors.
func (r *Registers) CPSR() uint32     { return r.cpsr }
func (r *Registers) SetCPSR(v uint32) { r.cpsr = v }

func (r *Registers) flag(mask uint32) bool { return r.cpsr&mask != 0 }
func (r *Registers) setFlag(mask uint32, v bool) {
	if v {
		r.cpsr |= mask
	} else {
		r.cpsr &^= mask
	}
}

func (r *Registers) N() bool         { return r.flag(flagN) }
func (r *Registers) Z() bool         { return r.flag(flagZ) }
func (r *Registers) C() bool         { return r.flag(flagC) }
func (r *Registers) V() bool         { return r.flag(flagV) }
func (r *Registers) IRQDisabled() bool { return r.flag(flagI) }
func (r *Registers) FIQDisabled() bool { return r.flag(flagF) }
func (r *Registers) Thumb() bool     { return r.flag(flagT) }

func (r *Registers) SetN(v bool) { r.setFlag(flagN, v) }
func (r *Registers) SetZ(v bool) { r.setFlag(flagZ, v) }
func (r *Registers) SetC(v bool) { r.setFlag(flagC, v) }
func (r *Registers) SetV(v bool) { r.setFlag(flagV, v) }
func (r *Registers) SetIRQDisabled(v bool) { r.setFlag(flagI, v) }
func (r *Registers) SetFIQDisabled(v bool) { r.setFlag(flagF, v) }
func (r *Registers) SetThumb(v bool)       { r.setFlag(flagT, v) }

// SetNZ sets the N and Z flags from a 32-bit result, as every ALU op's
// S-bit variant does.
func (r *Registers) SetNZ(result uint32) {
	r.SetN(result&0x80000000 != 0)
	r.SetZ(result == 0)
}

// SPSR returns the saved program status register for the current mode.
// USR/SYS mode has no SPSR; reading it there returns CPSR, matching the
// ARM7TDMI's documented (if never legitimately exercised) behavior.
func (r *Registers) SPSR() uint32 {
	m := r.Mode()
	if m == ModeUSR || m == ModeSYS {
		return r.cpsr
	}
	return r.spsr[bankIndex(m)]
}

// SetSPSR writes the saved program status register for the current mode.
func (r *Registers) SetSPSR(v uint32) {
	m := r.Mode()
	if m == ModeUSR || m == ModeSYS {
		return
	}
	r.spsr[bankIndex(m)] = v
}

// PCForOperand returns R15 as it is visible to an executing instruction's
// operand decode: PC+8 in ARM state (two instructions ahead, because of the
// two-stage prefetch), PC+4 in THUMB state. Register-specified shift
// amounts read PC+12 in ARM, which callers compute separately.
func (r *Registers) PCForOperand() uint32 {
	if r.Thumb() {
		return r.r[15] + 4
	}
	return r.r[15] + 8
}
