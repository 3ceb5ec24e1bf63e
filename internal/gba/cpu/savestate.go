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

// RegisterState is the serializable form of Registers: the visible file
// plus every banked copy, since which bank is live depends on the current
// mode and a restored session must see the others too.
type RegisterState struct {
	R           [16]uint32
	BankedSP    [6]uint32
	BankedLR    [6]uint32
	FIQR8_12    [5]uint32
	SharedR8_12 [5]uint32
	CPSR        uint32
	SPSR        [6]uint32
}

// Export returns a copy of the register file.
func (r *Registers) Export() RegisterState {
	return RegisterState{
		R:           r.r,
		BankedSP:    r.bankedSP,
		BankedLR:    r.bankedLR,
		FIQR8_12:    r.fiqR8_12,
		SharedR8_12: r.sharedR8_12,
		CPSR:        r.cpsr,
		SPSR:        r.spsr,
	}
}

// Import restores the register file exactly as Export captured it,
// including banks belonging to modes other than the one it was saved
// from.
func (r *Registers) Import(s RegisterState) {
	r.r = s.R
	r.bankedSP = s.BankedSP
	r.bankedLR = s.BankedLR
	r.fiqR8_12 = s.FIQR8_12
	r.sharedR8_12 = s.SharedR8_12
	r.cpsr = s.CPSR
	r.spsr = s.SPSR
}

// State is the serializable form of a CPU: its register file plus the
// small amount of control state Step tracks between instructions.
type State struct {
	Regs         RegisterState
	FlushPending bool
	Halted       bool
	SWIRequested bool
	SWINumber    uint8
}

// Export returns a copy of the CPU's state, excluding its MemoryBus
// collaborator — the orchestrator re-plumbs that independently of save
// states.
func (c *CPU) Export() State {
	return State{
		Regs:         c.Regs.Export(),
		FlushPending: c.flushPending,
		Halted:       c.Halted,
		SWIRequested: c.SWIRequested,
		SWINumber:    c.SWINumber,
	}
}

// Import restores the CPU to exactly the state Export captured.
func (c *CPU) Import(s State) {
	c.Regs.Import(s.Regs)
	c.flushPending = s.FlushPending
	c.Halted = s.Halted
	c.SWIRequested = s.SWIRequested
	c.SWINumber = s.SWINumber
}
