package cpu_test

import (
	"testing"

	"github.com/exampleorg/goba/internal/gba/bus"
	"github.com/exampleorg/goba/internal/gba/cpu"
)

// mockMem is a flat 16MiB address space with no waitstates, enough to
// exercise the CPU's decode and register-banking logic in isolation from
// the real bus's area decoding.
type mockMem struct {
	internal []uint8
	irq      bool
	lastPC   uint32
}

func newMockMem() *mockMem {
	return &mockMem{internal: make([]uint8, 0x1000000)}
}

func (m *mockMem) Read8(addr uint32, kind bus.Kind) (uint8, int) {
	return m.internal[addr&0xFFFFFF], 1
}

func (m *mockMem) Read16(addr uint32, kind bus.Kind) (uint16, int) {
	a := addr &^ 1 & 0xFFFFFF
	return uint16(m.internal[a]) | uint16(m.internal[a+1])<<8, 1
}

func (m *mockMem) Read32(addr uint32, kind bus.Kind) (uint32, int) {
	a := addr &^ 3 & 0xFFFFFF
	return uint32(m.internal[a]) | uint32(m.internal[a+1])<<8 | uint32(m.internal[a+2])<<16 | uint32(m.internal[a+3])<<24, 1
}

func (m *mockMem) Write8(addr uint32, v uint8, kind bus.Kind) int {
	m.internal[addr&0xFFFFFF] = v
	return 1
}

func (m *mockMem) Write16(addr uint32, v uint16, kind bus.Kind) int {
	a := addr &^ 1 & 0xFFFFFF
	m.internal[a] = uint8(v)
	m.internal[a+1] = uint8(v >> 8)
	return 1
}

func (m *mockMem) Write32(addr uint32, v uint32, kind bus.Kind) int {
	a := addr &^ 3 & 0xFFFFFF
	m.internal[a] = uint8(v)
	m.internal[a+1] = uint8(v >> 8)
	m.internal[a+2] = uint8(v >> 16)
	m.internal[a+3] = uint8(v >> 24)
	return 1
}

func (m *mockMem) NotifyFetch(opcode uint32) {}
func (m *mockMem) NotifyPC(pc uint32)        { m.lastPC = pc }
func (m *mockMem) IRQLine() bool             { return m.irq }

func (m *mockMem) putARM(addr uint32, opcodes ...uint32) {
	for i, op := range opcodes {
		m.Write32(addr+uint32(i)*4, op, bus.Sequential)
	}
}

func (m *mockMem) putThumb(addr uint32, opcodes ...uint16) {
	for i, op := range opcodes {
		m.Write16(addr+uint32(i)*2, op, bus.Sequential)
	}
}

func newCPU() (*cpu.CPU, *mockMem) {
	mem := newMockMem()
	c := cpu.New(mem)
	c.Reset()
	c.LoadPC(0x08000000)
	return c, mem
}

func TestImmediateMove(t *testing.T) {
	c, mem := newCPU()

	mem.putARM(0x08000000, 0xE3A000FF) // MOV R0, #0xFF
	c.Step()

	if c.Regs.R(0) != 0xFF {
		t.Fatalf("R0 = %#x, want 0xFF", c.Regs.R(0))
	}
}

func TestDataProcessingAddSubFlags(t *testing.T) {
	c, mem := newCPU()

	// MOV R0, #0 ; SUBS R1, R0, #1 (0 - 1: borrow occurs, so C clear)
	mem.putARM(0x08000000,
		0xE3A00000, // MOV R0, #0
		0xE2501001, // SUBS R1, R0, #1
	)
	c.Step()
	c.Step()

	if c.Regs.R(1) != 0xFFFFFFFF {
		t.Fatalf("R1 = %#x, want 0xFFFFFFFF", c.Regs.R(1))
	}
	if c.Regs.C() {
		t.Fatal("C should be clear after a borrowing SUBS")
	}
	if !c.Regs.N() {
		t.Fatal("N should be set (result is negative)")
	}
}

func TestDataProcessingAddSetsCarryOnOverflow(t *testing.T) {
	c, mem := newCPU()

	// MOV R0, #0xFFFFFFFF via MVN R0,#0 ; ADDS R1, R0, #1 (wraps to 0, carry set)
	mem.putARM(0x08000000,
		0xE3E00000, // MVN R0, #0
		0xE2901001, // ADDS R1, R0, #1
	)
	c.Step()
	c.Step()

	if c.Regs.R(1) != 0 {
		t.Fatalf("R1 = %#x, want 0", c.Regs.R(1))
	}
	if !c.Regs.C() {
		t.Fatal("C should be set: unsigned add wrapped")
	}
	if !c.Regs.Z() {
		t.Fatal("Z should be set: result is zero")
	}
}

func TestBranchAndLink(t *testing.T) {
	c, mem := newCPU()

	mem.putARM(0x08000000,
		0xEB000000, // BL +0 (target = pc+8+0)
	)
	pcBefore := c.Regs.PC()
	c.Step()

	if c.Regs.R(14) != pcBefore+4 {
		t.Fatalf("LR = %#x, want %#x", c.Regs.R(14), pcBefore+4)
	}
	if c.Regs.PC() != pcBefore+8 {
		t.Fatalf("PC = %#x, want %#x", c.Regs.PC(), pcBefore+8)
	}
}

func TestBlockDataTransferEmptyListQuirk(t *testing.T) {
	c, mem := newCPU()

	mem.putARM(0x08000000,
		0xE3A0D0A0, // MOV R13, #0xA0 (some small stack base)
	)
	c.Step()
	base := c.Regs.R(13)

	// STMIA R13!, {} encoded with an empty register list.
	mem.putARM(0x08000004, 0xE8AD0000)
	c.Step()

	if c.Regs.R(13) != base+0x40 {
		t.Fatalf("R13 = %#x, want %#x (empty-list STM steps base by 0x40)", c.Regs.R(13), base+0x40)
	}
}

func TestThumbMoveShiftedRegister(t *testing.T) {
	c, mem := newCPU()
	c.Regs.SetThumb(true)
	c.LoadPC(0x08000000)

	mem.putThumb(0x08000000,
		0x2005, // MOV R0, #5
		0x0040, // LSL R0, R0, #1
	)
	c.Step()
	c.Step()

	if c.Regs.R(0) != 10 {
		t.Fatalf("R0 = %d, want 10", c.Regs.R(0))
	}
}

func TestThumbLongBranchWithLink(t *testing.T) {
	c, mem := newCPU()
	c.Regs.SetThumb(true)
	c.LoadPC(0x08000000)

	// BL forward by 4 bytes: high half then low half.
	mem.putThumb(0x08000000,
		0xF000, // BL hi, offset 0
		0xF802, // BL lo, offset 2 (*2 = 4)
	)
	pcBefore := c.Regs.PC()
	c.Step() // hi half
	c.Step() // lo half

	if c.Regs.R(14)&1 == 0 {
		t.Fatal("LR should have bit0 set after BL, marking THUMB return")
	}
	if c.Regs.PC() == pcBefore {
		t.Fatal("PC did not change after BL")
	}
}

func TestIRQEntryBanksLRAndMasksI(t *testing.T) {
	c, mem := newCPU()
	mem.putARM(0x08000000, 0xE1A00000) // NOP (MOV R0,R0)
	mem.irq = true
	c.Regs.SetIRQDisabled(false) // reset leaves I set; unmask so the IRQ is taken

	pcBefore := c.Regs.PC()
	c.Step()

	if c.Regs.Mode() != cpu.ModeIRQ {
		t.Fatalf("mode = %v, want IRQ", c.Regs.Mode())
	}
	if c.Regs.IRQDisabled() != true {
		t.Fatal("I flag should be set on IRQ entry")
	}
	if c.Regs.PC() != 0x18 {
		t.Fatalf("PC = %#x, want IRQ vector 0x18", c.Regs.PC())
	}
	if c.Regs.R(14) != pcBefore+4 {
		t.Fatalf("LR = %#x, want %#x", c.Regs.R(14), pcBefore+4)
	}
}

func TestIRQEntryFromThumbKeepsTheFourByteLROffset(t *testing.T) {
	c, mem := newCPU()
	c.Regs.SetThumb(true)
	c.LoadPC(0x08000000)
	mem.putThumb(0x08000000, 0x1C00) // MOV R0, R0 (ADD R0, R0, #0)
	mem.irq = true
	c.Regs.SetIRQDisabled(false) // reset leaves I set; unmask so the IRQ is taken

	pcBefore := c.Regs.PC()
	c.Step()

	if c.Regs.Mode() != cpu.ModeIRQ {
		t.Fatalf("mode = %v, want IRQ", c.Regs.Mode())
	}
	// Unlike SWI/Undefined, IRQ's LR-from-PC offset does not halve in
	// THUMB state: it stays +4 in both states.
	if c.Regs.R(14) != pcBefore+4 {
		t.Fatalf("LR = %#x, want %#x (IRQ keeps +4 in THUMB, unlike SWI/Undefined)", c.Regs.R(14), pcBefore+4)
	}
}

func TestSWIEntryFromThumbHalvesTheLROffset(t *testing.T) {
	c, mem := newCPU()
	c.Regs.SetThumb(true)
	c.LoadPC(0x08000000)
	mem.putThumb(0x08000000, 0xDF05) // SWI 5

	pcBefore := c.Regs.PC()
	c.Step()

	if c.Regs.Mode() != cpu.ModeSVC {
		t.Fatalf("mode = %v, want SVC", c.Regs.Mode())
	}
	if c.Regs.R(14) != pcBefore+2 {
		t.Fatalf("LR = %#x, want %#x (SWI halves its LR offset in THUMB)", c.Regs.R(14), pcBefore+2)
	}
}

func TestSWIEntersSupervisorMode(t *testing.T) {
	c, mem := newCPU()
	mem.putARM(0x08000000, 0xEF000005) // SWI 5

	c.Step()

	if c.Regs.Mode() != cpu.ModeSVC {
		t.Fatalf("mode = %v, want SVC", c.Regs.Mode())
	}
	if !c.SWIRequested || c.SWINumber != 5 {
		t.Fatalf("SWIRequested=%v SWINumber=%d, want true/5", c.SWIRequested, c.SWINumber)
	}
}
