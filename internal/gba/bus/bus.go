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

import (
	"github.com/exampleorg/goba/internal/gba/scheduler"
	"github.com/exampleorg/goba/internal/gbaerrors"
	"github.com/exampleorg/goba/internal/instance"
	"github.com/exampleorg/goba/internal/logger"
)

// Cartridge is the collaborator interface defined by spec.md §6. The core
// never parses save types; it only reads and writes opaque bytes and asks
// the cartridge to snapshot/restore its backup.
type Cartridge interface {
	ReadROM8(off uint32) uint8
	ReadROM16(off uint32) uint16
	ReadROM32(off uint32) uint32
	WriteROM8(off uint32, v uint8)
	WriteROM16(off uint32, v uint16)
	WriteROM32(off uint32, v uint32)

	ReadSRAM8(off uint32) uint8
	ReadSRAM16(off uint32) uint16
	ReadSRAM32(off uint32) uint32
	WriteSRAM8(off uint32, v uint8)
	WriteSRAM16(off uint32, v uint16)
	WriteSRAM32(off uint32, v uint32)

	BackupSnapshot() []byte
	BackupRestore(data []byte) error
}

// PPUPorts is the subset of the PPU the bus needs in order to dispatch
// register I/O in the 0x04000000-0x04000057 range (display registers) to
// it. The PPU is the owner of that register state because it needs typed
// access to it every scanline; the bus is merely a router.
type PPUPorts interface {
	ReadIO(offset uint32) uint8
	WriteIO(offset uint32, value uint8)
}

// Bus is the GBA memory map: address decoding, the RAM regions, I/O
// register dispatch, DMA, timers and the interrupt controller.
type Bus struct {
	inst *instance.Instance
	sched *scheduler.Scheduler

	bios       [SizeBIOS]byte
	biosLoaded bool

	ewram [SizeEWRAM]byte
	iwram [SizeIWRAM]byte

	paletteRAM [SizePaletteRAM]byte
	vram       [SizeVRAM]byte
	oam        [SizeOAM]byte

	cart Cartridge
	ppu  PPUPorts

	dma     [4]dmaChannel
	timers  [4]timerChannel
	irq     irqController
	waitcnt waitstateControl

	postflg uint8
	haltcnt uint8
	halted  bool
	stopped bool

	generic genericRegs

	keyinput uint16 // active-low, 10 bits
	keycnt   uint16

	// pcInBIOS tracks whether the CPU's program counter is currently
	// inside the BIOS region, updated once per fetch via NotifyPC.
	pcInBIOS bool

	// openBus holds the last value fetched as an opcode by the CPU. Reads
	// from unmapped regions, and reads from the BIOS region outside of the
	// BIOS's own fetch window, return this value (spec.md §3, §7).
	openBus uint32

	// lastROMAccessSeq/lastROMAddr model the cartridge prefetch: a
	// sequential fetch from the address immediately following the last
	// ROM access is a 1-cycle hit if WAITCNT's prefetch bit is set.
	lastROMAddr      uint32
	lastROMAccessSeq bool

	// pendingDMACycles accumulates the stall cost of every DMA transfer
	// run since it was last drained by ConsumeDMACycles. A transfer can be
	// triggered either synchronously (an immediate-timing channel armed by
	// a CPU write) or by an HBlank/VBlank signal the PPU raises mid-step,
	// so the cost is collected here rather than returned directly from the
	// call that happened to trigger it.
	pendingDMACycles int
}

// New creates a Bus wired to the given Scheduler. Call Plumb and PlumbPPU
// before use.
func New(inst *instance.Instance, sched *scheduler.Scheduler) *Bus {
	b := &Bus{inst: inst, sched: sched}
	b.Reset()
	return b
}

// Plumb attaches the cartridge collaborator.
func (b *Bus) Plumb(cart Cartridge) { b.cart = cart }

// PlumbPPU attaches the PPU register port.
func (b *Bus) PlumbPPU(ppu PPUPorts) { b.ppu = ppu }

// LoadBIOS installs a 16KiB BIOS image. A wrong-sized image is rejected; the
// bus is left in its prior state.
func (b *Bus) LoadBIOS(data []byte) error {
	if len(data) != SizeBIOS {
		return gbaerrors.New(gbaerrors.BIOSWrongSize, len(data))
	}
	copy(b.bios[:], data)
	b.biosLoaded = true
	return nil
}

// HasBIOS reports whether a real BIOS image was loaded (as opposed to the
// HLE table in internal/bios taking over SWI dispatch).
func (b *Bus) HasBIOS() bool { return b.biosLoaded }

// Reset fills EWRAM and IWRAM from the instance's random source (zeroes
// when there is none), zeroes VRAM, OAM and palette RAM, and clears
// register state. It does not touch the cartridge —
// the cartridge collaborator owns its own reset semantics — and it does
// not touch the BIOS image, which is loaded once per session.
func (b *Bus) Reset() {
	for i := range b.ewram {
		b.ewram[i] = randByte(b.inst)
	}
	for i := range b.iwram {
		b.iwram[i] = randByte(b.inst)
	}
	for i := range b.vram {
		b.vram[i] = 0
	}
	for i := range b.oam {
		b.oam[i] = 0
	}
	for i := range b.paletteRAM {
		b.paletteRAM[i] = 0
	}

	b.dma = [4]dmaChannel{}
	b.timers = [4]timerChannel{}
	b.irq = irqController{}
	b.waitcnt = waitstateControl{}
	b.postflg = 0
	b.haltcnt = 0
	b.halted = false
	b.stopped = false
	b.keyinput = 0x03FF
	b.keycnt = 0
	b.openBus = 0
	b.lastROMAddr = 0
	b.lastROMAccessSeq = false
	b.pendingDMACycles = 0
}

// ConsumeDMACycles returns the stall cost of every DMA transfer run since
// the last call, and resets the accumulator to zero.
func (b *Bus) ConsumeDMACycles() int {
	n := b.pendingDMACycles
	b.pendingDMACycles = 0
	return n
}

// randByte is a tiny indirection so Bus.Reset doesn't need a nil check on
// inst.Rand in tests that construct a Bus without a full Instance.
func randByte(inst *instance.Instance) uint8 {
	if inst == nil || inst.Rand == nil {
		return 0
	}
	return inst.Rand.Byte()
}

// SetKeys updates the 10-bit key mask (active-low, per spec.md §6: A, B,
// Select, Start, Right, Left, Up, Down, R, L from bit 0).
func (b *Bus) SetKeys(mask uint16) {
	prev := b.keyinput
	b.keyinput = mask & 0x03FF
	b.checkKeypadIRQ(prev)
}

func (b *Bus) checkKeypadIRQ(prevInput uint16) {
	if b.keycnt&(1<<14) == 0 {
		return
	}
	cond := b.keycnt & 0x3FF
	pressed := (^b.keyinput) & 0x3FF
	var fire bool
	if b.keycnt&(1<<15) != 0 {
		fire = pressed&cond == cond && cond != 0 // logical AND
	} else {
		fire = pressed&cond != 0 // logical OR
	}
	if fire {
		b.irq.raise(irqKeypad)
	}
}

// Halt puts the bus-visible halt flag up; the orchestrator skips CPU
// stepping while it is set, per the HLE Halt/Stop SWIs (SPEC_FULL.md
// "Halt/Stop low-power states").
func (b *Bus) Halt()       { b.halted = true }
func (b *Bus) Stop()       { b.stopped = true }
func (b *Bus) Halted() bool { return b.halted || b.stopped }

// WakeIfInterrupted clears Halted() once an enabled, unmasked interrupt is
// pending — Halt (unlike Stop) only needs IE&IF, not IME, to wake, matching
// real hardware.
func (b *Bus) WakeIfInterrupted() {
	if b.halted && b.irq.ie&b.irq.iflags != 0 {
		b.halted = false
	}
}

// warnSuspicious logs at Warn without ever failing the access, per spec.md
// §7's "the core never panics on guest behavior" policy.
func warnSuspicious(tag, detail string, args ...interface{}) {
	logger.Warnf(tag, detail, args...)
}
