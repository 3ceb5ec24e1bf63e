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

// Package core is the top-level orchestrator: it owns the CPU, Bus, PPU,
// Scheduler and Cartridge, and drives them the way the real hardware's
// clock tree does — one CPU step at a time, with every cycle that step
// consumed immediately handed to the scheduler so DMA, timers, the PPU
// and the interrupt controller stay in lockstep with it.
//
// Only internal/rewind imports core. It is the only place all five
// collaborators are visible at once; the CPU holds the bus through its
// MemoryBus interface for its whole lifetime.
package core

import (
	"github.com/exampleorg/goba/internal/bios"
	"github.com/exampleorg/goba/internal/gba/bus"
	"github.com/exampleorg/goba/internal/gba/cartridge"
	"github.com/exampleorg/goba/internal/gba/cpu"
	"github.com/exampleorg/goba/internal/gba/ppu"
	"github.com/exampleorg/goba/internal/gba/scheduler"
	"github.com/exampleorg/goba/internal/instance"
	"github.com/exampleorg/goba/internal/savestate"
)

// entryPoint is where execution begins when no BIOS image is loaded: ROM0,
// the same address a real BIOS's reset handler branches to after its own
// setup.
const entryPoint = 0x08000000

// ResetKind distinguishes the two ways a guest (or the front end) can ask
// for a reset.
type ResetKind int

const (
	// ResetHard reinitializes CPU, Bus, PPU and Scheduler from scratch, as
	// if power had just been applied.
	ResetHard ResetKind = iota
	// ResetSoft names the BIOS SoftReset call's kind of reset. Reset
	// handles it exactly like ResetHard: no RAM region survives it.
	ResetSoft
)

// FrameHandle is the read-only view of a just-completed frame the
// orchestrator hands back from RunUntilFrame, per spec.md §6.
type FrameHandle struct {
	// Pixels is BGR555-packed, row-major, 240x160. It aliases the PPU's
	// own buffer and is only valid until the next call into Core.
	Pixels *[ppu.VisibleHeight][ppu.VisibleWidth]uint16

	// Number is the count of frames completed since the core was created
	// (or last Reset), starting at 1 for the first completed frame.
	Number uint64
}

// Core wires a CPU, Bus, PPU, Scheduler and Cartridge into one session and
// exposes spec.md §6's external interface.
type Core struct {
	inst  *instance.Instance
	sched *scheduler.Scheduler
	bus   *bus.Bus
	cpu   *cpu.CPU
	ppu   *ppu.PPU

	cart *cartridge.Cartridge

	frameCount uint64
}

// New creates a Core with no cartridge and no BIOS loaded. Call LoadROM
// before running.
func New(inst *instance.Instance) *Core {
	if inst == nil {
		inst = instance.New(instance.Main, nil)
	}

	c := &Core{inst: inst, sched: scheduler.New()}
	c.bus = bus.New(inst, c.sched)
	c.ppu = ppu.New(c.bus, c.bus)
	c.bus.PlumbPPU(c.ppu)
	c.cpu = cpu.New(c.bus)
	return c
}

// LoadBIOS installs a 16KiB BIOS image. Until this is called (or after a
// LoadError), SWI calls are serviced by the HLE table in internal/bios
// instead.
func (c *Core) LoadBIOS(data []byte) error {
	return c.bus.LoadBIOS(data)
}

// LoadROM attaches a cartridge built from a raw ROM image (and, if
// non-nil, a previously saved backup image) and performs a hard reset.
func (c *Core) LoadROM(rom []byte, backup []byte) error {
	var cart *cartridge.Cartridge
	var err error
	if backup != nil {
		cart, err = cartridge.NewWithBackup(rom, backup)
	} else {
		cart, err = cartridge.New(rom)
	}
	if err != nil {
		return err
	}

	c.cart = cart
	c.bus.Plumb(cart)
	c.Reset(ResetHard)
	return nil
}

// SaveBackup returns the cartridge's current backup image, or nil if the
// cartridge carries no backup (or none is loaded).
func (c *Core) SaveBackup() []byte {
	if c.cart == nil {
		return nil
	}
	return c.cart.BackupSnapshot()
}

// SetKeys updates the 10-bit active-low key mask.
func (c *Core) SetKeys(mask uint16) { c.bus.SetKeys(mask) }

// FrameCount returns the number of frames completed since the core was
// created (or last Reset).
func (c *Core) FrameCount() uint64 { return c.frameCount }

// Reset reinitializes CPU, Bus, PPU and Scheduler, per spec.md §5's
// "atomically" requirement, and resumes execution either at the BIOS reset
// vector (if a BIOS image is loaded) or directly at the cartridge entry
// point (HLE sessions never execute a BIOS reset handler).
//
// kind is accepted for API symmetry with the BIOS's own SoftReset/hard
// reset distinction; this core has no battery-backed RAM region to
// selectively preserve, so both kinds currently reinitialize identically.
func (c *Core) Reset(kind ResetKind) {
	c.sched.Reset()
	c.bus.Reset()
	c.ppu.Reset()
	c.cpu.Reset()
	c.frameCount = 0

	if c.bus.HasBIOS() {
		c.cpu.LoadPC(0x00000000)
		return
	}

	c.cpu.LoadPC(entryPoint)
	// the HLE reset path skips straight to system mode with interrupts
	// enabled, the state a real BIOS reset handler leaves the CPU in by
	// the time it hands off to the cartridge.
	c.cpu.Regs.SetMode(cpu.ModeSYS)
	c.cpu.Regs.SetCPSR(c.cpu.Regs.CPSR() &^ (1 << 7))
}

// RunCycles runs the CPU (and everything it drives) for at least n cycles,
// stopping at the next instruction boundary at or after n cycles have
// elapsed — matching real hardware's inability to interrupt an
// in-progress instruction.
func (c *Core) RunCycles(n uint64) {
	target := c.sched.Cycle() + n
	for c.sched.Cycle() < target {
		c.step()
	}
}

// RunUntilFrame runs until the PPU completes a frame and returns a handle
// to it.
func (c *Core) RunUntilFrame() FrameHandle {
	for !c.ppu.ConsumeFrameReady() {
		c.step()
	}
	c.frameCount++
	return FrameHandle{Pixels: c.ppu.Framebuffer(), Number: c.frameCount}
}

// SaveState snapshots the entire session — CPU, Bus, PPU, Scheduler and
// the cartridge's backup store — into a self-describing, versioned byte
// slice suitable for writing to disk, per spec.md §6's "Persisted state
// layout" and §8's "Round-trips" property.
func (c *Core) SaveState() ([]byte, error) {
	r := savestate.Record{
		Version:    savestate.Version,
		CPU:        c.cpu.Export(),
		Bus:        c.bus.Export(),
		PPU:        c.ppu.Export(),
		Scheduler:  c.sched.Export(),
		Backup:     c.SaveBackup(),
		FrameCount: c.frameCount,
	}
	return savestate.Encode(r)
}

// LoadState restores a session previously captured by SaveState. The
// cartridge and BIOS must already be loaded (via LoadROM/LoadBIOS) before
// calling this — LoadState only restores the subsystems' internal state,
// not which cartridge or BIOS image is plumbed in.
func (c *Core) LoadState(data []byte) error {
	r, err := savestate.Decode(data)
	if err != nil {
		return err
	}

	c.cpu.Import(r.CPU)
	c.bus.Import(r.Bus)
	c.ppu.Import(r.PPU)
	c.sched.Import(r.Scheduler)
	c.frameCount = r.FrameCount

	if c.cart != nil && r.Backup != nil {
		if err := c.cart.BackupRestore(r.Backup); err != nil {
			return err
		}
	}
	return nil
}

// step advances the whole machine by exactly one CPU instruction (or, if
// halted/stopped, by a fixed slice of idle cycles), then services any SWI
// the instruction raised through the HLE table when no real BIOS is
// loaded.
func (c *Core) step() {
	c.bus.WakeIfInterrupted()

	var cycles int
	if c.bus.Halted() {
		cycles = 4 // a nominal idle slice; IRQ wake is re-checked every step
	} else {
		cycles = c.cpu.Step()
	}

	c.advancePeripherals(cycles)

	// A DMA transfer may have just run, either synchronously (an
	// immediate-timing channel armed by the instruction c.cpu.Step() just
	// executed) or via the HBlank/VBlank signal advancePeripherals just
	// dispatched through the PPU. Either way the CPU was skipped while it
	// happened, so the stall it charged still needs to reach the
	// scheduler/PPU/timers — the same clock the CPU's own cycles just did.
	for dma := c.bus.ConsumeDMACycles(); dma > 0; dma = c.bus.ConsumeDMACycles() {
		c.advancePeripherals(dma)
	}

	if c.cpu.SWIRequested && !c.bus.HasBIOS() {
		c.serviceHLESWI()
	}
}

// advancePeripherals drains the scheduler and timers the same number of
// cycles the CPU (or idle slice) just consumed, firing HBlank/VBlank/
// DMA/timer side effects at the cycle they're due rather than batched
// after the fact, per spec.md §5's ordering guarantee.
func (c *Core) advancePeripherals(cycles int) {
	c.bus.SyncTimers()
	c.ppu.Advance(cycles)
	c.sched.Advance(uint64(cycles))
}

// serviceHLESWI performs the effect of the CPU's pending SWI directly,
// then unwinds the exception-entry sequence RaiseSWI already performed —
// no BIOS code ever executes at the SWI vector in an HLE session.
func (c *Core) serviceHLESWI() {
	number := c.cpu.SWINumber

	m := bios.Machine{
		Regs:  c.cpu.Regs,
		Mem:   c.bus,
		IRQ:   c.bus,
		Power: c.bus,
		ResetVector: func() {
			c.cpu.LoadPC(entryPoint)
			c.cpu.Regs.SetMode(cpu.ModeSYS)
		},
	}

	bios.Handle(m, number)
	c.cpu.ReturnFromSWI()
}
