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

// DMAChannelState is the serializable form of one dmaChannel.
type DMAChannelState struct {
	SAD, DAD       uint32
	CNT, CTL       uint16
	CurSrc, CurDst uint32
	Enabled        bool
	Latch          uint32
}

// TimerState is the serializable form of one timerChannel.
type TimerState struct {
	Reload, Control, Counter uint16
	LastSync, Carry          uint64
}

// IRQState is the serializable form of the interrupt controller.
type IRQState struct {
	IE, IF uint16
	IME    bool
}

// State is the serializable form of everything the bus owns: RAM images,
// every I/O register's byte shadow, and the DMA/timer/IRQ/waitstate
// controller state that's tracked outside the flat register shadow for
// speed. Matches spec.md §6's persisted-state layout.
type State struct {
	EWRAM      [SizeEWRAM]byte
	IWRAM      [SizeIWRAM]byte
	PaletteRAM [SizePaletteRAM]byte
	VRAM       [SizeVRAM]byte
	OAM        [SizeOAM]byte
	IOShadow   [SizeIO]byte

	DMA     [4]DMAChannelState
	Timers  [4]TimerState
	IRQ     IRQState
	Waitcnt uint16

	Postflg, Haltcnt   uint8
	Halted, Stopped    bool
	Keyinput, Keycnt   uint16
	OpenBus            uint32
	LastROMAddr        uint32
	LastROMAccessSeq   bool
	PCInBIOS           bool
}

// Export returns a deep copy of the bus's serializable state. The cartridge
// backup is not included — the orchestrator snapshots it separately via
// Cartridge.BackupSnapshot, since the bus never parses it.
func (b *Bus) Export() State {
	s := State{
		EWRAM:            b.ewram,
		IWRAM:            b.iwram,
		PaletteRAM:       b.paletteRAM,
		VRAM:             b.vram,
		OAM:              b.oam,
		IOShadow:         b.generic.data,
		IRQ:              IRQState{IE: b.irq.ie, IF: b.irq.iflags, IME: b.irq.ime},
		Waitcnt:          b.waitcnt.raw,
		Postflg:          b.postflg,
		Haltcnt:          b.haltcnt,
		Halted:           b.halted,
		Stopped:          b.stopped,
		Keyinput:         b.keyinput,
		Keycnt:           b.keycnt,
		OpenBus:          b.openBus,
		LastROMAddr:      b.lastROMAddr,
		LastROMAccessSeq: b.lastROMAccessSeq,
		PCInBIOS:         b.pcInBIOS,
	}
	for i := range b.dma {
		s.DMA[i] = DMAChannelState{
			SAD: b.dma[i].sad, DAD: b.dma[i].dad,
			CNT: b.dma[i].cnt, CTL: b.dma[i].ctl,
			CurSrc: b.dma[i].curSrc, CurDst: b.dma[i].curDst,
			Enabled: b.dma[i].enabled, Latch: b.dma[i].latch,
		}
	}
	for i := range b.timers {
		s.Timers[i] = TimerState{
			Reload: b.timers[i].reload, Control: b.timers[i].control, Counter: b.timers[i].counter,
			LastSync: b.timers[i].lastSync, Carry: b.timers[i].carry,
		}
	}
	return s
}

// Import restores the bus to exactly the state Export captured. The BIOS
// image and the cartridge collaborator are untouched — LoadBIOS and Plumb
// are called once per session, independently of save states.
func (b *Bus) Import(s State) {
	b.ewram = s.EWRAM
	b.iwram = s.IWRAM
	b.paletteRAM = s.PaletteRAM
	b.vram = s.VRAM
	b.oam = s.OAM
	b.generic.data = s.IOShadow

	b.irq = irqController{ie: s.IRQ.IE, iflags: s.IRQ.IF, ime: s.IRQ.IME}
	b.waitcnt = waitstateControl{raw: s.Waitcnt}
	b.postflg = s.Postflg
	b.haltcnt = s.Haltcnt
	b.halted = s.Halted
	b.stopped = s.Stopped
	b.keyinput = s.Keyinput
	b.keycnt = s.Keycnt
	b.openBus = s.OpenBus
	b.lastROMAddr = s.LastROMAddr
	b.lastROMAccessSeq = s.LastROMAccessSeq
	b.pcInBIOS = s.PCInBIOS

	for i := range s.DMA {
		d := s.DMA[i]
		b.dma[i] = dmaChannel{
			sad: d.SAD, dad: d.DAD, cnt: d.CNT, ctl: d.CTL,
			curSrc: d.CurSrc, curDst: d.CurDst, enabled: d.Enabled, latch: d.Latch,
		}
	}
	for i := range s.Timers {
		t := s.Timers[i]
		b.timers[i] = timerChannel{
			reload: t.Reload, control: t.Control, counter: t.Counter,
			lastSync: t.LastSync, carry: t.Carry,
		}
	}
}
