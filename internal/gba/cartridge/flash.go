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

package cartridge

const flashBankSize = 0x10000 // 64 KiB

// flashState tracks the JEDEC-style command sequence Flash carts expect:
// two unlock writes (0x5555<-0xAA, 0x2AAA<-0x55) followed by a command
// byte, some of which (erase, identify, bank switch) themselves open a
// second-stage state rather than completing immediately.
type flashState int

const (
	flashIdle flashState = iota
	flashIdentify
	flashErase
	flashWrite
	flashSwitchBank
)

type flashUnlockState int

const (
	unlockNone flashUnlockState = iota
	unlockFirstByte
	unlockReady
)

// flash models the Macronix/SST/Sanyo-style command-driven Flash backup
// chips, grounded on original_source cart/flash.rs: a command byte arrives
// via two "unlock" writes to fixed addresses, then a third write at 0x5555
// selects what the chip does next.
type flash struct {
	buf      []byte
	bankIdx  int
	state    flashState
	unlock   flashUnlockState
	dualBank bool
}

func newFlash(dualBank bool) *flash {
	size := flashBankSize
	if dualBank {
		size = 2 * flashBankSize
	}
	f := &flash{buf: make([]byte, size), dualBank: dualBank}
	for i := range f.buf {
		f.buf[i] = 0xFF
	}
	return f
}

func restoreFlash(data []byte, dualBank bool) *flash {
	f := &flash{buf: make([]byte, len(data)), dualBank: dualBank}
	copy(f.buf, data)
	return f
}

func (f *flash) bufIndex(addr uint32) int { return f.bankIdx*flashBankSize + int(addr) }

func (f *flash) read(off uint32) uint8 {
	addr := off % flashBankSize
	switch {
	case f.state == flashIdentify && addr == 0 && f.dualBank:
		return 0x62 // Sanyo manufacturer ID, dual-bank carts
	case f.state == flashIdentify && addr == 1 && f.dualBank:
		return 0x13
	case f.state == flashIdentify && addr == 0:
		return 0xBF // SST manufacturer ID, single-bank carts
	case f.state == flashIdentify && addr == 1:
		return 0xD4
	default:
		idx := f.bufIndex(addr)
		if idx < 0 || idx >= len(f.buf) {
			return 0xFF
		}
		return f.buf[idx]
	}
}

func (f *flash) write(off uint32, v uint8) {
	addr := off % flashBankSize
	if addr >= flashBankSize {
		return
	}

	switch {
	case f.state == flashWrite:
		idx := f.bufIndex(addr)
		if idx >= 0 && idx < len(f.buf) {
			f.buf[idx] = v
		}
		f.state = flashIdle

	case f.state == flashErase && f.unlock == unlockReady && addr%0x1000 == 0 && v == 0x30:
		idx := f.bufIndex(addr)
		if idx >= 0 && idx+0x1000 <= len(f.buf) {
			for i := idx; i < idx+0x1000; i++ {
				f.buf[i] = 0xFF
			}
		}
		f.state = flashIdle
		f.unlock = unlockNone

	case f.state == flashSwitchBank && addr == 0x0000:
		f.bankIdx = int(v)
		f.state = flashIdle

	case f.unlock == unlockReady && addr == 0x5555:
		switch {
		case f.state == flashErase && v == 0x10:
			for i := range f.buf {
				f.buf[i] = 0xFF
			}
			f.state = flashIdle
		case f.state == flashIdle && v == 0x80:
			f.state = flashErase
		case f.state == flashIdle && v == 0x90:
			f.state = flashIdentify
		case f.state == flashIdle && v == 0xA0:
			f.state = flashWrite
		case f.state == flashIdle && v == 0xB0 && f.dualBank:
			f.state = flashSwitchBank
		case f.state == flashIdentify && v == 0xF0:
			f.state = flashIdle
		}
		f.unlock = unlockNone

	case f.unlock == unlockNone && addr == 0x5555 && v == 0xAA:
		f.unlock = unlockFirstByte

	case f.unlock == unlockFirstByte && addr == 0x2AAA && v == 0x55:
		f.unlock = unlockReady

	default:
		f.unlock = unlockNone
	}
}

func (f *flash) snapshot() []byte {
	out := make([]byte, len(f.buf))
	copy(out, f.buf)
	return out
}
