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

package cartridge_test

import (
	"testing"

	"github.com/exampleorg/goba/internal/gba/cartridge"
)

func paddedID(id string) []byte {
	s := id + "_Vnnn"
	for len(s)%4 != 0 {
		s += "\x00"
	}
	return []byte(s)
}

func romWithID(id string, size int) []byte {
	rom := make([]byte, size)
	copy(rom, paddedID(id))
	return rom
}

func TestDetectsSRAMBackup(t *testing.T) {
	rom := romWithID("SRAM", 0x1000)
	c, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BackupKind() != cartridge.BackupSRAM {
		t.Fatalf("got kind %v, want SRAM", c.BackupKind())
	}

	c.WriteSRAM8(0x10, 0x42)
	if got := c.ReadSRAM8(0x10); got != 0x42 {
		t.Fatalf("SRAM readback = %#x, want 0x42", got)
	}
}

func TestRejectsEmptyROM(t *testing.T) {
	if _, err := cartridge.New(nil); err == nil {
		t.Fatal("expected error for empty ROM")
	}
}

func TestRejectsOversizeROM(t *testing.T) {
	if _, err := cartridge.New(make([]byte, 0x0200_0001)); err == nil {
		t.Fatal("expected error for oversize ROM")
	}
}

func TestROMReadsBackOwnBytes(t *testing.T) {
	rom := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	c, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.ReadROM32(0); got != 0xEFBEADDE {
		t.Fatalf("ReadROM32 = %#x, want 0xefbeadde", got)
	}
}

func TestFlashIdentifyAndWrite(t *testing.T) {
	rom := romWithID("FLASH512", 0x1000)
	c, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BackupKind() != cartridge.BackupFlash64K {
		t.Fatalf("got kind %v, want Flash64K", c.BackupKind())
	}

	// Unlock + write-byte command, then the data write itself.
	c.WriteSRAM8(0x5555, 0xAA)
	c.WriteSRAM8(0x2AAA, 0x55)
	c.WriteSRAM8(0x5555, 0xA0)
	c.WriteSRAM8(0x0123, 0x77)

	if got := c.ReadSRAM8(0x0123); got != 0x77 {
		t.Fatalf("flash byte write readback = %#x, want 0x77", got)
	}
}

func TestEEPROMUnknownPromotesOnDMANotify(t *testing.T) {
	rom := romWithID("EEPROM", 0x100_0000) // <=16MiB so the address-range rule also applies
	c, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BackupKind() != cartridge.BackupEEPROMUnknown {
		t.Fatalf("got kind %v, want EEPROMUnknown", c.BackupKind())
	}

	c.NotifyEEPROMDMA(9)
	if c.BackupKind() != cartridge.BackupEEPROM512B {
		t.Fatalf("got kind %v after DMA notify, want EEPROM512B", c.BackupKind())
	}
}
