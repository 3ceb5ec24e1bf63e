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

// Package cartridge implements the bus.Cartridge collaborator: the ROM
// image plus whichever save-data backend (SRAM, Flash or EEPROM) the image
// asks for, detected the way real carts are — by a padded ID string
// word-aligned somewhere in the ROM (spec.md §3 "Cartridge", §6 "Save
// data").
package cartridge

import (
	"github.com/exampleorg/goba/internal/gbaerrors"
)

const maxROMSize = 0x0200_0000 // 32 MiB

// BackupKind identifies the detected save-data backend.
type BackupKind int

const (
	BackupNone BackupKind = iota
	BackupSRAM
	BackupFlash64K
	BackupFlash128K
	BackupEEPROMUnknown
	BackupEEPROM512B
	BackupEEPROM8K
)

// backup is the interface every save-data backend implements. Offsets are
// already relative to the backend's own window (bus.go strips the region
// base before calling in).
type backup interface {
	read(off uint32) uint8
	write(off uint32, v uint8)
	snapshot() []byte
}

// Cartridge is a loaded GBA ROM image plus its detected backup store. It
// satisfies bus.Cartridge.
type Cartridge struct {
	rom  []byte
	kind BackupKind
	bk   backup
}

// New wraps a ROM image, auto-detecting its backup type from the embedded
// ID string. A zero-length image is rejected; an oversized one is rejected
// per spec.md §3's 32MiB ceiling.
func New(rom []byte) (*Cartridge, error) {
	if len(rom) == 0 {
		return nil, gbaerrors.New(gbaerrors.ROMEmpty)
	}
	if len(rom) > maxROMSize {
		return nil, gbaerrors.New(gbaerrors.ROMTooLarge, len(rom))
	}

	kind := detectBackupKind(rom)
	c := &Cartridge{rom: rom, kind: kind}
	c.bk = newBackup(kind)
	return c, nil
}

// NewWithBackup wraps a ROM image and restores a previously-snapshotted
// backup buffer in place of auto-detection's fresh (all-0xFF/zero) store.
// Used when loading a save alongside a ROM.
func NewWithBackup(rom, backupData []byte) (*Cartridge, error) {
	c, err := New(rom)
	if err != nil {
		return nil, err
	}
	if len(backupData) > 0 {
		if err := c.BackupRestore(backupData); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// idPrefixes lists the ID strings real cartridges embed, in the priority
// order the original_source reference scans them (longer, more specific
// prefixes checked before their shorter substrings).
var idPrefixes = []struct {
	prefix []byte
	kind   BackupKind
}{
	{[]byte("EEPROM"), BackupEEPROMUnknown},
	{[]byte("FLASH1M"), BackupFlash128K},
	{[]byte("FLASH512"), BackupFlash64K},
	{[]byte("FLASH"), BackupFlash64K},
	{[]byte("SRAM_F"), BackupSRAM},
	{[]byte("SRAM"), BackupSRAM},
}

// detectBackupKind scans the ROM for a word-aligned "<ID>_Vnnn" marker,
// zero-padded out to the next 4-byte boundary, exactly as real cartridges
// lay it out.
func detectBackupKind(rom []byte) BackupKind {
	for i := 0; i < len(rom); i += 4 {
		for _, cand := range idPrefixes {
			idLen := len(cand.prefix) + len("_Vnnn")
			padLen := 0
			if idLen%4 != 0 {
				padLen = 4 - idLen%4
			}
			end := i + idLen + padLen
			if end > len(rom) {
				continue
			}
			if !hasPrefixAt(rom, i, cand.prefix) {
				continue
			}
			padOK := true
			for _, b := range rom[i+idLen : end] {
				if b != 0 {
					padOK = false
					break
				}
			}
			if padOK {
				return cand.kind
			}
		}
	}
	return BackupNone
}

func hasPrefixAt(rom []byte, i int, prefix []byte) bool {
	if i+len(prefix) > len(rom) {
		return false
	}
	for j, b := range prefix {
		if rom[i+j] != b {
			return false
		}
	}
	return true
}

func newBackup(kind BackupKind) backup {
	switch kind {
	case BackupSRAM:
		return newSRAM()
	case BackupFlash64K:
		return newFlash(false)
	case BackupFlash128K:
		return newFlash(true)
	case BackupEEPROMUnknown:
		return newEEPROMUnknown()
	case BackupEEPROM512B:
		return newEEPROM(false)
	case BackupEEPROM8K:
		return newEEPROM(true)
	default:
		return nil
	}
}

// isEEPROMOffset reports whether a ROM-area access at off (already relative
// to a single 32MiB ROM bank) targets the EEPROM's bus window rather than
// the ROM data underneath it — EEPROM shares the ROM2 bank's address range
// on real hardware, distinguished only by address pattern (original_source
// cart/mod.rs: is_eeprom_offset).
func (c *Cartridge) isEEPROMOffset(off uint32) bool {
	switch c.kind {
	case BackupEEPROMUnknown, BackupEEPROM512B, BackupEEPROM8K:
	default:
		return false
	}
	if off&0x01FF_FF00 == 0x01FF_FF00 {
		return true
	}
	return len(c.rom) <= 16*1024*1024 && off >= 0x0100_0000
}

// ReadROM8 reads a byte from the ROM image, or the EEPROM bus window when
// the cartridge carries EEPROM save data and off lands inside it. Out-of-
// range ROM reads return 0, matching common cartridge OOB behavior — real
// hardware's open-bus pattern there is undocumented and emulator-specific,
// so a fixed 0 is the least surprising choice.
func (c *Cartridge) ReadROM8(off uint32) uint8 {
	if c.isEEPROMOffset(off) {
		return c.bk.read(off)
	}
	idx := int(off)
	if idx < 0 || idx >= len(c.rom) {
		return 0
	}
	return c.rom[idx]
}

func (c *Cartridge) ReadROM16(off uint32) uint16 {
	return uint16(c.ReadROM8(off)) | uint16(c.ReadROM8(off+1))<<8
}

func (c *Cartridge) ReadROM32(off uint32) uint32 {
	return uint32(c.ReadROM16(off)) | uint32(c.ReadROM16(off+2))<<16
}

// WriteROM8 is only meaningful when the write targets the EEPROM bus
// window; the ROM data itself is read-only.
func (c *Cartridge) WriteROM8(off uint32, v uint8) {
	if c.isEEPROMOffset(off) {
		c.bk.write(off, v)
	}
}

func (c *Cartridge) WriteROM16(off uint32, v uint16) {
	c.WriteROM8(off, uint8(v))
	c.WriteROM8(off+1, uint8(v>>8))
}

func (c *Cartridge) WriteROM32(off uint32, v uint32) {
	c.WriteROM16(off, uint16(v))
	c.WriteROM16(off+2, uint16(v>>16))
}

// ReadSRAM8 reads from the flat SRAM/Flash backup store. EEPROM carts never
// see SRAM-area accesses on real hardware; a cart with no backup reads
// 0xFF, matching an unpopulated bus.
func (c *Cartridge) ReadSRAM8(off uint32) uint8 {
	if c.bk == nil || c.kind == BackupEEPROMUnknown || c.kind == BackupEEPROM512B || c.kind == BackupEEPROM8K {
		return 0xFF
	}
	return c.bk.read(off)
}

func (c *Cartridge) ReadSRAM16(off uint32) uint16 {
	// SRAM/Flash are 8-bit devices; wider accesses read the same byte into
	// every lane, matching real hardware's bus behavior for these chips.
	v := c.ReadSRAM8(off)
	return uint16(v) | uint16(v)<<8
}

func (c *Cartridge) ReadSRAM32(off uint32) uint32 {
	v := c.ReadSRAM8(off)
	return uint32(v) | uint32(v)<<8 | uint32(v)<<16 | uint32(v)<<24
}

func (c *Cartridge) WriteSRAM8(off uint32, v uint8) {
	if c.bk == nil || c.kind == BackupEEPROMUnknown || c.kind == BackupEEPROM512B || c.kind == BackupEEPROM8K {
		return
	}
	c.bk.write(off, v)
}

func (c *Cartridge) WriteSRAM16(off uint32, v uint16) { c.WriteSRAM8(off, uint8(v)) }
func (c *Cartridge) WriteSRAM32(off uint32, v uint32) { c.WriteSRAM8(off, uint8(v)) }

// BackupSnapshot returns the raw bytes of the backup store, suitable for
// writing to a .sav file. A cart with no detected backup returns an empty
// slice.
func (c *Cartridge) BackupSnapshot() []byte {
	if c.bk == nil {
		return nil
	}
	return c.bk.snapshot()
}

// BackupRestore loads previously-saved backup bytes. The backup kind is
// re-derived from the buffer length, replacing whatever kind detection
// chose at load time.
func (c *Cartridge) BackupRestore(data []byte) error {
	switch len(data) {
	case sramSize:
		c.kind = BackupSRAM
		c.bk = restoreSRAM(data)
	case flashBankSize:
		c.kind = BackupFlash64K
		c.bk = restoreFlash(data, false)
	case 2 * flashBankSize:
		c.kind = BackupFlash128K
		c.bk = restoreFlash(data, true)
	case eeprom512Size:
		c.kind = BackupEEPROM512B
		c.bk = restoreEEPROM(data, false)
	case eeprom8KSize:
		c.kind = BackupEEPROM8K
		c.bk = restoreEEPROM(data, true)
	default:
		return gbaerrors.New(gbaerrors.SaveStateCorrupt, "unrecognized backup size")
	}
	return nil
}

// BackupKind reports the detected backup type, for UI display and for the
// save-state encoder.
func (c *Cartridge) BackupKind() BackupKind { return c.kind }

// ROMSize reports the loaded image's length in bytes.
func (c *Cartridge) ROMSize() int { return len(c.rom) }

// NotifyEEPROMDMA lets the bus report how many halfwords a DMA transfer
// into or out of the EEPROM window moved. An EEPROM whose size hasn't been
// pinned down yet (BackupEEPROMUnknown) infers it the same way real
// software's own DMA-driven read/write routines give it away: a 6-bit
// address protocol (512B) moves 9 or 73 halfwords, a 14-bit one (8KiB)
// moves 17 or 81 (original_source cart/mod.rs: notify_eeprom_dma).
func (c *Cartridge) NotifyEEPROMDMA(halfwords int) {
	if c.kind != BackupEEPROMUnknown {
		return
	}
	switch halfwords {
	case 9, 73:
		c.kind = BackupEEPROM512B
		c.bk = newEEPROM(false)
	case 17, 81:
		c.kind = BackupEEPROM8K
		c.bk = newEEPROM(true)
	}
}
