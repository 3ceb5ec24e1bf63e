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

import (
	"crypto/sha1"
	"fmt"
	"io"
	"os"

	"github.com/exampleorg/goba/internal/gbaerrors"
)

// Loader reads a ROM image (and, optionally, a sibling backup file) from
// local disk and builds a Cartridge from it, mirroring the teacher's
// cartridgeloader.Loader: a filename plus a SHA-1 hash computed once the
// data is in hand, used by front ends to label what's loaded.
type Loader struct {
	ROMPath    string
	BackupPath string

	Hash string
}

// Load reads the ROM file (and the backup file, if it exists) and returns a
// ready Cartridge.
func (l *Loader) Load() (*Cartridge, error) {
	rom, err := readFile(l.ROMPath)
	if err != nil {
		return nil, err
	}

	l.Hash = fmt.Sprintf("%x", sha1.Sum(rom))

	var backup []byte
	if l.BackupPath != "" {
		if data, err := readFile(l.BackupPath); err == nil {
			backup = data
		}
	}

	return NewWithBackup(rom, backup)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gbaerrors.New(gbaerrors.FileCannotOpen, path)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, gbaerrors.New(gbaerrors.FileCannotOpen, path)
	}
	return data, nil
}

// SaveBackup writes a cartridge's current backup store to path, used after
// a session ends or periodically if the front end wants autosave.
func SaveBackup(path string, cart *Cartridge) error {
	data := cart.BackupSnapshot()
	if len(data) == 0 {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return gbaerrors.New(gbaerrors.FileWriteError, path)
	}
	return nil
}
