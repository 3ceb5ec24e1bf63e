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

package prefs

import "testing"

func TestParseArgsOverridesDefaults(t *testing.T) {
	p, err := ParseArgs("goba", []string{"-bios", "bios.bin", "-scale", "3", "-skip-bios", "-mute"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}

	if got := p.BIOSPath.Get(); got != "bios.bin" {
		t.Errorf("BIOSPath = %q, want %q", got, "bios.bin")
	}
	if got := p.Scale.Get(); got != 3 {
		t.Errorf("Scale = %d, want 3", got)
	}
	if !p.SkipBIOS.Get() {
		t.Error("SkipBIOS = false, want true")
	}
	if !p.Mute.Get() {
		t.Error("Mute = false, want true")
	}
	if p.Fullscreen.Get() {
		t.Error("Fullscreen = true, want false (not passed)")
	}
}

func TestParseArgsKeepsDefaultsWhenNoFlagsGiven(t *testing.T) {
	p, err := ParseArgs("goba", nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got := p.Scale.Get(); got != NewDefault().Scale.Get() {
		t.Errorf("Scale = %d, want default %d", got, NewDefault().Scale.Get())
	}
}

func TestParseArgsRejectsAnUnknownFlag(t *testing.T) {
	if _, err := ParseArgs("goba", []string{"-not-a-flag"}); err == nil {
		t.Error("ParseArgs: want error for unknown flag, got nil")
	}
}
