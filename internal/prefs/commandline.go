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

import "flag"

// ParseArgs parses a command line into a new Preferences value, using the
// stdlib flag package the way the rest of the teacher's front-end commands
// do (modalflag.Modes, magicflags) rather than the teacher's own ad hoc
// key::value command-line stack in prefs/commandline.go: that stack exists
// to let Gopher2600 push and pop a group of preferences per cartridge, a
// nesting this single-session core has no use for.
func ParseArgs(name string, args []string) (*Preferences, error) {
	p := NewDefault()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&p.BIOSPath.value, "bios", "", "path to a GBA BIOS image")
	fs.BoolVar(&p.SkipBIOS.value, "skip-bios", false, "skip BIOS boot animation via HLE")
	fs.IntVar(&p.Scale.value, "scale", p.Scale.value, "display scale factor")
	fs.BoolVar(&p.Fullscreen.value, "fullscreen", false, "start in fullscreen")
	fs.BoolVar(&p.Mute.value, "mute", false, "mute audio output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return p, nil
}
