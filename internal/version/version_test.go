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

package version

import "testing"

func TestVersionReportsARevisionEvenUnbuilt(t *testing.T) {
	v, rev, tagged := Version()
	if rev == "" {
		t.Error("revision string is empty, want a placeholder or a vcs revision")
	}
	if v == "" {
		t.Error("version string is empty, want \"local\", \"unreleased\" or a tag")
	}
	if tagged {
		t.Error("tagged = true in a test build with no linker-injected number, want false")
	}
}
