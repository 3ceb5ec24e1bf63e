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

package ppu

// BGAffineState is the serializable form of one background's latched
// affine reference point and per-scanline accumulator.
type BGAffineState struct {
	RefX, RefY int32
	InternalX  int32
	InternalY  int32
}

// State is the serializable form of the PPU: every register plus the
// affine accumulators and the in-progress scanline position, but not the
// framebuffer itself — a restored session re-renders its first line from
// VRAM/OAM/Palette RAM rather than carrying a stale pixel buffer across
// the save, matching the bus's own RAM-backed storage for that data.
type State struct {
	Dispcnt, Dispstat, Vcount uint16

	Bgcnt          [4]uint16
	Bghofs, Bgvofs [4]uint16

	BgAff              [2]BGAffineState
	BgPA, BgPB, BgPC, BgPD [2]uint16

	Win0h, Win0v, Win1h, Win1v uint16
	Winin, Winout              uint16
	Mosaic                     uint16
	Bldcnt, Bldalpha           uint16
	Bldy                       uint16

	LineCycle  int
	FrameReady bool
}

// Export returns a copy of the PPU's register and timing state.
func (p *PPU) Export() State {
	s := State{
		Dispcnt: p.dispcnt, Dispstat: p.dispstat, Vcount: p.vcount,
		Bgcnt: p.bgcnt, Bghofs: p.bghofs, Bgvofs: p.bgvofs,
		BgPA: p.bgPA, BgPB: p.bgPB, BgPC: p.bgPC, BgPD: p.bgPD,
		Win0h: p.win0h, Win0v: p.win0v, Win1h: p.win1h, Win1v: p.win1v,
		Winin: p.winin, Winout: p.winout, Mosaic: p.mosaic,
		Bldcnt: p.bldcnt, Bldalpha: p.bldalpha, Bldy: p.bldy,
		LineCycle: p.lineCycle, FrameReady: p.frameReady,
	}
	for i := range p.bgAff {
		s.BgAff[i] = BGAffineState{
			RefX: p.bgAff[i].refX, RefY: p.bgAff[i].refY,
			InternalX: p.bgAff[i].internalX, InternalY: p.bgAff[i].internalY,
		}
	}
	return s
}

// Import restores the PPU to exactly the state Export captured. The
// framebuffer is left as-is; callers that need a pixel to display before
// the next completed frame should keep showing the last one, the same way
// a real console's screen doesn't go blank between frames.
func (p *PPU) Import(s State) {
	p.dispcnt, p.dispstat, p.vcount = s.Dispcnt, s.Dispstat, s.Vcount
	p.bgcnt, p.bghofs, p.bgvofs = s.Bgcnt, s.Bghofs, s.Bgvofs
	p.bgPA, p.bgPB, p.bgPC, p.bgPD = s.BgPA, s.BgPB, s.BgPC, s.BgPD
	p.win0h, p.win0v, p.win1h, p.win1v = s.Win0h, s.Win0v, s.Win1h, s.Win1v
	p.winin, p.winout, p.mosaic = s.Winin, s.Winout, s.Mosaic
	p.bldcnt, p.bldalpha, p.bldy = s.Bldcnt, s.Bldalpha, s.Bldy
	p.lineCycle, p.frameReady = s.LineCycle, s.FrameReady

	for i := range s.BgAff {
		p.bgAff[i] = bgAffine{
			refX: s.BgAff[i].RefX, refY: s.BgAff[i].RefY,
			internalX: s.BgAff[i].InternalX, internalY: s.BgAff[i].InternalY,
		}
	}
}
