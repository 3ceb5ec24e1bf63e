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

// Package ppu implements the GBA's picture processing unit: the six video
// modes, background and sprite rendering, the window/blend compositor and
// the DISPSTAT/VCOUNT state machine that drives HBlank/VBlank IRQs and
// DMA triggers. It owns VRAM, OAM and Palette RAM access for rendering
// purposes but the bytes themselves are stored on the bus, which the PPU
// reaches through the VRAMSource collaborator.
package ppu

const (
	VisibleWidth  = 240
	VisibleHeight = 160
	totalLines    = 228
	lineCycles    = 1232
	hdrawCycles   = 960
)

// VRAMSource is the subset of the bus the PPU needs to read pixel data
// from. The PPU never writes VRAM/OAM/Palette RAM itself — the bus does,
// via ordinary Write8/16/32 — it only reads for rendering.
type VRAMSource interface {
	PPUReadVRAM8(off uint32) uint8
	PPUReadVRAM16(off uint32) uint16
	PPUReadOAM16(off uint32) uint16
	PPUReadPalette16(off uint32) uint16
}

// IRQSink is the subset of the bus the PPU raises interrupts and DMA
// triggers through.
type IRQSink interface {
	RaiseVBlank()
	RaiseHBlank()
	RaiseVCount()
	SignalVBlank()
	SignalHBlank()
}

// bgAffine is a background's internal affine state: the latched reference
// point (reloaded from BGxX/BGxY at the start of every frame, and whenever
// the guest writes those registers) plus the per-scanline accumulator.
type bgAffine struct {
	refX, refY     int32 // 20.8 fixed point from the guest registers
	internalX      int32 // current accumulator, also 20.8
	internalY      int32
}

// PPU implements VRAMSource-driven rendering plus the DISPSTAT/VCOUNT
// timing state machine described in spec.md §4.3.
type PPU struct {
	mem VRAMSource
	irq IRQSink

	dispcnt uint16
	dispstat uint16
	vcount  uint16

	bgcnt [4]uint16
	bghofs, bgvofs [4]uint16

	bgAff [2]bgAffine // indexed 0=BG2, 1=BG3
	bgPA, bgPB, bgPC, bgPD [2]uint16

	win0h, win0v, win1h, win1v uint16
	winin, winout              uint16
	mosaic                     uint16
	bldcnt, bldalpha           uint16
	bldy                       uint16

	lineCycle int
	frameBuf  [VisibleHeight][VisibleWidth]uint16 // BGR555

	// frameReady is set every time a frame completes and cleared by
	// ConsumeFrameReady, so the orchestrator
	// can detect a new frame without polling VCOUNT.
	frameReady bool
}

// New creates a PPU wired to mem for pixel data and irq for its interrupt
// and DMA-trigger side effects.
func New(mem VRAMSource, irq IRQSink) *PPU {
	p := &PPU{mem: mem, irq: irq}
	p.Reset()
	return p
}

func (p *PPU) Reset() {
	*p = PPU{mem: p.mem, irq: p.irq}
}

// Advance steps the PPU's scanline state machine by cycles CPU cycles,
// crossing HBlank/VBlank/VCount boundaries and rendering each visible
// scanline exactly once, at the moment its HDraw period ends.
func (p *PPU) Advance(cycles int) {
	for cycles > 0 {
		step := cycles
		if p.lineCycle < hdrawCycles && p.lineCycle+step > hdrawCycles {
			step = hdrawCycles - p.lineCycle
		} else if p.lineCycle+step > lineCycles {
			step = lineCycles - p.lineCycle
		}
		p.lineCycle += step
		cycles -= step

		if p.lineCycle == hdrawCycles {
			p.enterHBlank()
		}
		if p.lineCycle == lineCycles {
			p.lineCycle = 0
			p.enterNextLine()
		}
	}
}

func (p *PPU) forcedBlank() bool { return p.dispcnt&(1<<7) != 0 }

func (p *PPU) enterHBlank() {
	if int(p.vcount) < VisibleHeight {
		if p.forcedBlank() {
			p.blankLine(int(p.vcount))
		} else {
			p.renderLine(int(p.vcount))
		}
	}

	p.dispstat |= 1 << 1
	if p.dispstat&(1<<4) != 0 {
		p.irq.RaiseHBlank()
	}
	p.irq.SignalHBlank()
}

func (p *PPU) enterNextLine() {
	p.dispstat &^= 1 << 1
	p.vcount++

	for i := range p.bgAff {
		p.bgAff[i].internalX += int32(int16(p.bgPB[i]))
		p.bgAff[i].internalY += int32(int16(p.bgPD[i]))
	}

	if int(p.vcount) == VisibleHeight {
		p.dispstat |= 1 << 0
		p.irq.RaiseVBlank()
		p.irq.SignalVBlank()
		p.frameReady = true
	}

	if int(p.vcount) == totalLines {
		p.vcount = 0
		p.dispstat &^= 1 << 0
		p.latchAffineRefPoints()
	}

	vcountSetting := uint16(p.dispstat >> 8)
	if p.vcount == vcountSetting {
		p.dispstat |= 1 << 2
		if p.dispstat&(1<<5) != 0 {
			p.irq.RaiseVCount()
		}
	} else {
		p.dispstat &^= 1 << 2
	}
}

func (p *PPU) latchAffineRefPoints() {
	for i := range p.bgAff {
		p.bgAff[i].internalX = p.bgAff[i].refX
		p.bgAff[i].internalY = p.bgAff[i].refY
	}
}

func (p *PPU) blankLine(line int) {
	for x := 0; x < VisibleWidth; x++ {
		p.frameBuf[line][x] = 0x7FFF // forced blank shows solid white
	}
}

// Framebuffer returns the most recently completed frame, BGR555-packed,
// row-major, 240 wide by 160 tall.
func (p *PPU) Framebuffer() *[VisibleHeight][VisibleWidth]uint16 { return &p.frameBuf }

// ConsumeFrameReady reports whether a frame completed since the last call,
// clearing the flag.
func (p *PPU) ConsumeFrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// VCount exposes the current scanline for debugging/testing.
func (p *PPU) VCount() int { return int(p.vcount) }
