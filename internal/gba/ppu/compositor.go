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

// layer identifies one of the five compositable sources a pixel can come
// from, used to look up BLDCNT's 1st/2nd target select bits.
type layer int

const (
	layerBG0 layer = iota
	layerBG1
	layerBG2
	layerBG3
	layerOBJ
	layerBackdrop
)

func (p *PPU) isTarget(l layer, selectBits uint16) bool {
	return selectBits&(1<<uint(l)) != 0
}

// candidate is one layer's contribution to a pixel during top/second
// selection.
type candidate struct {
	l        layer
	priority int
	color    uint16
	semi     bool
}

// renderLine computes one full scanline (backgrounds, sprites, windows and
// blend effects) and writes it into the frame buffer, per spec.md §4.3's
// description of the compositor pipeline.
func (p *PPU) renderLine(y int) {
	mode := int(p.dispcnt & 0x7)

	var bgLines [4][VisibleWidth]bgPixel
	var bgActive [4]bool

	switch mode {
	case 0:
		for i := 0; i < 4; i++ {
			if p.bgEnabled(i) {
				bgActive[i] = true
				p.renderTextBG(i, y, &bgLines[i])
			}
		}
	case 1:
		for i := 0; i < 2; i++ {
			if p.bgEnabled(i) {
				bgActive[i] = true
				p.renderTextBG(i, y, &bgLines[i])
			}
		}
		if p.bgEnabled(2) {
			bgActive[2] = true
			p.renderAffineBG(2, 0, &bgLines[2])
		}
	case 2:
		if p.bgEnabled(2) {
			bgActive[2] = true
			p.renderAffineBG(2, 0, &bgLines[2])
		}
		if p.bgEnabled(3) {
			bgActive[3] = true
			p.renderAffineBG(3, 1, &bgLines[3])
		}
	case 3, 4, 5:
		bgActive[2] = true
		p.renderBitmapBG(mode, y, &bgLines[2])
	}

	var objLine [VisibleWidth]objPixel
	var objWindowLine [VisibleWidth]bool
	p.renderOBJLine(y, &objLine, &objWindowLine)

	backdrop := p.mem.PPUReadPalette16(0) & 0x7FFF

	windowsActive := p.dispcnt&(0x7<<13) != 0

	effectMode := (p.bldcnt >> 6) & 0x3
	target1 := p.bldcnt & 0x3F
	target2 := (p.bldcnt >> 8) & 0x3F
	eva := float64(p.bldalpha&0x1F) / 16.0
	evb := float64((p.bldalpha>>8)&0x1F) / 16.0
	evy := float64(p.bldy&0x1F) / 16.0

	for x := 0; x < VisibleWidth; x++ {
		bgEnable, objEnable, effectEnable := p.windowMaskAt(x, y, windowsActive, objWindowLine[x])

		cands := make([]candidate, 0, 5)
		for i := 0; i < 4; i++ {
			if !bgActive[i] || !bgEnable[i] || bgLines[i][x].transparent {
				continue
			}
			cands = append(cands, candidate{l: layer(i), priority: p.bgPriority(i), color: bgLines[i][x].color})
		}
		if objEnable && objLine[x].present {
			cands = append(cands, candidate{l: layerOBJ, priority: objLine[x].priority, color: objLine[x].color, semi: objLine[x].semiTransp})
		}

		bestIdx, secondIdx := -1, -1
		for i, c := range cands {
			switch {
			case bestIdx == -1 || better(c, cands[bestIdx]):
				secondIdx = bestIdx
				bestIdx = i
			case secondIdx == -1 || better(c, cands[secondIdx]):
				secondIdx = i
			}
		}

		topLayer, topColor, topSemi := layerBackdrop, backdrop, false
		topOK := bestIdx != -1
		if topOK {
			topLayer, topColor, topSemi = cands[bestIdx].l, cands[bestIdx].color, cands[bestIdx].semi
		}
		secondLayer, secondColor := layerBackdrop, backdrop
		secondOK := secondIdx != -1
		if secondOK {
			secondLayer, secondColor = cands[secondIdx].l, cands[secondIdx].color
		}

		final := topColor

		switch {
		case topSemi:
			final = blendColors(topColor, secondColor, eva, evb)
		case effectEnable && effectMode != 0 && p.isTarget(topLayer, target1):
			switch effectMode {
			case 1:
				if p.isTarget(secondLayer, target2) {
					final = blendColors(topColor, secondColor, eva, evb)
				}
			case 2:
				final = brightnessBlend(topColor, 0x7FFF, evy)
			case 3:
				final = brightnessBlend(topColor, 0, evy)
			}
		}

		p.frameBuf[y][x] = final
	}
}

// better reports whether candidate a should be preferred over candidate b
// as the topmost layer: lower priority value wins, and on a tie OBJ beats
// BG0 beats BG1 beats BG2 beats BG3 (layer's zero value is BG0, OBJ is 4 —
// so ties are broken the other way for OBJ specifically).
func better(a, b candidate) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.l == layerOBJ && b.l != layerOBJ {
		return true
	}
	if b.l == layerOBJ && a.l != layerOBJ {
		return false
	}
	return a.l < b.l
}

func blendColors(a, b uint16, eva, evb float64) uint16 {
	ar, ag, ab := splitBGR555(a)
	br, bg, bb := splitBGR555(b)
	r := clamp31(int(float64(ar)*eva + float64(br)*evb))
	g := clamp31(int(float64(ag)*eva + float64(bg)*evb))
	bl := clamp31(int(float64(ab)*eva + float64(bb)*evb))
	return packBGR555(r, g, bl)
}

func brightnessBlend(c, target uint16, ev float64) uint16 {
	cr, cg, cb := splitBGR555(c)
	tr, tg, tb := splitBGR555(target)
	r := clamp31(int(float64(cr) + (float64(tr)-float64(cr))*ev))
	g := clamp31(int(float64(cg) + (float64(tg)-float64(cg))*ev))
	b := clamp31(int(float64(cb) + (float64(tb)-float64(cb))*ev))
	return packBGR555(r, g, b)
}

func splitBGR555(c uint16) (r, g, b int) {
	return int(c & 0x1F), int((c >> 5) & 0x1F), int((c >> 10) & 0x1F)
}

func packBGR555(r, g, b int) uint16 {
	return uint16(r) | uint16(g)<<5 | uint16(b)<<10
}

func clamp31(v int) int {
	if v < 0 {
		return 0
	}
	if v > 31 {
		return 31
	}
	return v
}

// windowMaskAt resolves which BG layers, OBJ, and color-special-effect
// apply at (x, y), given WIN0/WIN1/OBJ-window/outside precedence
// (spec.md §4.3 "Windows").
func (p *PPU) windowMaskAt(x, y int, windowsActive bool, objWindowHit bool) (bgEnable [4]bool, objEnable, effectEnable bool) {
	if !windowsActive {
		return [4]bool{true, true, true, true}, true, true
	}

	win0On := p.dispcnt&(1<<13) != 0 && p.insideWindow(x, y, p.win0h, p.win0v)
	win1On := p.dispcnt&(1<<14) != 0 && p.insideWindow(x, y, p.win1h, p.win1v)
	objWinOn := p.dispcnt&(1<<15) != 0 && objWindowHit

	var enable uint16
	switch {
	case win0On:
		enable = p.winin & 0x3F
	case win1On:
		enable = (p.winin >> 8) & 0x3F
	case objWinOn:
		enable = (p.winout >> 8) & 0x3F
	default:
		enable = p.winout & 0x3F
	}

	for i := 0; i < 4; i++ {
		bgEnable[i] = enable&(1<<uint(i)) != 0
	}
	objEnable = enable&(1<<4) != 0
	effectEnable = enable&(1<<5) != 0
	return
}

func (p *PPU) insideWindow(x, y int, h, v uint16) bool {
	x1 := int(h >> 8)
	x2 := int(h & 0xFF)
	if x2 > VisibleWidth || x2 < x1 {
		x2 = VisibleWidth
	}
	y1 := int(v >> 8)
	y2 := int(v & 0xFF)
	if y2 > VisibleHeight || y2 < y1 {
		y2 = VisibleHeight
	}
	return x >= x1 && x < x2 && y >= y1 && y < y2
}
