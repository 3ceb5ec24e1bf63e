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

const (
	objCharBase = 0x10000
	objCount    = 128
)

// objShapeSize maps (shape, sizeSel) to the sprite's pixel dimensions, per
// the architecture reference manual's OBJ attribute 0/1 table.
var objShapeSize = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // horizontal
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // vertical
}

type objPixel struct {
	color       uint16
	present     bool
	priority    int
	semiTransp  bool
}

// renderOBJLine scans every OAM entry and fills objLine with the winning
// sprite pixel at each x (lowest priority value wins; ties go to the
// lower OAM index since it is visited first and only a strictly better
// priority overwrites it) and objWindowLine with which x positions an
// OBJ-window-mode sprite covers.
func (p *PPU) renderOBJLine(y int, objLine *[VisibleWidth]objPixel, objWindowLine *[VisibleWidth]bool) {
	if p.dispcnt&(1<<12) == 0 {
		return
	}
	mapping1D := p.dispcnt&(1<<6) != 0

	for i := 0; i < objCount; i++ {
		base := uint32(i) * 8
		attr0 := p.mem.PPUReadOAM16(base)
		attr1 := p.mem.PPUReadOAM16(base + 2)
		attr2 := p.mem.PPUReadOAM16(base + 4)

		shape := int(attr0 >> 14)
		sizeSel := int(attr1 >> 14)
		if shape > 2 {
			continue
		}
		width, height := objShapeSize[shape][sizeSel][0], objShapeSize[shape][sizeSel][1]

		affine := attr0&(1<<8) != 0
		doubleSize := affine && attr0&(1<<9) != 0
		disabled := !affine && attr0&(1<<9) != 0
		if disabled {
			continue
		}

		mode := int((attr0 >> 10) & 0x3)
		if mode == 3 {
			continue
		}
		eightBpp := attr0&(1<<13) != 0

		objY := int(attr0 & 0xFF)
		if objY >= 160 {
			objY -= 256
		}
		objX := int(attr1 & 0x1FF)
		if objX >= 240 {
			objX -= 512
		}

		boundW, boundH := width, height
		if doubleSize {
			boundW, boundH = width*2, height*2
		}

		if y < objY || y >= objY+boundH {
			continue
		}

		hflip := !affine && attr1&(1<<12) != 0
		vflip := !affine && attr1&(1<<13) != 0

		var pa, pb, pc, pd int32 = 256, 0, 0, 256
		if affine {
			group := int((attr1 >> 9) & 0x1F)
			pa, pb, pc, pd = p.objAffineParams(group)
		}

		tileBase := int(attr2 & 0x3FF)
		priority := int((attr2 >> 10) & 0x3)
		palBank := uint8((attr2 >> 12) & 0xF)

		centerX, centerY := boundW/2, boundH/2
		texCenterX, texCenterY := width/2, height/2
		relYLocal := y - objY - centerY

		for sx := 0; sx < boundW; sx++ {
			screenX := objX + sx
			if screenX < 0 || screenX >= VisibleWidth {
				continue
			}
			relX := sx - centerX

			var texX, texY int
			if affine {
				texX = int((pa*int32(relX)+pb*int32(relYLocal))>>8) + texCenterX
				texY = int((pc*int32(relX)+pd*int32(relYLocal))>>8) + texCenterY
			} else {
				texX, texY = relX+texCenterX, relYLocal+texCenterY
				if hflip {
					texX = width - 1 - texX
				}
				if vflip {
					texY = height - 1 - texY
				}
			}
			if texX < 0 || texX >= width || texY < 0 || texY >= height {
				continue
			}

			idx := p.objTilePixelIndex(tileBase, texX, texY, width, eightBpp, mapping1D)

			if mode == 2 {
				if idx != 0 {
					objWindowLine[screenX] = true
				}
				continue
			}
			if idx == 0 {
				continue
			}
			if objLine[screenX].present && objLine[screenX].priority <= priority {
				continue
			}
			objLine[screenX] = objPixel{
				color:      p.objPaletteColor(idx, palBank, eightBpp),
				present:    true,
				priority:   priority,
				semiTransp: mode == 1,
			}
		}
	}
}

func (p *PPU) objTilePixelIndex(tileBase, texX, texY, width int, eightBpp, mapping1D bool) uint8 {
	tileCol, col := texX/8, texX%8
	tileRow, row := texY/8, texY%8

	var tileIndex int
	step := 1
	if eightBpp {
		step = 2
	}
	if mapping1D {
		tilesPerRow := width / 8
		tileIndex = tileBase + (tileRow*tilesPerRow+tileCol)*step
	} else {
		tileIndex = tileBase + tileRow*32 + tileCol*step
	}

	if eightBpp {
		addr := uint32(objCharBase + tileIndex*32 + row*8 + col)
		return p.mem.PPUReadVRAM8(addr)
	}
	addr := uint32(objCharBase + tileIndex*32 + row*4 + col/2)
	b := p.mem.PPUReadVRAM8(addr)
	if col&1 != 0 {
		return b >> 4
	}
	return b & 0xF
}

// objAffineParams reads one of the 32 OAM-resident rotation/scaling
// parameter groups: PA/PB/PC/PD live in the attr3 halfword of four
// consecutive OBJ entries starting at group*4.
func (p *PPU) objAffineParams(group int) (pa, pb, pc, pd int32) {
	g := uint32(group) * 4
	pa = int32(int16(p.mem.PPUReadOAM16(g*8 + 6)))
	pb = int32(int16(p.mem.PPUReadOAM16((g+1)*8 + 6)))
	pc = int32(int16(p.mem.PPUReadOAM16((g+2)*8 + 6)))
	pd = int32(int16(p.mem.PPUReadOAM16((g+3)*8 + 6)))
	return
}
