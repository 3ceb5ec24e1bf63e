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

// bgPixel is one background layer's contribution to a single screen
// pixel: a palette-resolved BGR555 color plus whether the underlying
// tile/bitmap entry was transparent (palette index 0), which the
// compositor needs to decide whether a lower-priority layer shows through.
type bgPixel struct {
	color       uint16
	transparent bool
}

func (p *PPU) bgEnabled(bg int) bool { return p.dispcnt&(1<<(8+uint(bg))) != 0 }

func (p *PPU) bgPriority(bg int) int { return int(p.bgcnt[bg] & 0x3) }

// textMapSize returns the background's size in tiles (width, height) for
// the regular (non-affine) screen-size encoding.
func textMapSize(screenSize uint16) (w, h int) {
	switch screenSize {
	case 0:
		return 32, 32
	case 1:
		return 64, 32
	case 2:
		return 32, 64
	default:
		return 64, 64
	}
}

// renderTextBG fills out one scanline of a tiled (non-affine) background
// into line, indices 0..VisibleWidth-1.
func (p *PPU) renderTextBG(bg, y int, line *[VisibleWidth]bgPixel) {
	cnt := p.bgcnt[bg]
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	eightBpp := cnt&(1<<7) != 0
	screenSize := (cnt >> 14) & 0x3

	mosaicOn := cnt&(1<<6) != 0

	mapTilesW, mapTilesH := textMapSize(screenSize)
	mapPixelsW, mapPixelsH := mapTilesW*8, mapTilesH*8

	scrollY := y
	if mosaicOn {
		scrollY = p.applyMosaicY(y)
	}
	mapY := (scrollY + int(p.bgvofs[bg])) % mapPixelsH
	tileRow := mapY / 8
	pixelRow := mapY % 8

	for x := 0; x < VisibleWidth; x++ {
		scrollX := x
		if mosaicOn {
			scrollX = p.applyMosaicX(x)
		}
		mapX := (scrollX + int(p.bghofs[bg])) % mapPixelsW
		tileCol := mapX / 8
		pixelCol := mapX % 8

		entry := p.textMapEntry(screenBase, mapTilesW, mapTilesH, tileCol, tileRow)
		tileIndex := entry & 0x3FF
		hflip := entry&(1<<10) != 0
		vflip := entry&(1<<11) != 0
		palBank := uint8((entry >> 12) & 0xF)

		row := pixelRow
		if vflip {
			row = 7 - row
		}
		col := pixelCol
		if hflip {
			col = 7 - col
		}

		idx := p.tilePixelIndex(charBase, uint32(tileIndex), col, row, eightBpp)
		if idx == 0 {
			line[x] = bgPixel{transparent: true}
			continue
		}
		color := p.paletteColor(idx, palBank, eightBpp)
		line[x] = bgPixel{color: color}
	}
}

// textMapEntry reads the 2-byte screen entry for (tileCol, tileRow),
// accounting for the multi-screen-block layouts used by the wider/taller
// map sizes (spec.md §4.3 "Background rendering").
func (p *PPU) textMapEntry(screenBase uint32, mapTilesW, mapTilesH, tileCol, tileRow int) uint16 {
	blockCol := tileCol / 32
	blockRow := tileRow / 32
	blocksPerRow := mapTilesW / 32

	block := blockRow*blocksPerRow + blockCol
	localCol := tileCol % 32
	localRow := tileRow % 32

	addr := screenBase + uint32(block)*0x800 + uint32(localRow*32+localCol)*2
	return p.mem.PPUReadVRAM16(addr)
}

// tilePixelIndex returns the palette index (0 = transparent) of one pixel
// within an 8x8 tile, for either 4bpp (16 colors, paletted by bank) or
// 8bpp (256 colors, single palette) character data.
func (p *PPU) tilePixelIndex(charBase, tileIndex uint32, col, row int, eightBpp bool) uint8 {
	if eightBpp {
		tileSize := uint32(64)
		addr := charBase + tileIndex*tileSize + uint32(row*8+col)
		return p.mem.PPUReadVRAM8(addr)
	}
	tileSize := uint32(32)
	addr := charBase + tileIndex*tileSize + uint32(row*4+col/2)
	b := p.mem.PPUReadVRAM8(addr)
	if col&1 != 0 {
		return b >> 4
	}
	return b & 0xF
}

// paletteColor resolves a tile's palette index to a BGR555 color: 8bpp
// indexes the full 256-entry BG palette, 4bpp indexes within palBank's
// 16-entry sub-palette.
func (p *PPU) paletteColor(idx uint8, palBank uint8, eightBpp bool) uint16 {
	var entry uint32
	if eightBpp {
		entry = uint32(idx)
	} else {
		entry = uint32(palBank)*16 + uint32(idx)
	}
	return p.mem.PPUReadPalette16(entry * 2)
}

func (p *PPU) objPaletteColor(idx uint8, palBank uint8, eightBpp bool) uint16 {
	var entry uint32
	if eightBpp {
		entry = uint32(idx)
	} else {
		entry = uint32(palBank)*16 + uint32(idx)
	}
	return p.mem.PPUReadPalette16(0x200 + entry*2)
}

func (p *PPU) applyMosaicX(x int) int {
	size := int(p.mosaic&0xF) + 1
	return (x / size) * size
}

func (p *PPU) applyMosaicY(y int) int {
	size := int((p.mosaic>>4)&0xF) + 1
	return (y / size) * size
}

// renderAffineBG fills out one scanline of an affine background (BG2 in
// mode 1/2, BG3 in mode 2) using the per-scanline-advanced reference point
// in p.bgAff.
func (p *PPU) renderAffineBG(bg int, affIdx int, line *[VisibleWidth]bgPixel) {
	cnt := p.bgcnt[bg]
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	eightBpp := cnt&(1<<7) != 0
	wraparound := cnt&(1<<13) != 0
	sizeSel := (cnt >> 14) & 0x3

	sizeTiles := [4]int{16, 32, 64, 128}[sizeSel]
	sizePixels := sizeTiles * 8

	aff := &p.bgAff[affIdx]
	pa := int32(int16(p.bgPA[affIdx]))
	pc := int32(int16(p.bgPC[affIdx]))

	baseX, baseY := aff.internalX, aff.internalY

	for x := 0; x < VisibleWidth; x++ {
		texX := (baseX + int32(x)*pa) >> 8
		texY := (baseY + int32(x)*pc) >> 8

		if wraparound {
			texX = ((texX % int32(sizePixels)) + int32(sizePixels)) % int32(sizePixels)
			texY = ((texY % int32(sizePixels)) + int32(sizePixels)) % int32(sizePixels)
		} else if texX < 0 || texY < 0 || int(texX) >= sizePixels || int(texY) >= sizePixels {
			line[x] = bgPixel{transparent: true}
			continue
		}

		tileCol := int(texX) / 8
		tileRow := int(texY) / 8
		col := int(texX) % 8
		row := int(texY) % 8

		mapAddr := screenBase + uint32(tileRow*sizeTiles+tileCol)
		tileIndex := p.mem.PPUReadVRAM8(mapAddr)

		idx := p.tilePixelIndex(charBase, uint32(tileIndex), col, row, eightBpp)
		if idx == 0 {
			line[x] = bgPixel{transparent: true}
			continue
		}
		line[x] = bgPixel{color: p.paletteColor(idx, 0, eightBpp)}
	}
}

// renderBitmapBG fills a scanline for modes 3/4/5, where BG2 is a direct
// framebuffer rather than tiled character data.
func (p *PPU) renderBitmapBG(mode int, y int, line *[VisibleWidth]bgPixel) {
	frameSelect := p.dispcnt&(1<<4) != 0

	switch mode {
	case 3:
		for x := 0; x < VisibleWidth; x++ {
			addr := uint32(y*VisibleWidth+x) * 2
			line[x] = bgPixel{color: p.mem.PPUReadVRAM16(addr) & 0x7FFF}
		}
	case 4:
		base := uint32(0)
		if frameSelect {
			base = 0xA000
		}
		for x := 0; x < VisibleWidth; x++ {
			addr := base + uint32(y*VisibleWidth+x)
			idx := p.mem.PPUReadVRAM8(addr)
			if idx == 0 {
				line[x] = bgPixel{transparent: true}
				continue
			}
			line[x] = bgPixel{color: p.paletteColor(idx, 0, true)}
		}
	case 5:
		const w, h = 160, 128
		base := uint32(0)
		if frameSelect {
			base = 0xA000
		}
		if y >= h {
			for x := 0; x < VisibleWidth; x++ {
				line[x] = bgPixel{transparent: true}
			}
			return
		}
		for x := 0; x < VisibleWidth; x++ {
			if x >= w {
				line[x] = bgPixel{transparent: true}
				continue
			}
			addr := base + uint32(y*w+x)*2
			line[x] = bgPixel{color: p.mem.PPUReadVRAM16(addr) & 0x7FFF}
		}
	}
}
