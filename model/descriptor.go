/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package model

import "github.com/matjp/dvi-decode/internal/fontio"

// FontDescriptor is everything the decoder knows about one DVI font
// number, after a fnt_def* has been processed and its external asset
// loaded (spec.md §3, §4.4).
type FontDescriptor struct {
	FontNum int32

	FontName string // final basename, e.g. "cmr10"
	DirPath  string // directory prefix split from the fnt_def name bytes
	Features string // feature-option substring split from the name bytes

	Checksum   int32
	ScaledSize int32 // q, DVI units
	DesignSize int32 // d, DVI units

	FontScaledPointSize float64 // (mag/1000 * q) / 65536
	FontScaledPixelSize int32   // round(conv * q)
	FontSpace           int32   // floor(q / 6): "3-unit thin space" threshold

	UnitsPerEm  uint16
	OTFUnitConv float64 // dviUnitPerEm / unitsPerEm

	// BC, EC bound the legal glyph range; the glyph resolver substitutes
	// the .notdef glyph (index 0) for any resolved index beyond EC.
	BC, EC uint32

	// WidthDVI and WidthPixel are populated lazily, one entry per glyph
	// index actually resolved during translation (spec.md §4.4's
	// "per-glyph width" tables need not be precomputed for the whole
	// font — only for glyphs that are placed).
	WidthDVI   map[uint32]int32
	WidthPixel map[uint32]int32

	// Descriptions is the font's auxiliary glyph-description table,
	// keyed by the decimal DVI character-code string (spec.md §3).
	Descriptions map[string]fontio.GlyphDescription

	// GlyphForRune and glyph-index advance lookups from the external
	// font asset, used by the width computation and the glyph resolver.
	GlyphForRune    func(r rune) (glyph uint32, ok bool)
	advanceForGlyph func(glyph uint32) (width uint16, ok bool)
}

// Width returns the DVI-unit and pixel width of glyph g, computing and
// caching them from the external font's advance width on first use
// (spec.md §4.4):
//
//	width[g]      = round(advanceWidth[g] * otfUnitConv)
//	pixelWidth[g] = round(conv * width[g])
func (fd *FontDescriptor) Width(g uint32, conv float64) (dviUnits, pixels int32) {
	if w, ok := fd.WidthDVI[g]; ok {
		return w, fd.WidthPixel[g]
	}
	var wDVI int32
	if fd.advanceForGlyph != nil {
		if adv, ok := fd.advanceForGlyph(g); ok {
			wDVI = int32(roundHalfAwayFromZero(float64(adv) * fd.OTFUnitConv))
		}
	}
	var wPix int32
	if wDVI != 0 {
		wPix = int32(roundHalfAwayFromZero(conv * float64(wDVI)))
	}
	if fd.WidthDVI == nil {
		fd.WidthDVI = make(map[uint32]int32)
		fd.WidthPixel = make(map[uint32]int32)
	}
	fd.WidthDVI[g] = wDVI
	fd.WidthPixel[g] = wPix
	return wDVI, wPix
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return float64(int64(x - 0.5))
}
