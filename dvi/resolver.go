/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"strconv"

	"github.com/matjp/dvi-decode/model"
)

// notdefGlyph is the glyph index substituted when a resolved index is out
// of the font's legal range (spec.md §4.5, step 4).
const notdefGlyph = 0

// resolveGlyph implements the Glyph Resolver (C5, spec.md §4.5): given the
// DVI character parameter p and the current font fd, it returns the
// output glyph index and whether a description was found at all. When
// found is false the caller still advances by width 0, per spec.md's
// legality-check note in §4.5 step 1.
func resolveGlyph(fd *model.FontDescriptor, p int32, m *machine) (glyphIndex uint32, found bool) {
	desc, ok := fd.Descriptions[strconv.Itoa(int(p))]
	if !ok {
		return 0, false
	}

	var idx uint32
	switch {
	case len(desc.Unicode) == 1:
		if fd.GlyphForRune != nil {
			if gid, ok := fd.GlyphForRune(desc.Unicode[0]); ok {
				idx = gid
			} else {
				idx = desc.Index
			}
		} else {
			idx = desc.Index
		}
	default:
		// A ligature sequence, or no unicode field at all: use the
		// glyph index from the description table directly (spec.md
		// §4.5, step 3).
		idx = desc.Index
	}

	if fd.EC != model.NoECLimit && idx > fd.EC {
		m.diag("invalid_glyph_in_font: glyph %d exceeds EC %d in font %s, substituting .notdef", idx, fd.EC, fd.FontName)
		idx = notdefGlyph
	}
	return idx, true
}
