/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package fontio

import (
	"fmt"
	"os"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
)

// TypesettingLoader is the default Loader, backed by
// github.com/go-text/typesetting. It opens an OpenType/TrueType font file
// and exposes the units-per-em, cmap and per-glyph advance widths the core
// needs to compute pixel widths and resolve glyph indices (spec.md §4.4,
// §4.5).
type TypesettingLoader struct{}

// NewTypesettingLoader returns the default font Loader.
func NewTypesettingLoader() *TypesettingLoader {
	return &TypesettingLoader{}
}

// Load implements Loader.
func (TypesettingLoader) Load(path string) (Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Face{}, fmt.Errorf("fontio: read %s: %w", path, err)
	}

	ld, err := opentype.NewLoader(bytesReaderAt(data))
	if err != nil {
		return Face{}, fmt.Errorf("fontio: parse %s: %w", path, err)
	}
	face, err := font.NewFace(ld)
	if err != nil {
		return Face{}, fmt.Errorf("fontio: load face %s: %w", path, err)
	}

	return Face{
		UnitsPerEm: face.Upem(),
		GlyphForRune: func(r rune) (uint32, bool) {
			gid, ok := face.NominalGlyph(r)
			if !ok {
				return 0, false
			}
			return uint32(gid), true
		},
		AdvanceForGlyph: func(glyph uint32) (uint16, bool) {
			w := face.HorizontalAdvance(glyphID(glyph), nil)
			return uint16(w), true
		},
	}, nil
}

// glyphID converts a raw glyph index to the typesetting package's GID type.
func glyphID(g uint32) font.GID {
	return font.GID(g)
}

// bytesReaderAt adapts a byte slice to io.ReaderAt without copying.
type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, fmt.Errorf("fontio: offset %d out of range", off)
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, fmt.Errorf("fontio: short read at offset %d", off)
	}
	return n, nil
}
