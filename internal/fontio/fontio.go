/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

// Package fontio provides the external-collaborator interfaces the DVI
// decoder's core uses to obtain font metrics and auxiliary glyph
// descriptions, plus default implementations. Parsing OpenType/TrueType
// tables and Lua tables is explicitly out of scope for the core
// (spec.md §1); the core only ever talks to these interfaces.
package fontio

// Face is what the core needs from an external font asset (spec.md §4.4,
// §4.5): its design grid, a cmap lookup from a Unicode scalar to a glyph
// index, and the advance width of any glyph index.
type Face struct {
	UnitsPerEm uint16

	// NumGlyphs is the number of glyphs the font defines, or 0 if the
	// Loader cannot determine it; a 0 disables the "glyph index exceeds
	// EC" substitution check in the glyph resolver (spec.md §4.5).
	NumGlyphs uint32

	// GlyphForRune maps a Unicode scalar to the font's glyph index, or
	// ok=false if the font's cmap has no entry for it.
	GlyphForRune func(r rune) (glyph uint32, ok bool)

	// AdvanceForGlyph returns the advance width, in font units, of the
	// given glyph index, or ok=false if the index is out of range.
	AdvanceForGlyph func(glyph uint32) (width uint16, ok bool)
}

// Loader resolves a font, named by its on-disk path, to a Face.
type Loader interface {
	Load(path string) (Face, error)
}

// GlyphDescription is one entry of a font's auxiliary glyph-description
// table (spec.md §3, §6): the Lua-table keyed by decimal DVI character
// code.
type GlyphDescription struct {
	Index   uint32
	Unicode []rune // single scalar, a ligature sequence, or empty/absent
}

// DescriptionLoader resolves a font's auxiliary glyph-description file to
// a map keyed by the decimal DVI character-code string (spec.md §3).
type DescriptionLoader interface {
	Load(luaRoot, fontBaseName string) (map[string]GlyphDescription, error)
}
