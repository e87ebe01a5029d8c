/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

// Package model holds the structured output of a DVI decode: the document
// tree described in spec.md §3, and the font registry (spec.md §4.4) that
// the dvi package's state machine consults while building it.
package model

// Document is the top-level result of decoding a DVI file. Fonts is built
// by the Consolidator (spec.md §4.8): each logical font, by name, appears
// exactly once, in first-encounter order.
type Document struct {
	Fonts []Font
	Pages []Page
}

// Font is a consolidated, document-wide font entry. FontNum is the index
// into Document.Fonts that every PageFont.FontNum in the document refers
// to after consolidation.
type Font struct {
	FontNum      int
	FontName     string
	FontPath     string
	FontFeatures string
}

// Page is one typeset page, in DVI stream order.
type Page struct {
	PageFonts []PageFont
	Rules     []Rule
	Images    []Image
}

// PageFont groups every glyph placed from one font on one page.
type PageFont struct {
	FontNum int
	Glyphs  []Glyph
}

// Glyph groups every placement of one glyph index of a PageFont, broken
// down further by the pixel size it was set at.
type Glyph struct {
	GlyphIndex uint32
	GlyphSizes []GlyphSize
}

// GlyphSize groups placements of a Glyph that were all set at the same
// scaled pixel size.
type GlyphSize struct {
	Sz              int32
	GlyphPlacements []GlyphPlacement
}

// GlyphPlacement is the pixel coordinate of one glyph instance, in DVI
// stream order.
type GlyphPlacement struct {
	X, Y int32
}

// Rule is a solid rectangle ("TeX black box"), top-left anchored, in
// integer pixels.
type Rule struct {
	X, Y, W, H int32
}

// Image is the placement of an embedded PostScript image requested by a
// PSfile= special (spec.md §4.7), top-left anchored, in integer pixels.
type Image struct {
	FileName   string
	X, Y, W, H int32
}
