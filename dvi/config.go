/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import "github.com/matjp/dvi-decode/internal/fontio"

// defaultDisplayDPI is used when Options.DisplayDPI is left at zero.
const defaultDisplayDPI = 96

// Options configures a single Decode call (spec.md §6).
type Options struct {
	// DisplayDPI is the target display resolution in pixels per inch.
	// Zero selects the default of 96.
	DisplayDPI float64

	// Magnification, if greater than zero, overrides the magnification
	// recorded in the DVI preamble/postamble.
	Magnification int32

	// FontDirs maps a font's external name to the directory it should be
	// loaded from.
	FontDirs map[string]string

	// LuaRoot is the root directory searched for each font's auxiliary
	// glyph-description file, "<LuaRoot>/<basename_lowercased>.lua"
	// (spec.md §6).
	LuaRoot string

	// Loader resolves a font descriptor to its units-per-em and per-glyph
	// advance widths, and its cmap. A default backed by
	// github.com/go-text/typesetting is used when nil.
	Loader fontio.Loader

	// Descriptions resolves a font's auxiliary glyph-description table.
	// A default JSON-based loader is used when nil (spec.md's "Lua-table
	// parsing" is explicitly out of scope for the core; see DESIGN.md).
	Descriptions fontio.DescriptionLoader

	// StrictFontFeatures, when true, turns the commented-out "mode=harf,
	// shaper=ot" feature-substring enforcement (spec.md §9, Open
	// Question) into a non-fatal diagnostic.
	StrictFontFeatures bool

	// Debug, when true, prefixes each opcode trace sent to DiagSink with
	// the byte offset of the opcode being processed (spec.md §6).
	Debug bool

	// DiagSink receives one-line free-form diagnostic strings. If nil,
	// diagnostics are only sent to common.Log.
	DiagSink func(string)
}

func (o Options) displayDPI() float64 {
	if o.DisplayDPI <= 0 {
		return defaultDisplayDPI
	}
	return o.DisplayDPI
}

func (o Options) diag(s string) {
	if o.DiagSink != nil {
		o.DiagSink(s)
	}
}
