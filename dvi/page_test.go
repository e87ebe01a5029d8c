/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matjp/dvi-decode/internal/fontio"
	"github.com/matjp/dvi-decode/model"
)

func TestPageBuilderAddGlyphGroupsBySizeAndIndex(t *testing.T) {
	pb := newPageBuilder()
	pb.addGlyph(0, 3, 10, 100, 200)
	pb.addGlyph(0, 3, 10, 110, 200)
	pb.addGlyph(0, 3, 20, 50, 60)
	pb.addGlyph(1, 5, 10, 1, 1)

	page := pb.build()
	require.Len(t, page.PageFonts, 2)
	require.Equal(t, 0, page.PageFonts[0].FontNum)
	require.Equal(t, 1, page.PageFonts[1].FontNum)

	glyph := page.PageFonts[0].Glyphs[0]
	require.Equal(t, uint32(3), glyph.GlyphIndex)
	require.Len(t, glyph.GlyphSizes, 2)
	require.Len(t, glyph.GlyphSizes[0].GlyphPlacements, 2)
	require.Len(t, glyph.GlyphSizes[1].GlyphPlacements, 1)
}

func TestEmitGlyphWithoutValidFontIsNoop(t *testing.T) {
	m := newTestMachine()
	pb := newPageBuilder()
	emitGlyph(m, nil, pb, 65, true)
	require.Empty(t, pb.fonts)
}

func TestEmitGlyphRecordsPlacementWhenSetting(t *testing.T) {
	m := newTestMachine()
	m.curFont = &model.FontDescriptor{
		FontNum: 2,
		EC:      model.NoECLimit,
		Descriptions: map[string]fontio.GlyphDescription{
			"65": {Index: 10},
		},
	}
	m.fontValid = true
	pb := newPageBuilder()

	emitGlyph(m, nil, pb, 65, true)

	require.Len(t, pb.fonts, 1)
	pf := pb.fonts[2]
	require.Contains(t, pf.glyphs, uint32(10))
}

// TestEmitGlyphAccumulatesPixelWidthAcrossGlyphs covers spec.md §4.6: set*
// advances hh by the glyph's own pixel width, accumulated across glyphs,
// not by resynchronizing hh from h after every glyph.
func TestEmitGlyphAccumulatesPixelWidthAcrossGlyphs(t *testing.T) {
	m := newTestMachine()
	m.curFont = &model.FontDescriptor{
		FontNum: 2,
		EC:      model.NoECLimit,
		Descriptions: map[string]fontio.GlyphDescription{
			"65": {Index: 10},
		},
		WidthDVI:   map[uint32]int32{10: 1000},
		WidthPixel: map[uint32]int32{10: 7},
	}
	m.fontValid = true
	pb := newPageBuilder()

	emitGlyph(m, nil, pb, 65, true)
	emitGlyph(m, nil, pb, 65, true)

	require.Equal(t, int32(2000), m.reg.h)
	require.Equal(t, int32(14), m.reg.hh)
}

func TestDispatchSetRuleAdvancesHWithOverflowGuard(t *testing.T) {
	m := newTestMachine()
	m.reg.h = infinity - 5
	pb := newPageBuilder()
	var diagnostics []string
	opts := Options{DiagSink: func(s string) { diagnostics = append(diagnostics, s) }}
	m.opts = opts

	r := newByteReader(i32be(1310720)) // width
	d := decoded{class: classSetRule, value: 655360}
	done, err := dispatch(opSetRule, d, r, 0, m, model.NewFontRegistry(model.RegistryConfig{}), opts, pb)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, infinity, m.reg.h)
	require.NotEmpty(t, diagnostics)
	require.Len(t, pb.rules, 1)
}

// TestDispatchSetRuleAccumulatesPixelWidth covers spec.md §4.6: set_rule
// advances hh by the rule's own pixel width (accumulation), not by
// resynchronizing from h.
func TestDispatchSetRuleAccumulatesPixelWidth(t *testing.T) {
	m := newTestMachine() // conv = 0.1
	m.reg.hh = 100         // pre-existing drift unrelated to this rule's width
	pb := newPageBuilder()

	r := newByteReader(i32be(200)) // width=200 -> pixel width rulePixels(0.1*200)=20
	d := decoded{class: classSetRule, value: 100}
	_, err := dispatch(opSetRule, d, r, 0, m, model.NewFontRegistry(model.RegistryConfig{}), Options{}, pb)
	require.NoError(t, err)
	require.Equal(t, int32(200), m.reg.h)
	require.Equal(t, int32(120), m.reg.hh)
}

func TestDispatchPutRuleDoesNotAdvance(t *testing.T) {
	m := newTestMachine()
	pb := newPageBuilder()
	r := newByteReader(i32be(1310720))
	d := decoded{class: classPutRule, value: 655360}
	_, err := dispatch(opPutRule, d, r, 0, m, model.NewFontRegistry(model.RegistryConfig{}), Options{}, pb)
	require.NoError(t, err)
	require.Equal(t, int32(0), m.reg.h)
	require.Len(t, pb.rules, 1)
}

func TestDispatchEOPWithNonEmptyStackWarns(t *testing.T) {
	m := newTestMachine()
	m.push()
	var diagnostics []string
	opts := Options{DiagSink: func(s string) { diagnostics = append(diagnostics, s) }}
	pb := newPageBuilder()
	done, err := dispatch(opEOP, decoded{class: classEOP}, newByteReader(nil), 0, m, model.NewFontRegistry(model.RegistryConfig{}), opts, pb)
	require.NoError(t, err)
	require.True(t, done)
	require.NotEmpty(t, diagnostics)
}

func TestDispatchXXXWithNegativeLengthIsNonFatal(t *testing.T) {
	m := newTestMachine()
	pb := newPageBuilder()
	var diagnostics []string
	opts := Options{DiagSink: func(s string) { diagnostics = append(diagnostics, s) }}
	d := decoded{class: classXXX, value: -2}
	done, err := dispatch(opXXX4, d, newByteReader(nil), 0, m, model.NewFontRegistry(model.RegistryConfig{}), opts, pb)
	require.NoError(t, err)
	require.False(t, done)
	require.NotEmpty(t, diagnostics)
	require.Empty(t, pb.images)
}

func TestDispatchBOPWithinPageIsFatal(t *testing.T) {
	m := newTestMachine()
	_, err := dispatch(opBOP, decoded{class: classBOP}, newByteReader(nil), 0, m, model.NewFontRegistry(model.RegistryConfig{}), Options{}, newPageBuilder())
	require.ErrorIs(t, err, ErrBOPWithinPage)
}
