/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matjp/dvi-decode/internal/fontio"
	"github.com/matjp/dvi-decode/model"
)

type stubLoader struct {
	face fontio.Face
	err  error
}

func (s stubLoader) Load(path string) (fontio.Face, error) { return s.face, s.err }

type stubDescriptionLoader struct {
	descs map[string]fontio.GlyphDescription
	err   error
}

func (s stubDescriptionLoader) Load(luaRoot, fontBaseName string) (map[string]fontio.GlyphDescription, error) {
	return s.descs, s.err
}

func newTestRegistry() *model.FontRegistry {
	return model.NewFontRegistry(model.RegistryConfig{
		Conv: 0.015, DisplayDPI: 72, Magnification: 1000,
		Loader:       stubLoader{face: fontio.Face{UnitsPerEm: 1000, NumGlyphs: 128}},
		Descriptions: stubDescriptionLoader{descs: map[string]fontio.GlyphDescription{}},
	})
}

func TestFontRegistryDefineAndLookup(t *testing.T) {
	r := newTestRegistry()
	r.Define(0, 0, 655360, 655360, []byte("cmr10"), false)
	r.Await()

	require.Empty(t, r.LoadErrors())
	fd, ok := r.Lookup(0)
	require.True(t, ok)
	require.Equal(t, "cmr10", fd.FontName)
	require.Equal(t, uint32(127), fd.EC)
}

// TestFontRegistryRedefinitionMismatchKeepsFirst is the literal S4 scenario.
func TestFontRegistryRedefinitionMismatchKeepsFirst(t *testing.T) {
	var diagnostics []string
	r := model.NewFontRegistry(model.RegistryConfig{
		Conv: 0.015, DisplayDPI: 72, Magnification: 1000,
		Loader:       stubLoader{face: fontio.Face{UnitsPerEm: 1000, NumGlyphs: 128}},
		Descriptions: stubDescriptionLoader{descs: map[string]fontio.GlyphDescription{}},
		Diag:         func(s string) { diagnostics = append(diagnostics, s) },
	})

	r.Define(5, 0, 655360, 655360, []byte("cmr10"), false)
	r.Define(5, 0, 700000, 655360, []byte("cmr10"), false)
	r.Await()

	require.NotEmpty(t, diagnostics)
	fd, ok := r.Lookup(5)
	require.True(t, ok)
	require.Equal(t, int32(655360), fd.ScaledSize)
}

func TestFontRegistrySplitsPathAndFeatures(t *testing.T) {
	r := newTestRegistry()
	r.Define(1, 0, 655360, 655360, []byte("fonts/cmr/cmr10:mode=harf,shaper=ot"), false)
	r.Await()

	fd, ok := r.Lookup(1)
	require.True(t, ok)
	require.Equal(t, "fonts/cmr", fd.DirPath)
	require.Equal(t, "cmr10", fd.FontName)
	require.Equal(t, "mode=harf,shaper=ot", fd.Features)
}

func TestFontRegistryRejectsOutOfRangeScale(t *testing.T) {
	var diagnostics []string
	r := model.NewFontRegistry(model.RegistryConfig{
		Conv: 0.015, DisplayDPI: 72, Magnification: 1000,
		Loader:       stubLoader{face: fontio.Face{}},
		Descriptions: stubDescriptionLoader{descs: map[string]fontio.GlyphDescription{}},
		Diag:         func(s string) { diagnostics = append(diagnostics, s) },
	})
	r.Define(0, 0, 0, 655360, []byte("cmr10"), false)
	require.NotEmpty(t, diagnostics)
}

func TestFontRegistryCollectsAssetLoadErrors(t *testing.T) {
	loadErr := errors.New("boom")
	r := model.NewFontRegistry(model.RegistryConfig{
		Conv: 0.015, DisplayDPI: 72, Magnification: 1000,
		Loader:       stubLoader{err: loadErr},
		Descriptions: stubDescriptionLoader{descs: map[string]fontio.GlyphDescription{}},
	})
	r.Define(0, 0, 655360, 655360, []byte("cmr10"), true)
	r.Await()

	errs := r.LoadErrors()
	require.Len(t, errs, 1)
	require.True(t, model.IsFontAssetLoadError(errs[0]))
	require.ErrorIs(t, errs[0], loadErr)
}

func TestFontRegistryStrictFontFeaturesDiagnosesMissingMode(t *testing.T) {
	var diagnostics []string
	r := model.NewFontRegistry(model.RegistryConfig{
		Conv: 0.015, DisplayDPI: 72, Magnification: 1000,
		Loader:             stubLoader{face: fontio.Face{UnitsPerEm: 1000}},
		Descriptions:       stubDescriptionLoader{descs: map[string]fontio.GlyphDescription{}},
		StrictFontFeatures: true,
		Diag:               func(s string) { diagnostics = append(diagnostics, s) },
	})
	r.Define(0, 0, 655360, 655360, []byte("cmr10"), false)
	require.NotEmpty(t, diagnostics)
}
