/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/xerrors"

	"github.com/matjp/dvi-decode/common"
	"github.com/matjp/dvi-decode/internal/fontio"
)

// NoECLimit marks a FontDescriptor.EC whose true value could not be
// determined from the external font asset; the glyph resolver's
// "index exceeds EC" substitution (spec.md §4.5) is skipped in that case.
const NoECLimit = ^uint32(0)

// maxScale is the exclusive upper bound (with 0 as the exclusive lower
// bound) of a legal scaled/design size, spec.md §4.4:
// "Reject or warn if q <= 0 or q >= 2^27, or d <= 0 or d >= 2^27."
const maxScale = 1 << 27

// RegistryConfig carries the pieces of Options a FontRegistry needs,
// without the registry depending on package dvi (which depends on
// model), avoiding an import cycle.
type RegistryConfig struct {
	Conv               float64 // DVI units -> pixels
	DisplayDPI         float64
	Magnification      int32 // thousandths
	FontDirs           map[string]string
	LuaRoot            string
	Loader             fontio.Loader
	Descriptions       fontio.DescriptionLoader
	StrictFontFeatures bool
	Diag               func(string)
}

// FontRegistry is the font-number -> FontDescriptor map (spec.md §4.4). It
// defines fonts from fnt_def* bodies, re-defining sanity-checks a later
// redefinition for the same font number, and loads each font's external
// asset and auxiliary glyph-description table.
type FontRegistry struct {
	cfg RegistryConfig

	mu    sync.Mutex
	byNum map[int32]*FontDescriptor

	wg       sync.WaitGroup
	loadErrs []error
}

// NewFontRegistry returns an empty registry configured by cfg.
func NewFontRegistry(cfg RegistryConfig) *FontRegistry {
	if cfg.Loader == nil {
		cfg.Loader = fontio.NewTypesettingLoader()
	}
	if cfg.Descriptions == nil {
		cfg.Descriptions = fontio.NewJSONDescriptionLoader()
	}
	return &FontRegistry{cfg: cfg, byNum: make(map[int32]*FontDescriptor)}
}

func (r *FontRegistry) diag(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	common.Log.Warning("%s", msg)
	if r.cfg.Diag != nil {
		r.cfg.Diag(msg)
	}
}

// Snapshot returns the current fontNum -> FontDescriptor map, for the
// Consolidator (spec.md §4.8) to fold into a Document's Fonts/PageFonts.
func (r *FontRegistry) Snapshot() map[int32]*FontDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int32]*FontDescriptor, len(r.byNum))
	for k, v := range r.byNum {
		out[k] = v
	}
	return out
}

// Lookup returns the descriptor for fontNum, if defined.
func (r *FontRegistry) Lookup(fontNum int32) (*FontDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fd, ok := r.byNum[fontNum]
	return fd, ok
}

// Define processes one fnt_def* body (spec.md §4.4). checksum, scaledSize
// and designSize are the three 32-bit fields that follow the font number;
// nameBytes is the dir_len+name_len composite name field with brackets
// elided by the caller's byte reader already stripped of the 0o133/0o135
// delimiter bytes themselves (the caller strips them while reading, per
// spec.md's wire format note).
//
// If async is true, the font asset and glyph-description table are
// loaded on a goroutine collected by Await; this is how the postamble
// scan (Pass 1, spec.md §4.7) schedules font loads without blocking the
// sweep. When async is false (an in-stream fnt_def*), a font that is not
// yet defined is loaded synchronously before Define returns. In either
// mode a fontNum that is already defined is only validated against the
// existing descriptor (spec.md's Lifecycles) -- its asset is never loaded
// a second time.
func (r *FontRegistry) Define(fontNum, checksum, scaledSize, designSize int32, nameBytes []byte, async bool) {
	r.mu.Lock()
	existing, ok := r.byNum[fontNum]
	r.mu.Unlock()

	if ok {
		r.checkRedefinition(existing, fontNum, checksum, scaledSize, designSize, nameBytes)
		return
	}

	fd := &FontDescriptor{
		FontNum:    fontNum,
		Checksum:   checksum,
		ScaledSize: scaledSize,
		DesignSize: designSize,
		EC:         NoECLimit,
	}
	fd.DirPath, fd.FontName, fd.Features = splitCompositeName(nameBytes)

	r.mu.Lock()
	r.byNum[fontNum] = fd
	r.mu.Unlock()

	if scaledSize <= 0 || scaledSize >= maxScale || designSize <= 0 || designSize >= maxScale {
		r.diag("font %d (%s): scaled_size/design_size out of range (q=%d d=%d)", fontNum, fd.FontName, scaledSize, designSize)
		return
	}

	fd.FontScaledPointSize = float64(r.cfg.Magnification) / 1000.0 * float64(scaledSize) / 65536.0
	fd.FontScaledPixelSize = int32(roundHalfAwayFromZero(r.cfg.Conv * float64(scaledSize)))
	fd.FontSpace = scaledSize / 6

	if r.cfg.StrictFontFeatures {
		if !strings.Contains(fd.Features, "mode=harf") || !strings.Contains(fd.Features, "shaper=ot") {
			r.diag("font_feature_mismatch: font %d (%s): feature string %q missing mode=harf/shaper=ot", fontNum, fd.FontName, fd.Features)
		}
	}

	load := func() {
		if err := r.loadAsset(fd); err != nil {
			wrapped := &fontAssetLoadError{fontNum: fontNum, fontName: fd.FontName, err: err}
			r.mu.Lock()
			r.loadErrs = append(r.loadErrs, wrapped)
			r.mu.Unlock()
			r.diag("font %d (%s): asset load failed: %v", fontNum, fd.FontName, err)
		}
	}
	if async {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			load()
		}()
	} else {
		load()
	}
}

var fontAssetLoadSentinel = errors.New("dvi: font asset load failed")

// fontAssetLoadError wraps an underlying fontio.Loader/DescriptionLoader
// failure so that it both unwraps to the real cause (for %v/logging) and
// classifies as fontAssetLoadSentinel under errors.Is/xerrors.Is, without
// relying on fmt.Errorf's multi-%w tree form, which xerrors.Is (grounded on
// the single-target Unwrap() error chain the teacher's extractor/text.go
// expects) does not walk.
type fontAssetLoadError struct {
	fontNum  int32
	fontName string
	err      error
}

func (e *fontAssetLoadError) Error() string {
	return fmt.Sprintf("font %d (%s): asset load failed: %v", e.fontNum, e.fontName, e.err)
}

func (e *fontAssetLoadError) Unwrap() error { return e.err }

func (e *fontAssetLoadError) Is(target error) bool { return target == fontAssetLoadSentinel }

// IsFontAssetLoadError reports whether err (or anything it wraps) is a
// font-asset load failure, without the caller needing to know which
// concrete fontio.Loader produced it -- the same classify-by-sentinel
// idiom the teacher's extractor/text.go uses with xerrors.Is.
func IsFontAssetLoadError(err error) bool {
	return xerrors.Is(err, fontAssetLoadSentinel)
}

// LoadErrors returns every asset-load error collected since the registry
// was created (Await does not clear them), in completion order (which is not deterministic across runs with
// more than one font, since loads run concurrently).
func (r *FontRegistry) LoadErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.loadErrs...)
}

// Await blocks until every asset load scheduled with async=true has
// completed (spec.md §4.4 "Concurrency note", §5).
func (r *FontRegistry) Await() {
	r.wg.Wait()
}

func (r *FontRegistry) checkRedefinition(existing *FontDescriptor, fontNum, checksum, scaledSize, designSize int32, nameBytes []byte) {
	_, fontName, _ := splitCompositeName(nameBytes)
	mismatches := []string{}
	if existing.FontNum != fontNum {
		mismatches = append(mismatches, "fontNum")
	}
	if existing.ScaledSize != scaledSize {
		mismatches = append(mismatches, "scaledSize")
	}
	if existing.DesignSize != designSize {
		mismatches = append(mismatches, "designSize")
	}
	if existing.FontName != fontName {
		mismatches = append(mismatches, "fontName")
	}
	if len(mismatches) > 0 {
		r.diag("font %d: redefinition mismatch on %s (keeping first definition)", fontNum, strings.Join(mismatches, ", "))
	}
}

func (r *FontRegistry) loadAsset(fd *FontDescriptor) error {
	dir := r.cfg.FontDirs[fd.FontName]
	path := fd.FontName
	if dir != "" {
		path = filepath.Join(dir, fd.FontName)
	} else if fd.DirPath != "" {
		path = filepath.Join(fd.DirPath, fd.FontName)
	}

	face, err := r.cfg.Loader.Load(path)
	if err != nil {
		return err
	}
	fd.UnitsPerEm = face.UnitsPerEm
	fd.GlyphForRune = face.GlyphForRune
	fd.advanceForGlyph = face.AdvanceForGlyph
	if face.NumGlyphs > 0 {
		fd.EC = face.NumGlyphs - 1
	}
	if fd.UnitsPerEm > 0 {
		pixelsPerEm := fd.FontScaledPointSize * r.cfg.DisplayDPI / 72.27
		dviUnitPerEm := pixelsPerEm / r.cfg.Conv
		fd.OTFUnitConv = dviUnitPerEm / float64(fd.UnitsPerEm)
	}

	descs, err := r.cfg.Descriptions.Load(r.cfg.LuaRoot, fd.FontName)
	if err != nil {
		return err
	}
	fd.Descriptions = descs
	return nil
}

// splitCompositeName splits the fnt_def name bytes (spec.md §4.4) of the
// form "<path>/<basename>:<features>" into its three parts. The caller
// has already elided the literal 0o133 ('[') and 0o135 (']') delimiter
// bytes while reading.
func splitCompositeName(nameBytes []byte) (dir, base, features string) {
	s := string(nameBytes)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		features = s[i+1:]
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		dir = s[:i]
		base = s[i+1:]
	} else {
		base = s
	}
	return dir, base, features
}
