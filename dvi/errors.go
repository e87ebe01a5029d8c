/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import "errors"

// Fatal errors (spec.md §7): returned from Decode and unwind the decode
// immediately. Callers can compare with errors.Is.
var (
	ErrTruncatedInput         = errors.New("dvi: truncated input")
	ErrBadPreamble            = errors.New("dvi: bad preamble")
	ErrBadPostambleMarker     = errors.New("dvi: bad postamble marker")
	ErrBadPostamblePointer    = errors.New("dvi: bad postamble pointer")
	ErrInsufficientTrailer    = errors.New("dvi: insufficient 223 trailer")
	ErrMissingIDByte          = errors.New("dvi: missing or wrong id byte")
	ErrNonBOPWhereBOPExpected = errors.New("dvi: expected bop")
	ErrIllegalCommandInSkip   = errors.New("dvi: illegal command while skipping to bop/post")
	ErrNonpositiveScale       = errors.New("dvi: nonpositive numerator, denominator or magnification")
	ErrPageEndedWithoutEOP    = errors.New("dvi: page ended without eop")
	ErrBOPWithinPage          = errors.New("dvi: bop encountered within a page")
	ErrPreOrPostWithinPage    = errors.New("dvi: pre or post encountered within a page")
	ErrFontAssetLoad          = errors.New("dvi: font asset load failed")
)

// fontAssetLoadFailure wraps the first model.FontRegistry.LoadErrors entry
// so that the error returned from Decode both classifies as
// ErrFontAssetLoad (errors.Is, a plain single-target comparison) and still
// unwraps to the underlying model/fontio failure for model.
// IsFontAssetLoadError and %v formatting. A single-target Is method is used
// instead of wrapping ErrFontAssetLoad itself with fmt.Errorf's multi-%w
// form, which golang.org/x/xerrors.Is does not walk (see model/registry.go).
type fontAssetLoadFailure struct {
	err error
}

func (e *fontAssetLoadFailure) Error() string {
	return ErrFontAssetLoad.Error() + ": " + e.err.Error()
}

func (e *fontAssetLoadFailure) Unwrap() error { return e.err }

func (e *fontAssetLoadFailure) Is(target error) bool { return target == ErrFontAssetLoad }
