/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"strconv"
	"strings"

	"github.com/matjp/dvi-decode/model"
)

// psFileTokens holds the key=value tokens recognized after the quoted
// file name in a PSfile= special (spec.md §4.7).
type psFileTokens struct {
	fileName                           string
	llx, lly, urx, ury, rwi, rhi       int
	haveRWI, haveRHI                   bool
}

// parsePSFile parses the body of an xxx* special known to begin with the
// literal "PSfile=" and returns the image it places at (hh, vv), or ok=
// false if the payload cannot be parsed as the documented grammar.
func parsePSFile(payload string, hh, vv int32, displayDPI float64, magnification int32) (model.Image, bool) {
	const prefix = "PSfile="
	if !strings.HasPrefix(payload, prefix) {
		return model.Image{}, false
	}
	rest := payload[len(prefix):]

	fileName, rest, ok := takeQuoted(rest)
	if !ok {
		return model.Image{}, false
	}

	tok := psFileTokens{fileName: fileName}
	for _, field := range strings.Fields(rest) {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		v, err := strconv.Atoi(kv[1])
		if err != nil {
			continue
		}
		switch kv[0] {
		case "llx":
			tok.llx = v
		case "lly":
			tok.lly = v
		case "urx":
			tok.urx = v
		case "ury":
			tok.ury = v
		case "rwi":
			tok.rwi, tok.haveRWI = v, true
		case "rhi":
			tok.rhi, tok.haveRHI = v, true
		}
	}

	widthBBox := tok.urx - tok.llx
	heightBBox := tok.ury - tok.lly
	if widthBBox == 0 {
		return model.Image{}, false
	}

	psWidthScale := 1.0
	if tok.haveRWI && tok.rwi != 0 {
		psWidthScale = (float64(tok.rwi) / 10) / float64(widthBBox)
	}
	psHeightScale := psWidthScale
	if tok.haveRHI && tok.rhi != 0 && heightBBox != 0 {
		psHeightScale = (float64(tok.rhi) / 10) / float64(heightBBox)
	}

	pixelScale := (displayDPI / 72) * (float64(magnification) / 1000)
	w := int32(float64(widthBBox) * psWidthScale * pixelScale)
	h := int32(float64(heightBBox) * psHeightScale * pixelScale)

	return model.Image{
		FileName: tok.fileName,
		X:        hh,
		Y:        vv - h,
		W:        w,
		H:        h,
	}, true
}

// takeQuoted extracts the first double-quoted token from s, returning its
// content and the remainder of s after the closing quote.
func takeQuoted(s string) (quoted, rest string, ok bool) {
	s = strings.TrimLeft(s, " ")
	if len(s) == 0 || s[0] != '"' {
		return "", s, false
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", s, false
	}
	return s[1 : 1+end], s[1+end+1:], true
}

// isPrintableSpecialByte reports whether b falls in the printable-ASCII
// range [0o40, 0o176] that spec.md §4.7 requires for specials other than
// PSfile=; bytes outside it trigger the nonascii_in_special diagnostic.
func isPrintableSpecialByte(b byte) bool {
	return b >= 0o40 && b <= 0o176
}
