/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/matjp/dvi-decode/common"
	"github.com/matjp/dvi-decode/model"
)

const (
	idByte            = 2
	minPostambleBytes = 53
	minTrailerBytes   = 4
)

// Decode is the sole entry point of the decoder (spec.md §6): it consumes
// data as a DVI byte stream and produces the structured Document
// described in spec.md §3, driven by the two-pass orchestration of
// spec.md §4.7.
func Decode(data []byte, opts Options) (*model.Document, error) {
	afterPre, num, den, fileMag, err := readPreamble(data)
	if err != nil {
		return nil, err
	}

	magnification := fileMag
	if opts.Magnification > 0 {
		magnification = opts.Magnification
	}
	conv, trueConv, err := convFactors(num, den, magnification, opts.displayDPI())
	if err != nil {
		return nil, err
	}

	postPos, maxV, maxH, maxS, registry, err := passOnePostamble(data, conv, magnification, num, den, fileMag, opts)
	if err != nil {
		return nil, err
	}
	registry.Await()
	if errs := registry.LoadErrors(); len(errs) > 0 {
		return nil, &fontAssetLoadFailure{err: errs[0]}
	}

	doc := &model.Document{}
	if err := passTwoPages(data, afterPre, postPos, conv, trueConv, magnification, maxV, maxH, maxS, registry, opts, doc); err != nil {
		return nil, err
	}
	// Fonts first defined in the page stream are loaded synchronously
	// during pass 2; their failures are just as fatal.
	if errs := registry.LoadErrors(); len(errs) > 0 {
		return nil, &fontAssetLoadFailure{err: errs[0]}
	}

	model.Consolidate(doc, registry.Snapshot())
	return doc, nil
}

// convFactors computes conv and trueConv per spec.md §3.
func convFactors(num, den, magnification int32, displayDPI float64) (conv, trueConv float64, err error) {
	if num <= 0 || den <= 0 || magnification <= 0 {
		return 0, 0, fmt.Errorf("%w: num=%d den=%d mag=%d", ErrNonpositiveScale, num, den, magnification)
	}
	conv = (float64(num) / 254000.0) * (displayDPI / float64(den)) * (float64(magnification) / 1000.0)
	trueConv = conv / (float64(magnification) / 1000.0)
	return conv, trueConv, nil
}

// readPreamble parses the pre(247) command at the start of data (spec.md
// §4.7 pass 1, step 1; wire format in §6).
func readPreamble(data []byte) (afterPre int, num, den, mag int32, err error) {
	r := newByteReader(data)
	if r.len() < 1 {
		return 0, 0, 0, 0, ErrTruncatedInput
	}
	if op := r.getU8(); op != opPre {
		return 0, 0, 0, 0, fmt.Errorf("%w: first opcode is %d, not pre", ErrBadPreamble, op)
	}
	if r.len() < 13 {
		return 0, 0, 0, 0, ErrTruncatedInput
	}
	if id := r.getU8(); id != idByte {
		return 0, 0, 0, 0, fmt.Errorf("%w: preamble id is %d, not %d", ErrMissingIDByte, id, idByte)
	}
	num = r.getI32()
	den = r.getI32()
	mag = r.getI32()
	k := int(r.getU8())
	if r.len() < k {
		return 0, 0, 0, 0, ErrTruncatedInput
	}
	r.getBytes(k) // comment, unused
	return r.cursor, num, den, mag, nil
}

// passOnePostamble implements spec.md §4.7 Pass 1: it locates the
// postamble by scanning backward from the end of the buffer, reads its
// summary fields and processes every fnt_def*, scheduling each as an
// asynchronous font-asset load (spec.md §4.4 Concurrency note, §5).
func passOnePostamble(data []byte, conv float64, magnification, preNum, preDen, preMag int32, opts Options) (postPos int, maxV, maxH, maxS int32, registry *model.FontRegistry, err error) {
	registry = model.NewFontRegistry(model.RegistryConfig{
		Conv: conv, DisplayDPI: opts.displayDPI(), Magnification: magnification,
		FontDirs: opts.FontDirs, LuaRoot: opts.LuaRoot,
		Loader: opts.Loader, Descriptions: opts.Descriptions,
		StrictFontFeatures: opts.StrictFontFeatures, Diag: opts.diag,
	})

	if len(data) < minPostambleBytes {
		return 0, 0, 0, 0, registry, fmt.Errorf("%w: length %d < %d", ErrInsufficientTrailer, len(data), minPostambleBytes)
	}

	trailerStart := len(data)
	for trailerStart > 0 && data[trailerStart-1] == 223 {
		trailerStart--
	}
	trailerLen := len(data) - trailerStart
	if trailerLen < minTrailerBytes {
		return 0, 0, 0, 0, registry, fmt.Errorf("%w: only %d trailing 223 bytes", ErrInsufficientTrailer, trailerLen)
	}
	if trailerStart < 5 {
		return 0, 0, 0, 0, registry, ErrMissingIDByte
	}
	// The convention is to pad the file to a 4-byte boundary with 223s;
	// a trailer meeting the hard minimum of 4 but leaving the overall
	// file misaligned is processable but non-conformant (spec.md §7).
	if len(data)%4 != 0 {
		opts.diag(fmt.Sprintf("signature_byte_count_too_low: file length %d is not a multiple of 4", len(data)))
		common.Log.Warning("signature_byte_count_too_low: file length %d not a multiple of 4", len(data))
	}

	idPos := trailerStart - 1
	if data[idPos] != idByte {
		return 0, 0, 0, 0, registry, fmt.Errorf("%w: post_post id is %d", ErrMissingIDByte, data[idPos])
	}

	qr := newByteReader(data)
	qr.peekSet(idPos - 4)
	q := qr.getI32()
	if q < 0 || int(q) > len(data)-33 {
		return 0, 0, 0, 0, registry, fmt.Errorf("%w: q=%d", ErrBadPostamblePointer, q)
	}
	opcodePos := idPos - 5
	if data[opcodePos] != opPostPost {
		return 0, 0, 0, 0, registry, fmt.Errorf("%w: expected post_post at %d", ErrBadPostambleMarker, opcodePos)
	}

	r := newByteReader(data)
	r.peekSet(int(q))
	if r.len() < 29 || r.getU8() != opPost {
		return 0, 0, 0, 0, registry, fmt.Errorf("%w: expected post at %d", ErrBadPostambleMarker, q)
	}
	r.getI32() // prev_bop_ptr, not used
	postNum := r.getI32()
	postDen := r.getI32()
	postMag := r.getI32()
	maxV = r.getI32()
	maxH = r.getI32()
	maxS = r.getI16()
	_ = r.getI16() // totalPages, informational only

	if postNum != preNum || postDen != preDen || postMag != preMag {
		opts.diag(fmt.Sprintf(
			"mismatched_preamble_postamble_fields: preamble(num=%d den=%d mag=%d) postamble(num=%d den=%d mag=%d)",
			preNum, preDen, preMag, postNum, postDen, postMag))
		common.Log.Warning("mismatched preamble/postamble num/den/mag fields")
	}

	signedQuadWarned := false
postambleFontDefs:
	for {
		if r.atEnd() {
			return 0, 0, 0, 0, registry, ErrIllegalCommandInSkip
		}
		cmd := r.getU8()
		switch {
		case cmd == opNOP:
			continue
		case cmd >= opFntDef1 && cmd <= opFntDef4:
			if cmd == opFntDef4 && !signedQuadWarned {
				signedQuadWarned = true
				opts.diag(fmt.Sprintf("signed_quad_param_discrepancy: opcode %d's 4-byte parameter is read signed, matching documented source behavior though the DVI format declares it unsigned", cmd))
				common.Log.Warning("signed_quad_param_discrepancy: opcode %d's 4-byte parameter read signed", cmd)
			}
			defineFontFromStream(r, cmd, registry, true)
		case cmd == opPostPost:
			break postambleFontDefs
		default:
			return 0, 0, 0, 0, registry, fmt.Errorf("%w: opcode %d in postamble", ErrIllegalCommandInSkip, cmd)
		}
	}
	return int(q), maxV, maxH, maxS, registry, nil
}

// defineFontFromStream reads one fnt_def* body from r (whose opcode byte
// cmd has already been consumed) and forwards it to registry.Define
// (spec.md §4.4, wire format in §6).
func defineFontFromStream(r *byteReader, cmd byte, registry *model.FontRegistry, async bool) {
	n := int(cmd-opFntDef1) + 1
	var fontNum int32
	if n == 4 {
		// fnt_def4's font number is read signed, matching documented
		// source behavior though the DVI format declares it unsigned
		// (spec.md §9 open question; preserved for compatibility).
		fontNum = r.getI32()
	} else {
		fontNum = r.getUN(n)
	}
	checksum := r.getI32()
	scaledSize := r.getI32()
	designSize := r.getI32()
	dirLen := int(r.getU8())
	nameLen := int(r.getU8())
	raw := r.getBytes(dirLen + nameLen)
	nameBytes := stripBrackets(raw)
	registry.Define(fontNum, checksum, scaledSize, designSize, nameBytes, async)
}

// stripBrackets elides the 0o133 ('[') and 0o135 (']') bytes from a
// fnt_def name field, per spec.md §4.4.
func stripBrackets(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == 0o133 || c == 0o135 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// specialString decodes an xxx* payload the way a DVI special is
// conventionally encoded: 8-bit Windows-1252/Latin-1-adjacent bytes,
// using the same golang.org/x/text/encoding/charmap decoder the teacher
// uses for its WinAnsiEncoding (spec.md §4.7 treats the payload as "a
// string").
func specialString(payload []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(payload)
	if err != nil {
		return string(payload)
	}
	return string(out)
}
