/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"fmt"

	"github.com/matjp/dvi-decode/common"
	"github.com/matjp/dvi-decode/model"
)

// pageBuilder accumulates one page's output as it is translated, keyed by
// the raw (pre-consolidation) DVI font number, glyph index and pixel
// size, so that repeated visits to the same font/glyph/size within a
// single page are folded together exactly the way the Consolidator
// (spec.md §4.8) would fold them afterwards.
type pageBuilder struct {
	fonts  map[int32]*pageFontBuilder
	order  []int32
	rules  []model.Rule
	images []model.Image
}

type pageFontBuilder struct {
	glyphs map[uint32]*glyphBuilder
	order  []uint32
}

type glyphBuilder struct {
	sizes map[int32]*model.GlyphSize
	order []int32
}

func newPageBuilder() *pageBuilder {
	return &pageBuilder{fonts: make(map[int32]*pageFontBuilder)}
}

func (pb *pageBuilder) addGlyph(fontNum int32, glyphIndex uint32, sz, x, y int32) {
	pf, ok := pb.fonts[fontNum]
	if !ok {
		pf = &pageFontBuilder{glyphs: make(map[uint32]*glyphBuilder)}
		pb.fonts[fontNum] = pf
		pb.order = append(pb.order, fontNum)
	}
	g, ok := pf.glyphs[glyphIndex]
	if !ok {
		g = &glyphBuilder{sizes: make(map[int32]*model.GlyphSize)}
		pf.glyphs[glyphIndex] = g
		pf.order = append(pf.order, glyphIndex)
	}
	gs, ok := g.sizes[sz]
	if !ok {
		gs = &model.GlyphSize{Sz: sz}
		g.sizes[sz] = gs
		g.order = append(g.order, sz)
	}
	gs.GlyphPlacements = append(gs.GlyphPlacements, model.GlyphPlacement{X: x, Y: y})
}

func (pb *pageBuilder) build() model.Page {
	page := model.Page{Rules: pb.rules, Images: pb.images}
	for _, fontNum := range pb.order {
		pf := pb.fonts[fontNum]
		out := model.PageFont{FontNum: int(fontNum)}
		for _, gi := range pf.order {
			g := pf.glyphs[gi]
			glyph := model.Glyph{GlyphIndex: gi}
			for _, sz := range g.order {
				glyph.GlyphSizes = append(glyph.GlyphSizes, *g.sizes[sz])
			}
			out.Glyphs = append(out.Glyphs, glyph)
		}
		page.PageFonts = append(page.PageFonts, out)
	}
	return page
}

// passTwoPages implements spec.md §4.7 Pass 2: it walks every bop..eop
// page in stream order, dispatching each opcode per the State Machine
// table of spec.md §4.6, and appends the committed page to doc.Pages.
func passTwoPages(data []byte, afterPre, postPos int, conv, trueConv float64, magnification, maxV, maxH, maxS int32, registry *model.FontRegistry, opts Options, doc *model.Document) error {
	r := newByteReader(data)
	r.peekSet(afterPre)
	m := newMachine(conv, trueConv, magnification, maxH, maxV, maxS, opts)

	var lastBop int32 = -1

	for {
		pos := r.cursor
		if r.atEnd() {
			return ErrPageEndedWithoutEOP
		}
		cmd := r.getU8()
		switch {
		case cmd == opNOP:
			continue
		case cmd >= opFntDef1 && cmd <= opFntDef4:
			if cmd == opFntDef4 {
				m.warnSignedQuadOnce(cmd)
			}
			defineFontFromStream(r, cmd, registry, false)
			continue
		case cmd == opPost:
			return nil
		case cmd == opBOP:
			prevBop, err := translatePage(r, pos, m, registry, opts, doc)
			if err != nil {
				return err
			}
			if lastBop >= 0 && prevBop != lastBop {
				opts.diag(fmt.Sprintf("nonmatching_backpointer: page at %d points to %d, expected %d", pos, prevBop, lastBop))
				common.Log.Warning("non-matching backpointer at offset %d", pos)
			}
			lastBop = int32(pos)
		default:
			return fmt.Errorf("%w: opcode %d while scanning for bop/post at %d", ErrNonBOPWhereBOPExpected, cmd, pos)
		}
	}
}

// translatePage translates one bop..eop page, starting with the opBOP
// opcode already consumed at position bopPos. It returns the page's
// prev_bop backpointer for the caller to validate.
func translatePage(r *byteReader, bopPos int, m *machine, registry *model.FontRegistry, opts Options, doc *model.Document) (prevBop int32, err error) {
	if r.len() < 44 {
		return 0, ErrTruncatedInput
	}
	for i := 0; i < 10; i++ {
		r.getI32() // count registers c0..c9, informational only
	}
	prevBop = r.getI32()

	m.resetForPage()
	m.curFont = nil
	m.fontValid = false
	pb := newPageBuilder()

	for {
		if r.atEnd() {
			return prevBop, ErrPageEndedWithoutEOP
		}
		pos := r.cursor
		cmd := r.getU8()
		d := decodeOpcode(cmd, r)
		if cmd == opFnt4 || cmd == opXXX4 || cmd == opFntDef4 {
			m.warnSignedQuadOnce(cmd)
		}

		done, err := dispatch(cmd, d, r, pos, m, registry, opts, pb)
		if err != nil {
			return prevBop, err
		}
		if done {
			break
		}
	}

	doc.Pages = append(doc.Pages, pb.build())
	return prevBop, nil
}

// dispatch applies the semantics of one opcode (spec.md §4.6 table). It
// returns done=true when the opcode was eop, ending the page.
func dispatch(cmd byte, d decoded, r *byteReader, pos int, m *machine, registry *model.FontRegistry, opts Options, pb *pageBuilder) (done bool, err error) {
	trace := func() {
		if opts.Debug {
			opts.diag(fmt.Sprintf("[%d] opcode %d", pos, cmd))
		}
	}
	trace()

	switch d.class {
	case classSetChar, classSet:
		emitGlyph(m, registry, pb, d.value, true)
	case classPut:
		emitGlyph(m, registry, pb, d.value, false)
	case classSetRule, classPutRule:
		height := d.value
		width := r.getI32()
		if height > 0 && width > 0 {
			w := rulePixels(m.conv, width)
			h := rulePixels(m.conv, height)
			pb.rules = append(pb.rules, model.Rule{X: m.reg.hh, Y: m.reg.vv - h, W: w, H: h})
		}
		if d.class == classSetRule {
			m.accumulateH(width, rulePixels(m.conv, width))
		}
	case classNOP:
	case classBOP:
		return false, ErrBOPWithinPage
	case classEOP:
		if len(m.stack) != 0 {
			opts.diag(fmt.Sprintf("stack not empty (%d entries) at eop, offset %d", len(m.stack), pos))
			common.Log.Warning("stack not empty at eop, offset %d", pos)
		}
		return true, nil
	case classPush:
		m.push()
	case classPop:
		if err := m.pop(); err != nil {
			opts.diag(fmt.Sprintf("pop with empty stack at offset %d", pos))
			common.Log.Warning("pop with empty stack at offset %d", pos)
		}
	case classRight:
		m.outSpace(d.value)
	case classW:
		if cmd != opW0 {
			m.reg.w = d.value
		}
		m.outSpace(m.reg.w)
	case classX:
		if cmd != opX0 {
			m.reg.x = d.value
		}
		m.outSpace(m.reg.x)
	case classDown:
		m.moveDown(d.value)
	case classY:
		if cmd != opY0 {
			m.reg.y = d.value
		}
		m.outSpaceV(m.reg.y)
	case classZ:
		if cmd != opZ0 {
			m.reg.z = d.value
		}
		m.outSpaceV(m.reg.z)
	case classFntNum, classFnt:
		fontNum := d.value
		fd, ok := registry.Lookup(fontNum)
		if !ok {
			opts.diag(fmt.Sprintf("fnt_num %d undefined at offset %d", fontNum, pos))
			common.Log.Warning("font %d undefined at offset %d", fontNum, pos)
			m.curFont = nil
			m.fontValid = false
		} else {
			m.curFont = fd
			m.fontValid = true
		}
	case classFntDef:
		defineFontFromStream(r, cmd, registry, false)
	case classXXX:
		if d.value < 0 {
			opts.diag(fmt.Sprintf("negative_special_length: xxx length %d at offset %d, treating as empty", d.value, pos))
			common.Log.Warning("negative special length %d at offset %d", d.value, pos)
			break
		}
		k := int(d.value)
		raw := r.getBytes(k)
		handleSpecial(raw, m, opts, pb)
	case classPre, classPost, classPostPost:
		return false, ErrPreOrPostWithinPage
	case classUndefined:
		opts.diag(fmt.Sprintf("undefined_opcode_250..255: %d at offset %d", cmd, pos))
		common.Log.Warning("undefined opcode %d at offset %d", cmd, pos)
	}
	return false, nil
}

// emitGlyph implements the set*/put* handlers of spec.md §4.6: resolve
// the glyph (C5), emit its placement at (hh, vv), and, for set*, advance
// h/hh by its width.
func emitGlyph(m *machine, registry *model.FontRegistry, pb *pageBuilder, charParam int32, advance bool) {
	if !m.fontValid || m.curFont == nil {
		return
	}
	fd := m.curFont

	idx, found := resolveGlyph(fd, charParam, m)
	if found {
		pb.addGlyph(fd.FontNum, idx, fd.FontScaledPixelSize, m.reg.hh, m.reg.vv)
	}

	var wDVI, wPix int32
	if found {
		wDVI, wPix = fd.Width(idx, m.conv)
	}
	if advance {
		m.accumulateH(wDVI, wPix)
	}
}

// handleSpecial implements the xxx* handler of spec.md §4.6/§4.7: only a
// payload beginning with the literal "PSfile=" is recognized; anything
// else is ignored, with a diagnostic if it contains non-printable bytes.
func handleSpecial(raw []byte, m *machine, opts Options, pb *pageBuilder) {
	str := specialString(raw)
	if img, ok := parsePSFile(str, m.reg.hh, m.reg.vv, opts.displayDPI(), m.magnification); ok {
		pb.images = append(pb.images, img)
		return
	}
	for _, b := range raw {
		if !isPrintableSpecialByte(b) {
			opts.diag(fmt.Sprintf("nonascii_in_special: byte 0x%02x", b))
			common.Log.Warning("non-printable byte in special: 0x%02x", b)
			break
		}
	}
}

