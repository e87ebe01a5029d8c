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

// stackSize is the maximum push depth spec.md §3 allows.
const stackSize = 100

// registers is the 8-tuple position state of spec.md §3: six DVI-unit
// registers plus their pixel companions.
type registers struct {
	h, v, w, x, y, z int32
	hh, vv           int32
}

// machine is the interpreter context (spec.md §4.6, §9): it owns the
// register bank, the push/pop stack, the current font and the running
// diagnostics, replacing the source's global mutable state with a value
// the page driver holds and passes through opcode handlers.
type machine struct {
	conv, trueConv float64
	magnification  int32

	reg   registers
	stack []registers

	curFont   *model.FontDescriptor
	fontValid bool

	maxHSoFar, maxVSoFar int32
	maxH, maxV           int32 // claimed by the postamble, for warnings only
	maxSClaimed          int32
	maxSObserved         int32

	signedQuadWarned map[byte]bool

	opts Options
}

func newMachine(conv, trueConv float64, magnification, maxH, maxV, maxS int32, opts Options) *machine {
	return &machine{
		conv: conv, trueConv: trueConv, magnification: magnification,
		maxH: maxH, maxV: maxV, maxSClaimed: maxS,
		signedQuadWarned: make(map[byte]bool),
		opts:             opts,
	}
}

// warnSignedQuadOnce logs the fnt4/fnt_def4/xxx4 signedness discrepancy
// (spec.md §9) the first time each affected opcode is seen, and is silent
// afterward.
func (m *machine) warnSignedQuadOnce(cmd byte) {
	if m.signedQuadWarned[cmd] {
		return
	}
	m.signedQuadWarned[cmd] = true
	m.diag("signed_quad_param_discrepancy: opcode %d's 4-byte parameter is read signed, matching documented source behavior though the DVI format declares it unsigned", cmd)
}

func (m *machine) diag(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	common.Log.Warning("%s", msg)
	m.opts.diag(msg)
}

// resetForPage resets all registers and the stack at bop (spec.md §3
// Lifecycles). The current font register is independent and is not
// touched here; translatePage clears it separately at bop, so no font is
// selected at page start.
func (m *machine) resetForPage() {
	m.reg = registers{}
	m.stack = m.stack[:0]
}

func (m *machine) push() {
	m.stack = append(m.stack, m.reg)
	if len(m.stack) > m.maxSObserved {
		m.maxSObserved = len(m.stack)
	}
	if len(m.stack) > stackSize {
		m.diag("stack depth %d exceeds hard limit %d", len(m.stack), stackSize)
	} else if m.maxSClaimed > 0 && len(m.stack) > int(m.maxSClaimed) {
		m.diag("stack depth %d exceeds postamble-claimed maxS %d", len(m.stack), m.maxSClaimed)
	}
}

func (m *machine) pop() error {
	if len(m.stack) == 0 {
		return fmt.Errorf("dvi: pop with empty stack")
	}
	m.reg = m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// moveRight implements spec.md §4.3 move_right(q).
func (m *machine) moveRight(q int32) {
	q = m.guardOverflow(m.reg.h, q)
	m.reg.hh = roundRegister(m.conv, m.reg.h+q)
	m.reg.h += q
	m.trackH()
}

// moveDown implements spec.md §4.3 move_down(p). The overflow guard is
// applied before the pixel register is derived, so vv is always computed
// from the same (possibly clamped) delta that v itself advances by.
func (m *machine) moveDown(p int32) {
	threshold := 5 * m.curFontSpace()
	q := m.guardOverflow(m.reg.v, p)
	if abs32(p) >= threshold {
		m.reg.vv = roundRegister(m.conv, m.reg.v+q)
	} else {
		m.reg.vv += roundRegister(m.conv, q)
	}
	m.reg.v += q
	m.trackV()
}

// outSpace implements spec.md §4.3 out_space(p), used by right*/w*/x*:
// updates hh using the asymmetric threshold, then lets the same clamped
// delta update h, matching moveRight/moveDown's clamp-before-derive order.
func (m *machine) outSpace(p int32) {
	fontSpace := m.curFontSpace()
	q := m.guardOverflow(m.reg.h, p)
	if p >= fontSpace || p <= -4*fontSpace {
		m.reg.hh = roundRegister(m.conv, m.reg.h+q)
	} else {
		m.reg.hh += roundRegister(m.conv, q)
	}
	m.reg.h += q
	m.trackH()
}

// outSpaceV mirrors move_down for the vertical y*/z* opcodes. spec.md
// §4.6's "y0/y1..4/z0/z1..4 mirror w/x behavior vertically" refers to the
// register-memory semantics -- y/z recall the last down amount the way x
// recalls the last right amount -- not to importing the horizontal
// accent-backspace threshold; the position update itself is move_down's
// single symmetric threshold (spec.md §4.3).
func (m *machine) outSpaceV(p int32) {
	m.moveDown(p)
}

// accumulateH advances h by wDVI (overflow-guarded) and hh by the
// already-rounded pixel width wPix. set* and set_rule advance this way --
// pure accumulation, not an out_space resync -- per spec.md §4.6's
// distinct wording for those opcodes; put* and put_rule do not advance.
func (m *machine) accumulateH(wDVI, wPix int32) {
	q := m.guardOverflow(m.reg.h, wDVI)
	m.reg.h += q
	m.reg.hh += wPix
	m.trackH()
}

func (m *machine) guardOverflow(base, delta int32) int32 {
	clamped, did := clampOverflow(base, delta)
	if did {
		m.diag("arithmetic_overflow: clamped delta from %d to %d at base %d", delta, clamped, base)
	}
	return clamped
}

func (m *machine) trackH() {
	if abs32(m.reg.h) > m.maxHSoFar {
		m.maxHSoFar = abs32(m.reg.h)
	}
	if m.maxH > 0 && abs32(m.reg.h) > m.maxH+99 {
		m.diag("maxH exceeded: |h|=%d > maxH(%d)+99", abs32(m.reg.h), m.maxH)
	}
}

func (m *machine) trackV() {
	if abs32(m.reg.v) > m.maxVSoFar {
		m.maxVSoFar = abs32(m.reg.v)
	}
	if m.maxV > 0 && abs32(m.reg.v) > m.maxV+99 {
		m.diag("maxV exceeded: |v|=%d > maxV(%d)+99", abs32(m.reg.v), m.maxV)
	}
}

func (m *machine) curFontSpace() int32 {
	if m.curFont == nil {
		return 0
	}
	return m.curFont.FontSpace
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
