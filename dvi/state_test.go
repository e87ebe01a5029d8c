/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matjp/dvi-decode/model"
)

// TestPushPopRoundTrip is the literal S3 scenario: push then a sequence of
// moves then pop must restore every register exactly.
func TestPushPopRoundTrip(t *testing.T) {
	m := newMachine(0.015, 0.015, 1000, 0, 0, 0, Options{})
	m.reg = registers{h: 1000, v: 2000, w: 3, x: 4, y: 5, z: 6, hh: 15, vv: 30}
	before := m.reg

	m.push()
	m.moveRight(50)
	m.moveDown(60)
	require.NotEqual(t, before, m.reg)

	err := m.pop()
	require.NoError(t, err)
	require.Equal(t, before, m.reg)
}

func TestPopWithEmptyStackReturnsError(t *testing.T) {
	m := newMachine(0.015, 0.015, 1000, 0, 0, 0, Options{})
	require.Error(t, m.pop())
}

func TestMoveRightUpdatesHAndHH(t *testing.T) {
	m := newMachine(0.1, 0.1, 1000, 0, 0, 0, Options{})
	m.moveRight(100)
	require.Equal(t, int32(100), m.reg.h)
	require.Equal(t, int32(10), m.reg.hh)
}

func TestMoveRightClampsOverflowAndDiagnoses(t *testing.T) {
	var diagnostics []string
	opts := Options{DiagSink: func(s string) { diagnostics = append(diagnostics, s) }}
	m := newMachine(1.0, 1.0, 1000, 0, 0, 0, opts)
	m.reg.h = infinity - 5
	m.moveRight(100)
	require.Equal(t, infinity, m.reg.h)
	require.NotEmpty(t, diagnostics)
}

func TestOutSpaceUsesAsymmetricThreshold(t *testing.T) {
	m := newMachine(0.1, 0.1, 1000, 0, 0, 0, Options{})
	m.curFont = &model.FontDescriptor{FontSpace: 300}
	m.fontValid = true

	// p below the threshold accumulates into hh via rounding of p alone.
	m.outSpace(10)
	require.Equal(t, int32(10), m.reg.h)
	require.Equal(t, int32(1), m.reg.hh) // round(0.1*10)
}

// TestOutSpaceClampsBeforeDerivingHH covers the review fix: hh must be
// derived from the same overflow-clamped delta that h advances by, not
// from the raw unclamped h+p (which can wrap an int32).
func TestOutSpaceClampsBeforeDerivingHH(t *testing.T) {
	m := newMachine(1.0, 1.0, 1000, 0, 0, 0, Options{})
	m.reg.h = infinity - 5
	m.outSpace(1000000000)
	require.Equal(t, infinity, m.reg.h)
	require.Equal(t, infinity, m.reg.hh)
}

// TestMoveDownClampsBeforeDerivingVV is the vertical analogue of
// TestOutSpaceClampsBeforeDerivingHH.
func TestMoveDownClampsBeforeDerivingVV(t *testing.T) {
	m := newMachine(1.0, 1.0, 1000, 0, 0, 0, Options{})
	m.reg.v = infinity - 5
	m.moveDown(1000000000)
	require.Equal(t, infinity, m.reg.v)
	require.Equal(t, infinity, m.reg.vv)
}

// TestOutSpaceVMatchesMoveDown covers the review fix: y*/z* must route
// through move_down's single symmetric threshold, not the horizontal
// out_space asymmetric one.
func TestOutSpaceVMatchesMoveDown(t *testing.T) {
	m1 := newMachine(0.1, 0.1, 1000, 0, 0, 0, Options{})
	m1.curFont = &model.FontDescriptor{FontSpace: 300}
	m1.fontValid = true

	m2 := newMachine(0.1, 0.1, 1000, 0, 0, 0, Options{})
	m2.curFont = &model.FontDescriptor{FontSpace: 300}
	m2.fontValid = true

	// A negative p whose magnitude would cross out_space's asymmetric
	// "-4*fontSpace" threshold but not move_down's "5*fontSpace" one must
	// be treated identically by outSpaceV and moveDown.
	p := int32(-1200)
	m1.outSpaceV(p)
	m2.moveDown(p)
	require.Equal(t, m2.reg, m1.reg)
}
