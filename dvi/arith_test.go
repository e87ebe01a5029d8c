/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRulePixelsIsCeilingOfRealProduct(t *testing.T) {
	conv := 0.0166 // pixels per DVI unit, an arbitrary non-integral factor for the test
	for x := int32(1); x < 5000; x += 37 {
		n := rulePixels(conv, x)
		diff := float64(n) - conv*float64(x)
		require.GreaterOrEqual(t, diff, 0.0)
		require.Less(t, diff, 1.0)
	}
}

func TestRoundRegisterHalfAwayFromZero(t *testing.T) {
	require.Equal(t, int32(3), roundRegister(1.0, 3))
	require.Equal(t, int32(1), roundRegister(0.5, 1)) // 0.5 -> rounds to 1
	require.Equal(t, int32(-1), roundRegister(0.5, -1))
}

func TestClampOverflowNoClampWithinBounds(t *testing.T) {
	delta, clamped := clampOverflow(1000, 2000)
	require.False(t, clamped)
	require.Equal(t, int32(2000), delta)
}

func TestClampOverflowClampsPositiveOverflow(t *testing.T) {
	base := infinity - 10
	delta, clamped := clampOverflow(base, 100)
	require.True(t, clamped)
	require.Equal(t, infinity-base, delta)
	require.Equal(t, infinity, base+delta)
}

func TestClampOverflowClampsNegativeOverflow(t *testing.T) {
	base := -infinity + 10
	delta, clamped := clampOverflow(base, -100)
	require.True(t, clamped)
	require.Equal(t, -infinity-base, delta)
	require.Equal(t, -infinity, base+delta)
}
