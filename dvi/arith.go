/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

import "math"

// infinity bounds the overflow guard applied to every position update
// (spec.md §4.3): with a guard of 2^31-1, h+q and v+p never silently wrap.
const infinity = int32(1<<31 - 1)

// rulePixels is the smallest integer n with n >= conv*x: the ceiling of
// the real product, computed without relying on floating-point ceil
// (spec.md §4.3, testable property 6: rule_pixels(x) - conv*x in [0,1)).
func rulePixels(conv float64, x int32) int32 {
	product := conv * float64(x)
	n := int32(product) // trunc toward zero
	if float64(n) < product {
		n++
	}
	return n
}

// roundRegister rounds conv*v to the nearest integer, half away from
// zero, the rounding discipline spec.md uses for every hh/vv update.
func roundRegister(conv float64, v int32) int32 {
	f := conv * float64(v)
	if f >= 0 {
		return int32(math.Floor(f + 0.5))
	}
	return int32(math.Ceil(f - 0.5))
}

// clampOverflow applies the overflow guard of spec.md §4.3 step 1 to a
// proposed update of base by delta, returning the (possibly clamped)
// delta and whether clamping occurred.
func clampOverflow(base, delta int32) (int32, bool) {
	if base > 0 && delta > 0 && base > infinity-delta {
		return infinity - base, true
	}
	if base < 0 && delta < 0 && base < -infinity-delta {
		return -infinity - base, true
	}
	return delta, false
}
