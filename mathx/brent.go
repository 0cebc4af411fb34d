// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mathx provides the scalar numeric kernels shared by the
// density-fitting packages: bracketed root finding and
// tolerance-controlled quadrature.
package mathx // import "github.com/shbhuk/mrfit/mathx"

import (
	"errors"
	"fmt"
	"math"
)

// ErrBracket is returned by Brent when f(a) and f(b) do not straddle
// zero, so no root is bracketed. Callers distinguish this
// configuration failure from NaN results, which indicate a data
// degeneracy rather than bad bounds.
var ErrBracket = errors.New("mathx: root not bracketed")

// brentMaxIter bounds the iteration count of Brent. At machine
// precision Brent converges in well under 100 iterations for any
// bracket; the cap only bounds worst-case latency.
const brentMaxIter = 100

// Brent finds a root of f in [a, b] using Brent's method: bisection
// combined with secant and inverse quadratic interpolation steps.
//
// Brent, R. P. (1973). Algorithms for Minimization without
// Derivatives, chapter 4. Prentice-Hall.
//
// The iteration stops when the bracket width falls below
// xtol + 2·rtol·|x|. f(a) and f(b) must have opposite signs; if they
// do not, or either is NaN, Brent returns NaN and an error wrapping
// ErrBracket. If the iteration budget is exhausted the best estimate
// so far is returned without error.
func Brent(f func(float64) float64, a, b, xtol, rtol float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.IsNaN(fa) || math.IsNaN(fb) || (fa < 0) == (fb < 0) {
		return math.NaN(), fmt.Errorf("%w: f(%v)=%v, f(%v)=%v", ErrBracket, a, fa, b, fb)
	}

	c, fc := a, fa
	d, e := b-a, b-a
	for i := 0; i < brentMaxIter; i++ {
		if (fb < 0) == (fc < 0) {
			// Root is now between b and the old a; reset the
			// contrapoint.
			c, fc = a, fa
			d, e = b-a, b-a
		}
		if math.Abs(fc) < math.Abs(fb) {
			// Keep the best estimate in b.
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := xtol/2 + 2*rtol*math.Abs(b)
		m := (c - b) / 2
		if math.Abs(m) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) < tol || math.Abs(fa) <= math.Abs(fb) {
			// Interpolation is making no progress; bisect.
			d, e = m, m
		} else {
			s := fb / fa
			var p, q float64
			if a == c {
				// Secant step.
				p = 2 * m * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation.
				q = fa / fc
				r := fb / fc
				p = s * (2*m*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				// Accept the interpolated step.
				e, d = d, p/q
			} else {
				d, e = m, m
			}
		}

		a, fa = b, fb
		switch {
		case math.Abs(d) > tol:
			b += d
		case m > 0:
			b += tol
		default:
			b -= tol
		}
		fb = f(b)
	}
	return b, nil
}
