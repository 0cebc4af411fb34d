// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mathx

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

const (
	// quadNodes is the Gauss-Legendre order of a single panel.
	quadNodes = 21

	// quadMaxDepth bounds the interval bisection. 2^18 panels over
	// the starting interval is far past the point where sharp
	// integrands (narrow measurement-noise kernels) are resolved.
	quadMaxDepth = 18

	// quadMinDepth forces bisection down to 2^6 panels before the
	// convergence check may stop it. A noise kernel much narrower
	// than the domain can fall entirely between the nodes of a
	// coarse panel, making the estimates agree on a spurious zero.
	quadMinDepth = 6
)

// Quad integrates f over [a, b] to an absolute tolerance of
// approximately tol.
//
// Each interval is evaluated with a fixed-order Gauss-Legendre rule
// and bisected until the two halves agree with the whole to within the
// interval's share of tol. Non-convergence is absorbed, not reported:
// once the depth budget is exhausted the best estimate is returned.
// Callers downstream tolerate near-zero or slightly wrong mass (see
// the design-matrix flooring in package density), so a hard error here
// would only turn an expected boundary degeneracy into a fault.
func Quad(f func(float64) float64, a, b, tol float64) float64 {
	if tol <= 0 {
		tol = 1e-8
	}
	whole := quad.Fixed(f, a, b, quadNodes, nil, 0)
	return adapt(f, a, b, whole, tol, quadMaxDepth, quadMinDepth)
}

func adapt(f func(float64) float64, a, b, whole, tol float64, depth, minDepth int) float64 {
	m := a + (b-a)/2
	left := quad.Fixed(f, a, m, quadNodes, nil, 0)
	right := quad.Fixed(f, m, b, quadNodes, nil, 0)
	if depth <= 0 || (minDepth <= 0 && math.Abs(left+right-whole) <= tol) {
		return left + right
	}
	return adapt(f, a, m, left, tol/2, depth-1, minDepth-1) +
		adapt(f, m, b, right, tol/2, depth-1, minDepth-1)
}
