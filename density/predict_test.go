// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat/distuv"
)

// singleComponentFit wraps the single-component weights of
// singleComponent into a queryable Fit.
func singleComponentFit(t *testing.T, linear bool) *Fit {
	t.Helper()
	w, dims := singleComponent(t)
	grids := [][]float64{dims[0].Grid(101), dims[1].Grid(101)}
	return &Fit{
		Dims:     dims,
		Weights:  w,
		Unpadded: w.Unpad(),
		Grids:    grids,
		Joint:    AssembleJoint(w, dims, grids),
		linear:   linear,
		tol:      1e-8,
	}
}

func TestConditionalDensity(t *testing.T) {
	fit := singleComponentFit(t, true)
	curve, err := fit.ConditionalDensity("x", map[string]Observation{"y": {Value: 0.7, Sigma: nan()}})
	require.NoError(t, err)
	require.Len(t, curve, 101)

	// The conditional of a single-component fit is Beta(3, 3).
	ref := distuv.Beta{Alpha: 3, Beta: 3}
	for j, x := range fit.Grids[0] {
		assert.InDelta(t, ref.Prob(x), curve[j], 5e-3, "x = %v", x)
	}

	// The curve integrates to 1.
	assert.InDelta(t, 1, integrate.Trapezoidal(fit.Grids[0], curve), 1e-3)
}

func TestConditionalDensity3D(t *testing.T) {
	// Three dimensions: the joint grid is rank 3 and the conditional
	// slice interpolates at two fixed coordinates. A single active
	// component keeps the Beta(3, 3) oracle exact.
	w, dims := singleComponent3(t)
	grids := [][]float64{dims[0].Grid(41), dims[1].Grid(41), dims[2].Grid(41)}
	fit := &Fit{
		Dims:     dims,
		Weights:  w,
		Unpadded: w.Unpad(),
		Grids:    grids,
		Joint:    AssembleJoint(w, dims, grids),
		linear:   true,
		tol:      1e-8,
	}

	curve, err := fit.ConditionalDensity("x", map[string]Observation{
		"y": {Value: 0.7, Sigma: nan()},
		"z": {Value: 0.3, Sigma: nan()},
	})
	require.NoError(t, err)
	require.Len(t, curve, 41)

	ref := distuv.Beta{Alpha: 3, Beta: 3}
	for j, x := range fit.Grids[0] {
		assert.InDelta(t, ref.Prob(x), curve[j], 1e-2, "x = %v", x)
	}
	assert.InDelta(t, 1, integrate.Trapezoidal(fit.Grids[0], curve), 5e-3)

	// The rank-3 joint vanishes on every face of the domain.
	for i := 0; i < 41; i += 8 {
		for j := 0; j < 41; j += 8 {
			assert.Zero(t, fit.Joint.At(0, i, j))
			assert.Zero(t, fit.Joint.At(i, 40, j))
			assert.Zero(t, fit.Joint.At(i, j, 0))
		}
	}
}

func TestConditionalDensityDegenerate(t *testing.T) {
	fit := singleComponentFit(t, true)
	curve, err := fit.ConditionalDensity("x", map[string]Observation{"y": {Value: 0, Sigma: nan()}})
	require.NoError(t, err)
	for _, v := range curve {
		assert.True(t, math.IsNaN(v))
	}
}

func TestPredictLinearConversion(t *testing.T) {
	// The same weights queried through the log10 domain must return
	// linear-unit results: 10^ of the domain-space answers.
	logFit := singleComponentFit(t, false)
	given := map[string]Observation{"y": {Value: math.Pow(10, 0.7), Sigma: nan()}}

	cond, err := logFit.Conditional("x", given, []float64{0.16, 0.84})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cond.Mean, 1e-12)

	mean, quantiles, err := logFit.Predict("x", given, []float64{0.16, 0.84})
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(10, cond.Mean), mean, 1e-12)
	assert.InDelta(t, math.Pow(10, cond.Quantiles[0]), quantiles[0], 1e-12)
	assert.InDelta(t, math.Pow(10, cond.Quantiles[1]), quantiles[1], 1e-12)
}

func TestPredictValidation(t *testing.T) {
	fit := singleComponentFit(t, true)

	_, _, err := fit.Predict("z", nil, nil)
	assert.ErrorIs(t, err, ErrDimension)

	_, _, err = fit.Predict("x", map[string]Observation{}, nil)
	assert.ErrorIs(t, err, ErrDimension)

	_, _, err = fit.Predict("x", map[string]Observation{"w": {Value: 0.5}}, nil)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestConditionalCurve(t *testing.T) {
	fit := singleComponentFit(t, true)
	curve, err := fit.ConditionalCurve("x", "y", []float64{0.16, 0.84}, 4)
	require.NoError(t, err)
	require.Len(t, curve.Points, 101)

	// Boundary conditioning points are degenerate and marked NaN;
	// interior points carry the component's closed-form summaries.
	assert.True(t, math.IsNaN(curve.Mean[0]))
	assert.True(t, math.IsNaN(curve.Mean[100]))
	mid := 50
	assert.InDelta(t, 0.5, curve.Mean[mid], 1e-12)
	assert.InDelta(t, 9.0/252, curve.Variance[mid], 1e-12)
	assert.Less(t, curve.Quantiles[mid][0], curve.Quantiles[mid][1])

	_, err = fit.ConditionalCurve("x", "x", nil, 1)
	assert.ErrorIs(t, err, ErrDimension)
}
