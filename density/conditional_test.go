// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

// singleComponent builds 2-D weights with all mass on the interior
// component pair (3, 3) of a degree-5 basis per dimension, so both the
// joint and every conditional reduce to the Beta(3, 3) density.
func singleComponent(t *testing.T) (PaddedWeights, []Dimension) {
	t.Helper()
	dims := []Dimension{
		{Key: "x", Min: 0, Max: 1, Degree: 5},
		{Key: "y", Min: 0, Max: 1, Degree: 5},
	}
	w, err := Pad(UnpaddedWeights{0, 0, 0, 0, 1, 0, 0, 0, 0}, []int{5, 5})
	require.NoError(t, err)
	return w, dims
}

// singleComponent3 is the three-dimensional analogue: all mass on the
// (3, 3, 3) component triple of degree-5 bases.
func singleComponent3(t *testing.T) (PaddedWeights, []Dimension) {
	t.Helper()
	dims := []Dimension{
		{Key: "x", Min: 0, Max: 1, Degree: 5},
		{Key: "y", Min: 0, Max: 1, Degree: 5},
		{Key: "z", Min: 0, Max: 1, Degree: 5},
	}
	unpadded := make(UnpaddedWeights, 27)
	unpadded[13] = 1 // interior index (1, 1, 1)
	w, err := Pad(unpadded, []int{5, 5, 5})
	require.NoError(t, err)
	return w, dims
}

func TestMarginalSingleComponent(t *testing.T) {
	w, dims := singleComponent(t)
	ref := distuv.Beta{Alpha: 3, Beta: 3}
	for _, x := range []float64{0.1, 0.3, 0.5, 0.8} {
		assert.InDelta(t, ref.Prob(x), Marginal(w, dims, 0, x), 1e-12)
		assert.InDelta(t, ref.Prob(x), Marginal(w, dims, 1, x), 1e-12)
	}
	assert.Zero(t, Marginal(w, dims, 0, 0))
	assert.Zero(t, Marginal(w, dims, 0, 1))
}

func TestConditionalQuantilesClosedForm(t *testing.T) {
	w, dims := singleComponent(t)
	levels := []float64{0.16, 0.5, 0.84}

	cond, err := ConditionalQuantiles(w, dims, 0,
		[]Condition{{Dim: 1, Value: 0.7, Sigma: nan()}}, levels, 1e-8)
	require.NoError(t, err)

	// With a single active component the conditional is Beta(3, 3)
	// regardless of the conditioning value.
	assert.InDelta(t, 0.5, cond.Mean, 1e-12)
	assert.InDelta(t, 9.0/252, cond.Variance, 1e-12)

	ref := distuv.Beta{Alpha: 3, Beta: 3}
	for i, q := range levels {
		assert.InDelta(t, ref.Quantile(q), cond.Quantiles[i], 1e-6)
	}

	// Quantiles are monotone and inside the fitted bounds.
	assert.Less(t, cond.Quantiles[0], cond.Quantiles[1])
	assert.Less(t, cond.Quantiles[1], cond.Quantiles[2])
	assert.Greater(t, cond.Quantiles[0], dims[0].Min)
	assert.Less(t, cond.Quantiles[2], dims[0].Max)
}

func TestConditionalQuantilesTwoConditions(t *testing.T) {
	// In three dimensions the conditioning fold runs once per fixed
	// dimension; with a single active component the result is still
	// the component's Beta(3, 3) distribution.
	w, dims := singleComponent3(t)
	levels := []float64{0.16, 0.5, 0.84}

	cond, err := ConditionalQuantiles(w, dims, 0, []Condition{
		{Dim: 1, Value: 0.7, Sigma: nan()},
		{Dim: 2, Value: 0.3, Sigma: nan()},
	}, levels, 1e-8)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cond.Mean, 1e-12)
	assert.InDelta(t, 9.0/252, cond.Variance, 1e-12)
	ref := distuv.Beta{Alpha: 3, Beta: 3}
	for i, q := range levels {
		assert.InDelta(t, ref.Quantile(q), cond.Quantiles[i], 1e-6)
	}

	// The fold order does not matter.
	swapped, err := ConditionalQuantiles(w, dims, 0, []Condition{
		{Dim: 2, Value: 0.3, Sigma: nan()},
		{Dim: 1, Value: 0.7, Sigma: nan()},
	}, levels, 1e-8)
	require.NoError(t, err)
	assert.InDelta(t, cond.Denominator, swapped.Denominator, 1e-12)
	assert.Equal(t, cond.Quantiles, swapped.Quantiles)

	// One boundary condition degenerates the whole query.
	deg, err := ConditionalQuantiles(w, dims, 2, []Condition{
		{Dim: 0, Value: 0.5, Sigma: nan()},
		{Dim: 1, Value: 1, Sigma: nan()},
	}, levels, 1e-8)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(deg.Denominator))
}

func TestConditionalDegenerateDenominator(t *testing.T) {
	// Conditioning at a boundary point, where the fitted density
	// vanishes, yields NaN results rather than a failure.
	w, dims := singleComponent(t)
	cond, err := ConditionalQuantiles(w, dims, 0,
		[]Condition{{Dim: 1, Value: 0, Sigma: nan()}}, []float64{0.16, 0.84}, 1e-8)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(cond.Denominator))
	assert.True(t, math.IsNaN(cond.Mean))
	assert.True(t, math.IsNaN(cond.Variance))
	for _, q := range cond.Quantiles {
		assert.True(t, math.IsNaN(q))
	}
}

func TestConditionalQuantilesValidation(t *testing.T) {
	w, dims := singleComponent(t)

	_, err := ConditionalQuantiles(w, dims, 2, nil, nil, 1e-8)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = ConditionalQuantiles(w, dims, 0, nil, nil, 1e-8)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = ConditionalQuantiles(w, dims, 0,
		[]Condition{{Dim: 0, Value: 0.5, Sigma: nan()}}, nil, 1e-8)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestMixtureQuantiles(t *testing.T) {
	w, dims := singleComponent(t)
	levels := []float64{0.16, 0.5, 0.84}
	single, err := ConditionalQuantiles(w, dims, 0,
		[]Condition{{Dim: 1, Value: 0.7, Sigma: nan()}}, levels, 1e-8)
	require.NoError(t, err)
	degenerate, err := ConditionalQuantiles(w, dims, 0,
		[]Condition{{Dim: 1, Value: 0, Sigma: nan()}}, levels, 1e-8)
	require.NoError(t, err)

	// Degenerate samples are skipped, so mixing one in changes
	// nothing; mixing two copies of the same sample is the identity.
	got, err := MixtureQuantiles([]Conditional{single, single, degenerate}, dims[0], levels)
	require.NoError(t, err)
	for i := range levels {
		assert.InDelta(t, single.Quantiles[i], got[i], 1e-8)
	}

	got, err = MixtureQuantiles([]Conditional{degenerate}, dims[0], levels)
	require.NoError(t, err)
	for _, q := range got {
		assert.True(t, math.IsNaN(q))
	}
}
