// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactsRoundTrip(t *testing.T) {
	fit := singleComponentFit(t, true)
	fit.NegLogLik = 12.5
	fit.Iterations = 42
	fit.Converged = true

	a := fit.Artifacts()
	assert.Equal(t, []string{"x", "y"}, a.Keys)
	assert.Equal(t, []int{5, 5}, a.Degrees)
	assert.Equal(t, fit.Joint.Data(), a.Arrays["joint"])
	assert.Len(t, a.Arrays["grid_x"], 101)

	var buf bytes.Buffer
	require.NoError(t, a.Encode(&buf))
	decoded, err := DecodeArtifacts(&buf)
	require.NoError(t, err)

	restored, err := decoded.Fit()
	require.NoError(t, err)
	assert.Equal(t, fit.Dims, restored.Dims)
	assert.Equal(t, fit.Unpadded, restored.Unpadded)
	assert.Equal(t, 12.5, restored.NegLogLik)
	assert.Equal(t, 42, restored.Iterations)
	assert.True(t, restored.Converged)

	// The reconstructed fit answers queries identically.
	want, err := fit.Marginal("x", 0.5)
	require.NoError(t, err)
	got, err := restored.Marginal("x", 0.5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, fit.Joint.Data(), restored.Joint.Data())
}

func TestArtifactsFitValidation(t *testing.T) {
	fit := singleComponentFit(t, true)
	a := fit.Artifacts()

	delete(a.Arrays, "unpadded_weights")
	_, err := a.Fit()
	assert.ErrorIs(t, err, ErrShape)

	b := fit.Artifacts()
	delete(b.Arrays, "grid_y")
	_, err = b.Fit()
	assert.ErrorIs(t, err, ErrShape)

	c := fit.Artifacts()
	c.Degrees = c.Degrees[:1]
	_, err = c.Fit()
	assert.ErrorIs(t, err, ErrShape)
}

func TestArtifactsAddCurve(t *testing.T) {
	a := &Artifacts{Arrays: make(map[string][]float64)}
	a.AddCurve("m_given_r", &Curve{
		Points:    []float64{0, 1},
		Mean:      []float64{0.4, 0.6},
		Variance:  []float64{0.1, 0.1},
		Quantiles: [][]float64{{0.2, 0.8}, {0.3, 0.9}},
	})
	assert.Equal(t, []float64{0.4, 0.6}, a.Arrays["m_given_r_mean"])
	assert.Equal(t, []float64{0.2, 0.3}, a.Arrays["m_given_r_quantile0"])
	assert.Equal(t, []float64{0.8, 0.9}, a.Arrays["m_given_r_quantile1"])

	// No quantile levels requested is fine.
	a.AddCurve("empty", &Curve{Points: []float64{0}, Mean: []float64{1}, Variance: []float64{0}})
	assert.Equal(t, []float64{1}, a.Arrays["empty_mean"])
}
