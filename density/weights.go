// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"fmt"
	"math"

	"github.com/shbhuk/mrfit/tensor"
)

// simplexTol is the tolerance for the simplex check on fitted weights.
const simplexTol = 1e-9

// UnpaddedWeights is the weight vector produced by the optimizer: one
// entry per interior basis combination, flattened with dimension 0
// slowest. Its length is ∏(degree_d − 2) and it lies on the
// probability simplex.
type UnpaddedWeights []float64

// CheckSimplex verifies that the weights are a probability simplex
// point: every entry in [0, 1] and the sum equal to 1 within 1e-9.
func (w UnpaddedWeights) CheckSimplex() error {
	var sum float64
	for i, v := range w {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("density: weight %d = %v outside [0, 1]", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > simplexTol {
		return fmt.Errorf("density: weights sum to %v, want 1", sum)
	}
	return nil
}

// PaddedWeights embeds an interior weight vector into the full
// hypercube of shape (degree_1, …, degree_D) with the boundary slab
// along every axis fixed at zero. Zero boundary weight forces the
// fitted density to vanish at the domain edges. PaddedWeights is
// immutable once constructed; a new fit produces a new value.
type PaddedWeights struct {
	degrees []int
	t       *tensor.Dense
}

// Pad embeds w into the zero-padded hypercube for the given degrees.
// len(w) must equal ∏(degree_d − 2).
func Pad(w UnpaddedWeights, degrees []int) (PaddedWeights, error) {
	interior := make([]int, len(degrees))
	size := 1
	for d, deg := range degrees {
		if deg < 3 {
			return PaddedWeights{}, fmt.Errorf("%w: degree %d", ErrDegree, deg)
		}
		interior[d] = deg - 2
		size *= deg - 2
	}
	if len(w) != size {
		return PaddedWeights{}, fmt.Errorf("%w: %d weights for interior shape %v", ErrShape, len(w), interior)
	}

	t := tensor.New(degrees...)
	idx := make([]int, len(degrees))
	it := tensor.NewIndexer(interior...)
	for i := 0; it.Next(); i++ {
		for d, j := range it.Index() {
			idx[d] = j + 1
		}
		t.Set(w[i], idx...)
	}
	return PaddedWeights{degrees: append([]int(nil), degrees...), t: t}, nil
}

// Unpad extracts the interior weight vector, inverting Pad.
func (p PaddedWeights) Unpad() UnpaddedWeights {
	interior := make([]int, len(p.degrees))
	size := 1
	for d, deg := range p.degrees {
		interior[d] = deg - 2
		size *= deg - 2
	}
	w := make(UnpaddedWeights, 0, size)
	idx := make([]int, len(p.degrees))
	it := tensor.NewIndexer(interior...)
	for it.Next() {
		for d, j := range it.Index() {
			idx[d] = j + 1
		}
		w = append(w, p.t.At(idx...))
	}
	return w
}

// Degrees returns the hypercube shape, one degree per dimension.
func (p PaddedWeights) Degrees() []int {
	return append([]int(nil), p.degrees...)
}

// Tensor returns the weight hypercube. The caller must not mutate it.
func (p PaddedWeights) Tensor() *tensor.Dense { return p.t }

// Flat returns the padded weights flattened in row-major order.
func (p PaddedWeights) Flat() []float64 {
	return append([]float64(nil), p.t.Data()...)
}
