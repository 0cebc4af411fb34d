// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"fmt"

	"github.com/shbhuk/mrfit/tensor"
)

// AssembleJoint materializes the fitted joint density on the given
// per-dimension evaluation grids and returns the D-dimensional density
// tensor, indexed by grid position per dimension.
//
// The grid points are the support of the fit, not noisy observations,
// so the closed-form basis evaluation is always used. Iteration is an
// odometer over the grid shape rather than recursion over dimensions;
// at each grid point the D basis vectors are contracted against the
// weight hypercube one axis at a time until a scalar remains.
//
// Cost is O(points^D) grid cells. That is fine for the 2–3 dimensions
// this model is used at and combinatorial beyond them.
//
// The returned tensor is a snapshot: it is never mutated after
// assembly, and a new fit must assemble a new grid.
func AssembleJoint(w PaddedWeights, dims []Dimension, grids [][]float64) *tensor.Dense {
	if len(dims) != len(grids) || len(dims) != w.Tensor().Rank() {
		panic(fmt.Sprintf("density: %d dimensions, %d grids, rank-%d weights",
			len(dims), len(grids), w.Tensor().Rank()))
	}

	// Basis vectors per dimension per grid point, computed once.
	basisAt := make([][]*tensor.Dense, len(dims))
	shape := make([]int, len(dims))
	for d, dim := range dims {
		basis := dim.Basis()
		basisAt[d] = make([]*tensor.Dense, len(grids[d]))
		for j, x := range grids[d] {
			basisAt[d][j] = tensor.NewWithData(basis.PDF(x), dim.Degree)
		}
		shape[d] = len(grids[d])
	}

	joint := tensor.New(shape...)
	weights := w.Tensor()
	it := tensor.NewIndexer(shape...)
	for it.Next() {
		idx := it.Index()
		acc := weights
		for d := range dims {
			acc = tensor.Contract(basisAt[d][idx[d]], acc)
		}
		joint.Set(acc.Scalar(), idx...)
	}
	return joint
}
