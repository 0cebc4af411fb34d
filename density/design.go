// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// designFloor replaces exact zeros and NaNs in the design matrix. The
// optimizer takes logarithms of products against the matrix, so no
// entry may be zero or NaN.
const designFloor = 1e-300

// DesignOptions configure design-matrix construction. The zero value
// is a reasonable default configuration.
type DesignOptions struct {
	// Tol is the absolute tolerance for the measurement-noise
	// convolution quadrature. Zero means 1e-8.
	Tol float64

	// LogDomain declares that the fitted bounds are in log10 units
	// while measurement noise is in linear units, so the noise
	// kernel is centered at 10^x. This matches the auto-computed
	// bounds of NewDataset.
	LogDomain bool

	// Workers bounds the number of concurrent observation
	// evaluations. Zero or negative means GOMAXPROCS.
	Workers int
}

func (o DesignOptions) tol() float64 {
	if o.Tol <= 0 {
		return 1e-8
	}
	return o.Tol
}

func (o DesignOptions) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// DesignMatrix evaluates the basis densities for every observation and
// returns the K×N design matrix, K = ∏(degree_d − 2): column i is the
// flattened tensor product of the per-dimension interior basis vectors
// of observation i, dimension 0 varying slowest. Observations with NaN
// sigma use the closed-form basis evaluation; noisy observations are
// convolved with their Gaussian error kernel by quadrature.
//
// Observations are independent, so they are evaluated concurrently.
// Zero and NaN entries are floored to 1e-300 afterward; the result
// never contains a zero or NaN.
func (ds *Dataset) DesignMatrix(opts DesignOptions) *mat.Dense {
	k := 1
	for _, dim := range ds.Dims {
		k *= dim.Degree - 2
	}
	c := mat.NewDense(k, ds.N, nil)

	var g errgroup.Group
	g.SetLimit(opts.workers())
	for i := 0; i < ds.N; i++ {
		i := i
		g.Go(func() error {
			c.SetCol(i, ds.observationColumn(i, opts))
			return nil
		})
	}
	// The workers only write disjoint columns and never fail.
	g.Wait()

	floor(c.RawMatrix().Data)
	return c
}

// observationColumn evaluates one observation across all dimensions
// and combines the per-dimension vectors by repeated tensor product.
func (ds *Dataset) observationColumn(i int, opts DesignOptions) []float64 {
	col := []float64{1}
	for d, dim := range ds.Dims {
		basis := dim.Basis()
		obs := ds.Values[d][i]
		sigma := ds.Sigma[d][i]

		var pdf []float64
		if math.IsNaN(sigma) {
			x := obs
			if opts.LogDomain {
				x = math.Log10(obs)
			}
			pdf = basis.PDFInterior(x)
		} else {
			pdf = basis.ConvolvedPDFInterior(obs, sigma, opts.LogDomain, opts.tol())
		}
		col = kron(col, pdf)
	}
	return col
}

// kron is the tensor (Kronecker) product of two vectors, a varying
// slowest.
func kron(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)*len(b))
	for _, av := range a {
		for _, bv := range b {
			out = append(out, av*bv)
		}
	}
	return out
}

func floor(data []float64) {
	for i, v := range data {
		if v == 0 || math.IsNaN(v) {
			data[i] = designFloor
		}
	}
}
