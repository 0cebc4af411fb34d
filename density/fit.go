// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"fmt"
	"log/slog"

	"github.com/shbhuk/mrfit/tensor"
)

// FitOptions configure a density fit. The zero value is a reasonable
// default configuration for data whose bounds were auto-computed by
// NewDataset (a log10 domain with linear-unit noise).
type FitOptions struct {
	// Tol is the absolute quadrature tolerance for convolving
	// measurement noise into the basis densities. Zero means 1e-8.
	Tol float64

	// Linear declares that the fitted bounds are in the same linear
	// units as the measurement noise, disabling the log10 noise
	// model.
	Linear bool

	// Points is the evaluation-grid resolution per dimension. Zero
	// means 100.
	Points int

	// Workers bounds design-matrix concurrency. Zero means
	// GOMAXPROCS.
	Workers int

	// Optimizer fits the mixture weights. Nil means an EMOptimizer
	// with default settings.
	Optimizer Optimizer

	// Logger receives checkpoint events (integration and
	// optimization start/end). Nil means slog.Default().
	Logger *slog.Logger
}

func (o FitOptions) points() int {
	if o.Points <= 0 {
		return 100
	}
	return o.Points
}

func (o FitOptions) optimizer() Optimizer {
	if o.Optimizer == nil {
		return EMOptimizer{}
	}
	return o.Optimizer
}

func (o FitOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// A Fit is a fitted joint density: the simplex weights over basis
// combinations, the evaluation grids, and the materialized joint
// density tensor. A Fit and its joint grid are immutable; repeated
// conditional queries share them freely.
type Fit struct {
	// Dims are the fitted dimensions, in axis order.
	Dims []Dimension

	// Weights is the zero-padded weight hypercube.
	Weights PaddedWeights

	// Unpadded is the optimizer's interior weight vector.
	Unpadded UnpaddedWeights

	// NegLogLik is the achieved negative log-likelihood.
	NegLogLik float64

	// Iterations and Converged report the optimizer outcome.
	Iterations int
	Converged  bool

	// Grids holds the per-dimension evaluation points in the fitted
	// domain.
	Grids [][]float64

	// Joint is the joint density evaluated on Grids.
	Joint *tensor.Dense

	// linear records whether the fit used the linear-domain noise
	// model; conditioning queries need it to transform
	// measurements.
	linear bool

	// tol is the quadrature tolerance, reused by noisy conditional
	// queries.
	tol float64
}

// FitDensity fits the Bernstein-beta mixture to ds by maximum
// likelihood and materializes the joint density.
func FitDensity(ds *Dataset, opts FitOptions) (*Fit, error) {
	logger := opts.logger()

	dopts := DesignOptions{
		Tol:       opts.Tol,
		LogDomain: !opts.Linear,
		Workers:   opts.Workers,
	}
	logger.Info("starting basis integration", "n", ds.N, "dims", len(ds.Dims))
	c := ds.DesignMatrix(dopts)
	k, _ := c.Dims()
	logger.Info("finished basis integration", "k", k)

	logger.Info("starting weight optimization")
	res, err := opts.optimizer().Optimize(c)
	if err != nil {
		return nil, fmt.Errorf("density: optimize: %w", err)
	}
	logger.Info("finished weight optimization", res.logAttrs()...)
	if err := res.Weights.CheckSimplex(); err != nil {
		return nil, fmt.Errorf("density: optimizer result: %w", err)
	}

	padded, err := Pad(res.Weights, ds.Degrees())
	if err != nil {
		return nil, err
	}

	grids := make([][]float64, len(ds.Dims))
	for d, dim := range ds.Dims {
		grids[d] = dim.Grid(opts.points())
	}

	return &Fit{
		Dims:       append([]Dimension(nil), ds.Dims...),
		Weights:    padded,
		Unpadded:   res.Weights,
		NegLogLik:  res.NegLogLik,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Grids:      grids,
		Joint:      AssembleJoint(padded, ds.Dims, grids),
		linear:     opts.Linear,
		tol:        dopts.tol(),
	}, nil
}

// Marginal returns the marginal density of the dimension with the
// given key at x in the fitted domain.
func (f *Fit) Marginal(key string, x float64) (float64, error) {
	d, err := f.dimIndex(key)
	if err != nil {
		return 0, err
	}
	return Marginal(f.Weights, f.Dims, d, x), nil
}

func (f *Fit) dimIndex(key string) (int, error) {
	for d, dim := range f.Dims {
		if dim.Key == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: no dimension %q", ErrDimension, key)
}
