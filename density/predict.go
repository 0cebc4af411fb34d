// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/shbhuk/mrfit/tensor"
)

// An Observation is a measured conditioning value in linear units with
// its measurement uncertainty. A NaN Sigma requests the closed-form,
// noise-free basis branch.
type Observation struct {
	Value float64
	Sigma float64
}

// domainValue transforms a linear-unit observation into the fitted
// domain. For a log10 fit the uncertainty is propagated as
// σ/(v·ln 10), the first-order image of linear noise in log space.
func (f *Fit) domainValue(obs Observation) (x, sigma float64) {
	if f.linear {
		return obs.Value, obs.Sigma
	}
	return math.Log10(obs.Value), obs.Sigma / (obs.Value * math.Ln10)
}

// fromDomain maps a fitted-domain value back to linear units.
func (f *Fit) fromDomain(x float64) float64 {
	if f.linear {
		return x
	}
	return math.Pow(10, x)
}

// conditions resolves a key→observation mapping into Conditions in
// dimension order, requiring it to cover every dimension except
// target.
func (f *Fit) conditions(target int, given map[string]Observation) ([]Condition, error) {
	if len(given) != len(f.Dims)-1 {
		return nil, fmt.Errorf("%w: %d conditioning values for %d dimensions", ErrDimension, len(given), len(f.Dims))
	}
	conds := make([]Condition, 0, len(given))
	for d, dim := range f.Dims {
		if d == target {
			continue
		}
		obs, ok := given[dim.Key]
		if !ok {
			return nil, fmt.Errorf("%w: missing conditioning value for %q", ErrDimension, dim.Key)
		}
		x, sigma := f.domainValue(obs)
		conds = append(conds, Condition{Dim: d, Value: x, Sigma: sigma})
	}
	return conds, nil
}

// Conditional computes the conditional mean, variance and quantiles of
// the target dimension given linear-unit observations of every other
// dimension. Results are in the fitted (log10) domain; Predict wraps
// this with the linear-unit conversion.
func (f *Fit) Conditional(targetKey string, given map[string]Observation, levels []float64) (Conditional, error) {
	target, err := f.dimIndex(targetKey)
	if err != nil {
		return Conditional{}, err
	}
	conds, err := f.conditions(target, given)
	if err != nil {
		return Conditional{}, err
	}
	return ConditionalQuantiles(f.Weights, f.Dims, target, conds, levels, f.tol)
}

// Predict returns the conditional mean and quantiles of the target
// dimension in linear units, given linear-unit observations of the
// other dimensions.
func (f *Fit) Predict(targetKey string, given map[string]Observation, levels []float64) (mean float64, quantiles []float64, err error) {
	cond, err := f.Conditional(targetKey, given, levels)
	if err != nil {
		return math.NaN(), nil, err
	}
	quantiles = make([]float64, len(cond.Quantiles))
	for i, q := range cond.Quantiles {
		quantiles[i] = f.fromDomain(q)
	}
	return f.fromDomain(cond.Mean), quantiles, nil
}

// ConditionalDensity returns the conditional density of the target
// dimension over its evaluation grid, given linear-unit observations
// of every other dimension: a multilinear slice of the joint density
// at the conditioning coordinates, normalized by the marginal density
// of the conditioning point.
//
// A conditioning point with zero marginal density yields an all-NaN
// curve rather than an error.
func (f *Fit) ConditionalDensity(targetKey string, given map[string]Observation) ([]float64, error) {
	target, err := f.dimIndex(targetKey)
	if err != nil {
		return nil, err
	}
	conds, err := f.conditions(target, given)
	if err != nil {
		return nil, err
	}

	// Normalizing constant: the weight hypercube with each
	// conditioning basis vector folded in, fully summed.
	labels := tensor.AxisLabels(len(f.Dims))
	remaining := labels
	acc := f.Weights.Tensor()
	for _, c := range conds {
		dim := f.Dims[c.Dim]
		basis := dim.Basis()
		var pdf []float64
		if math.IsNaN(c.Sigma) {
			pdf = basis.PDF(c.Value)
		} else {
			pdf = basis.ConvolvedPDF(c.Value, c.Sigma, false, f.tol)
		}
		out := strip(remaining, labels[c.Dim])
		acc = tensor.ContractAxes(acc, tensor.NewWithData(pdf, dim.Degree), tensor.Spec{A: remaining, B: labels[c.Dim : c.Dim+1], Out: out})
		remaining = out
	}
	denom := acc.Sum()
	if denom == 0 {
		denom = math.NaN()
	}

	// Slice the joint grid at the conditioning coordinates across
	// the target grid.
	at := make([]float64, len(f.Dims))
	for _, c := range conds {
		at[c.Dim] = c.Value
	}
	curve := make([]float64, len(f.Grids[target]))
	for j, x := range f.Grids[target] {
		at[target] = x
		curve[j] = f.Joint.InterpAt(f.Grids, at) / denom
	}
	return curve, nil
}

// A Curve holds conditional summaries of the target dimension swept
// along the conditioning dimension's evaluation grid, all in the
// fitted domain. Degenerate points appear as NaN entries; the sweep
// never aborts on a single bad point.
type Curve struct {
	// Points are the conditioning values, one per grid point.
	Points []float64

	Mean     []float64
	Variance []float64

	// Quantiles[i][j] is the root for level j at point i.
	Quantiles [][]float64
}

// ConditionalCurve sweeps the conditional distribution of the target
// dimension along the conditioning dimension's evaluation grid. The
// fit must be two-dimensional; higher-dimensional fits need the
// remaining dimensions pinned, which ConditionalDensity handles.
//
// Grid points are independent and evaluated concurrently.
func (f *Fit) ConditionalCurve(targetKey, condKey string, levels []float64, workers int) (*Curve, error) {
	if len(f.Dims) != 2 {
		return nil, fmt.Errorf("%w: conditional curve needs a 2-dimensional fit, have %d", ErrDimension, len(f.Dims))
	}
	target, err := f.dimIndex(targetKey)
	if err != nil {
		return nil, err
	}
	cond, err := f.dimIndex(condKey)
	if err != nil {
		return nil, err
	}
	if target == cond {
		return nil, fmt.Errorf("%w: target and conditioning dimension are both %q", ErrDimension, targetKey)
	}

	grid := f.Grids[cond]
	curve := &Curve{
		Points:    append([]float64(nil), grid...),
		Mean:      make([]float64, len(grid)),
		Variance:  make([]float64, len(grid)),
		Quantiles: make([][]float64, len(grid)),
	}

	var g errgroup.Group
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, x := range grid {
		i, x := i, x
		g.Go(func() error {
			c, _ := ConditionalQuantiles(f.Weights, f.Dims, target,
				[]Condition{{Dim: cond, Value: x, Sigma: math.NaN()}}, levels, f.tol)
			// Bracket failures leave NaN markers in c; the
			// sweep carries on.
			curve.Mean[i] = c.Mean
			curve.Variance[i] = c.Variance
			curve.Quantiles[i] = c.Quantiles
			return nil
		})
	}
	g.Wait()
	return curve, nil
}
