// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/shbhuk/mrfit/mathx"
	"github.com/shbhuk/mrfit/tensor"
)

// Root-finding tolerances for quantile inversion. The roots are
// reported as credible-interval bounds, so they are solved tightly.
const (
	quantileXTol = 1e-8
	quantileRTol = 1e-12
)

// Marginal returns the marginal density of dimension dim at x (in the
// fitted, log10 domain): the weight hypercube contracted with the
// dimension's basis vector at x, with every other axis summed out.
func Marginal(w PaddedWeights, dims []Dimension, dim int, x float64) float64 {
	labels := tensor.AxisLabels(len(dims))
	pdf := tensor.NewWithData(dims[dim].Basis().PDF(x), dims[dim].Degree)
	sp := tensor.Spec{A: labels, B: labels[dim : dim+1], Out: ""}
	return tensor.ContractAxes(w.Tensor(), pdf, sp).Scalar()
}

// A Condition fixes one dimension of a conditional query at an
// observed value.
type Condition struct {
	// Dim is the dimension index within the fit.
	Dim int

	// Value is the observed value in the fitted (log10) domain.
	Value float64

	// Sigma is the measurement uncertainty of Value in the same
	// units. NaN requests the closed-form, noise-free basis branch.
	Sigma float64
}

// A Conditional is the distribution of one target dimension given
// fixed values of the others, summarized by its closed-form moments
// and root-found quantiles.
//
// A zero Denominator (the conditioning point carries no marginal
// density) is reported as NaN and propagates NaN moments and
// quantiles; consumers must tolerate NaN results. This is distinct
// from a quantile bracketing error, which signals misconfigured
// bounds.
type Conditional struct {
	Mean     float64
	Variance float64

	// Quantiles holds one root per requested level, in the fitted
	// domain. Entries are NaN when the denominator is degenerate or
	// that single inversion failed to bracket.
	Quantiles []float64

	// Denominator is the marginal density of the conditioning
	// point, the normalizing constant of the conditional.
	Denominator float64

	// TargetWeights is the weight hypercube with every conditioning
	// basis vector folded in: one entry per target basis index,
	// not yet normalized by Denominator. MixtureQuantiles consumes
	// these to average an ensemble of fits.
	TargetWeights []float64

	// CondBasis is the basis-density vector of the (last)
	// conditioning value.
	CondBasis []float64
}

// ConditionalQuantiles computes the conditional mean, variance and
// quantiles of the target dimension given the conditioning values in
// conds, which must cover every dimension except the target.
//
// The mean and variance use the closed-form moments of the Bernstein
// basis components; each quantile level q inverts the conditional CDF
// F(x) = q by Brent root-finding over the target bounds. A failed
// bracket is returned as an error wrapping mathx.ErrBracket with the
// affected quantile left NaN; batch callers may keep the partial
// result and continue.
func ConditionalQuantiles(w PaddedWeights, dims []Dimension, target int, conds []Condition, levels []float64, tol float64) (Conditional, error) {
	if target < 0 || target >= len(dims) {
		return Conditional{}, fmt.Errorf("%w: target %d of %d dimensions", ErrDimension, target, len(dims))
	}
	if len(conds) != len(dims)-1 {
		return Conditional{}, fmt.Errorf("%w: %d conditions for %d dimensions", ErrDimension, len(conds), len(dims))
	}
	seen := map[int]bool{target: true}
	for _, c := range conds {
		if c.Dim < 0 || c.Dim >= len(dims) || seen[c.Dim] {
			return Conditional{}, fmt.Errorf("%w: condition on dimension %d", ErrDimension, c.Dim)
		}
		seen[c.Dim] = true
	}

	// Fold each conditioning basis vector into the weight
	// hypercube, one axis at a time, until only the target axis
	// remains.
	labels := tensor.AxisLabels(len(dims))
	remaining := labels
	acc := w.Tensor()
	var condBasis []float64
	for _, c := range conds {
		dim := dims[c.Dim]
		basis := dim.Basis()
		var pdf []float64
		if math.IsNaN(c.Sigma) {
			pdf = basis.PDF(c.Value)
		} else {
			pdf = basis.ConvolvedPDF(c.Value, c.Sigma, false, tol)
		}
		condBasis = pdf

		l := labels[c.Dim : c.Dim+1]
		out := strip(remaining, labels[c.Dim])
		acc = tensor.ContractAxes(acc, tensor.NewWithData(pdf, dim.Degree), tensor.Spec{A: remaining, B: l, Out: out})
		remaining = out
	}

	cond := Conditional{
		TargetWeights: append([]float64(nil), acc.Data()...),
		CondBasis:     condBasis,
		Quantiles:     make([]float64, len(levels)),
	}

	denom := floats.Sum(cond.TargetWeights)
	if denom == 0 {
		denom = math.NaN()
	}
	cond.Denominator = denom

	tBasis := dims[target].Basis()
	cond.Mean = floats.Dot(cond.TargetWeights, tBasis.ComponentMean()) / denom
	cond.Variance = floats.Dot(cond.TargetWeights, tBasis.ComponentVariance()) / denom

	if math.IsNaN(denom) {
		for i := range cond.Quantiles {
			cond.Quantiles[i] = math.NaN()
		}
		return cond, nil
	}

	var firstErr error
	for i, q := range levels {
		q := q
		root, err := mathx.Brent(func(x float64) float64 {
			return floats.Dot(cond.TargetWeights, tBasis.CDF(x))/denom - q
		}, dims[target].Min, dims[target].Max, quantileXTol, quantileRTol)
		if err != nil {
			cond.Quantiles[i] = math.NaN()
			if firstErr == nil {
				firstErr = fmt.Errorf("density: quantile %v of %q: %w", q, dims[target].Key, err)
			}
			continue
		}
		cond.Quantiles[i] = root
	}
	return cond, firstErr
}

// MixtureQuantiles inverts the average conditional CDF of an ensemble
// of fits: F(x) is the mean of each sample's conditional CDF, and the
// returned roots solve F(x) = q for each level. This combines
// bootstrap or posterior weight samples into a single quantile curve.
//
// Samples with a degenerate (NaN) denominator carry no usable CDF and
// are skipped. If no sample is usable every quantile is NaN.
func MixtureQuantiles(samples []Conditional, target Dimension, levels []float64) ([]float64, error) {
	valid := samples[:0:0]
	for _, s := range samples {
		if !math.IsNaN(s.Denominator) {
			valid = append(valid, s)
		}
	}
	out := make([]float64, len(levels))
	if len(valid) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}

	basis := target.Basis()
	mixtureCDF := func(x float64) float64 {
		cdf := basis.CDF(x)
		var acc float64
		for _, s := range valid {
			acc += floats.Dot(s.TargetWeights, cdf) / s.Denominator
		}
		return acc / float64(len(valid))
	}

	var firstErr error
	for i, q := range levels {
		q := q
		root, err := mathx.Brent(func(x float64) float64 {
			return mixtureCDF(x) - q
		}, target.Min, target.Max, quantileXTol, quantileRTol)
		if err != nil {
			out[i] = math.NaN()
			if firstErr == nil {
				firstErr = fmt.Errorf("density: mixture quantile %v of %q: %w", q, target.Key, err)
			}
			continue
		}
		out[i] = root
	}
	return out, firstErr
}

// strip removes the byte c from s.
func strip(s string, c byte) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			out = append(out, s[i])
		}
	}
	return string(out)
}
