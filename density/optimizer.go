// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// An OptimizeResult reports the outcome of a weight optimization.
// Non-convergence is reported here, never raised: the weights are the
// best found, and restart policy is the caller's decision.
type OptimizeResult struct {
	// Weights is the fitted interior weight vector on the
	// probability simplex.
	Weights UnpaddedWeights

	// NegLogLik is the achieved negative log-likelihood.
	NegLogLik float64

	// Iterations is the number of iterations performed.
	Iterations int

	// Converged reports whether the stopping tolerance was met
	// before the iteration budget ran out.
	Converged bool
}

// An Optimizer fits mixture weights to a K×N design matrix. The
// returned weight vector must have length K, entries >= 0, and sum 1.
//
// Implementations may be external constrained solvers; EMOptimizer is
// the in-tree default.
type Optimizer interface {
	Optimize(c *mat.Dense) (OptimizeResult, error)
}

// EMOptimizer maximizes the mixture log-likelihood with the
// expectation-maximization multiplicative update
//
//	w_k ← w_k · (1/N) Σ_i C_ki / (Σ_j w_j C_ji)
//
// The update preserves the simplex constraint by construction and
// increases the likelihood monotonically, so no projection or penalty
// is needed. The zero value is a reasonable default configuration.
type EMOptimizer struct {
	// MaxIter bounds the iteration count. Zero means 500.
	MaxIter int

	// Tol is the relative change in negative log-likelihood below
	// which the iteration stops. Zero means 1e-10.
	Tol float64
}

func (o EMOptimizer) maxIter() int {
	if o.MaxIter <= 0 {
		return 500
	}
	return o.MaxIter
}

func (o EMOptimizer) tol() float64 {
	if o.Tol <= 0 {
		return 1e-10
	}
	return o.Tol
}

// Optimize fits simplex weights to the K×N design matrix c.
func (o EMOptimizer) Optimize(c *mat.Dense) (OptimizeResult, error) {
	k, n := c.Dims()
	if n == 0 || k == 0 {
		return OptimizeResult{}, fmt.Errorf("%w: empty design matrix", ErrShape)
	}

	w := mat.NewVecDense(k, nil)
	for i := 0; i < k; i++ {
		w.SetVec(i, 1/float64(k))
	}

	var (
		p    mat.VecDense // per-observation likelihood, w·C
		resp mat.VecDense // C · (1/p), the responsibility sums
		prev = math.Inf(1)
		res  OptimizeResult
	)
	for iter := 1; iter <= o.maxIter(); iter++ {
		p.MulVec(c.T(), w)

		nll := 0.0
		for i := 0; i < n; i++ {
			nll -= math.Log(p.AtVec(i))
			p.SetVec(i, 1/p.AtVec(i))
		}

		resp.MulVec(c, &p)
		for i := 0; i < k; i++ {
			w.SetVec(i, w.AtVec(i)*resp.AtVec(i)/float64(n))
		}

		res.Iterations = iter
		if math.Abs(prev-nll) <= o.tol()*(1+math.Abs(nll)) {
			res.Converged = true
			break
		}
		prev = nll
	}

	// The loop's likelihood is evaluated before each update, so it
	// lags the final weights by one iteration; report the objective
	// the returned weights actually achieve.
	p.MulVec(c.T(), w)
	res.NegLogLik = 0
	for i := 0; i < n; i++ {
		res.NegLogLik -= math.Log(p.AtVec(i))
	}

	res.Weights = make(UnpaddedWeights, k)
	for i := 0; i < k; i++ {
		res.Weights[i] = w.AtVec(i)
	}
	// Renormalize away accumulated rounding before the simplex
	// check downstream.
	var sum float64
	for _, v := range res.Weights {
		sum += v
	}
	for i := range res.Weights {
		res.Weights[i] /= sum
	}
	return res, nil
}

// logAttrs summarizes an optimization outcome for checkpoint logging.
func (r OptimizeResult) logAttrs() []any {
	return []any{
		slog.Int("iterations", r.Iterations),
		slog.Bool("converged", r.Converged),
		slog.Float64("neg_log_lik", r.NegLogLik),
	}
}
