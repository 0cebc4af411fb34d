// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bernstein evaluates Bernstein-beta basis densities on a
// bounded interval.
//
// A basis of degree k consists of the k beta densities with integer
// shape parameters (d, k-d+1) for d = 1..k, rescaled from [0, 1] to
// the interval [Min, Max]. A nonnegative mixture of these components
// can approximate any smooth density on the interval, which is what
// the density package exploits: it fits mixture weights by maximum
// likelihood and never assumes a functional form.
//
// The construction follows Ning, B., Wolfgang, A., Ghosh, S. (2018).
// "Predicting Exoplanet Masses and Radii: A Nonparametric Approach",
// ApJ 869, 5, section 2.
package bernstein // import "github.com/shbhuk/mrfit/bernstein"

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/shbhuk/mrfit/mathx"
)

// A Basis is a Bernstein-beta basis of a given degree over the
// interval [Min, Max]. For fitted domains the interval is in log10
// units; the basis itself does not care.
type Basis struct {
	// Degree is the number of basis components. It must be >= 3 so
	// that at least one interior component remains after the
	// boundary components are pinned to zero weight.
	Degree int

	// Min and Max bound the support. Max must exceed Min.
	Min, Max float64
}

// component returns the beta distribution of basis index d, 1-based.
func (b Basis) component(d int) distuv.Beta {
	return distuv.Beta{Alpha: float64(d), Beta: float64(b.Degree - d + 1)}
}

// prob evaluates a beta density at u in [0, 1]. The general formula is
// 0·∞ at the end points, but with integer shapes >= 1 the limits are
// finite, and the joint-density grid does evaluate the closed
// interval, so the end points are handled explicitly.
func prob(dist distuv.Beta, u float64) float64 {
	switch {
	case u < 0 || u > 1:
		return 0
	case u == 0:
		if dist.Alpha == 1 {
			return dist.Beta
		}
		return 0
	case u == 1:
		if dist.Beta == 1 {
			return dist.Alpha
		}
		return 0
	}
	return dist.Prob(u)
}

// PDF returns the vector of basis densities at x, one entry per basis
// index 1..Degree. Outside [Min, Max] all entries are zero.
func (b Basis) PDF(x float64) []float64 {
	return b.PDFRange(x, 1, b.Degree)
}

// PDFInterior returns the basis densities at x for the interior
// indices 2..Degree-1, the components that carry free weight in a
// boundary-padded fit.
func (b Basis) PDFInterior(x float64) []float64 {
	return b.PDFRange(x, 2, b.Degree-1)
}

// PDFRange returns the basis densities at x for indices lo..hi
// inclusive.
func (b Basis) PDFRange(x float64, lo, hi int) []float64 {
	width := b.Max - b.Min
	u := (x - b.Min) / width
	out := make([]float64, hi-lo+1)
	for d := lo; d <= hi; d++ {
		out[d-lo] = prob(b.component(d), u) / width
	}
	return out
}

// CDF returns the vector of basis cumulative distributions at x, one
// entry per basis index 1..Degree.
func (b Basis) CDF(x float64) []float64 {
	width := b.Max - b.Min
	u := (x - b.Min) / width
	out := make([]float64, b.Degree)
	for d := 1; d <= b.Degree; d++ {
		switch {
		case u <= 0:
			out[d-1] = 0
		case u >= 1:
			out[d-1] = 1
		default:
			out[d-1] = b.component(d).CDF(u)
		}
	}
	return out
}

// ComponentMean returns the mean of each basis component on
// [Min, Max]: d·(Max-Min)/(Degree+1) + Min.
func (b Basis) ComponentMean() []float64 {
	width := b.Max - b.Min
	out := make([]float64, b.Degree)
	for d := 1; d <= b.Degree; d++ {
		out[d-1] = float64(d)*width/float64(b.Degree+1) + b.Min
	}
	return out
}

// ComponentVariance returns the variance of each basis component on
// [Min, Max].
func (b Basis) ComponentVariance() []float64 {
	width := b.Max - b.Min
	k := float64(b.Degree)
	out := make([]float64, b.Degree)
	for d := 1; d <= b.Degree; d++ {
		df := float64(d)
		out[d-1] = df * (k - df + 1) * width * width / ((k + 2) * (k + 1) * (k + 1))
	}
	return out
}

// ConvolvedPDF returns the basis density vector for a noisy
// observation: each entry is the basis component convolved with a
// Gaussian measurement-error kernel of scale sigma, integrated over
// the support by quadrature with absolute tolerance tol.
//
// If logDomain is true the observation obs is in linear units while
// the basis lives in log10 units: the kernel is centered at 10^x when
// the basis is evaluated at x (Ning et al. 2018, eq. 8). Otherwise the
// kernel is centered at x directly.
//
// Entries that integrate to zero or fail to converge are returned as
// they are; the caller is responsible for flooring them if it intends
// to take logarithms.
func (b Basis) ConvolvedPDF(obs, sigma float64, logDomain bool, tol float64) []float64 {
	return b.ConvolvedPDFRange(obs, sigma, logDomain, tol, 1, b.Degree)
}

// ConvolvedPDFInterior is ConvolvedPDF restricted to the interior
// indices 2..Degree-1.
func (b Basis) ConvolvedPDFInterior(obs, sigma float64, logDomain bool, tol float64) []float64 {
	return b.ConvolvedPDFRange(obs, sigma, logDomain, tol, 2, b.Degree-1)
}

// ConvolvedPDFRange is ConvolvedPDF restricted to indices lo..hi
// inclusive.
func (b Basis) ConvolvedPDFRange(obs, sigma float64, logDomain bool, tol float64, lo, hi int) []float64 {
	width := b.Max - b.Min
	kernel := distuv.Normal{Sigma: sigma}
	out := make([]float64, hi-lo+1)
	for d := lo; d <= hi; d++ {
		dist := b.component(d)
		f := func(x float64) float64 {
			kernel.Mu = x
			if logDomain {
				kernel.Mu = math.Pow(10, x)
			}
			return kernel.Prob(obs) * prob(dist, (x-b.Min)/width) / width
		}
		out[d-lo] = mathx.Quad(f, b.Min, b.Max, tol)
	}
	return out
}
