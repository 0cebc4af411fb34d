// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package density fits a smooth joint probability density over noisy,
// bounded measurements using a Bernstein-beta mixture, and answers
// marginal and conditional queries against the fitted density.
//
// The pipeline is: measurements → design matrix (per-observation
// tensor products of basis densities, with measurement noise convolved
// in) → mixture weights by maximum likelihood → joint density grid →
// conditional mean/variance/quantiles. See Ning, Wolfgang, Ghosh
// (2018), ApJ 869, 5 for the estimator.
package density // import "github.com/shbhuk/mrfit/density"

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/shbhuk/mrfit/bernstein"
)

var (
	// ErrShape reports input arrays of mismatched length. It is
	// raised before any numeric work begins.
	ErrShape = errors.New("density: input length mismatch")

	// ErrDegree reports a polynomial degree too small to leave
	// interior degrees of freedom after boundary padding.
	ErrDegree = errors.New("density: degree must be at least 3")

	// ErrDimension reports an unknown or inconsistent dimension
	// selection in a query.
	ErrDimension = errors.New("density: bad dimension selection")
)

// A Dimension is one measured physical quantity of the fit: its
// symbolic key, bounds in log10-transformed units, and the number of
// basis components allocated to it.
type Dimension struct {
	// Key is a short symbolic name ("m", "r") used to address the
	// dimension in conditioning queries.
	Key string

	// Label is a human-readable name for reports.
	Label string

	// Min and Max bound the fitted domain in log10 units.
	Min, Max float64

	// Degree is the number of Bernstein-beta basis components.
	Degree int
}

// Basis returns the dimension's Bernstein-beta basis.
func (d Dimension) Basis() bernstein.Basis {
	return bernstein.Basis{Degree: d.Degree, Min: d.Min, Max: d.Max}
}

// Grid returns n uniformly spaced evaluation points spanning the
// dimension's bounds.
func (d Dimension) Grid(n int) []float64 {
	return floats.Span(make([]float64, n), d.Min, d.Max)
}

// DimensionData is the per-dimension input record supplied by the
// data-loading caller. Values and uncertainties are in linear units;
// bounds, if given, are in log10 units.
type DimensionData struct {
	Key    string
	Label  string
	Degree int

	// Values holds the measured values, one per observation.
	Values []float64

	// SigmaLower and SigmaUpper hold the asymmetric measurement
	// uncertainties. They may be nil for a noise-free dimension.
	// Individual entries may be NaN to mark single observations as
	// noise-free.
	SigmaLower, SigmaUpper []float64

	// Min and Max optionally fix the fitted bounds in log10 units.
	// A NaN bound is computed from the data: the lower bound as
	// log10(0.9·min|v−σ|) and the upper as log10(1.1·max(v+σ)).
	Min, Max float64
}

// A Dataset is the validated, assembled input to a fit: D dimensions
// with N observations each.
type Dataset struct {
	Dims []Dimension

	// Values[d][i] is observation i of dimension d, linear units.
	Values [][]float64

	// Sigma[d][i] is the symmetric standard deviation of
	// observation i of dimension d, the average of the absolute
	// lower and upper uncertainties. NaN marks a noise-free
	// observation.
	Sigma [][]float64

	// N is the number of observations.
	N int
}

// NewDataset validates and assembles per-dimension measurement
// records. Every record must carry the same number of observations,
// and each record's uncertainty arrays must match its value array;
// violations fail fast with ErrShape before any numeric work.
func NewDataset(records []DimensionData) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrShape)
	}
	n := len(records[0].Values)

	ds := &Dataset{
		Dims:   make([]Dimension, len(records)),
		Values: make([][]float64, len(records)),
		Sigma:  make([][]float64, len(records)),
		N:      n,
	}
	for d, rec := range records {
		if rec.Degree < 3 {
			return nil, fmt.Errorf("%w: dimension %q has degree %d", ErrDegree, rec.Key, rec.Degree)
		}
		if len(rec.Values) != n {
			return nil, fmt.Errorf("%w: dimension %q has %d values, dimension %q has %d",
				ErrShape, rec.Key, len(rec.Values), records[0].Key, n)
		}
		if rec.SigmaLower != nil && len(rec.SigmaLower) != n {
			return nil, fmt.Errorf("%w: dimension %q has %d lower uncertainties for %d values",
				ErrShape, rec.Key, len(rec.SigmaLower), n)
		}
		if rec.SigmaUpper != nil && len(rec.SigmaUpper) != n {
			return nil, fmt.Errorf("%w: dimension %q has %d upper uncertainties for %d values",
				ErrShape, rec.Key, len(rec.SigmaUpper), n)
		}
		if (rec.SigmaLower == nil) != (rec.SigmaUpper == nil) {
			return nil, fmt.Errorf("%w: dimension %q has only one of the uncertainty arrays", ErrShape, rec.Key)
		}

		sigma := symmetrize(rec.SigmaLower, rec.SigmaUpper, n)
		min, max := rec.Min, rec.Max
		if math.IsNaN(min) || math.IsInf(min, 0) {
			min = autoMin(rec.Values, sigma)
		}
		if math.IsNaN(max) || math.IsInf(max, 0) {
			max = autoMax(rec.Values, sigma)
		}

		ds.Dims[d] = Dimension{
			Key:    rec.Key,
			Label:  rec.Label,
			Min:    min,
			Max:    max,
			Degree: rec.Degree,
		}
		ds.Values[d] = append([]float64(nil), rec.Values...)
		ds.Sigma[d] = sigma
	}
	return ds, nil
}

// symmetrize averages the absolute asymmetric uncertainties into one
// standard deviation per observation. Nil inputs yield all-NaN sigmas,
// marking every observation noise-free.
func symmetrize(lower, upper []float64, n int) []float64 {
	sigma := make([]float64, n)
	if lower == nil {
		for i := range sigma {
			sigma[i] = math.NaN()
		}
		return sigma
	}
	for i := range sigma {
		sigma[i] = (math.Abs(lower[i]) + math.Abs(upper[i])) / 2
	}
	return sigma
}

func autoMin(values, sigma []float64) float64 {
	lo := math.Inf(1)
	for i, v := range values {
		s := sigma[i]
		if math.IsNaN(s) {
			s = 0
		}
		if m := math.Abs(v - s); m < lo {
			lo = m
		}
	}
	return math.Log10(0.9 * lo)
}

func autoMax(values, sigma []float64) float64 {
	hi := math.Inf(-1)
	for i, v := range values {
		s := sigma[i]
		if math.IsNaN(s) {
			s = 0
		}
		if m := v + s; m > hi {
			hi = m
		}
	}
	return math.Log10(1.1 * hi)
}

// Degrees returns the per-dimension degree list.
func (ds *Dataset) Degrees() []int {
	degs := make([]int, len(ds.Dims))
	for d, dim := range ds.Dims {
		degs[d] = dim.Degree
	}
	return degs
}

// DimIndex returns the index of the dimension with the given key.
func (ds *Dataset) DimIndex(key string) (int, error) {
	for d, dim := range ds.Dims {
		if dim.Key == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: no dimension %q", ErrDimension, key)
}
