// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package density

import (
	"encoding/json"
	"fmt"
	"io"
)

// Artifacts is the persisted form of a fit: enough to reconstruct the
// model for conditional queries, plus named numeric arrays for
// downstream plotting and reporting. The array naming is a convention,
// not a contract.
type Artifacts struct {
	Keys    []string     `json:"keys"`
	Labels  []string     `json:"labels"`
	Degrees []int        `json:"degrees"`
	Bounds  [][2]float64 `json:"bounds"`
	Linear  bool         `json:"linear,omitempty"`

	NegLogLik  float64 `json:"neg_log_lik"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`

	// Arrays holds the flattened numeric outputs keyed by
	// descriptive name: "weights", "unpadded_weights", "joint", and
	// "grid_<key>" per dimension, plus any curves added later.
	Arrays map[string][]float64 `json:"arrays"`
}

// Artifacts captures the fit's persistable outputs.
func (f *Fit) Artifacts() *Artifacts {
	a := &Artifacts{
		Keys:       make([]string, len(f.Dims)),
		Labels:     make([]string, len(f.Dims)),
		Degrees:    make([]int, len(f.Dims)),
		Bounds:     make([][2]float64, len(f.Dims)),
		Linear:     f.linear,
		NegLogLik:  f.NegLogLik,
		Iterations: f.Iterations,
		Converged:  f.Converged,
		Arrays:     make(map[string][]float64),
	}
	for d, dim := range f.Dims {
		a.Keys[d] = dim.Key
		a.Labels[d] = dim.Label
		a.Degrees[d] = dim.Degree
		a.Bounds[d] = [2]float64{dim.Min, dim.Max}
		a.Arrays["grid_"+dim.Key] = append([]float64(nil), f.Grids[d]...)
	}
	a.Arrays["weights"] = f.Weights.Flat()
	a.Arrays["unpadded_weights"] = append([]float64(nil), f.Unpadded...)
	a.Arrays["joint"] = append([]float64(nil), f.Joint.Data()...)
	return a
}

// AddCurve stores a conditional curve's arrays under the given name
// prefix.
func (a *Artifacts) AddCurve(prefix string, c *Curve) {
	a.Arrays[prefix+"_points"] = append([]float64(nil), c.Points...)
	a.Arrays[prefix+"_mean"] = append([]float64(nil), c.Mean...)
	a.Arrays[prefix+"_variance"] = append([]float64(nil), c.Variance...)
	if len(c.Quantiles) == 0 {
		return
	}
	for j := range c.Quantiles[0] {
		q := make([]float64, len(c.Quantiles))
		for i := range c.Quantiles {
			q[i] = c.Quantiles[i][j]
		}
		a.Arrays[fmt.Sprintf("%s_quantile%d", prefix, j)] = q
	}
}

// Encode writes the artifacts as JSON.
func (a *Artifacts) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(a)
}

// DecodeArtifacts reads artifacts written by Encode.
func DecodeArtifacts(r io.Reader) (*Artifacts, error) {
	var a Artifacts
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("density: decode artifacts: %w", err)
	}
	return &a, nil
}

// Fit reconstructs a queryable Fit from persisted artifacts without
// refitting.
func (a *Artifacts) Fit() (*Fit, error) {
	if len(a.Keys) != len(a.Degrees) || len(a.Keys) != len(a.Bounds) {
		return nil, fmt.Errorf("%w: %d keys, %d degrees, %d bounds", ErrShape, len(a.Keys), len(a.Degrees), len(a.Bounds))
	}

	dims := make([]Dimension, len(a.Keys))
	grids := make([][]float64, len(a.Keys))
	shape := make([]int, len(a.Keys))
	for d, key := range a.Keys {
		dims[d] = Dimension{
			Key:    key,
			Min:    a.Bounds[d][0],
			Max:    a.Bounds[d][1],
			Degree: a.Degrees[d],
		}
		if d < len(a.Labels) {
			dims[d].Label = a.Labels[d]
		}
		grid, ok := a.Arrays["grid_"+key]
		if !ok {
			return nil, fmt.Errorf("%w: missing grid for %q", ErrShape, key)
		}
		grids[d] = grid
		shape[d] = len(grid)
	}

	unpadded, ok := a.Arrays["unpadded_weights"]
	if !ok {
		return nil, fmt.Errorf("%w: missing unpadded_weights", ErrShape)
	}
	padded, err := Pad(UnpaddedWeights(unpadded), a.Degrees)
	if err != nil {
		return nil, err
	}

	f := &Fit{
		Dims:       dims,
		Weights:    padded,
		Unpadded:   append(UnpaddedWeights(nil), unpadded...),
		NegLogLik:  a.NegLogLik,
		Iterations: a.Iterations,
		Converged:  a.Converged,
		Grids:      grids,
		linear:     a.Linear,
		tol:        1e-8,
	}
	f.Joint = AssembleJoint(padded, dims, grids)
	return f, nil
}
