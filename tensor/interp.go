// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"
	"sort"
)

// InterpAt evaluates a tensor sampled on a rectilinear grid at an
// arbitrary point by multilinear interpolation. grids[d] holds the
// sorted coordinates of axis d and must have length t.Dim(d).
// Coordinates outside a grid are clamped to its end points.
func (t *Dense) InterpAt(grids [][]float64, at []float64) float64 {
	rank := t.Rank()
	if len(grids) != rank || len(at) != rank {
		panic(fmt.Sprintf("tensor: InterpAt wants %d grids and coordinates, got %d and %d", rank, len(grids), len(at)))
	}

	lo := make([]int, rank)
	frac := make([]float64, rank)
	for d := 0; d < rank; d++ {
		g := grids[d]
		if len(g) != t.shape[d] {
			panic(fmt.Sprintf("tensor: grid %d has %d points for axis of length %d", d, len(g), t.shape[d]))
		}
		if len(g) == 1 {
			continue
		}
		j := sort.SearchFloat64s(g, at[d])
		switch {
		case j <= 0:
			lo[d], frac[d] = 0, 0
		case j >= len(g):
			lo[d], frac[d] = len(g)-2, 1
		default:
			lo[d] = j - 1
			frac[d] = (at[d] - g[j-1]) / (g[j] - g[j-1])
		}
	}

	// Accumulate over the 2^rank cell corners.
	var acc float64
	idx := make([]int, rank)
	for mask := 0; mask < 1<<uint(rank); mask++ {
		w := 1.0
		for d := 0; d < rank; d++ {
			if mask>>uint(d)&1 == 1 {
				idx[d] = lo[d] + 1
				w *= frac[d]
			} else {
				idx[d] = lo[d]
				w *= 1 - frac[d]
			}
			if idx[d] >= t.shape[d] {
				idx[d] = t.shape[d] - 1
			}
		}
		if w != 0 {
			acc += w * t.At(idx...)
		}
	}
	return acc
}
