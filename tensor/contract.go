// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// Contract contracts the trailing axis of a against the leading axis
// of b, a generalized matrix product valid for operands of any rank:
//
//	C[i...,l...] = Σ_k A[i...,k] · B[k,l...]
//
// The contracted axes must have equal length. Axes of length 1 in the
// result are squeezed away, so contracting a vector against a matrix
// of vectors yields a vector, and fully contracting two vectors yields
// a rank-0 scalar tensor.
func Contract(a, b *Dense) *Dense {
	if a.Rank() == 0 || b.Rank() == 0 {
		panic("tensor: Contract requires operands of rank >= 1")
	}
	k := a.shape[a.Rank()-1]
	if b.shape[0] != k {
		panic(fmt.Sprintf("tensor: contracted axes disagree: %d vs %d", k, b.shape[0]))
	}

	m := a.Size() / k
	p := b.Size() / k

	// Row-major layout makes a an m×k matrix and b a k×p matrix.
	data := make([]float64, m*p)
	for i := 0; i < m; i++ {
		arow := a.data[i*k : (i+1)*k]
		for kk, av := range arow {
			if av == 0 {
				continue
			}
			brow := b.data[kk*p : (kk+1)*p]
			crow := data[i*p : (i+1)*p]
			for j, bv := range brow {
				crow[j] += av * bv
			}
		}
	}

	shape := append(a.shape[:a.Rank()-1:a.Rank()-1], b.shape[1:]...)
	if len(shape) == 0 {
		return NewWithData(data)
	}
	return NewWithData(data, shape...).squeeze()
}

// A Spec names the axes of the two operands and of the result of a
// ContractAxes call. Each byte labels one axis. A label shared between
// A and B and absent from Out is summed over; labels listed in Out are
// retained in that order. This is a value, not a string mini-language:
// callers construct it once per contraction pattern.
type Spec struct {
	A, B, Out string
}

// ContractAxes contracts arbitrary named axes of a and b according to
// sp. It is the explicit-subscript form of Contract, used to fold a
// single dimension's basis vector into a full-rank weight tensor while
// holding the other axes fixed.
func ContractAxes(a, b *Dense, sp Spec) *Dense {
	if len(sp.A) != a.Rank() || len(sp.B) != b.Rank() {
		panic(fmt.Sprintf("tensor: spec %q,%q does not match operand ranks %d,%d", sp.A, sp.B, a.Rank(), b.Rank()))
	}

	sizes := make(map[byte]int)
	record := func(labels string, t *Dense) {
		for d := 0; d < len(labels); d++ {
			l := labels[d]
			if n, ok := sizes[l]; ok {
				if n != t.shape[d] {
					panic(fmt.Sprintf("tensor: axis %q has conflicting lengths %d and %d", l, n, t.shape[d]))
				}
				continue
			}
			sizes[l] = t.shape[d]
		}
	}
	record(sp.A, a)
	record(sp.B, b)

	outShape := make([]int, len(sp.Out))
	for d := 0; d < len(sp.Out); d++ {
		n, ok := sizes[sp.Out[d]]
		if !ok {
			panic(fmt.Sprintf("tensor: output axis %q not present in operands", sp.Out[d]))
		}
		outShape[d] = n
	}

	// Axes not in the output are summed over.
	var sumLabels []byte
	seen := make(map[byte]bool)
	for _, labels := range []string{sp.A, sp.B} {
		for d := 0; d < len(labels); d++ {
			l := labels[d]
			if seen[l] || indexByte(sp.Out, l) >= 0 {
				continue
			}
			seen[l] = true
			sumLabels = append(sumLabels, l)
		}
	}
	sumShape := make([]int, len(sumLabels))
	for d, l := range sumLabels {
		sumShape[d] = sizes[l]
	}

	out := New(outShape...)
	pos := make(map[byte]int)
	ai := make([]int, a.Rank())
	bi := make([]int, b.Rank())

	outIt := NewIndexer(outShape...)
	for outIt.Next() {
		oidx := outIt.Index()
		for d := 0; d < len(sp.Out); d++ {
			pos[sp.Out[d]] = oidx[d]
		}

		var acc float64
		sumIt := NewIndexer(sumShape...)
		for sumIt.Next() {
			sidx := sumIt.Index()
			for d, l := range sumLabels {
				pos[l] = sidx[d]
			}
			for d := 0; d < len(sp.A); d++ {
				ai[d] = pos[sp.A[d]]
			}
			for d := 0; d < len(sp.B); d++ {
				bi[d] = pos[sp.B[d]]
			}
			acc += a.At(ai...) * b.At(bi...)
		}
		out.Set(acc, oidx...)
	}
	return out
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// AxisLabels returns the first n axis labels used by the density
// packages when building Specs: "abc...".
func AxisLabels(n int) string {
	if n > 26 {
		panic("tensor: too many axes to label")
	}
	labels := make([]byte, n)
	for i := range labels {
		labels[i] = byte('a' + i)
	}
	return string(labels)
}
