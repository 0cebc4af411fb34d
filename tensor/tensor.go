// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensor implements dense arrays of arbitrary rank and the
// label-based contraction used to combine per-dimension basis vectors
// with weight hypercubes.
//
// A Dense of rank 0 holds a single scalar. Rank 1 and 2 tensors are
// laid out identically to vectors and row-major matrices, so callers
// can move data in and out of gonum/mat without copying.
package tensor // import "github.com/shbhuk/mrfit/tensor"

import "fmt"

// A Dense is a dense, row-major tensor of float64 values. The zero
// value is not usable; use New or NewWithData.
type Dense struct {
	shape   []int
	strides []int
	data    []float64
}

// New returns a zero-filled tensor with the given shape. New() with no
// arguments returns a rank-0 scalar tensor.
func New(shape ...int) *Dense {
	size := 1
	for _, n := range shape {
		if n <= 0 {
			panic(fmt.Sprintf("tensor: non-positive dimension %v", shape))
		}
		size *= n
	}
	return &Dense{
		shape:   append([]int(nil), shape...),
		strides: strides(shape),
		data:    make([]float64, size),
	}
}

// NewWithData returns a tensor with the given shape backed by data,
// which is retained, not copied. len(data) must equal the product of
// the shape.
func NewWithData(data []float64, shape ...int) *Dense {
	size := 1
	for _, n := range shape {
		if n <= 0 {
			panic(fmt.Sprintf("tensor: non-positive dimension %v", shape))
		}
		size *= n
	}
	if len(data) != size {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	return &Dense{
		shape:   append([]int(nil), shape...),
		strides: strides(shape),
		data:    data,
	}
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		s[d] = acc
		acc *= shape[d]
	}
	return s
}

// Rank returns the number of axes.
func (t *Dense) Rank() int { return len(t.shape) }

// Size returns the total number of elements.
func (t *Dense) Size() int { return len(t.data) }

// Shape returns a copy of the tensor's shape.
func (t *Dense) Shape() []int { return append([]int(nil), t.shape...) }

// Dim returns the length of axis d.
func (t *Dense) Dim(d int) int { return t.shape[d] }

// Data returns the backing slice in row-major order. Mutating it
// mutates the tensor.
func (t *Dense) Data() []float64 { return t.data }

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d does not match tensor rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= t.shape[d] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += i * t.strides[d]
	}
	return off
}

// At returns the element at the given multi-index. A rank-0 tensor is
// indexed with no arguments.
func (t *Dense) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set stores v at the given multi-index.
func (t *Dense) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// Scalar returns the value of a single-element tensor.
func (t *Dense) Scalar() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: Scalar on tensor of size %d", len(t.data)))
	}
	return t.data[0]
}

// Reshape returns a tensor with the given shape sharing t's backing
// data. The new shape must describe the same number of elements.
func (t *Dense) Reshape(shape ...int) *Dense {
	return NewWithData(t.data, shape...)
}

// Clone returns a deep copy of t.
func (t *Dense) Clone() *Dense {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return NewWithData(data, t.shape...)
}

// Sum returns the sum of all elements.
func (t *Dense) Sum() float64 {
	var s float64
	for _, v := range t.data {
		s += v
	}
	return s
}

// squeeze drops all axes of length 1. Squeezing every axis yields a
// rank-0 scalar tensor.
func (t *Dense) squeeze() *Dense {
	shape := make([]int, 0, len(t.shape))
	for _, n := range t.shape {
		if n != 1 {
			shape = append(shape, n)
		}
	}
	if len(shape) == len(t.shape) {
		return t
	}
	return NewWithData(t.data, shape...)
}
