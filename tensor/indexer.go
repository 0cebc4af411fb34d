// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

// An Indexer enumerates every multi-index of a shape in row-major
// order, like an odometer: the last axis varies fastest. It replaces
// recursion over dimensions with an explicit loop, so iteration depth
// is independent of rank and partial shapes (single axes, interior
// slabs) can be walked with the same code.
//
//	it := NewIndexer(3, 2)
//	for it.Next() {
//		idx := it.Index() // [0 0], [0 1], [1 0], ... [2 1]
//	}
//
// An Indexer over an empty shape yields exactly one (empty) index,
// matching the single element of a rank-0 tensor.
type Indexer struct {
	shape []int
	idx   []int
	first bool
}

// NewIndexer returns an Indexer over the given shape.
func NewIndexer(shape ...int) *Indexer {
	return &Indexer{
		shape: append([]int(nil), shape...),
		idx:   make([]int, len(shape)),
		first: true,
	}
}

// Next advances to the next multi-index. It must be called before the
// first use of Index. It returns false when the space is exhausted.
func (it *Indexer) Next() bool {
	if it.first {
		it.first = false
		for _, n := range it.shape {
			if n <= 0 {
				return false
			}
		}
		return true
	}
	for d := len(it.idx) - 1; d >= 0; d-- {
		it.idx[d]++
		if it.idx[d] < it.shape[d] {
			return true
		}
		it.idx[d] = 0
	}
	return false
}

// Index returns the current multi-index. The slice is reused between
// calls to Next; callers that retain it must copy it.
func (it *Indexer) Index() []int { return it.idx }
