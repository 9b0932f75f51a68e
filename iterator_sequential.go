// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"github.com/dsnet/bvgraph/internal/bitio"
	"github.com/dsnet/golib/errs"
)

// ringEntry is one slot of the sequential iterator's sliding reference
// window (§3 "owns a ring buffer of the last W decoded successor lists").
type ringEntry struct {
	vertex     int64
	valid      bool
	outdegree  int64
	successors []int64
}

// refRing is an indexed ring buffer sized window+1 so the slot currently
// being written never overwrites a vertex that might still be referenced
// (§4.6: "(+1 so the current slot does not overwrite a referable one)").
type refRing struct {
	window int
	slots  []ringEntry
}

func newRefRing(window int) *refRing {
	return &refRing{window: window, slots: make([]ringEntry, window+1)}
}

func (r *refRing) put(v, outdegree int64, successors []int64) {
	r.slots[v%int64(len(r.slots))] = ringEntry{vertex: v, valid: true, outdegree: outdegree, successors: successors}
}

func (r *refRing) get(v int64) ([]int64, bool) {
	e := r.slots[v%int64(len(r.slots))]
	if !e.valid || e.vertex != v {
		return nil, false
	}
	return e.successors, true
}

// SequentialIterator walks a graph's vertices in id order, decoding each
// vertex's successor list using only the previous W decoded lists to
// resolve reference copies (§4.6). It does not support seeking; total work
// across a full walk is O(n) independent of the offset index.
//
// A SequentialIterator is not safe for concurrent use.
type SequentialIterator struct {
	g     *Graph
	r     *bitio.Reader
	ring  *refRing
	curr  int64
	err   error
	gen   uint64
}

func newSequentialIterator(g *Graph) (*SequentialIterator, error) {
	r, err := g.newReader()
	if err != nil {
		return nil, err
	}
	return &SequentialIterator{
		g:    g,
		r:    r,
		ring: newRefRing(g.props.WindowSize),
		curr: -1,
		gen:  g.generation,
	}, nil
}

// Valid reports whether the iterator currently addresses an in-range
// vertex; it becomes false once the walk runs past the last vertex, after
// a decode error, or after the owning Graph is closed.
func (it *SequentialIterator) Valid() bool {
	return it.err == nil && it.gen == it.g.generation && it.curr >= 0 && it.curr < it.g.props.Nodes
}

// Err returns the error that invalidated the iterator, if any.
func (it *SequentialIterator) Err() error { return it.err }

// Next advances to the next vertex, decoding its successor list. It must be
// called once before the first vertex is available (curr starts at -1).
// Next returns false once iteration is exhausted or an error occurred; call
// Err to distinguish the two.
func (it *SequentialIterator) Next() bool {
	if it.err != nil || it.gen != it.g.generation {
		return false
	}
	next := it.curr + 1
	if next >= it.g.props.Nodes {
		it.curr = next
		return false
	}
	if err := it.decodeAt(next); err != nil {
		it.err = err
		return false
	}
	it.curr = next
	return true
}

func (it *SequentialIterator) decodeAt(v int64) (err error) {
	defer errs.Recover(&err)
	outdeg, succ := decodeVertex(it.r, v, it.g.props.WindowSize, it.g.props.MinIntervalLength, it.g.props.ZetaK, it.g.props.Codecs, it.resolve)
	it.ring.put(v, outdeg, succ)
	return nil
}

func (it *SequentialIterator) resolve(id int64) []int64 {
	succ, ok := it.ring.get(id)
	if !ok {
		errs.Panic(newError(CorruptGraph, "reference outside sliding window"))
	}
	return succ
}

// Outdegree returns the current vertex's outdegree.
func (it *SequentialIterator) Outdegree() int64 {
	e := it.ring.slots[it.curr%int64(len(it.ring.slots))]
	return e.outdegree
}

// Successors returns the current vertex's successor list. The returned
// slice is borrowed and only valid until the next call to Next.
func (it *SequentialIterator) Successors() []int64 {
	succ, _ := it.ring.get(it.curr)
	return succ
}

// walkAll decodes every vertex 0..n-1 in order, invoking visit with each
// vertex's start bit position, outdegree, and successor list. It backs
// online offset reconstruction (offsets.go); SequentialIterator does not
// call it, and instead decodes one vertex per Next with the same
// decodeVertex and refRing. The walk reads through the one reader it is
// given, so the .graph bitfile is only ever opened once per
// walk (§9: "load_efcode_* functions reopen the same bitfile twice ...
// open once").
func walkAll(r *bitio.Reader, n int64, window, minIntervalLength int, zetaK uint, codecs CodecSet, visit func(v int64, startPos uint64, outdegree int64, successors []int64)) (err error) {
	defer errs.Recover(&err)
	ring := newRefRing(window)
	resolve := func(id int64) []int64 {
		succ, ok := ring.get(id)
		if !ok {
			errs.Panic(newError(CorruptGraph, "reference outside sliding window"))
		}
		return succ
	}
	for v := int64(0); v < n; v++ {
		pos := r.Position()
		outdeg, succ := decodeVertex(r, v, window, minIntervalLength, zetaK, codecs, resolve)
		ring.put(v, outdeg, succ)
		visit(v, pos, outdeg, succ)
	}
	return nil
}
