// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/dsnet/golib/errs"
)

// randomIteratorCacheSize bounds the "small LRU-style cache of recently
// decoded vertex lists" §4.6 calls for: large enough to absorb a
// max_ref_count-deep reference chain plus a handful of unrelated queries
// without repeatedly re-decoding.
const randomIteratorCacheSize = 1024

// RandomIterator provides seek-based access to any vertex's outdegree or
// successor list, chasing reference copies transitively as needed. It
// requires the owning Graph to have an offset index (§4.6). A
// RandomIterator is not safe for concurrent use; callers wanting
// concurrency should create one iterator per goroutine (§5).
type RandomIterator struct {
	g     *Graph
	cache *lru.Cache
	gen   uint64
}

func newRandomIterator(g *Graph) (*RandomIterator, error) {
	cache, err := lru.New(randomIteratorCacheSize)
	if err != nil {
		return nil, wrapError(OutOfMemory, "allocating random-iterator cache", err)
	}
	return &RandomIterator{g: g, cache: cache, gen: g.generation}, nil
}

func (it *RandomIterator) checkOpen() error {
	if it.gen != it.g.generation {
		return newError(Unsupported, "iterator's graph has been closed")
	}
	return nil
}

// resolve returns vertex id's successor list, decoding and caching it if
// necessary. It is passed to decodeVertex as the refResolver for reference
// copies; the encoder bounds reference-chain depth by max_ref_count, so no
// additional recursion guard is needed here (§4.5 edge policy).
func (it *RandomIterator) resolve(id int64) []int64 {
	if v, ok := it.cache.Get(id); ok {
		return v.([]int64)
	}
	succ, err := it.decodeFull(id)
	if err != nil {
		errs.Panic(err)
	}
	it.cache.Add(id, succ)
	return succ
}

func (it *RandomIterator) decodeFull(v int64) (successors []int64, err error) {
	offset, err := it.g.offsets.lookup(v, it.g.props.Nodes)
	if err != nil {
		return nil, err
	}
	r, err := it.g.newReaderAt(offset)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	defer errs.Recover(&err)
	_, succ := decodeVertex(r, v, it.g.props.WindowSize, it.g.props.MinIntervalLength, it.g.props.ZetaK, it.g.props.Codecs, it.resolve)
	return succ, nil
}

// Outdegree returns vertex v's outdegree, seeking to offset(v) and reading
// only the outdegree code when the vertex is not already cached (§4.6).
func (it *RandomIterator) Outdegree(v int64) (outdegree int64, err error) {
	if err := it.checkOpen(); err != nil {
		return 0, err
	}
	if succ, ok := it.cache.Get(v); ok {
		return int64(len(succ.([]int64))), nil
	}

	offset, err := it.g.offsets.lookup(v, it.g.props.Nodes)
	if err != nil {
		return 0, err
	}
	r, err := it.g.newReaderAt(offset)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	defer errs.Recover(&err)
	return readOutdegree(r, it.g.props.Codecs, it.g.props.ZetaK), nil
}

// Successors returns vertex v's sorted successor list. The returned slice
// is cached internally; callers must not mutate it.
func (it *RandomIterator) Successors(v int64) (successors []int64, err error) {
	if err := it.checkOpen(); err != nil {
		return nil, err
	}
	if _, rangeErr := it.g.offsets.lookup(v, it.g.props.Nodes); rangeErr != nil {
		return nil, rangeErr
	}
	defer errs.Recover(&err)
	return it.resolve(v), nil
}
