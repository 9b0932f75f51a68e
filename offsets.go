// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"github.com/dsnet/bvgraph/internal/bitio"
	"github.com/dsnet/bvgraph/internal/eflist"
	"github.com/dsnet/golib/errs"
)

// offsetKind names one of the OFFSETS variants in §3/§4.4.
type offsetKind int

const (
	offsetNone offsetKind = iota
	offsetDense
	offsetEliasFano
)

// offsetIndex is the OFFSETS component: it maps a vertex id to the absolute
// bit position in the .graph stream where that vertex's record begins.
type offsetIndex struct {
	kind  offsetKind
	dense []int64
	ef    *eflist.List
}

func (o *offsetIndex) lookup(v, n int64) (int64, error) {
	if v < 0 || v >= n {
		return 0, newError(VertexOutOfRange, "vertex id out of range")
	}
	switch o.kind {
	case offsetNone:
		return 0, newError(RequiresOffsets, "graph was loaded without an offset index")
	case offsetDense:
		return o.dense[v], nil
	case offsetEliasFano:
		return o.ef.Lookup(v), nil
	default:
		return 0, newError(RequiresOffsets, "unknown offset index kind")
	}
}

// decodeOffsetsFile decodes the .offsets file format (§6): n gamma-coded
// gaps from the previous absolute offset, the first being the absolute
// offset of vertex 0 (which must be 0).
func decodeOffsetsFile(data []byte, n int64, coding bitio.Coding, zetaK uint) (dense []int64, err error) {
	defer errs.Recover(&err)
	r := bitio.NewMemReader(data)
	dense = make([]int64, n)
	var cur int64
	for i := int64(0); i < n; i++ {
		gap := int64(bitio.ReadCode(r, coding, zetaK, 0))
		cur += gap
		dense[i] = cur
	}
	if n > 0 && dense[0] != 0 {
		return nil, newError(PropertyFileError, "first offset is not zero")
	}
	return dense, nil
}

// reconstructOffsetsOnline recomputes dense offsets by a single sequential
// decoding pass over .graph, recording BITFILE.position() at each vertex
// boundary (§4.4: the documented fallback when .offsets is absent or fails
// to open).
func reconstructOffsetsOnline(r *bitio.Reader, n int64, window, minIntervalLength int, zetaK uint, codecs CodecSet) ([]int64, error) {
	dense := make([]int64, n)
	err := walkAll(r, n, window, minIntervalLength, zetaK, codecs, func(v int64, startPos uint64, outdegree int64, successors []int64) {
		dense[v] = int64(startPos)
	})
	if err != nil {
		return nil, err
	}
	return dense, nil
}

// denseOffsetsMemory and efOffsetsMemory estimate, in bytes, the memory a
// dense or Elias-Fano encoded offset array of n entries bounded by
// upperBound would require; this backs RequiredMemory and the
// offset_step > 2 memory-budget policy (§4.4, supplemented per
// SPEC_FULL.md from bvgraph_required_memory).
func denseOffsetsMemory(n int64) int64 {
	return 8 * n
}

func efOffsetsMemory(n, upperBound int64) int64 {
	if n <= 0 {
		return 0
	}
	l := eflist.New(n, upperBound)
	// MemoryBytes before Build is a reasonable estimate: the lower array is
	// already sized, and the inventory/spill are a small fraction of it.
	return l.MemoryBytes() + l.MemoryBytes()/4
}

// buildOffsetIndex applies the offset_step selection policy (§4.4):
//
//	-1: None, .graph left file-backed.
//	 0: None, .graph loaded into memory.
//	 1: Dense, from .offsets or online reconstruction.
//	 2: EliasFano, from the same sources.
//	>2: interpreted as a megabyte budget; Dense if it fits, else EliasFano.
func buildOffsetIndex(step int, offsetsData []byte, r *bitio.Reader, props *Properties, onEvent func(LoadEvent)) (*offsetIndex, error) {
	n := props.Nodes
	if step < 0 {
		return &offsetIndex{kind: offsetNone}, nil
	}

	loadDense := func() ([]int64, error) {
		if offsetsData != nil {
			dense, err := decodeOffsetsFile(offsetsData, n, props.Codecs.Offsets, props.ZetaK)
			if err == nil {
				return dense, nil
			}
			if onEvent != nil {
				onEvent(LoadEvent{Kind: LoadEventOffsetsFallback, Message: err.Error()})
			}
		} else if onEvent != nil {
			onEvent(LoadEvent{Kind: LoadEventOffsetsFallback, Message: "no .offsets data; reconstructing offsets"})
		}
		return reconstructOffsetsOnline(r, n, props.WindowSize, props.MinIntervalLength, props.ZetaK, props.Codecs)
	}

	switch {
	case step == 0:
		return &offsetIndex{kind: offsetNone}, nil
	case step == 1:
		dense, err := loadDense()
		if err != nil {
			return nil, err
		}
		return &offsetIndex{kind: offsetDense, dense: dense}, nil
	case step == 2:
		dense, err := loadDense()
		if err != nil {
			return nil, err
		}
		return buildEliasFanoFromDense(dense, props)
	default:
		budget := int64(step) * 1 << 20
		denseMem := denseOffsetsMemory(n)
		upperBound := int64(props.BitsPerLink * float64(props.Arcs))
		efMem := efOffsetsMemory(n, upperBound)
		if onEvent != nil {
			onEvent(LoadEvent{
				Kind:    LoadEventMemoryBudget,
				Message: "choosing offset representation for memory budget",
				Dense:   denseMem,
				EF:      efMem,
				Budget:  budget,
			})
		}
		dense, err := loadDense()
		if err != nil {
			return nil, err
		}
		if denseMem <= budget {
			return &offsetIndex{kind: offsetDense, dense: dense}, nil
		}
		return buildEliasFanoFromDense(dense, props)
	}
}

func buildEliasFanoFromDense(dense []int64, props *Properties) (*offsetIndex, error) {
	n := int64(len(dense))
	var largest int64
	if n > 0 {
		largest = dense[n-1]
	}
	l := eflist.New(n, largest)
	if err := l.AddBatch(dense); err != nil {
		return nil, wrapError(PropertyFileError, "building EF offset index", err)
	}
	if err := l.Build(true); err != nil {
		return nil, wrapError(SpillTooSmall, "building EF offset index", err)
	}
	return &offsetIndex{kind: offsetEliasFano, ef: l}, nil
}
