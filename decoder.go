// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"github.com/dsnet/bvgraph/internal/bitio"
	"github.com/dsnet/golib/errs"
)

// refResolver returns the previously decoded, sorted successor list for
// vertex id. The sequential iterator implements this as a ring-buffer
// lookup (the encoder guarantees r <= window, and sequential order always
// resolves it); the random-access iterator implements it as an LRU-cached
// transitive decode (§4.6).
type refResolver func(id int64) []int64

// readBoundedCode reads a single value using coding c. bound (exclusive) is
// only meaningful for bitio.Nibble; it is ignored for every other coding.
func readBoundedCode(r *bitio.Reader, c bitio.Coding, zetaK uint, bound int64) int64 {
	if bound < 0 {
		bound = 0
	}
	return int64(bitio.ReadCode(r, c, zetaK, uint64(bound)))
}

// readOutdegree reads just the outdegree code from a BITFILE positioned at
// a vertex record, without decoding the rest of the record. This backs
// RandomIterator.Outdegree's fast path (§4.6).
func readOutdegree(r *bitio.Reader, codecs CodecSet, zetaK uint) int64 {
	return int64(bitio.ReadCode(r, codecs.Outdegrees, zetaK, 0))
}

// decodeVertex implements §4.5 DECODER: given a BITFILE positioned at
// vertex v's record, it returns v's outdegree and sorted, duplicate-free
// successor list.
func decodeVertex(r *bitio.Reader, v int64, window, minIntervalLength int, zetaK uint, codecs CodecSet, resolveRef refResolver) (outdegree int64, successors []int64) {
	d := int64(bitio.ReadCode(r, codecs.Outdegrees, zetaK, 0))
	if d == 0 {
		return 0, nil
	}

	var copyList []int64
	if window > 0 {
		maxGap := v
		if int64(window) < maxGap {
			maxGap = int64(window)
		}
		refGap := readBoundedCode(r, codecs.References, zetaK, maxGap+1)
		if refGap > 0 {
			refVertex := v - refGap
			if refVertex < 0 {
				errs.Panic(newError(CorruptGraph, "reference gap exceeds vertex id"))
			}
			ref := resolveRef(refVertex)
			copyList = decodeCopyBlocks(r, codecs.Blocks, zetaK, ref)
		}
	}

	var intervals [][2]int64
	var intervalCount int64
	if minIntervalLength > 0 {
		intervalCount = int64(bitio.ReadCode(r, codecs.Intervals, zetaK, 0))
	}
	var prevRight int64
	for j := int64(0); j < intervalCount; j++ {
		var left int64
		if j == 0 {
			nat := bitio.ReadCode(r, codecs.Intervals, zetaK, 0)
			left = v + bitio.NatToInt(nat)
		} else {
			gap := int64(bitio.ReadCode(r, codecs.Intervals, zetaK, 0))
			left = prevRight + 1 + gap
		}
		lenMinusL := int64(bitio.ReadCode(r, codecs.Intervals, zetaK, 0))
		length := lenMinusL + int64(minIntervalLength)
		intervals = append(intervals, [2]int64{left, left + length})
		prevRight = left + length - 1
	}

	covered := int64(len(copyList))
	for _, iv := range intervals {
		covered += iv[1] - iv[0]
	}
	residualCount := d - covered

	residuals := make([]int64, 0, residualCount)
	var prevResidual int64
	for j := int64(0); j < residualCount; j++ {
		if j == 0 {
			nat := bitio.ReadCode(r, codecs.Residuals, zetaK, 0)
			prevResidual = v + bitio.NatToInt(nat)
		} else {
			gap := int64(bitio.ReadCode(r, codecs.Residuals, zetaK, 0))
			prevResidual = prevResidual + 1 + gap
		}
		residuals = append(residuals, prevResidual)
	}

	successors = mergeThree(copyList, flattenIntervals(intervals), residuals)
	return d, successors
}

// decodeCopyBlocks reads the block-run structure (§4.5 step 2) and returns
// the subset of ref selected by it, in order.
//
// Block lengths alternate include/exclude runs starting with include. Per
// the BV/WebGraph convention named in §4.5 ("first − 1 allowed, subsequent
// ≥ 1"), only the first declared block length is the raw decoded value
// (which may be 0); every subsequent block length is decoded value + 1, so
// it can never collapse to an empty run. After the declared blocks are
// consumed, the remainder of ref is included precisely when the alternation
// (having started at include and toggled once per declared block) lands
// back on include — i.e. when the number of declared blocks is even.
func decodeCopyBlocks(r *bitio.Reader, c bitio.Coding, zetaK uint, ref []int64) []int64 {
	b := int64(bitio.ReadCode(r, c, zetaK, 0))
	if b == 0 {
		out := make([]int64, len(ref))
		copy(out, ref)
		return out
	}

	var out []int64
	pos := 0
	include := true
	for i := int64(0); i < b; i++ {
		remaining := int64(len(ref) - pos)
		var n int
		if i == 0 {
			n = int(readBoundedCode(r, c, zetaK, remaining+1))
		} else {
			n = int(readBoundedCode(r, c, zetaK, remaining)) + 1
		}
		if include {
			end := pos + n
			out = append(out, ref[pos:end]...)
			pos = end
		} else {
			pos += n
		}
		include = !include
	}
	if include {
		out = append(out, ref[pos:]...)
	}
	return out
}

func flattenIntervals(intervals [][2]int64) []int64 {
	var n int
	for _, iv := range intervals {
		n += int(iv[1] - iv[0])
	}
	out := make([]int64, 0, n)
	for _, iv := range intervals {
		for x := iv[0]; x < iv[1]; x++ {
			out = append(out, x)
		}
	}
	return out
}

// mergeThree merges three disjoint, individually sorted slices (the
// reference copy, the interval expansion, and the residuals) into one
// sorted slice, per §4.5 step 5.
func mergeThree(a, b, c []int64) []int64 {
	out := make([]int64, 0, len(a)+len(b)+len(c))
	ia, ib, ic := 0, 0, 0
	for ia < len(a) || ib < len(b) || ic < len(c) {
		var best int64
		bestFrom := -1
		if ia < len(a) && (bestFrom == -1 || a[ia] < best) {
			best, bestFrom = a[ia], 0
		}
		if ib < len(b) && (bestFrom == -1 || b[ib] < best) {
			best, bestFrom = b[ib], 1
		}
		if ic < len(c) && (bestFrom == -1 || c[ic] < best) {
			best, bestFrom = c[ic], 2
		}
		out = append(out, best)
		switch bestFrom {
		case 0:
			ia++
		case 1:
			ib++
		case 2:
			ic++
		}
	}
	return out
}
