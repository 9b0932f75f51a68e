// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package eflist implements the Elias-Fano coded monotone sequence used to
// index a BV graph's per-vertex bit offsets (§3/§4.3, EFLIST).
//
// A monotone nondecreasing sequence x_0 <= x_1 <= ... <= x_{n-1} bounded by
// largest is split, element by element, into a low part of s = floor(log2
// ((largest+1)/n)) bits stored in a packed array, and a high part recorded
// unary-style as a single set bit in a bit vector of length n + largest>>s.
// A simple-select inventory over that bit vector, with an overflow spill for
// unusually sparse runs, makes Lookup run in amortized O(1).
package eflist

import (
	"math/bits"

	"github.com/dsnet/golib/errs"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "bvgraph: eflist: " + string(e) }

var (
	// ErrOutOfBound is returned by Add when it is called more times than
	// the element count the list was initialized with, and panicked when
	// Lookup or a rank query is given an index outside [0, n).
	ErrOutOfBound error = Error("index out of bound")

	// ErrSpillTooSmall is returned by Build when the preallocated spill
	// buffer is too small to hold every element of a sparse run and the
	// caller did not permit it to grow.
	ErrSpillTooSmall error = Error("spill buffer too small")

	// ErrBatchNonDecreasing is returned by AddBatch when the supplied slice
	// is not nondecreasing.
	ErrBatchNonDecreasing error = Error("batch is not nondecreasing")
)

const (
	maxOnesPerInventory = 8192
	maxSpan             = 1 << 16
	defaultSpillSize    = 10 * 8192
)

// List is an Elias-Fano coded nondecreasing sequence of int64 values. The
// zero value is not usable; construct one with New.
type List struct {
	s       uint
	size    int64 // number of elements this List was sized for
	largest int64
	lower   lowerBits
	upper   upperBits
	upperN  int64
	added   int64

	spillCap int64

	built                bool
	numOnes              int64
	onesPerInventoryLog2 uint
	onesPerInventory     int64
	onesPerInventoryMask int64
	inventory            []int64
	spill                []int64
}

func log2Floor(x int64) uint {
	if x <= 1 {
		return 0
	}
	var n uint
	for x > 1 {
		x >>= 1
		n++
	}
	return n
}

// New creates a List ready to accept numElements values, none of which may
// exceed largest.
func New(numElements, largest int64) *List {
	var s uint
	if numElements > 0 {
		ratio := (largest + 1) / numElements
		s = log2Floor(ratio)
	}
	upperN := numElements + (largest >> s)
	return &List{
		s:        s,
		size:     numElements,
		largest:  largest,
		lower:    newLowerBits(s, numElements),
		upper:    newUpperBits(upperN),
		upperN:   upperN,
		spillCap: defaultSpillSize,
	}
}

// Add appends elem, the next element of the sequence. elem must be >= the
// previously added element (callers that cannot guarantee this should use
// AddBatch, which checks up front).
func (l *List) Add(elem int64) error {
	if l.added >= l.size {
		return ErrOutOfBound
	}
	index := l.added
	mask := int64(1)<<l.s - 1
	val := uint64(elem & mask)
	l.lower.insert(index, val)
	k := (elem >> l.s) + index
	l.upper.set(k)
	l.added++
	return nil
}

// AddBatch appends every element of arr, first verifying the whole batch is
// nondecreasing.
func (l *List) AddBatch(arr []int64) error {
	for i := 0; i < len(arr)-1; i++ {
		if arr[i] > arr[i+1] {
			return ErrBatchNonDecreasing
		}
	}
	for _, v := range arr {
		if err := l.Add(v); err != nil {
			return err
		}
	}
	return nil
}

// Build computes the simple-select inventory over the upper bit vector,
// after which Lookup becomes available. spillGrow controls what happens
// when a sparse run (a gap between set bits spanning maxSpan or more
// positions) needs more exact-position spill storage than the default
// preallocation: if true the spill buffer grows to fit, otherwise Build
// fails with ErrSpillTooSmall.
func (l *List) Build(spillGrow bool) error {
	length := l.upperN
	numOnes := l.added
	l.numOnes = numOnes

	window := int64(1)
	if length > 0 {
		window = (numOnes*maxOnesPerInventory + length - 1) / length
	}
	if window < 1 {
		window = 1
	}
	log2OPI := log2Floor(window)
	onesPerInventory := int64(1) << log2OPI
	onesPerInventoryMask := onesPerInventory - 1
	inventorySize := (numOnes + onesPerInventory - 1) / onesPerInventory
	inventory := make([]int64, inventorySize+1)

	var d int64
	for i := int64(0); i < length; i++ {
		if l.upper.get(i) == 1 {
			if d&onesPerInventoryMask == 0 {
				inventory[d>>log2OPI] = i
			}
			d++
		}
	}
	inventory[inventorySize] = length

	var spill []int64
	if onesPerInventory > 1 {
		var invIdx, start, span int64
		d = 0
		var spilled int64
		for i := int64(0); i < length; i++ {
			if l.upper.get(i) == 1 {
				if d&onesPerInventoryMask == 0 {
					invIdx = d >> log2OPI
					start = inventory[invIdx]
					span = inventory[invIdx+1] - start
					ones := numOnes - d
					if ones > onesPerInventory {
						ones = onesPerInventory
					}
					if span >= maxSpan {
						spilled += ones
					}
				}
				d++
			}
		}

		if spilled > 0 {
			if l.spillCap < spilled {
				if !spillGrow {
					return ErrSpillTooSmall
				}
				l.spillCap = spilled
			}
			spill = make([]int64, l.spillCap)
		}

		spilled = 0
		d = 0
		for i := int64(0); i < length; i++ {
			if l.upper.get(i) == 1 {
				if d&onesPerInventoryMask == 0 {
					invIdx = d >> log2OPI
					start = inventory[invIdx]
					span = inventory[invIdx+1] - start
				}
				if span < maxSpan {
					d++
					continue
				}
				if d&onesPerInventoryMask == 0 {
					inventory[invIdx] = -(spilled + 1)
				}
				spill[spilled] = i
				spilled++
				d++
			}
		}
	}

	l.onesPerInventoryLog2 = log2OPI
	l.onesPerInventory = onesPerInventory
	l.onesPerInventoryMask = onesPerInventoryMask
	l.inventory = inventory
	l.spill = spill
	l.built = true
	return nil
}

// selectRank returns the bit position of the rank-th (0-based) set bit in
// the upper bit vector.
func (l *List) selectRank(rank int64) int64 {
	if rank < 0 || rank >= l.numOnes {
		errs.Panic(ErrOutOfBound)
	}
	invIdx := rank >> l.onesPerInventoryLog2
	inventoryRank := l.inventory[invIdx]
	subrank := rank & l.onesPerInventoryMask

	if inventoryRank < 0 {
		spillBase := -inventoryRank - 1
		return l.spill[spillBase+subrank]
	}
	if subrank == 0 {
		return inventoryRank
	}

	upperIdx := inventoryRank >> 6
	offset := inventoryRank & 63
	for k := offset + 1; k < 64; k++ {
		if l.upper.words[upperIdx]&(uint64(1)<<uint(k)) != 0 {
			subrank--
		}
		if subrank == 0 {
			return upperIdx<<6 + k
		}
	}
	upperIdx++
	ones := int64(bits.OnesCount64(l.upper.words[upperIdx]))
	for ones < subrank {
		subrank -= ones
		upperIdx++
		ones = int64(bits.OnesCount64(l.upper.words[upperIdx]))
	}
	for j := int64(0); j < 64; j++ {
		if l.upper.words[upperIdx]&(uint64(1)<<uint(j)) != 0 {
			subrank--
		}
		if subrank == 0 {
			return upperIdx<<6 + j
		}
	}
	return 0
}

// Lookup returns the index-th element of the sequence. Build must have been
// called first; calling Lookup before Build, or with an index outside
// [0, n), panics via the package's errs-based error propagation.
func (l *List) Lookup(index int64) int64 {
	if !l.built {
		errs.Panic(Error("Lookup called before Build"))
	}
	high := l.selectRank(index)
	low := l.lower.get(index)
	return (high-index)<<l.s | int64(low)
}

// Len reports the number of elements added so far.
func (l *List) Len() int64 { return l.added }

// MemoryBytes reports the approximate number of bytes occupied by the
// built structure: the packed low-bits array, the upper bit vector, the
// inventory, and any spill buffer. Mirrors the memory introspection the
// original implementation exposes per vertex-offset index (eflist_size).
func (l *List) MemoryBytes() int64 {
	n := int64(len(l.lower.words)) + int64(len(l.upper.words)) + int64(len(l.inventory)) + int64(len(l.spill))
	return 8 * n
}
