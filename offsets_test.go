// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsnet/bvgraph/internal/bitio"
)

func encodeOffsetsFile(dense []int64) []byte {
	w := &testBitWriter{}
	var prev int64
	for i, off := range dense {
		if i == 0 {
			w.writeGamma(uint64(off))
		} else {
			w.writeGamma(uint64(off - prev))
		}
		prev = off
	}
	return w.bytes()
}

func TestDecodeOffsetsFile(t *testing.T) {
	dense := []int64{0, 17, 40, 40, 103}
	data := encodeOffsetsFile(dense)
	got, err := decodeOffsetsFile(data, int64(len(dense)), bitio.Gamma, 3)
	if err != nil {
		t.Fatalf("decodeOffsetsFile: %v", err)
	}
	if diff := cmp.Diff(dense, got); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOffsetsFileRejectsNonzeroFirst(t *testing.T) {
	w := &testBitWriter{}
	w.writeGamma(5) // first offset must be 0
	_, err := decodeOffsetsFile(w.bytes(), 1, bitio.Gamma, 3)
	assertKind(t, err, PropertyFileError)
}

// TestOffsetReconstructionIdempotence is property 3 (§8): offsets loaded
// from a .offsets file and offsets reconstructed by sequential scan of
// .graph must be bitwise identical.
func TestOffsetReconstructionIdempotence(t *testing.T) {
	codecs := allGammaCodecs()
	const window = 0
	const minIntervalLength = 0
	const zetaK = 3

	lists := [][]int64{{1, 2}, {2}, {3}, {}}
	gw := &testBitWriter{}
	var dense []int64
	bitPos := int64(0)
	for v, succ := range lists {
		dense = append(dense, bitPos)
		before := len(gw.bits)
		gw.writeGamma(uint64(len(succ)))
		var prev int64
		for j, s := range succ {
			if j == 0 {
				gw.writeGamma(bitio.IntToNat(s - int64(v)))
			} else {
				gw.writeGamma(uint64(s-prev) - 1)
			}
			prev = s
		}
		bitPos += int64(len(gw.bits) - before)
	}

	graphBytes := gw.bytes()
	fromFile := encodeOffsetsFile(dense)
	decodedFromFile, err := decodeOffsetsFile(fromFile, int64(len(lists)), bitio.Gamma, zetaK)
	if err != nil {
		t.Fatalf("decodeOffsetsFile: %v", err)
	}

	r := bitio.NewMemReader(graphBytes)
	reconstructed, err := reconstructOffsetsOnline(r, int64(len(lists)), window, minIntervalLength, zetaK, codecs)
	if err != nil {
		t.Fatalf("reconstructOffsetsOnline: %v", err)
	}

	if diff := cmp.Diff(decodedFromFile, reconstructed); diff != "" {
		t.Errorf("offsets differ between file and reconstruction (-file +reconstructed):\n%s", diff)
	}
	if diff := cmp.Diff(dense, reconstructed); diff != "" {
		t.Errorf("reconstructed offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestOffsetIndexLookupDense(t *testing.T) {
	idx := &offsetIndex{kind: offsetDense, dense: []int64{0, 5, 19}}
	for v, want := range idx.dense {
		got, err := idx.lookup(int64(v), 3)
		if err != nil || got != want {
			t.Errorf("lookup(%d) = %d, %v; want %d, nil", v, got, err, want)
		}
	}
	if _, err := idx.lookup(3, 3); err == nil {
		t.Error("lookup(3) on a 3-element index: want VertexOutOfRange error, got nil")
	} else {
		assertKind(t, err, VertexOutOfRange)
	}
}

func TestOffsetIndexLookupEliasFano(t *testing.T) {
	dense := []int64{0, 5, 19, 19, 1000}
	props := &Properties{Nodes: int64(len(dense))}
	idx, err := buildEliasFanoFromDense(dense, props)
	if err != nil {
		t.Fatalf("buildEliasFanoFromDense: %v", err)
	}
	for v, want := range dense {
		got, err := idx.lookup(int64(v), int64(len(dense)))
		if err != nil || got != want {
			t.Errorf("lookup(%d) = %d, %v; want %d, nil", v, got, err, want)
		}
	}
}

func TestOffsetIndexLookupNone(t *testing.T) {
	idx := &offsetIndex{kind: offsetNone}
	_, err := idx.lookup(0, 1)
	assertKind(t, err, RequiresOffsets)
}

func TestBuildOffsetIndexStepNegativeOne(t *testing.T) {
	idx, err := buildOffsetIndex(-1, nil, nil, &Properties{Nodes: 5}, nil)
	if err != nil {
		t.Fatalf("buildOffsetIndex: %v", err)
	}
	if idx.kind != offsetNone {
		t.Errorf("kind = %v, want offsetNone", idx.kind)
	}
}

func TestBuildOffsetIndexStepOneFromFile(t *testing.T) {
	dense := []int64{0, 3, 8}
	offsetsData := encodeOffsetsFile(dense)
	props := &Properties{Nodes: int64(len(dense)), Codecs: allGammaCodecs(), ZetaK: 3}
	idx, err := buildOffsetIndex(1, offsetsData, nil, props, nil)
	if err != nil {
		t.Fatalf("buildOffsetIndex: %v", err)
	}
	if idx.kind != offsetDense {
		t.Fatalf("kind = %v, want offsetDense", idx.kind)
	}
	if diff := cmp.Diff(dense, idx.dense); diff != "" {
		t.Errorf("dense offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOffsetIndexFallsBackOnBadOffsetsFile(t *testing.T) {
	codecs := allGammaCodecs()
	lists := [][]int64{{1}, {}}
	gw := &testBitWriter{}
	gw.writeGamma(1)
	gw.writeGamma(bitio.IntToNat(1 - 0))
	gw.writeGamma(0)
	props := &Properties{Nodes: int64(len(lists)), Codecs: codecs, ZetaK: 3}

	var gotEvent LoadEvent
	r := bitio.NewMemReader(gw.bytes())
	idx, err := buildOffsetIndex(1, []byte{}, r, props, func(ev LoadEvent) { gotEvent = ev })
	if err != nil {
		t.Fatalf("buildOffsetIndex: %v", err)
	}
	if idx.kind != offsetDense {
		t.Fatalf("kind = %v, want offsetDense", idx.kind)
	}
	if gotEvent.Kind != LoadEventOffsetsFallback {
		t.Errorf("expected a LoadEventOffsetsFallback event to fire")
	}
}
