// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTestGraphFiles(t *testing.T, dir, name string) string {
	t.Helper()
	graphData, props := buildRefChainGraph()
	basePath := filepath.Join(dir, name)

	propText := "nodes=3\narcs=9\nwindowsize=1\nminintervallength=3\nzetak=3\n" +
		"compressionflags=OUTDEGREES=GAMMA|REFERENCES=GAMMA|BLOCKS=GAMMA|INTERVALS=GAMMA|RESIDUALS=GAMMA|OFFSETS=GAMMA\n" +
		"version=0\n"
	if err := os.WriteFile(basePath+".properties", []byte(propText), 0o644); err != nil {
		t.Fatalf("write .properties: %v", err)
	}
	if err := os.WriteFile(basePath+".graph", graphData, 0o644); err != nil {
		t.Fatalf("write .graph: %v", err)
	}
	_ = props // the on-disk .properties text above is authoritative for this test
	return basePath
}

func TestOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTestGraphFiles(t, dir, "g")

	g, err := Open(basePath, LoadOptions{OffsetStep: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer g.Close()

	if g.Nodes() != 3 || g.Arcs() != 9 {
		t.Fatalf("Nodes/Arcs = %d/%d, want 3/9", g.Nodes(), g.Arcs())
	}
	seq := walkSequential(t, g)
	want := []int64{5, 6, 7}
	for v, succ := range seq {
		if diff := cmp.Diff(want, succ); diff != "" {
			t.Errorf("vertex %d: got %v, want %v", v, succ, want)
		}
	}
}

func TestOpenFileKeepsGraphOnDisk(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTestGraphFiles(t, dir, "g")

	g, err := OpenFile(basePath, LoadOptions{OffsetStep: -1})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer g.Close()

	if g.HasOffsets() {
		t.Fatal("HasOffsets() = true for offset_step = -1")
	}
	seq := walkSequential(t, g)
	if len(seq) != 3 {
		t.Fatalf("walked %d vertices, want 3", len(seq))
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), LoadOptions{})
	assertKind(t, err, IoError)
}
