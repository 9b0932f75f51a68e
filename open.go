// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"os"
)

// Open loads the graph at basePath (basePath+".properties", basePath+
// ".graph", and optionally basePath+".offsets") into owned, in-memory
// buffers. Use OpenFile to keep .graph on disk with offset_step == -1.
func Open(basePath string, opts LoadOptions) (*Graph, error) {
	props, err := readProperties(basePath)
	if err != nil {
		return nil, err
	}
	graphData, err := os.ReadFile(basePath + ".graph")
	if err != nil {
		return nil, wrapError(IoError, "reading .graph", err)
	}
	return openWithBytes(props, graphData, "", opts, basePath)
}

// OpenFile loads basePath+".properties" but keeps basePath+".graph" on
// disk, reading it through a file-backed BITFILE. This is the form
// offset_step == -1 is meant for (§4.4): iteration is sequential-only
// unless an offset index is also requested.
func OpenFile(basePath string, opts LoadOptions) (*Graph, error) {
	props, err := readProperties(basePath)
	if err != nil {
		return nil, err
	}
	graphPath := basePath + ".graph"
	if _, err := os.Stat(graphPath); err != nil {
		return nil, wrapError(IoError, "stat .graph", err)
	}
	return openFileBacked(props, graphPath, opts, basePath)
}

// OpenBytes loads a graph from caller-owned buffers, borrowing them rather
// than copying: props must already be parsed (see ParseProperties),
// graphData is the full .graph contents, and offsetsData, if non-nil, is
// the full .offsets contents. This is the supplemented external-buffer
// constructor (§9 Design Notes, SPEC_FULL.md item 2) mirroring the
// original's bvgraph_load_external.
func OpenBytes(props *Properties, graphData, offsetsData []byte, opts LoadOptions) (*Graph, error) {
	if opts.Offsets == nil {
		opts.Offsets = offsetsData
	}
	return buildGraph(*props, graphData, "", opts)
}

func readProperties(basePath string) (*Properties, error) {
	data, err := os.ReadFile(basePath + ".properties")
	if err != nil {
		return nil, wrapError(IoError, "reading .properties", err)
	}
	return ParseProperties(data)
}

func openWithBytes(props *Properties, graphData []byte, graphPath string, opts LoadOptions, basePath string) (*Graph, error) {
	if opts.Offsets == nil {
		if data, err := os.ReadFile(basePath + ".offsets"); err == nil {
			opts.Offsets = data
		}
	}
	return buildGraph(*props, graphData, graphPath, opts)
}

func openFileBacked(props *Properties, graphPath string, opts LoadOptions, basePath string) (*Graph, error) {
	if opts.Offsets == nil {
		if data, err := os.ReadFile(basePath + ".offsets"); err == nil {
			opts.Offsets = data
		}
	}
	return buildGraph(*props, nil, graphPath, opts)
}

func buildGraph(props Properties, graphData []byte, graphPath string, opts LoadOptions) (*Graph, error) {
	g := &Graph{
		props:     props,
		graphData: graphData,
		graphPath: graphPath,
	}

	if opts.OffsetStep == 0 && graphData == nil {
		data, err := os.ReadFile(graphPath)
		if err != nil {
			return nil, wrapError(IoError, "reading .graph", err)
		}
		g.graphData = data
		g.graphPath = ""
	}

	step := opts.OffsetStep
	if step == -1 {
		g.offsets = &offsetIndex{kind: offsetNone}
		return g, nil
	}

	r, err := g.newReader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx, err := buildOffsetIndex(step, opts.Offsets, r, &g.props, opts.OnEvent)
	if err != nil {
		return nil, err
	}
	g.offsets = idx
	return g, nil
}
