// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bvgraph

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/dsnet/bvgraph/internal/bitio"
)

// CodecSet is the resolved, per-field choice of universal code, dispatched
// once at load time rather than re-examined per bit (§9 Design Notes:
// "Polymorphic codes ... dispatched once per iterator construction into a
// concrete decode function").
type CodecSet struct {
	Outdegrees bitio.Coding
	References bitio.Coding
	Blocks     bitio.Coding
	Intervals  bitio.Coding
	Residuals  bitio.Coding
	Offsets    bitio.Coding
}

// Properties holds the fields of a .properties file relevant to decoding
// (§6). Properties parsing beyond these fields is explicitly out of scope
// (spec.md §1).
type Properties struct {
	Nodes             int64
	Arcs              int64
	WindowSize        int
	MaxRefCount       int
	MinIntervalLength int
	ZetaK             uint
	Version           int
	Codecs            CodecSet
	BitsPerLink       float64
}

// fieldsAllowingNibble names the compressionflags fields with a natural
// finite bound at decode time: REFERENCES is bounded by min(v, W) and
// BLOCKS by the reference-list entries not yet consumed. OUTDEGREES, INTERVALS,
// RESIDUALS, and OFFSETS encode values with no such bound, so NIBBLE there
// is rejected up front rather than discovered as a decode-time panic.
var fieldsAllowingNibble = map[string]bool{
	"REFERENCES": true,
	"BLOCKS":     true,
}

// ParseProperties parses the key=value, '#'-commented text format described
// in §6.
func ParseProperties(data []byte) (*Properties, error) {
	p := &Properties{MinIntervalLength: -1} // sentinel: "not yet seen"
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 0 {
			return nil, newError(PropertyFileError, "line missing '=': "+line)
		}
		key := strings.ToLower(strings.TrimSpace(line[:i]))
		val := strings.TrimSpace(line[i+1:])

		switch key {
		case "nodes":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, wrapError(PropertyFileError, "nodes", err)
			}
			p.Nodes = n
		case "arcs":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, wrapError(PropertyFileError, "arcs", err)
			}
			p.Arcs = n
		case "windowsize":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, wrapError(PropertyFileError, "windowsize", err)
			}
			p.WindowSize = n
		case "maxrefcount":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, wrapError(PropertyFileError, "maxrefcount", err)
			}
			p.MaxRefCount = n
		case "minintervallength":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, wrapError(PropertyFileError, "minintervallength", err)
			}
			p.MinIntervalLength = n
		case "zetak":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return nil, wrapError(PropertyFileError, "zetak", err)
			}
			p.ZetaK = uint(n)
		case "version":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, wrapError(PropertyFileError, "version", err)
			}
			p.Version = n
		case "compressionflags":
			if err := parseCompressionFlags(p, val); err != nil {
				return nil, err
			}
		case "bitsperlink":
			f, err := strconv.ParseFloat(val, 64)
			if err == nil {
				p.BitsPerLink = f
			}
		default:
			// Unrecognized keys are ignored: a .properties file produced by
			// the original tooling carries many fields (avgdist, compratio,
			// ...) this decoder has no use for (spec.md §1).
		}
		seen[key] = true
	}
	if err := sc.Err(); err != nil {
		return nil, wrapError(IoError, "reading properties", err)
	}

	for _, req := range []string{"nodes", "arcs", "compressionflags"} {
		if !seen[req] {
			return nil, newError(PropertyFileError, "missing required key: "+req)
		}
	}
	if p.MinIntervalLength < 0 {
		p.MinIntervalLength = 0
	}
	if p.ZetaK == 0 {
		p.ZetaK = 3
	}
	if p.Version != 0 {
		return nil, newError(UnsupportedVersion, strconv.Itoa(p.Version))
	}
	return p, nil
}

func parseCompressionFlags(p *Properties, val string) error {
	if val == "" {
		return nil
	}
	for _, term := range strings.Split(val, "|") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		i := strings.IndexByte(term, '=')
		if i < 0 {
			return newError(PropertyFileCompressionFlagError, term)
		}
		field := strings.ToUpper(strings.TrimSpace(term[:i]))
		name := strings.ToUpper(strings.TrimSpace(term[i+1:]))

		coding, ok := bitio.ParseCoding(name)
		if !ok {
			return newError(PropertyFileCompressionFlagError, term)
		}
		if coding == bitio.Nibble && !fieldsAllowingNibble[field] {
			return newError(UnsupportedCoding, field+" cannot use NIBBLE (no finite bound)")
		}

		switch field {
		case "OUTDEGREES":
			p.Codecs.Outdegrees = coding
		case "REFERENCES":
			p.Codecs.References = coding
		case "BLOCKS":
			p.Codecs.Blocks = coding
		case "INTERVALS":
			p.Codecs.Intervals = coding
		case "RESIDUALS":
			p.Codecs.Residuals = coding
		case "OFFSETS":
			p.Codecs.Offsets = coding
		default:
			return newError(PropertyFileCompressionFlagError, term)
		}
	}
	return nil
}
