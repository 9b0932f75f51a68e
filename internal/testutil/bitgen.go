// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBin = regexp.MustCompile("^[01]{1,64}$")
	reDec = regexp.MustCompile("^D[0-9]+:[0-9]+$")
	reHex = regexp.MustCompile("^H[0-9]+:[0-9a-fA-F]{1,16}$")
	reRaw = regexp.MustCompile("^X:[0-9a-fA-F]+$")
	reQnt = regexp.MustCompile("[*][0-9]+$")
)

// reverseUint64N reverses the lower n bits of v.
func reverseUint64N(v uint64, n uint) (x uint64) {
	for i := uint(0); i < n; i++ {
		x = x<<1 | (v & 1)
		v >>= 1
	}
	return x
}

// DecodeBitGen decodes a BitGen formatted string into a byte slice. The
// format lets a test author script an exact bit-stream, byte and bit order
// under explicit control, which is useful for hand-writing fixtures for a
// bit-oriented decoder such as the one in package bitio.
//
// The format consists of a series of tokens separated by white space of any
// kind. The '#' character starts a line comment.
//
// The first valid token must either be "<<<" (least-significant-bit-first
// packing) or ">>>" (most-significant-bit-first packing, the convention a BV
// graph stream uses). This token appears exactly once, at the start.
//
// A token of the form "<" or ">" sets the bit-parsing mode for subsequent
// tokens: whether a bit-string token's right-most or left-most bit is
// written to the stream first. The format defaults to "<".
//
// A token matching "[01]{1,64}" is a literal bit-string (e.g. "11010").
//
// A token matching "D[0-9]+:[0-9]+" or "H[0-9]+:[0-9a-fA-F]{1,16}" is a
// decimal or hexadecimal value: the first number is the bit-width, the
// second the value, written according to the current bit-parsing mode.
//
// A token matching "X:[0-9a-fA-F]+" is literal bytes in hex, usable only
// when the stream is currently byte-aligned.
//
// Any token may be prefixed with "<" or ">" to override the bit-parsing mode
// for that token only, and suffixed with "*N" to repeat it N times.
//
// The resulting stream is zero-padded up to the next byte boundary.
func DecodeBitGen(str string) ([]byte, error) {
	var toks []string
	for _, s := range strings.Split(str, "\n") {
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		for _, t := range strings.Split(s, " ") {
			t = strings.TrimSpace(t)
			if len(t) > 0 {
				toks = append(toks, t)
			}
		}
	}
	if len(toks) == 0 {
		toks = append(toks, "")
	}

	var packMode bool // false: LSB-first packing, true: MSB-first packing
	switch toks[0] {
	case "<<<":
		packMode = false
	case ">>>":
		packMode = true
	default:
		return nil, errors.New("testutil: unknown stream bit-packing mode")
	}
	toks = toks[1:]

	var bw bitBuffer
	var parseMode bool // false: LE, true: BE
	for _, t := range toks {
		pm := parseMode
		if t[0] == '<' || t[0] == '>' {
			pm = t[0] == '>'
			t = t[1:]
			if len(t) == 0 {
				parseMode = pm
				continue
			}
		}

		rep := 1
		if reQnt.MatchString(t) {
			i := strings.LastIndexByte(t, '*')
			tt, tn := t[:i], t[i+1:]
			n, err := strconv.Atoi(tn)
			if err != nil {
				return nil, errors.New("testutil: invalid quantified token: " + t)
			}
			t, rep = tt, n
		}

		switch {
		case reBin.MatchString(t):
			var v uint64
			for _, b := range t {
				v <<= 1
				v |= uint64(b - '0')
			}
			if pm {
				v = reverseUint64N(v, uint(len(t)))
			}
			for i := 0; i < rep; i++ {
				bw.WriteBits64(v, uint(len(t)))
			}
		case reDec.MatchString(t) || reHex.MatchString(t):
			i := strings.IndexByte(t, ':')
			tb, tn, tv := t[0], t[1:i], t[i+1:]

			base := 10
			if tb == 'H' {
				base = 16
			}

			n, err1 := strconv.Atoi(tn)
			v, err2 := strconv.ParseUint(tv, base, 64)
			if err1 != nil || err2 != nil || n > 64 {
				return nil, errors.New("testutil: invalid numeric token: " + t)
			}
			if n < 64 && v&((1<<uint(n))-1) != v {
				return nil, errors.New("testutil: integer overflow on token: " + t)
			}
			if pm {
				v = reverseUint64N(v, uint(n))
			}
			for i := 0; i < rep; i++ {
				bw.WriteBits64(v, uint(n))
			}
		case reRaw.MatchString(t):
			tx := t[2:]
			b, err := hex.DecodeString(tx)
			if err != nil {
				return nil, errors.New("testutil: invalid raw bytes token: " + t)
			}
			b = bytes.Repeat(b, rep)
			if _, err := bw.Write(b); err != nil {
				return nil, err
			}
		default:
			return nil, errors.New("testutil: invalid token: " + t)
		}
	}

	buf := bw.Bytes()
	if packMode {
		for i, b := range buf {
			buf[i] = reverseByte(b)
		}
	}
	return buf, nil
}

func reverseByte(b byte) byte {
	b = (b&0xaa)>>1 | (b&0x55)<<1
	b = (b&0xcc)>>2 | (b&0x33)<<2
	b = (b&0xf0)>>4 | (b&0x0f)<<4
	return b
}

// bitBuffer is a minimal LSB-first bit accumulator, independent of the
// package's MSB-first bitio.Reader so this test helper carries no
// dependency on the library it is used to test.
type bitBuffer struct {
	b []byte
	m byte
}

func (b *bitBuffer) Write(buf []byte) (int, error) {
	if b.m != 0x00 {
		return 0, errors.New("testutil: unaligned write")
	}
	b.b = append(b.b, buf...)
	return len(buf), nil
}

func (b *bitBuffer) WriteBits64(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		if b.m == 0x00 {
			b.m = 0x01
			b.b = append(b.b, 0x00)
		}
		if v&(1<<i) != 0 {
			b.b[len(b.b)-1] |= b.m
		}
		b.m <<= 1
	}
}

func (b *bitBuffer) Bytes() []byte {
	return b.b
}
