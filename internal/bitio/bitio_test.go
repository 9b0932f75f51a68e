// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bitio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemReaderBasic(t *testing.T) {
	// 0xB5 = 1011_0101, 0x3C = 0011_1100
	buf := []byte{0xB5, 0x3C}
	r := NewMemReader(buf)

	want := []uint64{1, 0, 1, 1}
	for i, w := range want {
		if got := r.ReadBit(); got != w {
			t.Fatalf("bit %d: ReadBit() = %d, want %d", i, got, w)
		}
	}
	if got, want := r.ReadBits(4), uint64(0x5); got != want {
		t.Fatalf("ReadBits(4) = %#x, want %#x", got, want)
	}
	if got, want := r.Position(), uint64(8); got != want {
		t.Fatalf("Position() = %d, want %d", got, want)
	}
	if got, want := r.ReadBits(8), uint64(0x3C); got != want {
		t.Fatalf("ReadBits(8) = %#x, want %#x", got, want)
	}
}

func TestMemReaderSeek(t *testing.T) {
	buf := []byte{0xFF, 0x00, 0xAA}
	r := NewMemReader(buf)
	r.Seek(10) // byte 1, bit 2: remaining bits of 0x00 then 0xAA
	if got, want := r.Position(), uint64(10); got != want {
		t.Fatalf("Position() after Seek = %d, want %d", got, want)
	}
	if got, want := r.ReadBits(6), uint64(0); got != want {
		t.Fatalf("ReadBits(6) = %#x, want %#x", got, want)
	}
	if got, want := r.ReadBits(8), uint64(0xAA); got != want {
		t.Fatalf("ReadBits(8) = %#x, want %#x", got, want)
	}
}

func TestMemReaderUnary(t *testing.T) {
	// 0001_1000 -> 3 zeros then 1 (unary 3), then 1 (unary 0), then three trailing zeros
	buf := []byte{0x18}
	r := NewMemReader(buf)
	if got, want := r.ReadUnary(), uint64(3); got != want {
		t.Fatalf("ReadUnary() = %d, want %d", got, want)
	}
	if got, want := r.ReadUnary(), uint64(0); got != want {
		t.Fatalf("ReadUnary() = %d, want %d", got, want)
	}
}

func TestMemReaderUnexpectedEOF(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("ReadBit() past end of buffer did not panic")
		}
	}()
	r := NewMemReader(nil)
	r.ReadBit()
}

func TestFileReaderMatchesMem(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56, 0x78, 0x9A}
	dir := t.TempDir()
	path := filepath.Join(dir, "bits.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	mr := NewMemReader(buf)
	fr := NewFileReader(f)
	for i := 0; i < len(buf)*8; i++ {
		mb, fb := mr.ReadBit(), fr.ReadBit()
		if mb != fb {
			t.Fatalf("bit %d: mem=%d file=%d", i, mb, fb)
		}
	}
}

func TestFileReaderSeek(t *testing.T) {
	buf := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	dir := t.TempDir()
	path := filepath.Join(dir, "bits.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	fr := NewFileReader(f)
	fr.Seek(20) // byte 2, bit 4 into 0xBE = 1011_1110 -> remaining 1110
	if got, want := fr.ReadBits(4), uint64(0xE); got != want {
		t.Fatalf("ReadBits(4) = %#x, want %#x", got, want)
	}
}

func TestFlush(t *testing.T) {
	r := NewMemReader([]byte{0xFF, 0x00})
	r.ReadBits(3)
	r.Flush()
	if got, want := r.Position(), uint64(8); got != want {
		t.Fatalf("Position() after Flush = %d, want %d", got, want)
	}
	if got, want := r.ReadBits(8), uint64(0); got != want {
		t.Fatalf("ReadBits(8) = %#x, want %#x", got, want)
	}
}
