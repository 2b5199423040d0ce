/*
NAME
  jpeg_test.go

DESCRIPTION
  jpeg_test.go exercises the decoder's building blocks in isolation:
  the zig-zag permutation, canonical Huffman tree construction and
  decoding, the DC-only inverse DCT case (which has a closed-form
  expected value), colour conversion, and the SOI sniff.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpeg

import "testing"

func TestZigzagIsPermutation(t *testing.T) {
	var seen [blockSize]bool
	for _, v := range zigzag {
		if v < 0 || v >= blockSize {
			t.Fatalf("zigzag entry %d out of range", v)
		}
		if seen[v] {
			t.Fatalf("zigzag entry %d appears more than once", v)
		}
		seen[v] = true
	}
}

func TestBuildHuffmanTreeAndDecode(t *testing.T) {
	// Two symbols, lengths 1 and 2: 'a' -> 0, 'b' -> 10.
	spec := huffSpec{
		counts: [16]byte{1, 1},
		values: []byte{'a', 'b'},
	}
	root, err := buildHuffmanTree(spec)
	if err != nil {
		t.Fatalf("buildHuffmanTree() error = %v", err)
	}

	// Bitstream: 0 (a), 1 0 (b), 0 (a).
	data := []byte{0b01000000}
	r := newBitReader(data, 0)
	want := []byte{'a', 'b', 'a'}
	for i, w := range want {
		got, err := r.decodeSymbol(root)
		if err != nil {
			t.Fatalf("decodeSymbol(%d) error = %v", i, err)
		}
		if got != w {
			t.Errorf("decodeSymbol(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestIDCTDCOnly(t *testing.T) {
	var coeff [blockSize]int32
	coeff[0] = 80 // already-dequantized DC coefficient.
	samples := idct8x8(&coeff)
	const want = 80.0/8 + 128
	for i, v := range samples {
		if diff := v - want; diff < -0.01 || diff > 0.01 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestYCbCrToRGBGray(t *testing.T) {
	r, g, b := ycbcrToRGB(128, 128, 128)
	if r != 128 || g != 128 || b != 128 {
		t.Errorf("ycbcrToRGB(128,128,128) = (%d,%d,%d), want (128,128,128)", r, g, b)
	}
}

func TestIsJPEG(t *testing.T) {
	if !IsJPEG([]byte{0xff, 0xd8, 0xff, 0xe0}) {
		t.Error("IsJPEG() = false for a buffer starting with SOI")
	}
	if IsJPEG([]byte{0x00, 0x01}) {
		t.Error("IsJPEG() = true for a non-JPEG buffer")
	}
	if IsJPEG(nil) {
		t.Error("IsJPEG(nil) = true")
	}
}
