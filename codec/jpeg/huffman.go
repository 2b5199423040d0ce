/*
NAME
  huffman.go

DESCRIPTION
  huffman.go is the entropy-coded segment bit reader: MSB-first bit
  extraction with 0xff00 byte-destuffing and restart-marker detection,
  canonical Huffman symbol decoding by walking an hcnode tree built in
  tables.go, and the DC/AC coefficient decode per Annex F.2.2 (the
  "receive and extend" magnitude category scheme).

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

import "github.com/ausocean/pxf/pxferr"

// bitReader reads MSB-first bits out of an entropy-coded scan,
// transparently removing 0xff00 byte stuffing and stopping at the
// first real marker (restart or otherwise) it encounters.
type bitReader struct {
	data     []byte
	pos      int
	bitBuf   uint32
	nBits    uint
	atMarker bool
	marker   byte
}

func newBitReader(data []byte, pos int) *bitReader {
	return &bitReader{data: data, pos: pos}
}

// fill tops up the bit buffer, returning false once a marker has been
// reached and no more entropy-coded bits remain.
func (r *bitReader) fill() bool {
	for r.nBits <= 24 {
		if r.atMarker || r.pos >= len(r.data) {
			return r.nBits > 0
		}
		b := r.data[r.pos]
		r.pos++
		if b == 0xff {
			if r.pos >= len(r.data) {
				return r.nBits > 0
			}
			next := r.data[r.pos]
			if next == 0x00 {
				r.pos++ // destuff: literal 0xff byte.
			} else {
				r.atMarker = true
				r.marker = next
				r.pos++
				return r.nBits > 0
			}
		}
		r.bitBuf = r.bitBuf<<8 | uint32(b)
		r.nBits += 8
	}
	return true
}

func (r *bitReader) readBit() (uint32, error) {
	if r.nBits == 0 && !r.fill() {
		return 0, pxferr.New(pxferr.Truncated, "entropy-coded segment ran out of bits")
	}
	if r.nBits == 0 {
		return 0, pxferr.New(pxferr.Truncated, "entropy-coded segment ran out of bits")
	}
	r.nBits--
	bit := (r.bitBuf >> r.nBits) & 1
	return bit, nil
}

func (r *bitReader) readBits(n uint) (uint32, error) {
	var v uint32
	for i := uint(0); i < n; i++ {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | bit
	}
	return v, nil
}

// decodeSymbol walks root one bit at a time until it reaches a leaf.
func (r *bitReader) decodeSymbol(root *hcnode) (byte, error) {
	n := root
	for !n.leaf {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			n = n.right
		} else {
			n = n.left
		}
		if n == nil {
			return 0, pxferr.New(pxferr.CorruptJpeg, "invalid huffman code in scan data")
		}
	}
	return n.symbol, nil
}

// receiveExtend reads an s-bit magnitude category value and sign-
// extends it per Annex F.2.2.1 (Table F.1's "EXTEND" procedure).
func (r *bitReader) receiveExtend(s byte) (int32, error) {
	if s == 0 {
		return 0, nil
	}
	v, err := r.readBits(uint(s))
	if err != nil {
		return 0, err
	}
	vt := int32(1) << (s - 1)
	if int32(v) < vt {
		return int32(v) - (int32(1)<<s - 1), nil
	}
	return int32(v), nil
}

// resyncToMarker discards buffered bits and returns the marker byte
// the reader last stopped on (set by fill when it hits a non-stuffed
// 0xff), consuming past it so the segment parser resumes cleanly.
func (r *bitReader) resyncToMarker() (byte, error) {
	for !r.atMarker {
		if !r.fill() {
			return 0, pxferr.New(pxferr.Truncated, "scan ended without a marker")
		}
		if r.nBits > 0 {
			// Discard any bits left over from the current byte; they're
			// padding added by the encoder before the marker.
			r.nBits = 0
			r.bitBuf = 0
		}
	}
	return r.marker, nil
}
