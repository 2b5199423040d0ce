/*
NAME
  build.go

DESCRIPTION
  build.go is the encode side of the frame format: assembling a
  CanvasPlan's bootstrap header and body into the bit sequence written
  to one canvas, and the CRC-32 helper shared by the binary and audio
  encoders.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/ausocean/pxf/bitcanvas"
)

// CRC computes the CRC-32 (IEEE) checksum of data. The binary codec passes
// payload-length || payload; the audio codec passes metadata || audio
// header || packed samples (the first two on channel 0 only). The standard library's hash/crc32 is used directly here rather than a
// third-party package; see DESIGN.md for why no example-pack library
// improves on it.
func CRC(data []byte) uint32 { return crc32.ChecksumIEEE(data) }

// CanvasPlan is everything needed to serialize and cell-place one
// canvas's worth of frame content.
type CanvasPlan struct {
	Header          Header
	Metadata        []byte // nil/empty unless this canvas carries metadata
	AudioHeaderWire []byte // nil unless audio image 0
	PayloadLenField []byte // nil unless binary image 0 (4 bytes LE)
	Payload         []byte // this canvas's share of payload bytes
}

// bytes concatenates everything written after the bootstrap header and
// before the trailer, and returns the trailer (CRC over payload-length
// (if present) + payload, followed by the end marker) appended.
func (p *CanvasPlan) bytes() []byte {
	b := make([]byte, 0, len(p.Metadata)+len(p.AudioHeaderWire)+len(p.PayloadLenField)+len(p.Payload)+6)
	b = append(b, p.Metadata...)
	b = append(b, p.AudioHeaderWire...)
	b = append(b, p.PayloadLenField...)
	b = append(b, p.Payload...)

	crcInput := make([]byte, 0, len(p.PayloadLenField)+len(p.Payload))
	crcInput = append(crcInput, p.PayloadLenField...)
	crcInput = append(crcInput, p.Payload...)
	crcBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcBytes, CRC(crcInput))

	b = append(b, crcBytes...)
	b = append(b, EndMarker[0], EndMarker[1])
	return b
}

// WriteCanvas places plan's bootstrap header (compact, redundancy 1) and
// body (the frame's configured mode/redundancy) onto canvas c, filling
// any remaining cells with the neutral fill pattern.
func WriteCanvas(c *bitcanvas.Canvas, plan *CanvasPlan) error {
	bootstrap := bitcanvas.BytesToBits(BuildBootstrap(plan.Header))
	cell, err := bitcanvas.WriteBits(c, 0, bootstrap, bitcanvas.ModeCompact, 1)
	if err != nil {
		return err
	}

	// Each body field starts on a fresh cell, the way the decoder reads
	// them back one field at a time and the encoders size them.
	body := plan.bytes()
	trailer := body[len(body)-6:]
	fields := [][]byte{plan.Metadata, plan.AudioHeaderWire, plan.PayloadLenField, plan.Payload, trailer}
	for _, f := range fields {
		cell, err = bitcanvas.WriteBits(c, cell, bitcanvas.BytesToBits(f), plan.Header.Flags.Mode, plan.Header.Flags.Redundancy)
		if err != nil {
			return err
		}
	}

	bitcanvas.FillRemaining(c, cell)
	return nil
}

// CellsForBytes returns how many cells nBytes of body content occupies
// once placed at the given mode and redundancy (bootstrap cells are not
// included; add BootstrapBits for a full canvas estimate).
func CellsForBytes(nBytes int, mode bitcanvas.Mode, redundancy int) int {
	return CellsForBits(nBytes*8, mode, redundancy)
}

// CellsForBits is CellsForBytes at bit granularity, for content that
// isn't byte-aligned (individual PCM samples at an arbitrary bit depth).
func CellsForBits(nBits int, mode bitcanvas.Mode, redundancy int) int {
	if redundancy < 1 {
		redundancy = 1
	}
	bpc := mode.BitsPerCell()
	groups := (nBits + bpc - 1) / bpc
	return groups * redundancy
}

// Side returns the smallest square grid side whose cell count is at
// least cells: ceil(sqrt(cells)).
func Side(cells int) int {
	return int(math.Ceil(math.Sqrt(float64(cells))))
}

// ChooseM returns the smallest macroblock size m in [minM, 32] such that
// a square canvas of ceil(sqrt(cells)) cells per side fits within
// maxDim pixels.
func ChooseM(cells, maxDim, minM int) (int, bool) {
	s := Side(cells)
	for m := minM; m <= 32; m++ {
		if s*m <= maxDim {
			return m, true
		}
	}
	return 0, false
}
