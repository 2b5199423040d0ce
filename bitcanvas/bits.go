/*
NAME
  bits.go

DESCRIPTION
  bits.go turns a serialized frame byte stream into a sequence of
  per-cell bit writes/reads, including the optional per-cell redundancy
  majority vote. Byte<->bit conversion uses icza/bitio the same way the
  rest of this module leans on small, single-purpose third-party
  packages rather than hand-rolled bit shifting.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bitcanvas

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// BytesToBits expands data into a slice of individual bits (0 or 1),
// most-significant-bit first within each byte, using a bitio.Reader.
func BytesToBits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)
	r := bitio.NewReader(bytes.NewReader(data))
	for i := 0; i < len(data)*8; i++ {
		b, err := r.ReadBool()
		if err != nil {
			break
		}
		if b {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
	}
	return bits
}

// BitsToBytes packs bits (values 0 or 1, MSB first) back into bytes,
// zero-padding the final byte. Using a bitio.Writer keeps this symmetric
// with BytesToBits.
func BitsToBytes(bits []uint8) []byte {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for _, b := range bits {
		w.WriteBool(b != 0)
	}
	w.Close()
	return buf.Bytes()
}

// ErasureObserver is notified each time a cell is decoded, before
// redundancy majority voting is applied, so callers can accumulate
// per-row health statistics.
type ErasureObserver func(cellIdx int, erasedChannels, totalChannels int)

// ErrOutOfSpace is returned when a write or read runs past the end of a
// canvas's cells.
var ErrOutOfSpace = fmt.Errorf("bitcanvas: out of cell space")

// WriteBits writes the logical bits in data to canvas c starting at
// cell startCell, grouping BitsPerCell(mode) bits per cell and repeating
// each group to `redundancy` successive cells. It returns the index of
// the next free cell.
func WriteBits(c *Canvas, startCell int, data []uint8, mode Mode, redundancy int) (int, error) {
	if redundancy < 1 {
		redundancy = 1
	}
	bpc := mode.BitsPerCell()
	cell := startCell
	for i := 0; i < len(data); i += bpc {
		group := make([]uint8, bpc)
		for j := 0; j < bpc; j++ {
			if i+j < len(data) {
				group[j] = data[i+j]
			}
		}
		for r := 0; r < redundancy; r++ {
			if cell >= c.CellCount() {
				return cell, ErrOutOfSpace
			}
			c.WriteCell(cell, group, mode)
			cell++
		}
	}
	return cell, nil
}

// FillRemaining writes the fill pattern to every cell from startCell to
// the end of the canvas.
func FillRemaining(c *Canvas, startCell int) {
	for i := startCell; i < c.CellCount(); i++ {
		c.WriteFillCell(i)
	}
}

// ReadBits reads nBits logical bits from canvas c starting at cell
// startCell, resolving each group of redundancy cells by majority vote
// per channel (ties, and all-erased groups, resolve to 0; no separate
// count of such groups is kept). obs, if non-nil, is called once per physical cell read with
// its raw erasure count, before majority voting. It returns the bits,
// the index of the next cell to read, and an error if the canvas runs
// out of cells.
func ReadBits(c *Canvas, startCell, nBits int, mode Mode, redundancy int, obs ErasureObserver) ([]uint8, int, error) {
	if redundancy < 1 {
		redundancy = 1
	}
	bpc := mode.BitsPerCell()
	out := make([]uint8, 0, nBits)
	cell := startCell
	for len(out) < nBits {
		var zeros, ones [3]int
		for r := 0; r < redundancy; r++ {
			if cell >= c.CellCount() {
				return out, cell, ErrOutOfSpace
			}
			bits, erased := c.ReadCell(cell, mode)
			erasedN := 0
			for _, e := range erased {
				if e {
					erasedN++
				}
			}
			if obs != nil {
				obs(cell, erasedN, len(bits))
			}
			for ch := range bits {
				if erased[ch] {
					continue
				}
				if bits[ch] == 0 {
					zeros[ch]++
				} else {
					ones[ch]++
				}
			}
			cell++
		}
		for ch := 0; ch < bpc; ch++ {
			var bit uint8
			if ones[ch] > zeros[ch] {
				bit = 1
			}
			out = append(out, bit)
			if len(out) == nBits {
				break
			}
		}
	}
	return out, cell, nil
}
