/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the PXF binary decoder: recovering the macroblock
  size, frame header and metadata from each canvas, concatenating payload
  bytes across canvases for multi-image documents, validating the
  trailing CRC-32 (a non-fatal boolean, always returned alongside the
  recovered bytes), and surfacing per-row health statistics.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package binary

import (
	"encoding/binary"

	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/config"
	"github.com/ausocean/pxf/frame"
	"github.com/ausocean/pxf/pxferr"
)

// Result is the outcome of a binary decode. A checksum mismatch is not
// an error: CRC failure is reported here and the recovered bytes are
// always returned.
type Result struct {
	Data          []byte
	ValidChecksum bool
}

// DebugSink collects row-level and overall health statistics, expressed
// as a fraction in [0,1]; the facade passes them through unchanged.
type DebugSink struct {
	RowHealth     [][]float64 // per canvas, per row
	OverallHealth float64
}

// openedCanvas bundles a canvas's cursor with the per-row erasure tallies
// accumulated while reading it.
type openedCanvas struct {
	cur                 *frame.Cursor
	md                  frame.Metadata
	rowErased, rowTotal []int
}

// Decode recovers the payload from an ordered list of canvases. debug
// and logger may both be nil; when logger is set, per-canvas row health
// is logged at config.Debug (only if debug is also non-nil) and the
// payload length and checksum outcome at config.Info.
func Decode(canvases []*bitcanvas.RawImageData, debug *DebugSink, logger config.Logger) (Result, error) {
	opens, erasedTotal, bitsTotal, err := openAll(canvases)
	if err != nil {
		return Result{}, err
	}
	if err := verifyIndexing(opens); err != nil {
		return Result{}, err
	}

	first := opens[0]
	var payloadLen uint32
	if !first.cur.Header.Flags.Audio {
		payloadLen, err = first.cur.ReadUint32()
		if err != nil {
			return Result{}, err
		}
	}

	payload := make([]byte, 0, payloadLen)
	for i := range opens {
		cur := opens[i].cur
		isLast := i == len(opens)-1
		remaining := int(payloadLen) - len(payload)

		n := remaining
		if !isLast {
			if avail := availableBytesInCanvas(cur); avail < n {
				n = avail
			}
		}
		b, err := cur.ReadBytes(n)
		if err != nil {
			return Result{}, pxferr.Wrap(pxferr.Truncated, err, "reading payload chunk")
		}
		payload = append(payload, b...)
	}

	last := opens[len(opens)-1].cur
	crc, _, err := last.ReadTrailer()
	if err != nil {
		return Result{}, pxferr.Wrap(pxferr.Truncated, err, "reading trailer")
	}

	crcInput := make([]byte, 0, 4+len(payload))
	lb := make([]byte, 4)
	binary.LittleEndian.PutUint32(lb, payloadLen)
	crcInput = append(crcInput, lb...)
	crcInput = append(crcInput, payload...)
	valid := frame.CRC(crcInput) == crc

	if debug != nil {
		for ci, o := range opens {
			rows := make([]float64, len(o.rowTotal))
			for r := range rows {
				if o.rowTotal[r] == 0 {
					rows[r] = 1
					continue
				}
				rows[r] = 1 - float64(o.rowErased[r])/float64(o.rowTotal[r])
				if logger != nil {
					logger.Log(config.Debug, "row health", ci, r, rows[r])
				}
			}
			debug.RowHealth = append(debug.RowHealth, rows)
		}
		if bitsTotal == 0 {
			debug.OverallHealth = 1
		} else {
			debug.OverallHealth = 1 - float64(erasedTotal)/float64(bitsTotal)
		}
	}
	if logger != nil {
		logger.Log(config.Info, "decode complete", len(payload), valid)
	}

	return Result{Data: payload, ValidChecksum: valid}, nil
}

// openAll opens every canvas, wiring an erasure observer that attributes
// each decoded cell to its row for health reporting.
func openAll(canvases []*bitcanvas.RawImageData) ([]openedCanvas, int, int, error) {
	if len(canvases) == 0 {
		return nil, 0, 0, pxferr.New(pxferr.InvalidInput, "no canvases supplied")
	}
	opens := make([]openedCanvas, len(canvases))
	var erasedTotal, bitsTotal int
	for i, img := range canvases {
		cols, _, err := canvasGeometry(img)
		if err != nil {
			return nil, 0, 0, err
		}
		oc := &opens[i]
		obs := func(cellIdx, erased, total int) {
			row := cellIdx / cols
			for len(oc.rowErased) <= row {
				oc.rowErased = append(oc.rowErased, 0)
				oc.rowTotal = append(oc.rowTotal, 0)
			}
			oc.rowErased[row] += erased
			oc.rowTotal[row] += total
			erasedTotal += erased
			bitsTotal += total
		}
		cur, md, _, err := frame.OpenCanvas(img, obs)
		if err != nil {
			return nil, 0, 0, err
		}
		oc.cur, oc.md = cur, md
	}
	return opens, erasedTotal, bitsTotal, nil
}

func verifyIndexing(opens []openedCanvas) error {
	n := opens[0].cur.Header.ImageCount
	if len(opens) != n {
		return pxferr.Newf(pxferr.BadMetadata, "expected %d images, got %d", n, len(opens))
	}
	seen := make([]bool, n)
	for _, o := range opens {
		idx := o.cur.Header.ImageIndex
		if idx < 0 || idx >= n || seen[idx] {
			return pxferr.New(pxferr.BadMetadata, "image indices are not 0..count-1 with no gaps")
		}
		seen[idx] = true
		if o.cur.Header.ImageCount != n {
			return pxferr.New(pxferr.BadMetadata, "inconsistent image count across canvases")
		}
	}
	return nil
}

// availableBytesInCanvas returns how many whole payload bytes remain in
// cur's canvas from its current position to the end of its cells.
func availableBytesInCanvas(cur *frame.Cursor) int {
	bpc := cur.Header.Flags.Mode.BitsPerCell()
	r := cur.Header.Flags.Redundancy
	if r < 1 {
		r = 1
	}
	groups := cur.RemainingCells() / r
	bits := groups * bpc
	return bits / 8
}

func canvasGeometry(img *bitcanvas.RawImageData) (cols, rows int, err error) {
	c, _, err := frame.Infer(img)
	if err != nil {
		return 0, 0, err
	}
	return c.Cols, c.Rows, nil
}

// Metadata returns the metadata dictionary and header carried by image
// 0, without decoding the payload. Used by the facade's
// DecodeMetadataOnly.
func Metadata(canvases []*bitcanvas.RawImageData) (frame.Metadata, frame.Header, error) {
	if len(canvases) == 0 {
		return nil, frame.Header{}, pxferr.New(pxferr.InvalidInput, "no canvases supplied")
	}
	cur, md, _, err := frame.OpenCanvas(canvases[0], nil)
	if err != nil {
		return nil, frame.Header{}, err
	}
	return md, cur.Header, nil
}
