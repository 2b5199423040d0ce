/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements the PXF binary encoder: packing an arbitrary byte
  payload and a metadata dictionary into one or more canvases, choosing
  the macroblock size, and splitting across multiple canvases when a
  single one can't hold the payload at the configured maximum dimension.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package binary implements the PXF binary encoder and decoder: packing
// arbitrary byte payloads into one or more canvases, and recovering them
// with row-level health scoring.
package binary

import (
	"encoding/binary"
	"math"

	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/frame"
	"github.com/ausocean/pxf/pxferr"
)

// minSingleCanvasM is the smallest macroblock size the single-canvas
// path will choose; M=1 is reserved for the audio codec, which doesn't
// need the chroma-averaging margin a binary payload benefits from.
const minSingleCanvasM = 2

// Mode selects the bit-packing mode; ModeAuto lets the encoder pick.
type Mode int

const (
	ModeAuto Mode = iota
	ModeCompact
	ModeExpanded
)

// Options configures the binary encoder.
type Options struct {
	MaxDim     int // default 4096
	Mode       Mode
	Redundancy int // 1, 3 or 5; default 1

	// OnProgress, if set, is called with a 0-100 percent complete value
	// after each canvas is written; progress within a canvas is not
	// reported. An error returned aborts the encode and is propagated
	// unchanged.
	OnProgress func(percent int) error
}

func (o Options) normalize() Options {
	if o.MaxDim <= 0 {
		o.MaxDim = 4096
	}
	if o.Redundancy == 0 {
		o.Redundancy = 1
	}
	return o
}

const maxPayloadBytes = 1 << 32 // payloads at or above 4 GiB are rejected.

// Encode packs payload and md into one or more RawImageData canvases.
func Encode(payload []byte, md frame.Metadata, opts Options) ([]*bitcanvas.RawImageData, error) {
	opts = opts.normalize()

	if len(payload) >= maxPayloadBytes {
		return nil, pxferr.New(pxferr.InvalidInput, "payload too large")
	}
	mdBytes, err := md.Bytes()
	if err != nil {
		return nil, err
	}

	bcMode, redundancy := chooseMode(opts, len(mdBytes), len(payload))

	bootstrapCells := frame.BootstrapBits
	mdCells := frame.CellsForBytes(len(mdBytes), bcMode, redundancy)
	lenCells := frame.CellsForBytes(4, bcMode, redundancy)
	crcEndCells := frame.CellsForBytes(6, bcMode, redundancy)
	payloadCells := frame.CellsForBytes(len(payload), bcMode, redundancy)

	singleCanvasCells := bootstrapCells + mdCells + lenCells + crcEndCells + payloadCells
	if m, ok := frame.ChooseM(singleCanvasCells, opts.MaxDim, minSingleCanvasM); ok {
		side := frame.Side(singleCanvasCells)
		canvas := bitcanvas.NewCanvas(side, side, m)
		plan := &frame.CanvasPlan{
			Header: frame.Header{
				Version: frame.Version,
				Flags: frame.Flags{
					Mode:       bcMode,
					MultiImage: false,
					Redundancy: redundancy,
				},
				M:           m,
				ImageIndex:  0,
				ImageCount:  1,
				MetadataLen: len(mdBytes),
			},
			Metadata:        mdBytes,
			PayloadLenField: lenField(len(payload)),
			Payload:         payload,
		}
		if err := frame.WriteCanvas(canvas, plan); err != nil {
			return nil, err
		}
		if err := report(opts.OnProgress, 100); err != nil {
			return nil, err
		}
		return []*bitcanvas.RawImageData{canvas.Img}, nil
	}

	return encodeMulti(payload, mdBytes, bcMode, redundancy, opts)
}

// chooseMode resolves ModeAuto: prefer compact while its cell count plus
// a 10% margin fits the largest single-canvas cell budget (M=2 at
// MaxDim), since compact mode is more robust to single-channel chroma
// loss; otherwise use expanded.
func chooseMode(opts Options, mdLen, payloadLen int) (bitcanvas.Mode, int) {
	redundancy := opts.Redundancy
	switch opts.Mode {
	case ModeCompact:
		return bitcanvas.ModeCompact, redundancy
	case ModeExpanded:
		return bitcanvas.ModeExpanded, redundancy
	default:
		totalBits := (mdLen + 4 + 6 + payloadLen) * 8
		compactCellsNeeded := totalBits * redundancy
		budget := (opts.MaxDim / 2) * (opts.MaxDim / 2) // largest single-canvas cell budget, at M=2
		if float64(compactCellsNeeded)*1.1 < float64(budget) {
			return bitcanvas.ModeCompact, redundancy
		}
		return bitcanvas.ModeExpanded, redundancy
	}
}

func lenField(n int) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(n))
	return b
}

func report(cb func(int) error, pct int) error {
	if cb == nil {
		return nil
	}
	return cb(pct)
}

// encodeMulti splits payload across multiple M=2 canvases sized to
// maxDim, each carrying its own bootstrap header, canvas 0 additionally
// carrying metadata and the payload-length field, and the last canvas
// carrying the CRC-32 trailer and end marker.
func encodeMulti(payload, mdBytes []byte, mode bitcanvas.Mode, redundancy int, opts Options) ([]*bitcanvas.RawImageData, error) {
	const m = 2
	colsRows := opts.MaxDim / m
	if colsRows < 1 {
		return nil, pxferr.New(pxferr.InvalidInput, "max_dim too small to place any cell")
	}
	capacity := colsRows * colsRows

	fixedOnce := frame.CellsForBytes(len(mdBytes), mode, redundancy) +
		frame.CellsForBytes(4, mode, redundancy) +
		frame.CellsForBytes(6, mode, redundancy)
	payloadCellsTotal := frame.CellsForBytes(len(payload), mode, redundancy)

	n := 1
	for i := 0; i < 8; i++ {
		total := n*frame.BootstrapBits + fixedOnce + payloadCellsTotal
		need := int(math.Ceil(float64(total) / float64(capacity)))
		if need <= n {
			break
		}
		n = need
	}
	if n < 1 {
		n = 1
	}

	canvases := make([]*bitcanvas.RawImageData, n)
	payloadOff := 0
	for i := 0; i < n; i++ {
		canvas := bitcanvas.NewCanvas(colsRows, colsRows, m)
		avail := capacity - frame.BootstrapBits
		plan := &frame.CanvasPlan{
			Header: frame.Header{
				Version: frame.Version,
				Flags: frame.Flags{
					Mode:       mode,
					MultiImage: true,
					Redundancy: redundancy,
				},
				M:          m,
				ImageIndex: i,
				ImageCount: n,
			},
		}
		if i == 0 {
			plan.Metadata = mdBytes
			plan.Header.MetadataLen = len(mdBytes)
			plan.PayloadLenField = lenField(len(payload))
			avail -= frame.CellsForBytes(len(mdBytes), mode, redundancy)
			avail -= frame.CellsForBytes(4, mode, redundancy)
		}
		isLast := i == n-1
		if isLast {
			avail -= frame.CellsForBytes(6, mode, redundancy)
		}
		chunkBytes := bytesForCells(avail, mode, redundancy)
		remaining := len(payload) - payloadOff
		if chunkBytes > remaining {
			chunkBytes = remaining
		}
		plan.Payload = payload[payloadOff : payloadOff+chunkBytes]
		payloadOff += chunkBytes

		if err := frame.WriteCanvas(canvas, plan); err != nil {
			return nil, err
		}
		canvases[i] = canvas.Img
		if err := report(opts.OnProgress, (i+1)*100/n); err != nil {
			return nil, err
		}
	}
	if payloadOff != len(payload) {
		return nil, pxferr.New(pxferr.InvalidInput, "payload did not fit within computed canvas count")
	}
	return canvases, nil
}

func bytesForCells(cells int, mode bitcanvas.Mode, redundancy int) int {
	if cells <= 0 {
		return 0
	}
	if redundancy < 1 {
		redundancy = 1
	}
	groups := cells / redundancy
	bits := groups * mode.BitsPerCell()
	return bits / 8
}
