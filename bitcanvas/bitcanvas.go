/*
NAME
  bitcanvas.go

DESCRIPTION
  bitcanvas.go provides the deterministic mapping between a stream of bits
  and the pixels of a raster image. A canvas is divided into MxM pixel
  cells (the macroblock); each cell carries either one bit, replicated
  across all three colour channels (compact mode), or three independent
  bits, one per channel (expanded mode). Cell decode uses a threshold band
  around the inner window average so that JPEG requantization and chroma
  subsampling ringing doesn't flip a bit; values inside the band are
  reported as erased rather than guessed.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bitcanvas implements the PXF bit-layout primitives: the
// macroblock cell encoding/decoding and the canvas grid that arranges
// cells row-major across a tightly packed RGBA8 pixel buffer.
package bitcanvas

import "fmt"

// Mode selects how many logical bits a cell carries.
type Mode int

const (
	// ModeCompact replicates a single bit across R, G and B.
	ModeCompact Mode = iota
	// ModeExpanded carries three independent bits, one per channel.
	ModeExpanded
)

// BitsPerCell returns the number of logical bits a cell carries in mode m.
func (m Mode) BitsPerCell() int {
	if m == ModeExpanded {
		return 3
	}
	return 1
}

// Cell colour values. zero and one are the two data levels; fill marks a
// cell with no data and is distinguishable from both by the decode
// threshold band below.
const (
	levelZero byte = 8
	levelOne  byte = 247
	levelFill byte = 128
)

// Decode thresholds. A channel average below loThresh decodes to 0, above
// hiThresh decodes to 1; values in between are erased.
const (
	loThresh = 64
	hiThresh = 192
)

// RawImageData is a tightly packed RGBA8 raster: len(Pix) == 4*Width*Height.
// Alpha is always 255; the encoder writes it and the decoder ignores it.
type RawImageData struct {
	Width, Height int
	Pix           []byte
}

// NewRawImageData allocates a Width x Height RGBA8 buffer filled with the
// fill pattern and alpha=255.
func NewRawImageData(width, height int) *RawImageData {
	r := &RawImageData{Width: width, Height: height, Pix: make([]byte, 4*width*height)}
	for i := 0; i < width*height; i++ {
		r.Pix[4*i+0] = levelFill
		r.Pix[4*i+1] = levelFill
		r.Pix[4*i+2] = levelFill
		r.Pix[4*i+3] = 255
	}
	return r
}

// Canvas is a logical grid of MxM cells over a RawImageData.
type Canvas struct {
	Img  *RawImageData
	M    int
	Cols int
	Rows int
}

// NewCanvas allocates a canvas of cols x rows cells, each M x M pixels.
func NewCanvas(cols, rows, m int) *Canvas {
	if m < 1 || m > 32 {
		panic(fmt.Sprintf("bitcanvas: invalid macroblock size %d", m))
	}
	return &Canvas{
		Img:  NewRawImageData(cols*m, rows*m),
		M:    m,
		Cols: cols,
		Rows: rows,
	}
}

// WrapCanvas builds a Canvas view over an already-decoded RawImageData,
// inferring Cols/Rows from its dimensions and the given macroblock size.
func WrapCanvas(img *RawImageData, m int) *Canvas {
	return &Canvas{Img: img, M: m, Cols: img.Width / m, Rows: img.Height / m}
}

// Capacity returns the number of logical bits the canvas can carry in mode m.
func (c *Canvas) Capacity(m Mode) int {
	return c.Cols * c.Rows * m.BitsPerCell()
}

// CellCount returns the total number of cells in the canvas.
func (c *Canvas) CellCount() int { return c.Cols * c.Rows }

// cellOrigin returns the top-left pixel coordinate of cell index idx
// (row-major).
func (c *Canvas) cellOrigin(idx int) (x0, y0 int) {
	row := idx / c.Cols
	col := idx % c.Cols
	return col * c.M, row * c.M
}

// WriteCell writes bits (length 1 for compact, 3 for expanded) into cell
// idx, filling the whole MxM region per channel.
func (c *Canvas) WriteCell(idx int, bits []uint8, mode Mode) {
	x0, y0 := c.cellOrigin(idx)
	var v [3]byte
	if mode == ModeCompact {
		lv := levelFor(bits[0])
		v = [3]byte{lv, lv, lv}
	} else {
		v = [3]byte{levelFor(bits[0]), levelFor(bits[1]), levelFor(bits[2])}
	}
	w := c.Img.Width
	for y := y0; y < y0+c.M; y++ {
		for x := x0; x < x0+c.M; x++ {
			o := 4 * (y*w + x)
			c.Img.Pix[o+0] = v[0]
			c.Img.Pix[o+1] = v[1]
			c.Img.Pix[o+2] = v[2]
			c.Img.Pix[o+3] = 255
		}
	}
}

// WriteFillCell writes the neutral fill pattern to cell idx.
func (c *Canvas) WriteFillCell(idx int) {
	x0, y0 := c.cellOrigin(idx)
	w := c.Img.Width
	for y := y0; y < y0+c.M; y++ {
		for x := x0; x < x0+c.M; x++ {
			o := 4 * (y*w + x)
			c.Img.Pix[o+0] = levelFill
			c.Img.Pix[o+1] = levelFill
			c.Img.Pix[o+2] = levelFill
			c.Img.Pix[o+3] = 255
		}
	}
}

func levelFor(bit uint8) byte {
	if bit == 0 {
		return levelZero
	}
	return levelOne
}

// ReadCell decodes cell idx in mode m, returning one value per channel
// used (1 for compact, 3 for expanded) and a parallel erased slice.
// Decoding averages the inner (M-2)x(M-2) window when M>=3, else the
// whole cell.
func (c *Canvas) ReadCell(idx int, m Mode) (bits []uint8, erased []bool) {
	x0, y0 := c.cellOrigin(idx)
	inset := 0
	if c.M >= 3 {
		inset = 1
	}
	x1, y1 := x0+inset, y0+inset
	x2, y2 := x0+c.M-inset, y0+c.M-inset

	var sums [3]int
	n := 0
	w := c.Img.Width
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			o := 4 * (y*w + x)
			sums[0] += int(c.Img.Pix[o+0])
			sums[1] += int(c.Img.Pix[o+1])
			sums[2] += int(c.Img.Pix[o+2])
			n++
		}
	}
	nc := m.BitsPerCell()
	bits = make([]uint8, nc)
	erased = make([]bool, nc)
	for ch := 0; ch < nc; ch++ {
		avg := sums[ch] / n
		switch {
		case avg < loThresh:
			bits[ch] = 0
		case avg > hiThresh:
			bits[ch] = 1
		default:
			bits[ch] = 0
			erased[ch] = true
		}
	}
	if m == ModeCompact {
		// Compact mode replicates across channels but we only average R
		// above; use R,G,B independently and majority within the cell so
		// a single channel's ringing doesn't erase the whole cell.
		bits, erased = compactFromChannels(sums, n)
	}
	return bits, erased
}

// compactFromChannels resolves a single compact-mode bit from the three
// channel sums, treating each channel as an independent vote and only
// declaring an erasure if no clear majority exists.
func compactFromChannels(sums [3]int, n int) ([]uint8, []bool) {
	var zeros, ones, unclear int
	for ch := 0; ch < 3; ch++ {
		avg := sums[ch] / n
		switch {
		case avg < loThresh:
			zeros++
		case avg > hiThresh:
			ones++
		default:
			unclear++
		}
	}
	switch {
	case zeros > ones:
		return []uint8{0}, []bool{false}
	case ones > zeros:
		return []uint8{1}, []bool{false}
	default:
		return []uint8{0}, []bool{true}
	}
}
