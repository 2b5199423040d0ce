/*
NAME
  cursor.go

DESCRIPTION
  cursor.go implements the decode side of the frame format: locating the
  macroblock size by brute-force search over the bootstrap header, then
  an opaque Cursor that streams metadata, optional audio header and
  payload bits out of a single canvas. The Cursor owns no reference back
  to facade-level state, only this canvas.

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

	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/pxferr"
)

// Infer locates the macroblock size of img by trying candidate sizes
// 1..32 and picking the first whose bootstrap header decodes to the
// exact magic sentinel and whose own M field agrees with the candidate.
func Infer(img *bitcanvas.RawImageData) (*bitcanvas.Canvas, Header, error) {
	for m := 1; m <= 32; m++ {
		cols, rows := img.Width/m, img.Height/m
		if cols < 1 || rows < 1 || cols*rows*1 < BootstrapBits {
			continue
		}
		c := bitcanvas.WrapCanvas(img, m)
		bits, _, err := bitcanvas.ReadBits(c, 0, BootstrapBits, bitcanvas.ModeCompact, 1, nil)
		if err != nil {
			continue
		}
		hb := bitcanvas.BitsToBytes(bits)
		if len(hb) < 4 || string(hb[0:4]) != Magic {
			continue
		}
		hdr, err := ParseBootstrap(hb)
		if err != nil {
			return nil, Header{}, err
		}
		if hdr.M != m {
			continue
		}
		return c, hdr, nil
	}
	return nil, Header{}, pxferr.New(pxferr.InvalidMagic, "no macroblock size 1..32 produced a valid bootstrap header")
}

// Cursor streams metadata, audio header and payload bits out of one
// canvas, starting right after the bootstrap header.
type Cursor struct {
	Canvas       *bitcanvas.Canvas
	Header       Header
	PayloadStart int // cell index where this canvas's payload region begins

	cell        int
	obs         bitcanvas.ErasureObserver
	erasedBits  int
	totalBits   int
}

// OpenCanvas infers the macroblock size, parses the bootstrap header,
// and reads the metadata block (and the audio header, for image 0 of an
// audio frame), returning a Cursor positioned at the start of the
// payload region.
func OpenCanvas(img *bitcanvas.RawImageData, obs bitcanvas.ErasureObserver) (*Cursor, Metadata, *AudioHeader, error) {
	c, hdr, err := Infer(img)
	if err != nil {
		return nil, nil, nil, err
	}
	cur := &Cursor{Canvas: c, Header: hdr, cell: BootstrapBits, obs: obs}

	md := Metadata{}
	if hdr.MetadataLen > 0 {
		b, err := cur.ReadBytes(hdr.MetadataLen)
		if err != nil {
			return nil, nil, nil, pxferr.Wrap(pxferr.Truncated, err, "reading metadata block")
		}
		md, err = ParseMetadata(b)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	var ah *AudioHeader
	if hdr.Flags.Audio && hdr.ImageIndex == 0 {
		b, err := cur.ReadBytes(AudioHeaderBytes)
		if err != nil {
			return nil, nil, nil, pxferr.Wrap(pxferr.Truncated, err, "reading audio header")
		}
		h, err := ParseAudioHeader(b)
		if err != nil {
			return nil, nil, nil, err
		}
		ah = &h
	}

	cur.PayloadStart = cur.cell
	return cur, md, ah, nil
}

// ReadBytes reads n bytes (8n logical bits) from the current cursor
// position, advancing it.
func (cur *Cursor) ReadBytes(n int) ([]byte, error) {
	bits, cell, err := bitcanvas.ReadBits(cur.Canvas, cur.cell, n*8, cur.Header.Flags.Mode, cur.Header.Flags.Redundancy, cur.observe())
	cur.cell = cell
	if err != nil {
		return nil, err
	}
	return bitcanvas.BitsToBytes(bits), nil
}

// ReadRawBits reads n logical bits from the current position without any
// byte alignment, for payloads packed at an arbitrary bit width (PCM
// samples at a non-multiple-of-8 bit depth).
func (cur *Cursor) ReadRawBits(n int) ([]uint8, error) {
	bits, cell, err := bitcanvas.ReadBits(cur.Canvas, cur.cell, n, cur.Header.Flags.Mode, cur.Header.Flags.Redundancy, cur.observe())
	cur.cell = cell
	if err != nil {
		return nil, err
	}
	return bits, nil
}

// ReadUint32 reads a little-endian uint32 from the current position.
func (cur *Cursor) ReadUint32() (uint32, error) {
	b, err := cur.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadTrailer reads the CRC-32 and end marker, reporting whether the end
// marker matched.
func (cur *Cursor) ReadTrailer() (crc uint32, endMarkerOK bool, err error) {
	// The encoders write the 6-byte trailer as one field, so it is read
	// back as one.
	b, err := cur.ReadBytes(6)
	if err != nil {
		return 0, false, err
	}
	crc = binary.LittleEndian.Uint32(b[0:4])
	endMarkerOK = b[4] == EndMarker[0] && b[5] == EndMarker[1]
	return crc, endMarkerOK, nil
}

// SeekBits repositions the cursor to logical bit offset bitOffset within
// the payload region. Only valid when the frame's mode is compact (one
// bit per cell), which is the case the audio codec relies on so sample
// boundaries always land on cell boundaries.
func (cur *Cursor) SeekBits(bitOffset int) {
	cur.cell = cur.PayloadStart + bitOffset*cur.Header.Flags.Redundancy
}

// RemainingCells returns how many cells are left unread in this canvas
// from the cursor's current position.
func (cur *Cursor) RemainingCells() int {
	return cur.Canvas.CellCount() - cur.cell
}

// Health returns the fraction of decoded channel-bits that were erased
// so far on this cursor, in [0,1].
func (cur *Cursor) Health() float64 {
	if cur.totalBits == 0 {
		return 1
	}
	return 1 - float64(cur.erasedBits)/float64(cur.totalBits)
}

func (cur *Cursor) observe() bitcanvas.ErasureObserver {
	if cur.obs == nil {
		return func(cellIdx, erasedChannels, totalChannels int) {
			cur.erasedBits += erasedChannels
			cur.totalBits += totalChannels
		}
	}
	outer := cur.obs
	return func(cellIdx, erasedChannels, totalChannels int) {
		cur.erasedBits += erasedChannels
		cur.totalBits += totalChannels
		outer(cellIdx, erasedChannels, totalChannels)
	}
}
