/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements the PXF audio encoder: one canvas per channel,
  each carrying its own bootstrap header, image 0 additionally carrying
  the metadata dictionary and the audio header (sample rate, total
  samples per channel, channel count, bit depth), samples packed at a
  configurable bit depth instead of the binary codec's byte-aligned
  payload.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package audio implements the PXF audio encoder and streaming decoder:
// one canvas per channel, samples packed at a chosen bit depth, always
// in compact mode so a sample index always lands on a cell boundary.
package audio

import (
	"github.com/go-audio/audio"

	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/frame"
	"github.com/ausocean/pxf/pxferr"
)

// Options configures the audio encoder.
type Options struct {
	BitsPerSample int // 8, 12, 16 or 24; default 16
	Redundancy    int // 1, 3 or 5; default 1
	MaxDim        int // default 4096

	// OnProgress, if set, is called with a 0-100 percent complete value
	// after each channel canvas is written.
	OnProgress func(percent int) error
}

func (o Options) normalize() Options {
	if o.BitsPerSample == 0 {
		o.BitsPerSample = 16
	}
	if o.Redundancy == 0 {
		o.Redundancy = 1
	}
	if o.MaxDim <= 0 {
		o.MaxDim = 4096
	}
	return o
}

const minBitsPerSample, maxBitsPerSample = 4, 24

// Encode packs buf (interleaved PCM, one channel's worth of int samples
// per frame) into one canvas per channel.
func Encode(buf *audio.IntBuffer, md frame.Metadata, opts Options) ([]*bitcanvas.RawImageData, error) {
	opts = opts.normalize()
	if opts.BitsPerSample < minBitsPerSample || opts.BitsPerSample > maxBitsPerSample {
		return nil, pxferr.Newf(pxferr.InvalidInput, "unsupported bits_per_sample %d", opts.BitsPerSample)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, pxferr.New(pxferr.InvalidInput, "invalid audio buffer")
	}
	nCh := buf.Format.NumChannels
	if len(buf.Data)%nCh != 0 {
		return nil, pxferr.New(pxferr.InvalidInput, "sample data not evenly divisible by channel count")
	}
	totalPerChannel := len(buf.Data) / nCh

	mdBytes, err := md.Bytes()
	if err != nil {
		return nil, err
	}
	ah := frame.AudioHeader{
		SampleRate:             uint32(buf.Format.SampleRate),
		TotalSamplesPerChannel: uint32(totalPerChannel),
		ChannelCount:           uint8(nCh),
		BitsPerSample:          uint8(opts.BitsPerSample),
	}
	ahBytes := frame.BuildAudioHeader(ah)

	canvases := make([]*bitcanvas.RawImageData, nCh)
	for ch := 0; ch < nCh; ch++ {
		sampleBits := make([]uint8, 0, totalPerChannel*opts.BitsPerSample)
		for i := 0; i < totalPerChannel; i++ {
			v, _ := clampSample(buf.Data[i*nCh+ch], opts.BitsPerSample)
			sampleBits = append(sampleBits, packSample(v, opts.BitsPerSample)...)
		}

		mdCells, ahCells := 0, 0
		if ch == 0 {
			mdCells = frame.CellsForBytes(len(mdBytes), bitcanvas.ModeCompact, opts.Redundancy)
			ahCells = frame.CellsForBytes(len(ahBytes), bitcanvas.ModeCompact, opts.Redundancy)
		}
		sampleCells := frame.CellsForBits(len(sampleBits), bitcanvas.ModeCompact, opts.Redundancy)
		trailerCells := frame.CellsForBytes(6, bitcanvas.ModeCompact, opts.Redundancy)
		totalCells := frame.BootstrapBits + mdCells + ahCells + sampleCells + trailerCells

		m, ok := frame.ChooseM(totalCells, opts.MaxDim, 1)
		if !ok {
			return nil, pxferr.New(pxferr.InvalidInput, "audio channel too large for max_dim")
		}
		side := frame.Side(totalCells)
		canvas := bitcanvas.NewCanvas(side, side, m)

		hdr := frame.Header{
			Version: frame.Version,
			Flags: frame.Flags{
				Mode:       bitcanvas.ModeCompact,
				Audio:      true,
				MultiImage: nCh > 1,
				Redundancy: opts.Redundancy,
			},
			M:          m,
			ImageIndex: ch,
			ImageCount: nCh,
		}
		chMd, chAh := []byte(nil), []byte(nil)
		if ch == 0 {
			hdr.MetadataLen = len(mdBytes)
			chMd, chAh = mdBytes, ahBytes
		}

		if err := writeChannelCanvas(canvas, hdr, chMd, chAh, sampleBits); err != nil {
			return nil, err
		}
		canvases[ch] = canvas.Img

		if opts.OnProgress != nil {
			if err := opts.OnProgress((ch + 1) * 100 / nCh); err != nil {
				return nil, err
			}
		}
	}
	return canvases, nil
}

// writeChannelCanvas places the bootstrap header (compact, redundancy 1),
// then the body (metadata + audio header, image 0 only, then the packed
// sample bits, all at the frame's configured redundancy), then the
// CRC-32 trailer and end marker, all compact mode throughout.
func writeChannelCanvas(c *bitcanvas.Canvas, hdr frame.Header, mdBytes, ahBytes []byte, sampleBits []uint8) error {
	bootstrap := bitcanvas.BytesToBits(frame.BuildBootstrap(hdr))
	cell, err := bitcanvas.WriteBits(c, 0, bootstrap, bitcanvas.ModeCompact, 1)
	if err != nil {
		return err
	}

	r := hdr.Flags.Redundancy
	crcInput := make([]byte, 0, len(mdBytes)+len(ahBytes)+(len(sampleBits)+7)/8)
	crcInput = append(crcInput, mdBytes...)
	crcInput = append(crcInput, ahBytes...)

	if len(mdBytes) > 0 {
		cell, err = bitcanvas.WriteBits(c, cell, bitcanvas.BytesToBits(mdBytes), bitcanvas.ModeCompact, r)
		if err != nil {
			return err
		}
	}
	if len(ahBytes) > 0 {
		cell, err = bitcanvas.WriteBits(c, cell, bitcanvas.BytesToBits(ahBytes), bitcanvas.ModeCompact, r)
		if err != nil {
			return err
		}
	}
	cell, err = bitcanvas.WriteBits(c, cell, sampleBits, bitcanvas.ModeCompact, r)
	if err != nil {
		return err
	}
	crcInput = append(crcInput, bitcanvas.BitsToBytes(sampleBits)...)

	trailer := make([]byte, 0, 6)
	crcBytes := make([]byte, 4)
	putUint32LE(crcBytes, frame.CRC(crcInput))
	trailer = append(trailer, crcBytes...)
	trailer = append(trailer, frame.EndMarker[0], frame.EndMarker[1])
	cell, err = bitcanvas.WriteBits(c, cell, bitcanvas.BytesToBits(trailer), bitcanvas.ModeCompact, r)
	if err != nil {
		return err
	}

	bitcanvas.FillRemaining(c, cell)
	return nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
