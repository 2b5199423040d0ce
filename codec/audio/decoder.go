/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the PXF streaming audio decoder: opening one
  canvas per channel, exposing sample-accurate Seek since audio frames
  are always compact mode (one bit per cell), and decoding chunks of
  normalized float64 samples on demand rather than materializing the
  whole clip up front.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package audio

import (
	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/frame"
	"github.com/ausocean/pxf/pxferr"
)

// StreamingDecoder decodes PCM samples on demand from a set of per-channel
// canvases, without holding the whole clip in memory at once.
type StreamingDecoder struct {
	cursors  []*frame.Cursor
	metadata frame.Metadata
	header   frame.AudioHeader
	pos      int // next unread sample index, shared across all channels

	Clipped int // samples decoded at a rail value (min or max representable)
}

// NewStreamingDecoder opens one canvas per audio channel. canvases need
// not be pre-sorted; they are reordered by their embedded channel index.
func NewStreamingDecoder(canvases []*bitcanvas.RawImageData) (*StreamingDecoder, error) {
	if len(canvases) == 0 {
		return nil, pxferr.New(pxferr.InvalidInput, "no canvases supplied")
	}

	type opened struct {
		cur *frame.Cursor
		md  frame.Metadata
		ah  *frame.AudioHeader
	}
	opens := make([]opened, len(canvases))
	for i, img := range canvases {
		cur, md, ah, err := frame.OpenCanvas(img, nil)
		if err != nil {
			return nil, err
		}
		if !cur.Header.Flags.Audio {
			return nil, pxferr.New(pxferr.InvalidInput, "canvas does not carry an audio frame")
		}
		opens[i] = opened{cur: cur, md: md, ah: ah}
	}

	n := opens[0].cur.Header.ImageCount
	if len(opens) != n {
		return nil, pxferr.Newf(pxferr.BadMetadata, "expected %d channels, got %d", n, len(opens))
	}
	ordered := make([]*frame.Cursor, n)
	var md frame.Metadata
	var ah *frame.AudioHeader
	for _, o := range opens {
		idx := o.cur.Header.ImageIndex
		if idx < 0 || idx >= n || ordered[idx] != nil {
			return nil, pxferr.New(pxferr.BadMetadata, "channel indices are not 0..count-1 with no gaps")
		}
		ordered[idx] = o.cur
		if idx == 0 {
			md, ah = o.md, o.ah
		}
	}
	if ah == nil {
		return nil, pxferr.New(pxferr.BadMetadata, "channel 0 missing its audio header")
	}

	return &StreamingDecoder{cursors: ordered, metadata: md, header: *ah}, nil
}

// SampleRate returns the clip's sample rate in Hz.
func (d *StreamingDecoder) SampleRate() int { return int(d.header.SampleRate) }

// Channels returns the channel count.
func (d *StreamingDecoder) Channels() int { return len(d.cursors) }

// TotalSamples returns the number of samples per channel.
func (d *StreamingDecoder) TotalSamples() int { return int(d.header.TotalSamplesPerChannel) }

// Duration returns the clip's length in seconds.
func (d *StreamingDecoder) Duration() float64 {
	if d.header.SampleRate == 0 {
		return 0
	}
	return float64(d.header.TotalSamplesPerChannel) / float64(d.header.SampleRate)
}

// Metadata returns the metadata dictionary carried by channel 0.
func (d *StreamingDecoder) Metadata() frame.Metadata { return d.metadata }

// Seek repositions every channel to sample index i.
func (d *StreamingDecoder) Seek(i int) error {
	if i < 0 || i > int(d.header.TotalSamplesPerChannel) {
		return pxferr.Newf(pxferr.InvalidInput, "sample index %d out of range", i)
	}
	bps := int(d.header.BitsPerSample)
	for _, cur := range d.cursors {
		cur.SeekBits(i * bps)
	}
	d.pos = i
	return nil
}

// DecodeChunk decodes up to dt seconds of audio starting from the
// current position, returning one []float64 of normalized samples
// (range [-1,1]) per channel. A shorter-than-requested final chunk is
// not an error.
func (d *StreamingDecoder) DecodeChunk(dt float64) ([][]float64, error) {
	n := int(dt * float64(d.header.SampleRate))
	if n < 1 {
		n = 1
	}
	remaining := int(d.header.TotalSamplesPerChannel) - d.pos
	if n > remaining {
		n = remaining
	}
	if n <= 0 {
		return make([][]float64, len(d.cursors)), nil
	}
	return d.decodeSamples(n)
}

// DecodeAll decodes every remaining sample on every channel, returning
// the per-channel sample slices and the sample rate.
func (d *StreamingDecoder) DecodeAll() ([][]float64, int, error) {
	remaining := int(d.header.TotalSamplesPerChannel) - d.pos
	out, err := d.decodeSamples(remaining)
	if err != nil {
		return nil, 0, err
	}
	return out, d.SampleRate(), nil
}

func (d *StreamingDecoder) decodeSamples(n int) ([][]float64, error) {
	bps := int(d.header.BitsPerSample)
	full := float64(int(1) << uint(bps-1))
	minRail := -int(full)
	maxRail := int(full) - 1

	out := make([][]float64, len(d.cursors))
	for ch, cur := range d.cursors {
		samples := make([]float64, n)
		bits, err := cur.ReadRawBits(n * bps)
		if err != nil {
			return nil, pxferr.Wrap(pxferr.Truncated, err, "reading sample bits")
		}
		for i := 0; i < n; i++ {
			v := unpackSample(bits[i*bps : (i+1)*bps])
			if v == minRail || v == maxRail {
				d.Clipped++
			}
			samples[i] = float64(v) / full
		}
		out[ch] = samples
	}
	d.pos += n
	return out, nil
}

// VerifyChecksum reads each channel's trailer and validates its CRC-32
// against the metadata (channel 0 only), audio header (channel 0 only)
// and sample payload. Intended for a final integrity pass after
// DecodeAll; it does not rewind the cursors used for sample decoding and
// so is typically called on a second, freshly opened StreamingDecoder.
func (d *StreamingDecoder) VerifyChecksum() ([]bool, error) {
	results := make([]bool, len(d.cursors))
	mdBytes, err := d.metadata.Bytes()
	if err != nil {
		return nil, err
	}
	ahBytes := frame.BuildAudioHeader(d.header)

	for ch, cur := range d.cursors {
		bps := int(d.header.BitsPerSample)
		bits, err := cur.ReadRawBits(int(d.header.TotalSamplesPerChannel) * bps)
		if err != nil {
			return nil, pxferr.Wrap(pxferr.Truncated, err, "reading sample bits for checksum")
		}
		crc, _, err := cur.ReadTrailer()
		if err != nil {
			return nil, pxferr.Wrap(pxferr.Truncated, err, "reading trailer")
		}

		crcInput := make([]byte, 0, len(mdBytes)+len(ahBytes)+(len(bits)+7)/8)
		if ch == 0 {
			crcInput = append(crcInput, mdBytes...)
			crcInput = append(crcInput, ahBytes...)
		}
		crcInput = append(crcInput, bitcanvas.BitsToBytes(bits)...)
		results[ch] = frame.CRC(crcInput) == crc
	}
	return results, nil
}
