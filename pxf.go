/*
NAME
  pxf.go

DESCRIPTION
  pxf.go is the root package facade: Encoder/Decoder wrappers over
  codec/binary and codec/audio, plus the canvas-image (JPEG) load step
  a caller runs before handing canvases to a Decoder. The Decoder does
  not dispatch on a frame's flags itself: DecodeMetadataOnly returns
  the header, and the caller picks Decode or NewStreamingAudioDecoder.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pxf is the Pixel Exchange Format facade: encoding arbitrary
// binary payloads or PCM audio as image pixels, and decoding them back,
// tolerating the recompression a lossy image-hosting transport applies
// in between.
package pxf

import (
	goaudio "github.com/go-audio/audio"

	"github.com/ausocean/pxf/bitcanvas"
	pxfaudio "github.com/ausocean/pxf/codec/audio"
	pxfbinary "github.com/ausocean/pxf/codec/binary"
	"github.com/ausocean/pxf/codec/jpeg"
	"github.com/ausocean/pxf/config"
	"github.com/ausocean/pxf/frame"
	"github.com/ausocean/pxf/pxferr"
)

// Encoder packs a payload into one or more canvases.
type Encoder struct {
	cfg  config.Config
	done bool
}

// NewEncoder returns an Encoder configured by cfg.
func NewEncoder(cfg config.Config) *Encoder {
	return &Encoder{cfg: cfg.Normalize()}
}

// Encode packs a binary payload and optional metadata into one or more
// RGBA8 canvases. A non-nil onProgress is called with 0-100 at canvas
// boundaries; an error it returns aborts the encode and leaves e unused
// for further calls.
func (e *Encoder) Encode(payload []byte, md frame.Metadata, onProgress func(int) error) ([]*bitcanvas.RawImageData, error) {
	if e.done {
		return nil, pxferr.New(pxferr.InvalidInput, "encoder already used")
	}
	e.done = true
	opts := pxfbinary.Options{
		MaxDim:     e.cfg.MaxDim,
		Mode:       pxfbinary.Mode(e.cfg.Mode),
		Redundancy: e.cfg.Redundancy,
		OnProgress: onProgress,
	}
	return pxfbinary.Encode(payload, md, opts)
}

// EncodeAudio packs a PCM buffer into one canvas per channel.
func (e *Encoder) EncodeAudio(buf *goaudio.IntBuffer, md frame.Metadata, onProgress func(int) error) ([]*bitcanvas.RawImageData, error) {
	if e.done {
		return nil, pxferr.New(pxferr.InvalidInput, "encoder already used")
	}
	e.done = true
	opts := pxfaudio.Options{
		BitsPerSample: e.cfg.BitsPerSample,
		Redundancy:    e.cfg.Redundancy,
		MaxDim:        e.cfg.MaxDim,
		OnProgress:    onProgress,
	}
	return pxfaudio.Encode(buf, md, opts)
}

// Decoder loads canvases (as raw RGBA8 rasters, already downloaded and
// decompressed by the caller from whatever image-hosting transport
// carried them) and recovers the packed payload or audio.
type Decoder struct {
	cfg      config.Config
	canvases []*bitcanvas.RawImageData
}

// NewDecoder returns a Decoder configured by cfg. A zero-value Decoder
// (no logger, default limits) also works for callers that don't need
// either.
func NewDecoder(cfg config.Config) *Decoder {
	return &Decoder{cfg: cfg.Normalize()}
}

// Load decodes each JPEG blob in images into a canvas; an entry that is
// not a JPEG blob is rejected with CorruptJpeg (callers that already
// hold raw pixels use LoadCanvases instead). Segment parsing and
// restart-marker resyncs are logged through d's configured Logger, if
// any.
func (d *Decoder) Load(images [][]byte) error {
	canvases := make([]*bitcanvas.RawImageData, len(images))
	for i, blob := range images {
		if jpeg.IsJPEG(blob) {
			img, err := jpeg.Decode(blob, d.cfg.Logger)
			if err != nil {
				return err
			}
			canvases[i] = img
			continue
		}
		return pxferr.New(pxferr.CorruptJpeg, "image is not a JPEG blob")
	}
	d.canvases = canvases
	return nil
}

// LoadCanvases accepts already-decoded RawImageData canvases directly,
// skipping the JPEG decode step.
func (d *Decoder) LoadCanvases(canvases []*bitcanvas.RawImageData) {
	d.canvases = canvases
}

// DecodeMetadataOnly reads the frame header and metadata dictionary
// without decoding the full payload.
func (d *Decoder) DecodeMetadataOnly() (frame.Metadata, frame.Header, error) {
	return pxfbinary.Metadata(d.canvases)
}

// Decode recovers the binary payload, with row-level health reported
// through debug if non-nil and logged through d's configured Logger if
// set.
func (d *Decoder) Decode(debug *pxfbinary.DebugSink) (pxfbinary.Result, error) {
	return pxfbinary.Decode(d.canvases, debug, d.cfg.Logger)
}

// NewStreamingAudioDecoder opens the loaded canvases as an audio
// stream instead of a binary payload.
func (d *Decoder) NewStreamingAudioDecoder() (*pxfaudio.StreamingDecoder, error) {
	return pxfaudio.NewStreamingDecoder(d.canvases)
}
