/*
NAME
  jpeg.go

DESCRIPTION
  jpeg.go is the package facade: Decode reads a complete baseline JPEG
  byte blob and returns it as an RGBA8 raster, and IsJPEG sniffs a
  buffer for the SOI marker. Internally the decoder only supports
  SOF0 (baseline sequential, Huffman-coded) bitstreams; progressive
  and arithmetic-coded JPEGs are rejected with UnsupportedJpeg.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package jpeg implements a baseline-only JPEG decoder: SOF0 Huffman
// tables, quantization tables, a separable IDCT and nearest-neighbor
// chroma upsampling, producing an RGBA8 raster rather than an
// image.Image so the result can be wrapped directly as a
// bitcanvas.RawImageData.
package jpeg

import (
	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/config"
	"github.com/ausocean/pxf/pxferr"
)

// IsJPEG reports whether data begins with a JPEG SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xff && data[1] == markerSOI
}

// Decode parses a complete baseline JPEG byte blob and returns it as an
// RGBA8 raster. logger may be nil; when set, segment parsing and
// restart-marker resyncs are logged at config.Debug.
func Decode(data []byte, logger config.Logger) (*bitcanvas.RawImageData, error) {
	if !IsJPEG(data) {
		return nil, pxferr.New(pxferr.CorruptJpeg, "missing SOI marker")
	}
	d := newDecoder(data, logger)
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.toRaster(), nil
}
