/*
NAME
  frame.go

DESCRIPTION
  frame.go defines the PXF frame layout: the bootstrap header every
  canvas carries (magic, version, flags, macroblock size, image
  index/count, metadata length), the metadata dictionary, the optional
  audio header, and the trailer (CRC-32 + end marker).

  The bootstrap header is always written compact-mode, redundancy=1, so
  a decoder can recover it (and thus the real mode/redundancy for the
  rest of the canvas) without circularity. This is an implementation
  decision documented in DESIGN.md, not stated verbatim by the format
  description, which is silent on how a self-describing header can be
  read before its own flags are known.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame implements the PXF on-canvas frame format: header,
// metadata dictionary, audio header, and trailer, independent of how
// the resulting byte stream is mapped onto pixels (that's bitcanvas).
package frame

import (
	"encoding/binary"

	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/pxferr"
)

// Magic is the fixed frame sentinel.
const Magic = "PXF3"

// Version is the only frame version this package understands.
const Version = 300

// BootstrapBytes is the size, in bytes, of the fixed compact-mode header
// every canvas carries: magic(4) + version(2) + flags(2) + M(1) +
// image index(1) + image count(1) + metadata length(2).
const BootstrapBytes = 13

// BootstrapBits is BootstrapBytes in bits; since the bootstrap is always
// compact mode (1 bit/cell) this is also the number of cells it occupies.
const BootstrapBits = BootstrapBytes * 8

// End marker bytes, written verbatim (not a little-endian integer).
var EndMarker = [2]byte{0xA5, 0x5A}

// Flag bits within the 16-bit flags field's low byte.
const (
	flagCompact    uint16 = 1 << 0
	flagAudio      uint16 = 1 << 1
	flagMultiImage uint16 = 1 << 2
	flagChecksum   uint16 = 1 << 3
)

// Flags is the decoded form of the frame's 16-bit flags field; redundancy
// is packed into the high byte.
type Flags struct {
	Mode          bitcanvas.Mode
	Audio         bool
	MultiImage    bool
	ChecksumValid bool // bit3: a binary checksum is present for this frame
	Redundancy    int
}

// Encode packs f into the wire representation of the flags field.
func (f Flags) Encode() uint16 {
	var v uint16
	if f.Mode == bitcanvas.ModeCompact {
		v |= flagCompact
	}
	if f.Audio {
		v |= flagAudio
	}
	if f.MultiImage {
		v |= flagMultiImage
	}
	if f.ChecksumValid {
		v |= flagChecksum
	}
	r := f.Redundancy
	if r == 0 {
		r = 1
	}
	v |= uint16(r) << 8
	return v
}

// DecodeFlags unpacks the wire flags field.
func DecodeFlags(v uint16) Flags {
	mode := bitcanvas.ModeExpanded
	if v&flagCompact != 0 {
		mode = bitcanvas.ModeCompact
	}
	r := int(v >> 8)
	if r == 0 {
		r = 1
	}
	return Flags{
		Mode:          mode,
		Audio:         v&flagAudio != 0,
		MultiImage:    v&flagMultiImage != 0,
		ChecksumValid: v&flagChecksum != 0,
		Redundancy:    r,
	}
}

// Header is the parsed bootstrap header of a single canvas.
type Header struct {
	Version     int
	Flags       Flags
	M           int
	ImageIndex  int
	ImageCount  int
	MetadataLen int
}

// AudioHeader is the fixed 10-byte block following metadata in image 0 of
// an audio frame.
type AudioHeader struct {
	SampleRate             uint32
	TotalSamplesPerChannel uint32
	ChannelCount           uint8
	BitsPerSample          uint8
}

// AudioHeaderBytes is the encoded size of an AudioHeader.
const AudioHeaderBytes = 10

// BuildBootstrap serializes h into the 13-byte bootstrap header.
func BuildBootstrap(h Header) []byte {
	b := make([]byte, BootstrapBytes)
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint16(b[4:6], uint16(h.Version))
	binary.LittleEndian.PutUint16(b[6:8], h.Flags.Encode())
	b[8] = byte(h.M)
	b[9] = byte(h.ImageIndex)
	b[10] = byte(h.ImageCount)
	binary.LittleEndian.PutUint16(b[11:13], uint16(h.MetadataLen))
	return b
}

// ParseBootstrap parses the 13-byte bootstrap header, validating the
// magic and version.
func ParseBootstrap(b []byte) (Header, error) {
	if len(b) < BootstrapBytes {
		return Header{}, pxferr.New(pxferr.Truncated, "short bootstrap header")
	}
	if string(b[0:4]) != Magic {
		return Header{}, pxferr.New(pxferr.InvalidMagic, "magic mismatch")
	}
	ver := int(binary.LittleEndian.Uint16(b[4:6]))
	if ver != Version {
		return Header{}, pxferr.Newf(pxferr.UnsupportedVersion, "version %d", ver)
	}
	flags := DecodeFlags(binary.LittleEndian.Uint16(b[6:8]))
	return Header{
		Version:     ver,
		Flags:       flags,
		M:           int(b[8]),
		ImageIndex:  int(b[9]),
		ImageCount:  int(b[10]),
		MetadataLen: int(binary.LittleEndian.Uint16(b[11:13])),
	}, nil
}

// BuildAudioHeader serializes an AudioHeader.
func BuildAudioHeader(h AudioHeader) []byte {
	b := make([]byte, AudioHeaderBytes)
	binary.LittleEndian.PutUint32(b[0:4], h.SampleRate)
	binary.LittleEndian.PutUint32(b[4:8], h.TotalSamplesPerChannel)
	b[8] = h.ChannelCount
	b[9] = h.BitsPerSample
	return b
}

// ParseAudioHeader parses a 10-byte AudioHeader.
func ParseAudioHeader(b []byte) (AudioHeader, error) {
	if len(b) < AudioHeaderBytes {
		return AudioHeader{}, pxferr.New(pxferr.Truncated, "short audio header")
	}
	return AudioHeader{
		SampleRate:             binary.LittleEndian.Uint32(b[0:4]),
		TotalSamplesPerChannel: binary.LittleEndian.Uint32(b[4:8]),
		ChannelCount:           b[8],
		BitsPerSample:          b[9],
	}, nil
}
