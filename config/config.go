/*
NAME
  config.go

DESCRIPTION
  config.go collects the cross-cutting knobs shared by the encoder,
  decoder and CLI into one options struct: a centralized mode enum and
  an optional Logger rather than threading a dozen parameters through
  every call.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds PXF-wide settings: the bit-packing mode enum
// shared by the encoders, and the Logger interface the core accepts
// without depending on a concrete logging backend.
package config

// Mode selects the bit-packing mode; ModeAuto lets the encoder pick.
type Mode int

const (
	ModeAuto Mode = iota
	ModeCompact
	ModeExpanded
)

func (m Mode) String() string {
	switch m {
	case ModeCompact:
		return "compact"
	case ModeExpanded:
		return "expanded"
	default:
		return "auto"
	}
}

// Logging levels, ordered least to most severe.
const (
	Debug int8 = iota
	Info
	Warning
	Error
	Fatal
)

// Logger is the minimal logging interface the facade, codec/binary and
// codec/jpeg accept for row/MCU diagnostics. A nil Logger is tolerated
// throughout; callers that don't care about logging simply never set one.
type Logger interface {
	SetLevel(int8)
	Log(level int8, message string, params ...interface{})
}

// Config collects the settings shared across an Encoder/Decoder pair.
type Config struct {
	MaxDim        int  // maximum canvas dimension in pixels; default 4096
	Mode          Mode // bit-packing mode; default ModeAuto
	Redundancy    int  // cell replication factor: 1, 3 or 5; default 1
	BitsPerSample int  // audio quantization depth; default 16

	Logger Logger
}

// Normalize fills in zero-valued fields with their defaults.
func (c Config) Normalize() Config {
	if c.MaxDim <= 0 {
		c.MaxDim = 4096
	}
	if c.Redundancy == 0 {
		c.Redundancy = 1
	}
	if c.BitsPerSample == 0 {
		c.BitsPerSample = 16
	}
	return c
}
