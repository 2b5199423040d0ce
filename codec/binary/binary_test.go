/*
NAME
  binary_test.go

DESCRIPTION
  binary_test.go exercises the binary codec's round trip, its mode
  auto-selection, the small/large/boundary payload sizes that force
  single-canvas vs multi-canvas splitting, and tolerance to a corrupted
  canvas region.

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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/pxf/bitcanvas"
	"github.com/ausocean/pxf/frame"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		md      frame.Metadata
		opts    Options
	}{
		{
			name:    "empty payload",
			payload: nil,
			md:      nil,
			opts:    Options{},
		},
		{
			name:    "small payload compact",
			payload: []byte("hello, pxf"),
			md:      frame.Metadata{{Key: "note", Value: "test"}},
			opts:    Options{Mode: ModeCompact},
		},
		{
			name:    "small payload expanded",
			payload: []byte("hello, pxf"),
			md:      nil,
			opts:    Options{Mode: ModeExpanded},
		},
		{
			name:    "redundancy 3",
			payload: bytes.Repeat([]byte{0xAB}, 200),
			md:      nil,
			opts:    Options{Mode: ModeCompact, Redundancy: 3},
		},
		{
			name:    "multi-canvas overflow",
			payload: bytes.Repeat([]byte{0x5A}, 20000),
			md:      frame.Metadata{{Key: "fmt", Value: "raw"}},
			opts:    Options{MaxDim: 64, Mode: ModeCompact},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvases, err := Encode(tt.payload, tt.md, tt.opts)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			result, err := Decode(canvases, nil, nil)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !result.ValidChecksum {
				t.Errorf("Decode() ValidChecksum = false, want true")
			}
			if !bytes.Equal(result.Data, tt.payload) {
				t.Errorf("Decode() Data = %v, want %v", result.Data, tt.payload)
			}

			md, _, err := Metadata(canvases)
			if err != nil {
				t.Fatalf("Metadata() error = %v", err)
			}
			want := tt.md
			if want == nil {
				want = frame.Metadata{}
			}
			if diff := cmp.Diff([]frame.KV(want), []frame.KV(md)); diff != "" {
				t.Errorf("Metadata() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeToleratesPartialErasure(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 500)
	canvases, err := Encode(payload, nil, Options{Mode: ModeCompact, Redundancy: 3})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(canvases) != 1 {
		t.Fatalf("expected a single canvas, got %d", len(canvases))
	}

	img := canvases[0]
	corruptMidRange(img, len(img.Pix)/2, len(img.Pix)/2+400)

	var debug DebugSink
	result, err := Decode(canvases, &debug, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if debug.OverallHealth >= 1 {
		t.Errorf("OverallHealth = %v, want < 1 after corrupting a canvas region", debug.OverallHealth)
	}
	if len(result.Data) != len(payload) {
		t.Errorf("len(Decode().Data) = %d, want %d", len(result.Data), len(payload))
	}
}

func TestEncodeRejectsOversizedMetadata(t *testing.T) {
	md := make(frame.Metadata, 0, 300)
	for i := 0; i < 300; i++ {
		md = append(md, frame.KV{Key: string(rune('a'+i%26)) + string(rune('a'+i/26)), Value: "x"})
	}
	_, err := Encode([]byte("payload"), md, Options{})
	if err == nil {
		t.Fatal("Encode() error = nil, want an error for an oversized metadata dictionary")
	}
}

func TestDecodeRejectsEmptyCanvasList(t *testing.T) {
	_, err := Decode(nil, nil, nil)
	if err == nil {
		t.Fatal("Decode() error = nil, want an error for an empty canvas list")
	}
}

func corruptMidRange(img *bitcanvas.RawImageData, from, to int) {
	if to > len(img.Pix) {
		to = len(img.Pix)
	}
	for i := from; i < to; i++ {
		img.Pix[i] = 128
	}
}
