/*
NAME
  audio_test.go

DESCRIPTION
  audio_test.go exercises the audio codec's encode/decode round trip
  using a synthesized sine wave fixture, streaming chunked decode,
  sample-accurate seek, and multi-channel ordering.

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
	"math"
	"testing"

	"github.com/go-audio/audio"
	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/pxf/frame"
)

// sineWave synthesizes n samples of a sineHz tone at sampleRate Hz,
// quantized to bps-bit two's complement, using gonum/floats to build
// the time axis.
func sineWave(n, sampleRate int, sineHz float64, bps int) []int {
	t := make([]float64, n)
	floats.Span(t, 0, float64(n-1)/float64(sampleRate))
	full := float64(int(1)<<uint(bps-1)) - 1
	out := make([]int, n)
	for i, ti := range t {
		out[i] = int(math.Round(full * math.Sin(2*math.Pi*sineHz*ti)))
	}
	return out
}

func TestRoundTripMono(t *testing.T) {
	const (
		sampleRate = 8000
		n          = 4000
		bps        = 16
	)
	samples := sineWave(n, sampleRate, 440, bps)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bps,
	}
	md := frame.Metadata{{Key: "tone", Value: "440Hz"}}

	canvases, err := Encode(buf, md, Options{BitsPerSample: bps})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(canvases) != 1 {
		t.Fatalf("expected 1 canvas for mono input, got %d", len(canvases))
	}

	dec, err := NewStreamingDecoder(canvases)
	if err != nil {
		t.Fatalf("NewStreamingDecoder() error = %v", err)
	}
	if dec.SampleRate() != sampleRate {
		t.Errorf("SampleRate() = %d, want %d", dec.SampleRate(), sampleRate)
	}
	if dec.TotalSamples() != n {
		t.Errorf("TotalSamples() = %d, want %d", dec.TotalSamples(), n)
	}

	got, rate, err := dec.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if rate != sampleRate {
		t.Errorf("DecodeAll() rate = %d, want %d", rate, sampleRate)
	}
	if len(got) != 1 || len(got[0]) != n {
		t.Fatalf("DecodeAll() shape mismatch: got %d channels", len(got))
	}

	full := float64(int(1)<<uint(bps-1)) - 1
	for i, want := range samples {
		gotSample := got[0][i] * full
		if math.Abs(gotSample-float64(want)) > 1 {
			t.Fatalf("sample %d = %v, want %v", i, gotSample, want)
		}
	}
}

func TestStreamingChunkedDecode(t *testing.T) {
	const (
		sampleRate = 8000
		n          = 8000
		bps        = 16
	)
	samples := sineWave(n, sampleRate, 220, bps)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bps,
	}
	canvases, err := Encode(buf, nil, Options{BitsPerSample: bps})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	dec, err := NewStreamingDecoder(canvases)
	if err != nil {
		t.Fatalf("NewStreamingDecoder() error = %v", err)
	}

	var total int
	for total < n {
		chunk, err := dec.DecodeChunk(0.25)
		if err != nil {
			t.Fatalf("DecodeChunk() error = %v", err)
		}
		total += len(chunk[0])
	}
	if total != n {
		t.Errorf("decoded %d samples across chunks, want %d", total, n)
	}
}

func TestSeek(t *testing.T) {
	const (
		sampleRate = 8000
		n          = 2000
		bps        = 16
	)
	samples := sineWave(n, sampleRate, 100, bps)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bps,
	}
	canvases, err := Encode(buf, nil, Options{BitsPerSample: bps})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	dec, err := NewStreamingDecoder(canvases)
	if err != nil {
		t.Fatalf("NewStreamingDecoder() error = %v", err)
	}
	if err := dec.Seek(1000); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	chunk, err := dec.DecodeChunk(0.01)
	if err != nil {
		t.Fatalf("DecodeChunk() error = %v", err)
	}
	full := float64(int(1)<<uint(bps-1)) - 1
	got := int(math.Round(chunk[0][0] * full))
	if diff := got - samples[1000]; diff < -1 || diff > 1 {
		t.Errorf("sample after Seek(1000) = %d, want ~%d", got, samples[1000])
	}
}

func TestMultiChannel(t *testing.T) {
	const (
		sampleRate = 8000
		n          = 1000
		bps        = 16
	)
	left := sineWave(n, sampleRate, 300, bps)
	right := sineWave(n, sampleRate, 600, bps)
	interleaved := make([]int, 0, n*2)
	for i := 0; i < n; i++ {
		interleaved = append(interleaved, left[i], right[i])
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           interleaved,
		SourceBitDepth: bps,
	}

	canvases, err := Encode(buf, nil, Options{BitsPerSample: bps})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(canvases) != 2 {
		t.Fatalf("expected 2 canvases for stereo input, got %d", len(canvases))
	}

	dec, err := NewStreamingDecoder(canvases)
	if err != nil {
		t.Fatalf("NewStreamingDecoder() error = %v", err)
	}
	if dec.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", dec.Channels())
	}
	got, _, err := dec.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("DecodeAll() returned %d channels, want 2", len(got))
	}
}
