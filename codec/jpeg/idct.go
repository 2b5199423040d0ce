/*
NAME
  idct.go

DESCRIPTION
  idct.go applies the inverse 8x8 DCT per Annex A.3.3, separably: an
  inverse 1-D DCT over rows followed by one over columns, using
  precomputed cosine coefficients rather than an AAN-style fast
  transform, since decode correctness matters more than raw throughput
  for a one-shot still-image decoder.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpeg

import "math"

// idctCoeff[u][x] is cos((2x+1)*u*pi/16), the basis used by both the
// row and column passes.
var idctCoeff [8][8]float64

func init() {
	for u := 0; u < 8; u++ {
		for x := 0; x < 8; x++ {
			idctCoeff[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16)
		}
	}
}

func idctScale(u int) float64 {
	if u == 0 {
		return 1 / math.Sqrt2
	}
	return 1
}

// idct8x8 performs an inverse DCT on a natural-order block of
// dequantized coefficients and returns the level-shifted (0-255 range,
// before clamping) sample values in a new array; block is not modified.
func idct8x8(block *[blockSize]int32) [blockSize]float64 {
	// s holds the coefficient matrix: s[v][u] is the coefficient at
	// vertical frequency v, horizontal frequency u.
	var s [8][8]float64
	for v := 0; v < 8; v++ {
		for u := 0; u < 8; u++ {
			s[v][u] = float64(block[v*8+u])
		}
	}
	// Horizontal pass: g[v][x] is the inverse transform along u.
	var g [8][8]float64
	for v := 0; v < 8; v++ {
		for x := 0; x < 8; x++ {
			var sum float64
			for u := 0; u < 8; u++ {
				sum += idctScale(u) * s[v][u] * idctCoeff[u][x]
			}
			g[v][x] = sum / 2
		}
	}
	// Vertical pass: out[y][x] is the inverse transform along v.
	var out [8][8]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			var sum float64
			for v := 0; v < 8; v++ {
				sum += idctScale(v) * g[v][x] * idctCoeff[v][y]
			}
			out[y][x] = sum/2 + 128
		}
	}
	var flat [blockSize]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			flat[y*8+x] = out[y][x]
		}
	}
	return flat
}

func clampSample8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
