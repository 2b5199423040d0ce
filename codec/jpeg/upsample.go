/*
NAME
  upsample.go

DESCRIPTION
  upsample.go assembles the final RGBA8 raster from the per-component
  sample planes scan.go decoded: nearest-neighbor replication brings
  subsampled chroma planes up to luma resolution, deliberately
  diverging from golang.org/x/image/jpeg's bilinear-leaning chroma
  reconstruction, then a standard YCbCr-to-RGB matrix (or grayscale
  passthrough for single-component images) produces the pixel buffer.

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

import "github.com/ausocean/pxf/bitcanvas"

// sampleAt fetches plane ci's sample nearest to full-resolution pixel
// (x, y), replicating subsampled chroma rather than interpolating it.
func (d *decoder) sampleAt(ci, x, y int) uint8 {
	c := &d.comp[ci]
	sx := x * c.h / d.hMax
	sy := y * c.v / d.vMax
	stride := d.planeStride[ci]
	return d.planes[ci][sy*stride+sx]
}

func ycbcrToRGB(y, cb, cr uint8) (r, g, b uint8) {
	yy := int32(y) * 65536
	cbv := int32(cb) - 128
	crv := int32(cr) - 128

	rr := yy + 91881*crv
	gg := yy - 22554*cbv - 46802*crv
	bb := yy + 116130*cbv

	return clampChannel(rr), clampChannel(gg), clampChannel(bb)
}

func clampChannel(v int32) uint8 {
	v >>= 16
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// toRaster renders the decoded component planes into an RGBA8 raster
// cropped to the SOF0-declared width and height.
func (d *decoder) toRaster() *bitcanvas.RawImageData {
	out := bitcanvas.NewRawImageData(d.width, d.height)
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			i := 4 * (y*d.width + x)
			if d.nComp == 1 {
				v := d.sampleAt(0, x, y)
				out.Pix[i+0] = v
				out.Pix[i+1] = v
				out.Pix[i+2] = v
				out.Pix[i+3] = 255
				continue
			}
			yv := d.sampleAt(0, x, y)
			cb := d.sampleAt(1, x, y)
			cr := d.sampleAt(2, x, y)
			r, g, b := ycbcrToRGB(yv, cb, cr)
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
	return out
}
