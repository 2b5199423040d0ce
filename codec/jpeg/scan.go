/*
NAME
  scan.go

DESCRIPTION
  scan.go parses the SOS segment and decodes the single interleaved
  scan that follows it: for baseline JPEGs there is exactly one scan
  covering all components, MCU by MCU, in the traversal order set out
  in ITU-T T.81 Annex A (four Y blocks per MCU under 4:2:0, etc. — the
  same per-MCU component/block ordering the standard library's
  decoder.processSOS documents, mirrored here for the baseline-only
  case: no spectral selection, no successive approximation).

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

import (
	"github.com/ausocean/pxf/config"
	"github.com/ausocean/pxf/pxferr"
)

func (d *decoder) readSOSAndScan() error {
	n, err := d.segmentLen()
	if err != nil {
		return err
	}
	p := d.pos + 2
	ns := int(d.data[p])
	p++
	if ns < 1 || ns > d.nComp {
		return pxferr.New(pxferr.CorruptJpeg, "bad scan component count")
	}
	order := make([]int, ns)
	for i := 0; i < ns; i++ {
		cs := d.data[p]
		ci := -1
		for j := 0; j < d.nComp; j++ {
			if d.comp[j].id == cs {
				ci = j
			}
		}
		if ci < 0 {
			return pxferr.New(pxferr.CorruptJpeg, "scan references unknown component")
		}
		d.comp[ci].td = int(d.data[p+1] >> 4)
		d.comp[ci].ta = int(d.data[p+1] & 0x0f)
		order[i] = ci
		p += 2
	}
	// Ss, Se, Ah, Al follow but are fixed at 0, 63, 0, 0 for baseline.
	d.pos += n

	for i := 0; i < ns; i++ {
		ci := order[i]
		if !d.quantSeen[d.comp[ci].tq] {
			d.quant[d.comp[ci].tq] = defaultQuantTable(0)
		}
		if d.dcTrees[d.comp[ci].td] == nil {
			tree, err := d.fallbackTree(false, d.comp[ci].td == 0)
			if err != nil {
				return err
			}
			d.dcTrees[d.comp[ci].td] = tree
		}
		if d.acTrees[d.comp[ci].ta] == nil {
			tree, err := d.fallbackTree(true, d.comp[ci].ta == 0)
			if err != nil {
				return err
			}
			d.acTrees[d.comp[ci].ta] = tree
		}
	}

	br := newBitReader(d.data, d.pos)
	mcusPerRestart := d.restartInterval
	if mcusPerRestart == 0 {
		mcusPerRestart = d.mcuX * d.mcuY
	}
	mcuCount := 0
	for my := 0; my < d.mcuY; my++ {
		for mx := 0; mx < d.mcuX; mx++ {
			for i := 0; i < ns; i++ {
				ci := order[i]
				c := &d.comp[ci]
				for by := 0; by < c.v; by++ {
					for bx := 0; bx < c.h; bx++ {
						if err := d.decodeBlock(br, ci, mx, my, bx, by); err != nil {
							return err
						}
					}
				}
			}
			mcuCount++
			if mcuCount%mcusPerRestart == 0 && mcuCount != d.mcuX*d.mcuY {
				if err := d.handleRestart(br); err != nil {
					return err
				}
			}
		}
	}

	if _, err := br.resyncToMarker(); err != nil {
		return err
	}
	// Put the marker back for the main decode loop to consume via
	// nextMarker: rewind pos so the 0xff,marker pair is re-read.
	d.pos = br.pos - 2
	return nil
}

// fallbackTree builds (and caches the build cost of) one of the Annex
// K.3 default tables when a scan references a DC/AC slot with no DHT.
func (d *decoder) fallbackTree(ac, luma bool) (*hcnode, error) {
	switch {
	case !ac && luma:
		return buildHuffmanTree(defaultDCLuma)
	case !ac && !luma:
		return buildHuffmanTree(defaultDCChroma)
	case ac && luma:
		return buildHuffmanTree(defaultACLuma)
	default:
		return buildHuffmanTree(defaultACChroma)
	}
}

func (d *decoder) handleRestart(br *bitReader) error {
	marker, err := br.resyncToMarker()
	if err != nil {
		return err
	}
	if marker < markerRST0 || marker > markerRST7 {
		return pxferr.New(pxferr.CorruptJpeg, "expected restart marker")
	}
	*br = *newBitReader(d.data, br.pos)
	for i := range d.comp {
		d.comp[i].dcPred = 0
	}
	d.logf(config.Debug, "restart marker resync, dc predictors reset", marker-markerRST0)
	return nil
}

// decodeBlock decodes one 8x8 block of component ci at MCU (mx, my),
// sub-block (bx, by) within that MCU, dequantizes, inverse-transforms
// and writes the result into that component's sample plane.
func (d *decoder) decodeBlock(br *bitReader, ci, mx, my, bx, by int) error {
	c := &d.comp[ci]
	var coeff [blockSize]int32

	dcSym, err := br.decodeSymbol(d.dcTrees[c.td])
	if err != nil {
		return err
	}
	diff, err := br.receiveExtend(dcSym)
	if err != nil {
		return err
	}
	c.dcPred += diff
	coeff[0] = c.dcPred * int32(d.quant[c.tq][0])

	k := 1
	for k < blockSize {
		rs, err := br.decodeSymbol(d.acTrees[c.ta])
		if err != nil {
			return err
		}
		run, size := int(rs>>4), rs&0x0f
		if size == 0 {
			if run == 15 {
				k += 16 // ZRL: 16 zero coefficients.
				continue
			}
			break // EOB.
		}
		k += run
		if k >= blockSize {
			return pxferr.New(pxferr.CorruptJpeg, "ac coefficient run past end of block")
		}
		v, err := br.receiveExtend(size)
		if err != nil {
			return err
		}
		coeff[zigzag[k]] = v * int32(d.quant[c.tq][zigzag[k]])
		k++
	}

	samples := idct8x8(&coeff)

	ox := (mx*c.h + bx) * 8
	oy := (my*c.v + by) * 8
	stride := d.planeStride[ci]
	plane := d.planes[ci]
	for y := 0; y < 8; y++ {
		row := (oy+y)*stride + ox
		for x := 0; x < 8; x++ {
			plane[row+x] = clampSample8(samples[y*8+x])
		}
	}
	return nil
}
