/*
NAME
  segments.go

DESCRIPTION
  segments.go parses the marker-delimited segments of a JFIF/JPEG
  byte stream: SOI/EOI, APPn (skipped), DQT, DHT, SOF0, DRI and SOS.

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
	"encoding/binary"

	"github.com/ausocean/pxf/config"
	"github.com/ausocean/pxf/pxferr"
)

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOF0 = 0xc0
	markerSOF2 = 0xc2 // progressive; rejected with UnsupportedJpeg
	markerDHT  = 0xc4
	markerDQT  = 0xdb
	markerDRI  = 0xdd
	markerSOS  = 0xda
	markerRST0 = 0xd0
	markerRST7 = 0xd7
)

const maxComponents = 4

type component struct {
	id     byte
	h, v   int
	tq     int
	td, ta int
	dcPred int32
}

type decoder struct {
	data []byte
	pos  int

	width, height int
	nComp         int
	comp          [maxComponents]component

	quant     [4]quantTable
	quantSeen [4]bool

	dcTrees, acTrees [4]*hcnode
	dcSeen, acSeen   [4]bool

	restartInterval int

	// planes holds decoded, IDCT'd, level-shifted samples for each
	// component at that component's own (subsampled) resolution.
	planes       [maxComponents][]uint8
	planeStride  [maxComponents]int
	planeW, planeH [maxComponents]int

	mcuX, mcuY int // MCU grid dimensions
	hMax, vMax int // maximum sampling factors across components

	logger config.Logger // optional; nil is tolerated
}

func newDecoder(data []byte, logger config.Logger) *decoder {
	return &decoder{data: data, logger: logger}
}

// logf is a no-op when no Logger was supplied.
func (d *decoder) logf(level int8, message string, params ...interface{}) {
	if d.logger == nil {
		return
	}
	d.logger.Log(level, message, params...)
}

func (d *decoder) decode() error {
	d.pos = 2 // skip SOI, already validated by Decode.
	for {
		marker, err := d.nextMarker()
		if err != nil {
			return err
		}
		switch marker {
		case markerEOI:
			return nil
		case markerDQT:
			if err := d.readDQT(); err != nil {
				return err
			}
		case markerDHT:
			if err := d.readDHT(); err != nil {
				return err
			}
		case markerSOF0:
			if err := d.readSOF0(); err != nil {
				return err
			}
		case markerSOF2:
			return pxferr.New(pxferr.UnsupportedJpeg, "progressive jpeg not supported")
		case 0xc1, 0xc3, 0xc5, 0xc6, 0xc7, 0xc9, 0xca, 0xcb, 0xcd, 0xce, 0xcf:
			// Extended, lossless, hierarchical and arithmetic-coded frames.
			return pxferr.New(pxferr.UnsupportedJpeg, "only baseline (SOF0) jpeg is supported")
		case markerDRI:
			if err := d.readDRI(); err != nil {
				return err
			}
		case markerSOS:
			if err := d.readSOSAndScan(); err != nil {
				return err
			}
		default:
			if err := d.skipSegment(); err != nil {
				return err
			}
		}
	}
}

// nextMarker advances past any fill bytes (0xff) and returns the marker
// byte following the last 0xff, leaving d.pos positioned just after it.
func (d *decoder) nextMarker() (byte, error) {
	for {
		if d.pos+1 >= len(d.data) {
			return 0, pxferr.New(pxferr.CorruptJpeg, "truncated before next marker")
		}
		if d.data[d.pos] != 0xff {
			return 0, pxferr.Newf(pxferr.CorruptJpeg, "expected marker at offset %d", d.pos)
		}
		m := d.data[d.pos+1]
		d.pos += 2
		if m == 0 || m == 0xff {
			continue // fill byte or stray 0xff, keep scanning.
		}
		return m, nil
	}
}

func (d *decoder) segmentLen() (int, error) {
	if d.pos+2 > len(d.data) {
		return 0, pxferr.New(pxferr.CorruptJpeg, "truncated segment length")
	}
	n := int(binary.BigEndian.Uint16(d.data[d.pos:]))
	if n < 2 || d.pos+n > len(d.data) {
		return 0, pxferr.New(pxferr.CorruptJpeg, "invalid segment length")
	}
	return n, nil
}

func (d *decoder) skipSegment() error {
	n, err := d.segmentLen()
	if err != nil {
		return err
	}
	d.pos += n
	return nil
}

func (d *decoder) readDQT() error {
	n, err := d.segmentLen()
	if err != nil {
		return err
	}
	end := d.pos + n
	p := d.pos + 2
	for p < end {
		pqTq := d.data[p]
		pq, tq := pqTq>>4, pqTq&0x0f
		p++
		if tq > 3 {
			return pxferr.New(pxferr.CorruptJpeg, "bad quantization table destination")
		}
		var qt quantTable
		for zz := 0; zz < blockSize; zz++ {
			var v uint16
			if pq == 0 {
				v = uint16(d.data[p])
				p++
			} else {
				v = binary.BigEndian.Uint16(d.data[p:])
				p += 2
			}
			qt[zigzag[zz]] = v
		}
		d.quant[tq] = qt
		d.quantSeen[tq] = true
	}
	d.pos = end
	return nil
}

func (d *decoder) readDHT() error {
	n, err := d.segmentLen()
	if err != nil {
		return err
	}
	end := d.pos + n
	p := d.pos + 2
	for p < end {
		classDest := d.data[p]
		class, dest := classDest>>4, classDest&0x0f
		p++
		if dest > 3 {
			return pxferr.New(pxferr.CorruptJpeg, "bad huffman table destination")
		}
		var spec huffSpec
		copy(spec.counts[:], d.data[p:p+16])
		p += 16
		total := i8sum(spec.counts[:])
		spec.values = append([]byte(nil), d.data[p:p+total]...)
		p += total

		tree, err := buildHuffmanTree(spec)
		if err != nil {
			return err
		}
		if class == 0 {
			d.dcTrees[dest] = tree
			d.dcSeen[dest] = true
		} else {
			d.acTrees[dest] = tree
			d.acSeen[dest] = true
		}
	}
	d.pos = end
	return nil
}

func (d *decoder) readSOF0() error {
	n, err := d.segmentLen()
	if err != nil {
		return err
	}
	p := d.pos + 2
	precision := d.data[p]
	if precision != 8 {
		return pxferr.New(pxferr.UnsupportedJpeg, "only 8-bit sample precision is supported")
	}
	d.height = int(binary.BigEndian.Uint16(d.data[p+1:]))
	d.width = int(binary.BigEndian.Uint16(d.data[p+3:]))
	d.nComp = int(d.data[p+5])
	if d.nComp < 1 || d.nComp > maxComponents {
		return pxferr.New(pxferr.UnsupportedJpeg, "unsupported component count")
	}
	p += 6
	d.hMax, d.vMax = 1, 1
	for i := 0; i < d.nComp; i++ {
		d.comp[i].id = d.data[p]
		d.comp[i].h = int(d.data[p+1] >> 4)
		d.comp[i].v = int(d.data[p+1] & 0x0f)
		d.comp[i].tq = int(d.data[p+2])
		if d.comp[i].h > d.hMax {
			d.hMax = d.comp[i].h
		}
		if d.comp[i].v > d.vMax {
			d.vMax = d.comp[i].v
		}
		p += 3
	}
	d.mcuX = (d.width + 8*d.hMax - 1) / (8 * d.hMax)
	d.mcuY = (d.height + 8*d.vMax - 1) / (8 * d.vMax)
	for i := 0; i < d.nComp; i++ {
		d.planeW[i] = d.mcuX * d.comp[i].h * 8
		d.planeH[i] = d.mcuY * d.comp[i].v * 8
		d.planeStride[i] = d.planeW[i]
		d.planes[i] = make([]uint8, d.planeW[i]*d.planeH[i])
	}
	d.pos += n
	d.logf(config.Debug, "sof0 parsed", d.width, d.height, d.nComp, d.mcuX, d.mcuY)
	return nil
}

func (d *decoder) readDRI() error {
	n, err := d.segmentLen()
	if err != nil {
		return err
	}
	d.restartInterval = int(binary.BigEndian.Uint16(d.data[d.pos+2:]))
	d.pos += n
	d.logf(config.Debug, "restart interval set", d.restartInterval)
	return nil
}
