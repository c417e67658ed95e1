package x11

import (
	"fmt"
	"image"
)

// zpixmapStride is the byte length of one ZPixmap row padded to pad bits.
func zpixmapStride(width, bpp, pad int) int {
	if pad < 8 {
		pad = 8
	}
	return ((width*bpp + pad - 1) / pad) * pad / 8
}

// packZPixmap converts BGRA rows (the xgraphics layout) into ZPixmap data
// of bpp bits per pixel. 16 bpp is packed 5-6-5, 24 bpp takes three bytes
// and 32 bpp four. msbFirst selects the server's image byte order.
func packZPixmap(pix []byte, srcStride, width, height, bpp, pad int, msbFirst bool) (int, []byte, error) {
	switch bpp {
	case 16, 24, 32:
	default:
		return 0, nil, &UnsupportedDepthError{BitsPerPixel: bpp}
	}
	stride := zpixmapStride(width, bpp, pad)
	data := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		src := pix[y*srcStride:]
		for x := 0; x < width; x++ {
			b, g, r, a := src[4*x], src[4*x+1], src[4*x+2], src[4*x+3]
			switch bpp {
			case 16:
				p := pack565(r, g, b)
				if msbFirst {
					row[2*x], row[2*x+1] = byte(p>>8), byte(p)
				} else {
					row[2*x], row[2*x+1] = byte(p), byte(p>>8)
				}
			case 24:
				if msbFirst {
					row[3*x], row[3*x+1], row[3*x+2] = r, g, b
				} else {
					row[3*x], row[3*x+1], row[3*x+2] = b, g, r
				}
			case 32:
				if msbFirst {
					row[4*x], row[4*x+1], row[4*x+2], row[4*x+3] = a, r, g, b
				} else {
					row[4*x], row[4*x+1], row[4*x+2], row[4*x+3] = b, g, r, a
				}
			}
		}
	}
	return stride, data, nil
}

// unpackZPixmap decodes ZPixmap data covering r into an opaque RGBA image
// with the same bounds.
func unpackZPixmap(data []byte, r image.Rectangle, bpp, pad int, msbFirst bool) (*image.RGBA, error) {
	switch bpp {
	case 16, 24, 32:
	default:
		return nil, &UnsupportedDepthError{BitsPerPixel: bpp}
	}
	width, height := r.Dx(), r.Dy()
	stride := zpixmapStride(width, bpp, pad)
	if len(data) < stride*height {
		return nil, fmt.Errorf("image data too short: have %d bytes, need %d", len(data), stride*height)
	}

	img := image.NewRGBA(r)
	bytesPer := bpp / 8
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*bytesPer : (x+1)*bytesPer]
			var cr, cg, cb uint8
			switch bpp {
			case 16:
				p := uint16(px[0]) | uint16(px[1])<<8
				if msbFirst {
					p = uint16(px[0])<<8 | uint16(px[1])
				}
				cr, cg, cb = expand5(uint8(p>>11)), expand6(uint8(p>>5)&0x3f), expand5(uint8(p)&0x1f)
			case 24:
				if msbFirst {
					cr, cg, cb = px[0], px[1], px[2]
				} else {
					cb, cg, cr = px[0], px[1], px[2]
				}
			case 32:
				if msbFirst {
					cr, cg, cb = px[1], px[2], px[3]
				} else {
					cb, cg, cr = px[0], px[1], px[2]
				}
			}
			dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = cr, cg, cb, 0xff
		}
	}
	return img, nil
}

func expand5(v uint8) uint8 { return v<<3 | v>>2 }

func expand6(v uint8) uint8 { return v<<2 | v>>4 }
