package x11

import (
	"fmt"
	"math/bits"
)

// SetShapeMask restricts the window to the set pixels of a width x height
// bitmap placed at x, y.
//
// A mask of exactly width*height bytes is read as one byte per pixel (a set
// low bit is opaque) and packed first. Anything else must already be packed
// with every row padded to a whole byte: (width+7)/8 bytes per row, least
// significant bit first, so a 2x4 mask takes 4 bytes, not 1.
func (w *Window) SetShapeMask(mask []byte, x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid shape mask size %dx%d", width, height)
	}
	packed := mask
	if len(mask) == width*height {
		packed = PackShapeMask(mask, width, height)
	}
	if need := bitmapStride(width) * height; len(packed) < need {
		return fmt.Errorf("shape mask too short: have %d bytes, need %d", len(packed), need)
	}

	return w.do(func(srv Server) error {
		if err := srv.SetShape(w.id, x, y, width, height, packed); err != nil {
			return fmt.Errorf("failed to set shape mask: %w", err)
		}
		return nil
	})
}

// ResetShapeMask makes the window rectangular again.
func (w *Window) ResetShapeMask() error {
	return w.do(func(srv Server) error {
		if err := srv.ResetShape(w.id); err != nil {
			return fmt.Errorf("failed to reset shape mask: %w", err)
		}
		return nil
	})
}

func bitmapStride(width int) int {
	return (width + 7) / 8
}

// PackShapeMask packs one byte per pixel into rows of bits, least
// significant bit first, each row padded to a whole byte.
func PackShapeMask(pixels []byte, width, height int) []byte {
	stride := bitmapStride(width)
	out := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pixels[y*width+x]&1 != 0 {
				out[y*stride+x/8] |= 1 << (x % 8)
			}
		}
	}
	return out
}

// serverBitmap re-pads packed rows to the server's scanline pad (in bits)
// and reverses bit order for MSB-first servers.
func serverBitmap(packed []byte, width, height, pad int, msbFirst bool) (int, []byte) {
	src := bitmapStride(width)
	if pad < 8 {
		pad = 8
	}
	stride := ((width + pad - 1) / pad) * pad / 8
	out := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		row := out[y*stride : y*stride+src]
		copy(row, packed[y*src:(y+1)*src])
		if msbFirst {
			for i, b := range row {
				row[i] = bits.Reverse8(b)
			}
		}
	}
	return stride, out
}
