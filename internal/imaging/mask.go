package imaging

import "image"

// alphaThreshold is the 16-bit alpha at or above which a pixel is opaque.
const alphaThreshold = 0x8000

// Mask turns the alpha channel of img into one byte per pixel, 1 where the
// pixel is at least half opaque.
func Mask(img image.Image) (mask []byte, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	mask = make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a >= alphaThreshold {
				mask[y*width+x] = 1
			}
		}
	}
	return mask, width, height
}
