package render

import "image"

// ditherRGB565 quantizes img in place to the colors a 5-6-5 visual can
// show, spreading the error with Floyd-Steinberg weights. Alpha is kept.
func ditherRGB565(img *image.RGBA) {
	b := img.Bounds()
	width := b.Dx()
	// Error accumulators for this row and the next, in sixteenths, with
	// one guard pixel on each side.
	cur := make([]int, 3*(width+2))
	next := make([]int, 3*(width+2))
	masks := [3]int{0xf8, 0xfc, 0xf8}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				i := 3*(x+1) + c
				v := int(row[4*x+c]) + (cur[i]+8)/16
				if v < 0 {
					v = 0
				} else if v > 0xff {
					v = 0xff
				}
				q := v & masks[c]
				row[4*x+c] = uint8(q)

				e := v - q
				cur[i+3] += 7 * e
				next[i-3] += 3 * e
				next[i] += 5 * e
				next[i+3] += e
			}
		}
		cur, next = next, cur
		clear(next)
	}
}
