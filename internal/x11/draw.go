package x11

import (
	"fmt"
	"image"
)

// pack565 packs an 8-bit RGB triple into a 16-bit 5-6-5 pixel.
func pack565(r, g, b uint8) uint16 {
	return uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b&0xf8)>>3
}

// PixelValue packs r, g, b for a screen of the given depth.
func PixelValue(depth byte, r, g, b uint8) uint32 {
	if depth == 16 {
		return uint32(pack565(r, g, b))
	}
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// DrawRectangle fills a rectangle of the window with a solid color.
func (w *Window) DrawRectangle(x, y, width, height int, r, g, b uint8) error {
	return w.do(func(srv Server) error {
		pixel := PixelValue(srv.Screen().Depth, r, g, b)
		rect := image.Rect(x, y, x+width, y+height)
		if err := srv.FillRectangle(w.id, rect, pixel); err != nil {
			return fmt.Errorf("failed to fill rectangle: %w", err)
		}
		return nil
	})
}
