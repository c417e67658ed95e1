package render

import (
	"image"
	"testing"
)

func TestDitherRGB565_PreservesAverage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0x84, 0x82, 0x13, 0xff
	}
	ditherRGB565(img)

	var sum [3]int
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			sum[c] += int(img.Pix[i+c])
		}
		if img.Pix[i+3] != 0xff {
			t.Fatalf("alpha changed at pixel %d", i/4)
		}
	}
	want := [3]int{0x84, 0x82, 0x13}
	n := len(img.Pix) / 4
	for c := 0; c < 3; c++ {
		avg := float64(sum[c]) / float64(n)
		if d := avg - float64(want[c]); d < -1.5 || d > 1.5 {
			t.Errorf("channel %d average = %.2f, want about %d", c, avg, want[c])
		}
	}
}

func TestDitherRGB565_ExactColorsUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 3, 6, 7))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0xf8, 0x40, 0x08, 0xff
	}
	ditherRGB565(img)
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xf8 || img.Pix[i+1] != 0x40 || img.Pix[i+2] != 0x08 {
			t.Fatalf("pixel %d = %v, want unchanged", i/4, img.Pix[i:i+3])
		}
	}
}

func TestBlitRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 40, 30)
	tests := []struct {
		name       string
		opts       BlitOptions
		wantRegion image.Rectangle
		wantSize   image.Point
	}{
		{"whole image", DefaultBlitOptions(), bounds, image.Pt(40, 30)},
		{"zero size is whole image", BlitOptions{}, bounds, image.Pt(40, 30)},
		{"offset to edge", BlitOptions{SrcPos: image.Pt(10, 5), Size: image.Pt(-1, -1)},
			image.Rect(10, 5, 40, 30), image.Pt(30, 25)},
		{"scaled", BlitOptions{Size: image.Pt(20, 10), ScaleTo: image.Pt(80, 40)},
			image.Rect(0, 0, 20, 10), image.Pt(80, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, size, err := blitRegion(bounds, tt.opts)
			if err != nil {
				t.Fatalf("blitRegion() error = %v", err)
			}
			if region != tt.wantRegion || size != tt.wantSize {
				t.Fatalf("blitRegion() = %v, %v; want %v, %v", region, size, tt.wantRegion, tt.wantSize)
			}
		})
	}
}
