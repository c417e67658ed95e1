package render

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/freevo/kaa-display/internal/x11"
)

// BlitOptions select the part of an image to draw and how.
type BlitOptions struct {
	// DstPos is the window position of the top-left drawn pixel.
	DstPos image.Point
	// SrcPos is the offset of the source region within the image.
	SrcPos image.Point
	// Size of the source region. A non-positive coordinate extends the
	// region to the image edge.
	Size image.Point
	// ScaleTo is the drawn size. Zero draws the region unscaled.
	ScaleTo image.Point
	// Scaler resamples scaled regions; nil uses draw.ApproxBiLinear.
	Scaler draw.Scaler
	// Dither diffuses quantization error on 16-bit windows.
	Dither bool
	// Blend composites the image over the current window contents
	// instead of replacing them.
	Blend bool
}

// Scalers maps the configurable scaler names to interpolators.
var Scalers = map[string]draw.Interpolator{
	"nearest":         draw.NearestNeighbor,
	"approx-bilinear": draw.ApproxBiLinear,
	"bilinear":        draw.BiLinear,
	"catmull-rom":     draw.CatmullRom,
}

// DefaultBlitOptions draws a whole image at the window origin, dithered.
func DefaultBlitOptions() BlitOptions {
	return BlitOptions{Size: image.Pt(-1, -1), Dither: true}
}

// BlitImage decodes src and draws it onto w.
func (b *Bridge) BlitImage(w *x11.Window, src any, opts BlitOptions) error {
	if b.collab.Decoder == nil {
		return &Error{Op: "blit", Err: ErrDecoderUnavailable}
	}
	img, err := b.collab.Decoder.Decode(src)
	if err != nil {
		return &Error{Op: "blit", Err: fmt.Errorf("failed to decode image: %w", err)}
	}
	region, size, err := blitRegion(img.Bounds(), opts)
	if err != nil {
		return &Error{Op: "blit", Err: err}
	}

	err = w.Do(func(srv x11.Server) error {
		attrs, err := srv.Attributes(w.ID())
		if err != nil {
			return fmt.Errorf("failed to get window attributes: %w", err)
		}
		dst := image.Rectangle{Min: opts.DstPos, Max: opts.DstPos.Add(size)}
		visible := dst.Intersect(image.Rect(0, 0, attrs.Width, attrs.Height))
		if visible.Empty() {
			return nil
		}
		dither := opts.Dither && attrs.Depth == 16

		if !opts.Blend && !dither && region == img.Bounds() && size == region.Size() {
			return srv.PutImage(w.ID(), attrs.Depth, opts.DstPos, img)
		}

		canvas := image.NewRGBA(image.Rectangle{Max: size})
		op := draw.Src
		if opts.Blend {
			bg, err := srv.GetImage(w.ID(), visible)
			if err != nil {
				return fmt.Errorf("failed to capture window contents: %w", err)
			}
			draw.Draw(canvas, visible.Sub(opts.DstPos), bg, bg.Bounds().Min, draw.Src)
			op = draw.Over
		}
		if size == region.Size() {
			draw.Draw(canvas, canvas.Bounds(), img, region.Min, op)
		} else {
			scaler := opts.Scaler
			if scaler == nil {
				scaler = draw.ApproxBiLinear
			}
			scaler.Scale(canvas, canvas.Bounds(), img, region, op, nil)
		}
		if dither {
			ditherRGB565(canvas)
		}
		if err := srv.PutImage(w.ID(), attrs.Depth, opts.DstPos, canvas); err != nil {
			return fmt.Errorf("failed to put image: %w", err)
		}
		return nil
	})
	if err != nil {
		return &Error{Op: "blit", Err: err}
	}
	return nil
}

// blitRegion resolves the source rectangle and the drawn size.
func blitRegion(bounds image.Rectangle, opts BlitOptions) (image.Rectangle, image.Point, error) {
	if opts.SrcPos.X < 0 || opts.SrcPos.Y < 0 {
		return image.Rectangle{}, image.Point{}, invalidf("negative source position %v", opts.SrcPos)
	}
	origin := bounds.Min.Add(opts.SrcPos)
	size := opts.Size
	if size.X <= 0 {
		size.X = bounds.Max.X - origin.X
	}
	if size.Y <= 0 {
		size.Y = bounds.Max.Y - origin.Y
	}
	region := image.Rectangle{Min: origin, Max: origin.Add(size)}
	if size.X <= 0 || size.Y <= 0 || !region.In(bounds) {
		return image.Rectangle{}, image.Point{}, invalidf("source region %v outside image %v", region, bounds)
	}

	drawn := size
	if opts.ScaleTo != (image.Point{}) {
		if opts.ScaleTo.X <= 0 || opts.ScaleTo.Y <= 0 {
			return image.Rectangle{}, image.Point{}, invalidf("scale size %v", opts.ScaleTo)
		}
		drawn = opts.ScaleTo
	}
	return region, drawn, nil
}
