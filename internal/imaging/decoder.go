// Package imaging decodes images for the render bridge. Besides the
// standard library formats it registers BMP, TIFF and WebP.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder decodes images from memory, readers or files.
type Decoder struct{}

// Decode accepts an image.Image (returned as is), encoded bytes, an
// io.Reader or a file path.
func (Decoder) Decode(src any) (image.Image, error) {
	switch v := src.(type) {
	case nil:
		return nil, fmt.Errorf("no image source")
	case image.Image:
		return v, nil
	case []byte:
		return decode(bytes.NewReader(v), "bytes")
	case io.Reader:
		return decode(v, "reader")
	case string:
		return Load(v)
	default:
		return nil, fmt.Errorf("cannot decode an image from %T", src)
	}
}

// Load decodes the image file at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return decode(f, path)
}

func decode(r io.Reader, name string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return img, nil
}

// Formats lists the registered format names.
func Formats() []string {
	return []string{"bmp", "gif", "jpeg", "png", "tiff", "webp"}
}
