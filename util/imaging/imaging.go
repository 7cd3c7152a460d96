// Package imaging normalizes uploaded item photos: downscale to a bounded
// size and re-encode as JPEG so stored images stay small and uniform.
package imaging

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// MaxDimension is the maximum width or height for stored images.
	MaxDimension = 1280

	// JPEGQuality is the compression quality for JPEG output.
	JPEGQuality = 85
)

// Process decodes an uploaded image, downscales it if it exceeds
// MaxDimension and re-encodes it as JPEG.
func Process(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
