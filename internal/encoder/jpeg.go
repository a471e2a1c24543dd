package encoder

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	"github.com/AnyUserName/imgconv/internal/format"
)

// JPEGEncoder encodes images to JPEG using Go's standard library.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() format.Code { return format.JPEG }
func (e *JPEGEncoder) Available() bool     { return true }

func (e *JPEGEncoder) Encode(_ context.Context, img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(256 * 1024)

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: normQuality(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
