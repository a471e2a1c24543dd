package encoder

import (
	"bytes"
	"context"
	"image"

	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/chai2010/webp"
)

// WebPEncoder encodes lossy WebP through libwebp (bundled by chai2010/webp).
type WebPEncoder struct{}

func (e *WebPEncoder) Format() format.Code { return format.WebP }
func (e *WebPEncoder) Available() bool     { return true }

func (e *WebPEncoder) Encode(_ context.Context, img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(128 * 1024)

	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(normQuality(quality))}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
