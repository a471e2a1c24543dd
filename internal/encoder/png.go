package encoder

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/AnyUserName/imgconv/internal/format"
)

// PNGEncoder encodes images to PNG. Lossless, so quality is ignored.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() format.Code { return format.PNG }
func (e *PNGEncoder) Available() bool     { return true }

func (e *PNGEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)

	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
