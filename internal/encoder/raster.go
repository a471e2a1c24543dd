package encoder

import (
	"bytes"
	"context"
	"image"
	"image/gif"

	"github.com/AnyUserName/imgconv/internal/format"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// GIFEncoder quantizes to a 256-color palette with Floyd-Steinberg dithering.
type GIFEncoder struct{}

func (e *GIFEncoder) Format() format.Code { return format.GIF }
func (e *GIFEncoder) Available() bool     { return true }

func (e *GIFEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BMPEncoder writes uncompressed BMP via x/image.
type BMPEncoder struct{}

func (e *BMPEncoder) Format() format.Code { return format.BMP }
func (e *BMPEncoder) Available() bool     { return true }

func (e *BMPEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TIFFEncoder writes Deflate-compressed TIFF via x/image.
type TIFFEncoder struct{}

func (e *TIFFEncoder) Format() format.Code { return format.TIFF }
func (e *TIFFEncoder) Available() bool     { return true }

func (e *TIFFEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
