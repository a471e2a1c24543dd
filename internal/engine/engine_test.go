package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/AnyUserName/imgconv/internal/encoder"
	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBlob(t *testing.T, w, h int) ImageBlob {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return ImageBlob{Name: "sample.png", MIMEType: "image/png", Data: buf.Bytes()}
}

type failingEncoder struct{ code format.Code }

func (f failingEncoder) Format() format.Code { return f.code }
func (f failingEncoder) Available() bool     { return true }
func (f failingEncoder) Encode(context.Context, image.Image, int) ([]byte, error) {
	return nil, errors.New("host declined")
}

func TestConvertPNGToJPEG(t *testing.T) {
	e := New(encoder.NewRegistry())
	out, err := e.Convert(context.Background(), pngBlob(t, 100, 100), Parameters{Format: format.JPEG, Quality: 80})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MIMEType)
	assert.Equal(t, "converted-image.jpeg", out.Name)
	assert.Equal(t, "sample.png", out.Source)
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 100, out.Height)

	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
}

func TestConvertResizesIndependently(t *testing.T) {
	e := New(encoder.NewRegistry())
	out, err := e.Convert(context.Background(), pngBlob(t, 100, 80), Parameters{Format: format.PNG, Quality: 90, Width: 50})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy(), "unset height keeps the source height")
}

func TestConvertZeroWidthMeansSource(t *testing.T) {
	e := New(encoder.NewRegistry())
	out, err := e.Convert(context.Background(), pngBlob(t, 64, 32), Parameters{Format: format.BMP, Width: 0, Height: -5})
	require.NoError(t, err)
	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 32, out.Height)
}

type svgDoc struct {
	XMLName xml.Name   `xml:"svg"`
	Width   int        `xml:"width,attr"`
	Height  int        `xml:"height,attr"`
	Images  []svgImage `xml:"image"`
}

func TestConvertSVGWrapsRaster(t *testing.T) {
	e := New(encoder.NewRegistryWith())
	out, err := e.Convert(context.Background(), pngBlob(t, 40, 20), Parameters{Format: format.SVG, Width: 30, Height: 12})
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", out.MIMEType)
	assert.Equal(t, "converted-image.svg", out.Name)

	var doc svgDoc
	require.NoError(t, xml.Unmarshal(out.Data, &doc))
	assert.Equal(t, 30, doc.Width)
	assert.Equal(t, 12, doc.Height)
	require.Len(t, doc.Images, 1)
	assert.Equal(t, 30, doc.Images[0].Width)
	assert.Equal(t, 12, doc.Images[0].Height)
	assert.Equal(t, 1, strings.Count(string(out.Data), "<image"))

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(doc.Images[0].Href, prefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(doc.Images[0].Href, prefix))
	require.NoError(t, err)
	embedded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 12), embedded.Bounds())
}

func TestConvertDecodeError(t *testing.T) {
	e := New(encoder.NewRegistry())
	src := ImageBlob{Name: "broken.png", MIMEType: "image/png", Data: []byte("not an image")}
	_, err := e.Convert(context.Background(), src, Parameters{Format: format.JPEG})

	require.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrEncode)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageDecode, ce.Stage)
	assert.Equal(t, "broken.png", ce.Source)
}

func TestConvertNoEncoder(t *testing.T) {
	e := New(encoder.NewRegistry())
	_, err := e.Convert(context.Background(), pngBlob(t, 8, 8), Parameters{Format: format.RAW})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestConvertEncoderDeclines(t *testing.T) {
	e := New(encoder.NewRegistryWith(failingEncoder{code: format.TGA}))
	_, err := e.Convert(context.Background(), pngBlob(t, 8, 8), Parameters{Format: format.TGA})
	require.ErrorIs(t, err, ErrEncode)
	assert.Contains(t, err.Error(), "host declined")
}

func TestConvertUnknownFormat(t *testing.T) {
	e := New(encoder.NewRegistry())
	_, err := e.Convert(context.Background(), pngBlob(t, 8, 8), Parameters{Format: "avif"})
	assert.ErrorIs(t, err, format.ErrUnknownFormat)
}

func TestResamplePassThrough(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, img, resample(img, 10, 10).(*image.NRGBA))
	assert.Equal(t, image.Rect(0, 0, 5, 20), resample(img, 5, 20).Bounds())
}

func TestParameters(t *testing.T) {
	assert.Equal(t, 100, ClampQuality(150))
	assert.Equal(t, 1, ClampQuality(0))
	assert.Equal(t, 55, ClampQuality(55))

	p := Parameters{Format: format.PNG, Quality: 400, Width: -3, Height: 12}.Normalize()
	assert.Equal(t, Parameters{Format: format.PNG, Quality: 100, Height: 12}, p)

	w, h := Parameters{Height: 7}.TargetSize(30, 40)
	assert.Equal(t, 30, w)
	assert.Equal(t, 7, h)

	assert.Equal(t, Parameters{Format: format.PNG, Quality: 90}, DefaultParameters())
}

func TestBlob(t *testing.T) {
	b := ImageBlob{Name: "a.txt", MIMEType: "text/plain", Data: []byte("abc")}
	assert.False(t, b.IsImage())
	assert.Equal(t, int64(3), b.Size())
	assert.True(t, ImageBlob{MIMEType: "image/heic"}.IsImage())
}
