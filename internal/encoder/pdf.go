package encoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/disintegration/imaging"
	"github.com/phpdave11/gofpdf"
	"github.com/pkg/errors"
)

// PDFEncoder places the image on a single page of exactly its size
// (1px = 1pt), embedded as JPEG at the requested quality.
type PDFEncoder struct{}

func (e *PDFEncoder) Format() format.Code { return format.PDF }
func (e *PDFEncoder) Available() bool     { return true }

func (e *PDFEncoder) Encode(_ context.Context, img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// JPEG has no alpha; flatten onto white so transparent areas don't go black.
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)

	var jbuf bytes.Buffer
	if err := jpeg.Encode(&jbuf, flat, &jpeg.Options{Quality: normQuality(quality)}); err != nil {
		return nil, errors.Wrap(err, "encode page image")
	}

	size := gofpdf.SizeType{Wd: w, Ht: h}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", size)

	opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("page", opts, &jbuf)
	pdf.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return out.Bytes(), nil
}
