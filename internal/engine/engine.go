// Package engine runs one conversion: decode the source, resample it to the
// requested size and encode it to the target format. An Engine holds no
// per-call state and is safe for concurrent use.
package engine

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/AnyUserName/imgconv/internal/encoder"
	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Engine converts image blobs using the encoders in its registry.
type Engine struct {
	registry *encoder.Registry
	log      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-stage debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine over registry.
func New(registry *encoder.Registry, opts ...Option) *Engine {
	e := &Engine{registry: registry, log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry exposes the encoders the engine was built with.
func (e *Engine) Registry() *encoder.Registry { return e.registry }

// Convert performs decode, resample and encode, in that order, once.
func (e *Engine) Convert(ctx context.Context, src ImageBlob, p Parameters) (*OutputBlob, error) {
	p = p.Normalize()
	fail := func(stage Stage, err error) (*OutputBlob, error) {
		return nil, &ConversionError{Stage: stage, Format: p.Format, Source: src.Name, Err: err}
	}

	desc, err := format.Lookup(p.Format)
	if err != nil {
		return fail(StageEncode, err)
	}

	start := time.Now()
	img, err := decode(src)
	if err != nil {
		return fail(StageDecode, err)
	}
	bounds := img.Bounds()
	w, h := p.TargetSize(bounds.Dx(), bounds.Dy())
	e.log.Debug("decoded",
		zap.String("source", src.Name),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Duration("took", time.Since(start)),
	)

	start = time.Now()
	resized := resample(img, w, h)
	e.log.Debug("resampled",
		zap.String("source", src.Name),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Duration("took", time.Since(start)),
	)

	start = time.Now()
	var data []byte
	if p.Format == format.SVG {
		data, err = wrapSVG(resized, w, h)
		if err != nil {
			return fail(StageSVG, err)
		}
	} else {
		enc := e.registry.Get(p.Format)
		if enc == nil {
			return fail(StageEncode, fmt.Errorf("no %s encoder available on this host", desc.Label))
		}
		data, err = enc.Encode(ctx, resized, p.Quality)
		if err != nil {
			return fail(StageEncode, err)
		}
		if len(data) == 0 {
			return fail(StageEncode, fmt.Errorf("%s encoder produced no data", desc.Label))
		}
	}
	e.log.Debug("encoded",
		zap.String("source", src.Name),
		zap.String("format", string(p.Format)),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)),
	)

	return &OutputBlob{
		Name:     OutputName(p.Format),
		MIMEType: desc.MIMEType,
		Data:     data,
		Format:   p.Format,
		Width:    w,
		Height:   h,
		Source:   src.Name,
	}, nil
}

// decode holds the source reader only for the duration of the decode.
func decode(src ImageBlob) (image.Image, error) {
	rc := src.Open()
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// resample scales img to exactly w x h with a Lanczos filter; the aspect
// ratio is not preserved. Same-size requests pass img through untouched.
func resample(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
