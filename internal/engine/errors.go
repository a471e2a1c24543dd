package engine

import (
	"errors"
	"fmt"

	"github.com/AnyUserName/imgconv/internal/format"
)

var (
	// ErrDecode means the source is not an image the host can read.
	ErrDecode = errors.New("decode failed")
	// ErrEncode means the host could not produce the target format.
	ErrEncode = errors.New("encode failed")
	// ErrSvgEncode means the SVG wrapper document could not be assembled.
	ErrSvgEncode = errors.New("svg assembly failed")
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageResample Stage = "resample"
	StageEncode   Stage = "encode"
	StageSVG      Stage = "svg"
)

// ConversionError reports which stage of a conversion failed.
type ConversionError struct {
	Stage  Stage
	Format format.Code
	Source string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s %s as %s: %v", e.Stage, e.Source, e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is matches the stage sentinel, so errors.Is(err, ErrDecode) works without
// the underlying error having to wrap it.
func (e *ConversionError) Is(target error) bool {
	switch target {
	case ErrDecode:
		return e.Stage == StageDecode
	case ErrEncode:
		return e.Stage == StageEncode
	case ErrSvgEncode:
		return e.Stage == StageSVG
	}
	return false
}
