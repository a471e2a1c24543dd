package engine

import "github.com/AnyUserName/imgconv/internal/format"

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 90
)

// Parameters controls one conversion. Width and Height of 0 mean "use the
// source dimension".
type Parameters struct {
	Format  format.Code
	Quality int
	Width   int
	Height  int
}

// DefaultParameters is what a freshly ingested item starts with.
func DefaultParameters() Parameters {
	return Parameters{Format: format.PNG, Quality: DefaultQuality}
}

// ClampQuality forces q into [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// NormalizeDimension maps non-positive input to 0 (unset).
func NormalizeDimension(v int) int {
	if v <= 0 {
		return 0
	}
	return v
}

// Normalize clamps quality and resets non-positive dimensions to unset.
func (p Parameters) Normalize() Parameters {
	p.Quality = ClampQuality(p.Quality)
	p.Width = NormalizeDimension(p.Width)
	p.Height = NormalizeDimension(p.Height)
	return p
}

// TargetSize resolves the output size against the source size.
func (p Parameters) TargetSize(srcW, srcH int) (int, int) {
	w, h := p.Width, p.Height
	if w <= 0 {
		w = srcW
	}
	if h <= 0 {
		h = srcH
	}
	return w, h
}
