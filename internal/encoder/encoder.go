// Package encoder holds the host's image encoders, one per output format,
// and a registry that only exposes the ones usable on this machine.
package encoder

import (
	"context"
	"image"

	"github.com/AnyUserName/imgconv/internal/format"
)

// DefaultQuality is used when an encoder receives a quality outside 1-100.
const DefaultQuality = 90

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the catalog code this encoder produces.
	Format() format.Code

	// Encode converts the image to bytes at the given quality (1-100).
	// Formats without a quality axis ignore it.
	Encode(ctx context.Context, img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (heif-enc, magick) may not be installed.
	Available() bool
}

func normQuality(q int) int {
	if q <= 0 || q > 100 {
		return DefaultQuality
	}
	return q
}
