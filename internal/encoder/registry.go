package encoder

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/imgconv/internal/format"
)

// Registry holds the usable encoder for each format. It is built once and
// read concurrently afterwards.
type Registry struct {
	encoders map[format.Code]Encoder
}

// candidates lists encoders per format in priority order. Formats absent
// here (raw, xcf) have no encoder on any host; svg is assembled by the engine.
func candidates() [][]Encoder {
	return [][]Encoder{
		{&JPEGEncoder{}},
		{&PNGEncoder{}},
		{&WebPEncoder{}},
		{&GIFEncoder{}},
		{&BMPEncoder{}},
		{&TIFFEncoder{}},
		{&HEIFEncoder{}, NewMagickEncoder(format.HEIF)},
		{NewMagickEncoder(format.PSD)},
		{NewMagickEncoder(format.EXR)},
		{NewMagickEncoder(format.EPS)},
		{NewMagickEncoder(format.AI)},
		{&PDFEncoder{}},
		{&ICOEncoder{}},
		{&TGAEncoder{}},
		{NewMagickEncoder(format.DDS)},
		{&PCXEncoder{}},
	}
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{encoders: make(map[format.Code]Encoder)}
	for _, group := range candidates() {
		for _, enc := range group {
			if enc.Available() {
				r.encoders[enc.Format()] = enc
				break
			}
		}
	}
	return r
}

// NewRegistryWith builds a registry from explicit encoders, skipping
// unavailable ones. Later entries replace earlier ones for the same format.
func NewRegistryWith(encs ...Encoder) *Registry {
	r := &Registry{encoders: make(map[format.Code]Encoder)}
	for _, enc := range encs {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(code format.Code) Encoder {
	return r.encoders[code]
}

// Has reports whether code can be encoded on this host.
func (r *Registry) Has(code format.Code) bool {
	_, ok := r.encoders[code]
	return ok
}

// Available returns all encodable formats in catalog order.
func (r *Registry) Available() []format.Code {
	var result []format.Code
	for _, c := range format.Codes() {
		if _, ok := r.encoders[c]; ok {
			result = append(result, c)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	names := make([]string, len(avail))
	for i, c := range avail {
		names[i] = string(c)
	}
	return fmt.Sprintf("encoders: %s", strings.Join(names, ", "))
}

// Backend names what produces code on this host, or "" if nothing does.
func (r *Registry) Backend(code format.Code) string {
	switch r.encoders[code].(type) {
	case nil:
		return ""
	case *HEIFEncoder:
		return "heif-enc"
	case *MagickEncoder:
		return "magick"
	case *WebPEncoder:
		return "libwebp"
	case *PDFEncoder:
		return "gofpdf"
	default:
		return "native"
	}
}
