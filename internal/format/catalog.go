// Package format is the static catalog of output formats a conversion can
// target, together with how much the host can be trusted to encode them.
package format

import (
	"errors"
	"fmt"
)

// Code is the lowercase identifier of an output format ("jpeg", "png", ...).
type Code string

const (
	JPEG Code = "jpeg"
	PNG  Code = "png"
	WebP Code = "webp"
	GIF  Code = "gif"
	BMP  Code = "bmp"
	TIFF Code = "tiff"
	HEIF Code = "heif"
	PSD  Code = "psd"
	EXR  Code = "exr"
	RAW  Code = "raw"
	SVG  Code = "svg"
	EPS  Code = "eps"
	AI   Code = "ai"
	PDF  Code = "pdf"
	ICO  Code = "ico"
	TGA  Code = "tga"
	DDS  Code = "dds"
	PCX  Code = "pcx"
	XCF  Code = "xcf"
)

// Reliability says whether any standard image pipeline can encode a format
// or whether support depends on what the host has installed.
type Reliability int

const (
	Reliable Reliability = iota
	BestEffort
)

func (r Reliability) String() string {
	switch r {
	case Reliable:
		return "reliable"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("Reliability(%d)", int(r))
	}
}

// ErrUnknownFormat is returned for codes that are not in the catalog.
var ErrUnknownFormat = errors.New("unknown format")

// Descriptor describes one catalog entry.
type Descriptor struct {
	Code        Code
	Label       string
	Reliability Reliability
	MIMEType    string
}

// Extension returns the file extension without dot.
func (d Descriptor) Extension() string { return string(d.Code) }

// Presentation order. SVG is reliable because the engine assembles it
// itself instead of asking a host encoder.
var catalog = []Descriptor{
	{JPEG, "JPEG/JPG", Reliable, "image/jpeg"},
	{PNG, "PNG", Reliable, "image/png"},
	{WebP, "WebP", Reliable, "image/webp"},
	{GIF, "GIF", Reliable, "image/gif"},
	{BMP, "BMP", Reliable, "image/bmp"},
	{TIFF, "TIFF/TIF", BestEffort, "image/tiff"},
	{HEIF, "HEIF/HEIC", BestEffort, "image/heif"},
	{PSD, "PSD", BestEffort, "image/vnd.adobe.photoshop"},
	{EXR, "EXR", BestEffort, "image/x-exr"},
	{RAW, "RAW", BestEffort, "image/x-raw"},
	{SVG, "SVG", Reliable, "image/svg+xml"},
	{EPS, "EPS", BestEffort, "application/postscript"},
	{AI, "AI", BestEffort, "application/postscript"},
	{PDF, "PDF", BestEffort, "application/pdf"},
	{ICO, "ICO", BestEffort, "image/x-icon"},
	{TGA, "TGA", BestEffort, "image/x-tga"},
	{DDS, "DDS", BestEffort, "image/vnd-ms.dds"},
	{PCX, "PCX", BestEffort, "image/x-pcx"},
	{XCF, "XCF", BestEffort, "image/x-xcf"},
}

var byCode = func() map[Code]Descriptor {
	m := make(map[Code]Descriptor, len(catalog))
	for _, d := range catalog {
		m[d.Code] = d
	}
	return m
}()

// List returns all formats in presentation order. The slice is a copy.
func List() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the descriptor for code.
func Lookup(code Code) (Descriptor, error) {
	d, ok := byCode[code]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownFormat, string(code))
	}
	return d, nil
}

// ReliabilityOf reports whether code is Reliable or BestEffort.
func ReliabilityOf(code Code) (Reliability, error) {
	d, err := Lookup(code)
	if err != nil {
		return 0, err
	}
	return d.Reliability, nil
}

// Parse validates s as a catalog code. Matching is exact and case-sensitive.
func Parse(s string) (Code, error) {
	c := Code(s)
	if _, ok := byCode[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return c, nil
}

// Codes returns every code in presentation order.
func Codes() []Code {
	out := make([]Code, len(catalog))
	for i, d := range catalog {
		out[i] = d.Code
	}
	return out
}
