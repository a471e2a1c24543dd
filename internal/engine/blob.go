package engine

import (
	"bytes"
	"io"
	"strings"

	"github.com/AnyUserName/imgconv/internal/format"
)

// ImageBlob is an immutable named payload with a declared MIME type.
// Holders never modify Data.
type ImageBlob struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size is the payload length in bytes.
func (b ImageBlob) Size() int64 { return int64(len(b.Data)) }

// IsImage reports whether the declared MIME type is in the image/ class.
func (b ImageBlob) IsImage() bool { return strings.HasPrefix(b.MIMEType, "image/") }

// Open returns a reader over the payload. Callers must Close it.
func (b ImageBlob) Open() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.Data))
}

// OutputBlob is the product of one successful conversion.
type OutputBlob struct {
	Name     string // suggested filename
	MIMEType string
	Data     []byte
	Format   format.Code
	Width    int
	Height   int
	Source   string // name of the source blob
}

// Size is the payload length in bytes.
func (b OutputBlob) Size() int64 { return int64(len(b.Data)) }

// OutputName is the filename every conversion to code is exported under.
// Items converted to the same format share it.
func OutputName(code format.Code) string {
	return "converted-image." + string(code)
}
