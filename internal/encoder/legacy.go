package encoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/AnyUserName/imgconv/internal/format"
	ico "github.com/biessek/golang-ico"
	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
)

// ICOEncoder writes a single-entry icon. Icons are limited to 256x256.
type ICOEncoder struct{}

const maxICODim = 256

func (e *ICOEncoder) Format() format.Code { return format.ICO }
func (e *ICOEncoder) Available() bool     { return true }

func (e *ICOEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() > maxICODim || b.Dy() > maxICODim {
		return nil, fmt.Errorf("ico: %dx%d exceeds %dx%d", b.Dx(), b.Dy(), maxICODim, maxICODim)
	}
	var buf bytes.Buffer
	if err := ico.Encode(&buf, imaging.Clone(img)); err != nil {
		return nil, fmt.Errorf("ico encode: %w", err)
	}
	return buf.Bytes(), nil
}

// TGAEncoder writes uncompressed truecolor TGA.
type TGAEncoder struct{}

func (e *TGAEncoder) Format() format.Code { return format.TGA }
func (e *TGAEncoder) Available() bool     { return true }

func (e *TGAEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return nil, fmt.Errorf("tga: %dx%d exceeds 65535", b.Dx(), b.Dy())
	}
	var buf bytes.Buffer
	if err := tga.Encode(&buf, imaging.Clone(img)); err != nil {
		return nil, fmt.Errorf("tga encode: %w", err)
	}
	return buf.Bytes(), nil
}

// PCXEncoder writes 24-bit PCX (three 8-bit planes, RLE). Alpha is dropped.
type PCXEncoder struct{}

func (e *PCXEncoder) Format() format.Code { return format.PCX }
func (e *PCXEncoder) Available() bool     { return true }

func (e *PCXEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w > 0xFFFF || h > 0xFFFF {
		return nil, fmt.Errorf("pcx: %dx%d exceeds 65535", w, h)
	}
	bpl := w + w%2 // bytes per plane line must be even

	var hdr [128]byte
	hdr[0] = 0x0A // manufacturer
	hdr[1] = 5    // version 3.0
	hdr[2] = 1    // RLE
	hdr[3] = 8    // bits per pixel per plane
	binary.LittleEndian.PutUint16(hdr[8:], uint16(w-1))
	binary.LittleEndian.PutUint16(hdr[10:], uint16(h-1))
	binary.LittleEndian.PutUint16(hdr[12:], 72)
	binary.LittleEndian.PutUint16(hdr[14:], 72)
	hdr[65] = 3 // planes
	binary.LittleEndian.PutUint16(hdr[66:], uint16(bpl))
	binary.LittleEndian.PutUint16(hdr[68:], 1) // color palette

	var buf bytes.Buffer
	buf.Write(hdr[:])
	plane := make([]byte, bpl)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for c := 0; c < 3; c++ {
			for x := 0; x < w; x++ {
				plane[x] = row[x*4+c]
			}
			writePCXRun(&buf, plane)
		}
	}
	return buf.Bytes(), nil
}

func writePCXRun(buf *bytes.Buffer, line []byte) {
	for i := 0; i < len(line); {
		v := line[i]
		n := 1
		for i+n < len(line) && line[i+n] == v && n < 63 {
			n++
		}
		if n > 1 || v >= 0xC0 {
			buf.WriteByte(0xC0 | byte(n))
		}
		buf.WriteByte(v)
		i += n
	}
}
