package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/pkg/errors"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// toolProbe resolves an executable from PATH once.
type toolProbe struct {
	name string
	once sync.Once
	path string
}

func (p *toolProbe) lookup() (string, bool) {
	p.once.Do(func() {
		if path, err := exec.LookPath(p.name); err == nil {
			p.path = path
		}
	})
	return p.path, p.path != ""
}

var (
	heifEncTool = &toolProbe{name: "heif-enc"}
	magickTool  = &toolProbe{name: "magick"}
)

// HEIFEncoder encodes HEIF by shelling out to heif-enc (libheif).
// Install: brew install libheif / apt install libheif-examples
type HEIFEncoder struct {
	probe *toolProbe
}

func (e *HEIFEncoder) Format() format.Code { return format.HEIF }

func (e *HEIFEncoder) tool() *toolProbe {
	if e.probe == nil {
		return heifEncTool
	}
	return e.probe
}

func (e *HEIFEncoder) Available() bool {
	_, ok := e.tool().lookup()
	return ok
}

func (e *HEIFEncoder) Encode(ctx context.Context, img image.Image, quality int) ([]byte, error) {
	bin, ok := e.tool().lookup()
	if !ok {
		return nil, errors.New("heif-enc not found in PATH; install libheif")
	}

	// heif-enc only reads files, so stage the frame as PNG.
	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("imgconv_heif_src_%d_*.png", id))
	if err != nil {
		return nil, errors.Wrap(err, "create temp")
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	dstFile, err := os.CreateTemp("", fmt.Sprintf("imgconv_heif_dst_%d_*.heic", id))
	if err != nil {
		srcFile.Close()
		return nil, errors.Wrap(err, "create temp")
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	data, err := encodePNG(img)
	if err != nil {
		srcFile.Close()
		return nil, errors.Wrap(err, "encode temp png")
	}
	if _, err := srcFile.Write(data); err != nil {
		srcFile.Close()
		return nil, errors.Wrap(err, "write temp png")
	}
	if err := srcFile.Close(); err != nil {
		return nil, errors.Wrap(err, "close temp png")
	}

	cmd := exec.CommandContext(ctx, bin,
		"-q", strconv.Itoa(normQuality(quality)),
		"-o", dstPath,
		srcPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errors.Wrapf(err, "heif-enc: %s", bytes.TrimSpace(out))
	}

	return os.ReadFile(dstPath)
}

// MagickEncoder pipes a PNG frame through ImageMagick and reads the target
// format back from stdout. One instance serves one format.
type MagickEncoder struct {
	format format.Code
	probe  *toolProbe
}

// NewMagickEncoder returns an ImageMagick-backed encoder for code.
func NewMagickEncoder(code format.Code) *MagickEncoder {
	return &MagickEncoder{format: code}
}

func (e *MagickEncoder) Format() format.Code { return e.format }

func (e *MagickEncoder) tool() *toolProbe {
	if e.probe == nil {
		return magickTool
	}
	return e.probe
}

func (e *MagickEncoder) Available() bool {
	_, ok := e.tool().lookup()
	return ok
}

func (e *MagickEncoder) Encode(ctx context.Context, img image.Image, quality int) ([]byte, error) {
	bin, ok := e.tool().lookup()
	if !ok {
		return nil, errors.New("magick not found in PATH; install ImageMagick")
	}

	src, err := encodePNG(img)
	if err != nil {
		return nil, errors.Wrap(err, "encode png frame")
	}

	cmd := exec.CommandContext(ctx, bin,
		"png:-",
		"-quality", strconv.Itoa(normQuality(quality)),
		string(e.format)+":-",
	)
	cmd.Stdin = bytes.NewReader(src)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "magick %s: %s", e.format, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, errors.Errorf("magick %s: empty output", e.format)
	}
	return stdout.Bytes(), nil
}
