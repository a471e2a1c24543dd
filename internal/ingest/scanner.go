// Package ingest turns files on disk into image blobs for a batch.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/gabriel-vasile/mimetype"
)

// Collect expands paths into a list of regular files. Directories are
// walked recursively; hidden files and directories are skipped. Order is
// the order of paths, then lexical within each directory.
func Collect(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && hidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return files, nil
}

// ReadFile loads path and sniffs its MIME type from the content. The
// extension is not consulted.
func ReadFile(path string) (engine.ImageBlob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.ImageBlob{}, err
	}
	return engine.ImageBlob{
		Name:     filepath.Base(path),
		MIMEType: mimetype.Detect(data).String(),
		Data:     data,
	}, nil
}

// Load collects and reads every file under paths.
func Load(paths []string) ([]engine.ImageBlob, error) {
	files, err := Collect(paths)
	if err != nil {
		return nil, err
	}
	blobs := make([]engine.ImageBlob, 0, len(files))
	for _, f := range files {
		b, err := ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		blobs = append(blobs, b)
	}
	return blobs, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
