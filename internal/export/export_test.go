package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blob(data string) engine.OutputBlob {
	return engine.OutputBlob{Name: "converted-image.png", MIMEType: "image/png", Data: []byte(data)}
}

func TestDirSinkOverwritesByDefault(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDirSink(dir, false)
	require.NoError(t, err)

	require.NoError(t, s.Export(context.Background(), blob("first")))
	require.NoError(t, s.Export(context.Background(), blob("second")))

	data, err := os.ReadFile(filepath.Join(dir, "converted-image.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Len(t, s.Written(), 2)
	assert.Equal(t, "converted-image.png", s.Written()[1].Path)
}

func TestDirSinkDedupe(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDirSink(filepath.Join(dir, "nested"), true)
	require.NoError(t, err)

	for _, d := range []string{"a", "b", "c"} {
		require.NoError(t, s.Export(context.Background(), blob(d)))
	}
	var paths []string
	for _, w := range s.Written() {
		paths = append(paths, w.Path)
	}
	assert.Equal(t, []string{"converted-image.png", "converted-image-1.png", "converted-image-2.png"}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "nested", "converted-image-2.png"))
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
}

func TestMemory(t *testing.T) {
	var m Memory
	require.NoError(t, m.Export(context.Background(), blob("x")))
	assert.Len(t, m.Outputs(), 1)
}
