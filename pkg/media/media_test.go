package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLoadImage(t *testing.T) {
	p := writeFile(t, "grandpa.png", pngHeader)

	img, err := LoadImage(p)
	require.NoError(t, err)
	assert.Equal(t, "grandpa.png", img.FileName)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len(pngHeader)), img.Size)
	assert.Equal(t, Checksum(pngHeader), img.SHA256)
	assert.Len(t, img.SHA256, 64)
}

func TestLoadImage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.jpg") }},
		{"directory", func(t *testing.T) string { return t.TempDir() }},
		{"empty", func(t *testing.T) string { return writeFile(t, "empty.jpg", nil) }},
		{"not an image", func(t *testing.T) string { return writeFile(t, "notes.jpg", []byte("hello, world")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadImage(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestIsSupportedType(t *testing.T) {
	assert.True(t, IsSupportedType("image/jpeg"))
	assert.True(t, IsSupportedType("IMAGE/PNG"))
	assert.True(t, IsSupportedType("image/webp; charset=binary"))
	assert.False(t, IsSupportedType("text/plain; charset=utf-8"))
	assert.False(t, IsSupportedType(""))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(nil))
}
