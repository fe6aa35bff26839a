package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"colony-counter/internal/models"
	"colony-counter/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadValidPNG(t *testing.T) {
	dir := t.TempDir()
	path := testutil.FivePlate().WritePNG(t, dir, "plate.png")

	mat, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 3, mat.Channels())
	assert.Equal(t, 520, mat.Cols())
	assert.Equal(t, 200, mat.Rows())
}

func TestLoadInvalidInput(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an image"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(dir, "missing.png")},
		{name: "zero bytes", path: empty},
		{name: "undecodable", path: garbage},
		{name: "directory", path: dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat, err := NewLoader(nil).Load(tt.path)
			assert.Nil(t, mat)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestLoadFromBytesEmpty(t *testing.T) {
	_, err := NewLoader(nil).LoadFromBytes(nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestLoadFromBytesRejectsGIF(t *testing.T) {
	// 1x1 GIF89a with an empty global palette.
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

	mat, err := NewLoader(nil).LoadFromBytes(gif)
	assert.Nil(t, mat)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, err.Error(), "unrecognized image format")
}
