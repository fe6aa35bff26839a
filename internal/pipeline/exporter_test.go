package pipeline

import (
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"colony-counter/internal/models"
	"colony-counter/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	assert.Equal(t, "output_contours_20240309_140507.jpg", FileName(ExportContours, at))
	assert.Equal(t, "output_final_20240309_140507.jpg", FileName(ExportFinal, at))
}

func TestExportsAtDifferentSecondsAreDistinctAndDecodable(t *testing.T) {
	dir := t.TempDir()
	img := testutil.FivePlate().Mat(t)
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	exp := NewExporter(dir, nil).WithClock(fixedClock(at))
	first, err := exp.Export(img, ExportFinal)
	require.NoError(t, err)

	exp.WithClock(fixedClock(at.Add(time.Second)))
	second, err := exp.Export(img, ExportFinal)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, path := range []string{first, second} {
		assert.Equal(t, dir, filepath.Dir(path))

		f, err := os.Open(path)
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, img.Cols(), cfg.Width)
		assert.Equal(t, img.Rows(), cfg.Height)
	}
}

func TestExportNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	img := testutil.FivePlate().Mat(t)
	exp := NewExporter(dir, nil).WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)))

	path, err := exp.Export(img, ExportContours)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)

	_, err = exp.Export(img, ExportContours)
	assert.ErrorIs(t, err, models.ErrExportFailure)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), after.Size())
}

func TestExportFailureOnUnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewExporter(filepath.Join(blocker, "sub"), nil).Export(testutil.FivePlate().Mat(t), ExportFinal)
	assert.ErrorIs(t, err, models.ErrExportFailure)
}

func TestExportRejectsInvalidImage(t *testing.T) {
	_, err := NewExporter(t.TempDir(), nil).Export(nil, ExportFinal)
	assert.ErrorIs(t, err, models.ErrExportFailure)
}
