// Package testutil builds synthetic plate images for tests.
package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"colony-counter/internal/opencv/safe"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	Background = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	Colony     = color.RGBA{R: 60, G: 50, B: 40, A: 255}
)

// Plate describes a uniform light plate with dark filled circles and
// optional single-pixel specks.
type Plate struct {
	Width, Height int
	Centers       []image.Point
	Radius        int
	Specks        []image.Point
}

// FivePlate has five well-separated colonies.
func FivePlate() Plate {
	return Plate{
		Width:  520,
		Height: 200,
		Radius: 22,
		Centers: []image.Point{
			{X: 60, Y: 100}, {X: 160, Y: 100}, {X: 260, Y: 100}, {X: 360, Y: 100}, {X: 460, Y: 100},
		},
	}
}

// Draw renders the plate as a BGR gocv.Mat. The caller closes it.
func (p Plate) Draw() gocv.Mat {
	bg := gocv.NewScalar(float64(Background.B), float64(Background.G), float64(Background.R), 0)
	m := gocv.NewMatWithSizeFromScalar(bg, p.Height, p.Width, gocv.MatTypeCV8UC3)
	for _, c := range p.Centers {
		gocv.Circle(&m, c, p.Radius, Colony, -1)
	}
	for _, s := range p.Specks {
		m.SetUCharAt3(s.Y, s.X, 0, Colony.B)
		m.SetUCharAt3(s.Y, s.X, 1, Colony.G)
		m.SetUCharAt3(s.Y, s.X, 2, Colony.R)
	}
	return m
}

// Mat renders the plate wrapped in a safe.Mat released at test cleanup.
func (p Plate) Mat(t testing.TB) *safe.Mat {
	t.Helper()
	m := p.Draw()
	defer m.Close()

	sm, err := safe.NewMatFromMatWithTag(m, "plate")
	require.NoError(t, err)
	t.Cleanup(sm.Close)
	return sm
}

// WritePNG encodes the plate to dir/name and returns the path.
func (p Plate) WritePNG(t testing.TB, dir, name string) string {
	t.Helper()
	m := p.Draw()
	defer m.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, m)
	require.NoError(t, err)
	defer buf.Close()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.GetBytes(), 0o644))
	return path
}

// Uniform returns a single-valued image with the given number of channels.
func Uniform(t testing.TB, rows, cols, channels int, value uint8) *safe.Mat {
	t.Helper()
	mt := gocv.MatTypeCV8UC1
	if channels == 3 {
		mt = gocv.MatTypeCV8UC3
	}
	v := float64(value)
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, mt)
	defer m.Close()

	sm, err := safe.NewMatFromMat(m)
	require.NoError(t, err)
	t.Cleanup(sm.Close)
	return sm
}

// Gray wraps a single-channel Mat built from row-major values.
func Gray(t testing.TB, rows, cols int, values []uint8) *safe.Mat {
	t.Helper()
	require.Len(t, values, rows*cols)
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, values)
	require.NoError(t, err)
	defer m.Close()

	sm, err := safe.NewMatFromMat(m)
	require.NoError(t, err)
	t.Cleanup(sm.Close)
	return sm
}

// PixelAt reads channel ch of the pixel at (row, col) from m's raw data.
func PixelAt(t testing.TB, m *safe.Mat, row, col, ch int) uint8 {
	t.Helper()
	data := m.Bytes()
	require.NotNil(t, data)
	idx := (row*m.Cols()+col)*m.Channels() + ch
	require.Less(t, idx, len(data))
	return data[idx]
}
