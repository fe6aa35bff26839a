package filters

import (
	"context"
	"image"
	"image/color"
	"testing"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"
	"colony-counter/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func maskWith(t *testing.T, draw func(m *gocv.Mat)) *safe.Mat {
	t.Helper()
	m := gocv.Zeros(60, 60, gocv.MatTypeCV8UC1)
	defer m.Close()
	draw(&m)

	sm, err := safe.NewMatFromMat(m)
	require.NoError(t, err)
	t.Cleanup(sm.Close)
	return sm
}

func TestGrayscaleConverter(t *testing.T) {
	input := testutil.Uniform(t, 8, 8, 3, 90)

	out, err := NewGrayscaleConverter().Apply(context.Background(), input, models.DefaultParameters())
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 1, out.Channels())
	assert.Equal(t, uint8(90), testutil.PixelAt(t, out, 4, 4, 0))
	assert.Equal(t, 3, input.Channels(), "input must be left untouched")
}

func TestGaussianFilterKeepsUniformImage(t *testing.T) {
	input := testutil.Uniform(t, 16, 16, 1, 128)
	params := models.DefaultParameters()

	out, err := NewGaussianFilter().Apply(context.Background(), input, params)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, input.Bytes(), out.Bytes())
	assert.Equal(t, "Smoothed (Blur: 5)", NewGaussianFilter().Label(params))
}

func TestGaussianFilterRejectsEvenKernel(t *testing.T) {
	input := testutil.Uniform(t, 4, 4, 1, 1)
	params := models.DefaultParameters()
	params.Blur = 4

	_, err := NewGaussianFilter().Apply(context.Background(), input, params)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestMorphologyRemovesSpecksKeepsBlobs(t *testing.T) {
	input := maskWith(t, func(m *gocv.Mat) {
		gocv.Rectangle(m, image.Rect(10, 10, 30, 30), white, -1)
		m.SetUCharAt(45, 45, 255)
	})

	out, err := NewMorphologyFilter().Apply(context.Background(), input, models.DefaultParameters())
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, uint8(0), testutil.PixelAt(t, out, 45, 45, 0), "speck")
	assert.Equal(t, uint8(255), testutil.PixelAt(t, out, 20, 20, 0), "center")
}

func TestMorphologyClosesGaps(t *testing.T) {
	// two bars separated by a one pixel gap at column 28
	input := maskWith(t, func(m *gocv.Mat) {
		gocv.Rectangle(m, image.Rect(10, 10, 27, 40), white, -1)
		gocv.Rectangle(m, image.Rect(29, 10, 50, 40), white, -1)
	})
	params := models.DefaultParameters()
	params.KernelSize = 3

	out, err := NewMorphologyFilter().Apply(context.Background(), input, params)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, uint8(255), testutil.PixelAt(t, out, 25, 28, 0))
}

func TestMorphologyIsDeterministic(t *testing.T) {
	input := maskWith(t, func(m *gocv.Mat) {
		gocv.Circle(m, image.Pt(30, 30), 12, white, -1)
	})
	params := models.DefaultParameters()
	params.Iterations = 3

	a, err := NewMorphologyFilter().Apply(context.Background(), input, params)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewMorphologyFilter().Apply(context.Background(), input, params)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, "Morphology (Kernel: 2, Iterations: 3)", NewMorphologyFilter().Label(params))
}
