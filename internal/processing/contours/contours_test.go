package contours

import (
	"context"
	"image"
	"image/color"
	"testing"

	"colony-counter/internal/opencv/safe"
	"colony-counter/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func mask(t *testing.T, rows, cols int, draw func(m *gocv.Mat)) *safe.Mat {
	t.Helper()
	m := gocv.Zeros(rows, cols, gocv.MatTypeCV8UC1)
	defer m.Close()
	draw(&m)

	sm, err := safe.NewMatFromMat(m)
	require.NoError(t, err)
	t.Cleanup(sm.Close)
	return sm
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func TestDetectCountsExternalContoursOnly(t *testing.T) {
	original := testutil.Uniform(t, 100, 200, 3, 200)
	m := mask(t, 100, 200, func(m *gocv.Mat) {
		// ring with a hole: one external contour
		gocv.Circle(m, image.Pt(50, 50), 30, white, -1)
		gocv.Circle(m, image.Pt(50, 50), 10, color.RGBA{}, -1)
		gocv.Rectangle(m, image.Rect(120, 30, 160, 70), white, -1)
	})

	det, err := NewDetector().Detect(context.Background(), original, m)
	require.NoError(t, err)
	defer det.Annotated.Close()

	assert.Equal(t, 2, det.Count)
	assert.Equal(t, 3, det.Annotated.Channels())
	assert.Greater(t, det.Areas.Max, det.Areas.Min)
	assert.InDelta(t, (det.Areas.Min+det.Areas.Max)/2, det.Areas.Mean, 1e-9)
}

func TestDetectLeavesOriginalUntouched(t *testing.T) {
	original := testutil.Uniform(t, 80, 120, 3, 200)
	before := original.Bytes()
	m := mask(t, 80, 120, func(m *gocv.Mat) {
		gocv.Circle(m, image.Pt(60, 50), 15, white, -1)
	})

	det, err := NewDetector().Detect(context.Background(), original, m)
	require.NoError(t, err)
	defer det.Annotated.Close()

	assert.Equal(t, before, original.Bytes())
	assert.NotEqual(t, before, det.Annotated.Bytes(), "outline and caption must be drawn")

	// the outline sits on the circle boundary
	assert.Equal(t, uint8(255), testutil.PixelAt(t, det.Annotated, 50, 45, 1))
}

func TestDetectEmptyMask(t *testing.T) {
	original := testutil.Uniform(t, 40, 40, 3, 10)
	m := mask(t, 40, 40, func(*gocv.Mat) {})

	det, err := NewDetector().Detect(context.Background(), original, m)
	require.NoError(t, err)
	defer det.Annotated.Close()

	assert.Equal(t, 0, det.Count)
	assert.Equal(t, AreaStats{}, det.Areas)
}

func TestDetectRejectsMismatchedSizes(t *testing.T) {
	original := testutil.Uniform(t, 40, 40, 3, 10)
	m := mask(t, 20, 40, func(*gocv.Mat) {})

	_, err := NewDetector().Detect(context.Background(), original, m)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Objects Detected: 12", Caption(12))
	assert.Equal(t, "Detected Contours - Objects: 12", Label(12))
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{4, 1, 3, 2})
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.0, s.Median)
	assert.Greater(t, s.StdDev, 0.0)
}
