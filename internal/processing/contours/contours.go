package contours

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sort"

	"colony-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

var (
	// OutlineColor is used for contour outlines and the count caption.
	OutlineColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

	// CaptionOrigin is the bottom-left corner of the count caption.
	CaptionOrigin = image.Point{X: 10, Y: 30}
)

const (
	outlineThickness = 2
	captionScale     = 1.0
	captionThickness = 2
)

// AreaStats summarises the pixel areas enclosed by the detected contours.
type AreaStats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// Detection is the outcome of contour analysis on a cleaned binary mask.
type Detection struct {
	Annotated *safe.Mat
	Count     int
	Areas     AreaStats
}

// Caption is the text burned into the annotated image.
func Caption(count int) string {
	return fmt.Sprintf("Objects Detected: %d", count)
}

// Label is the gallery label of the detection stage.
func Label(count int) string {
	return fmt.Sprintf("Detected Contours - Objects: %d", count)
}

// Detector finds external contours only; holes inside an object are ignored.
// Points are compressed with the simple chain approximation.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Name() string {
	return "contour_detector"
}

// Detect draws every contour found in mask onto a copy of original and
// captions the copy with the object count. Neither input is modified.
func (d *Detector) Detect(ctx context.Context, original, mask *safe.Mat) (*Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateChannels(mask, 1, "contour detection"); err != nil {
		return nil, err
	}
	if err := safe.ValidateChannels(original, 3, "contour annotation"); err != nil {
		return nil, err
	}
	if original.Rows() != mask.Rows() || original.Cols() != mask.Cols() {
		return nil, fmt.Errorf("mask size %dx%d does not match image size %dx%d",
			mask.Cols(), mask.Rows(), original.Cols(), original.Rows())
	}

	found := gocv.FindContours(mask.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	count := found.Size()
	areas := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		areas = append(areas, gocv.ContourArea(found.At(i)))
	}

	originalMat := original.GetMat()
	canvas := originalMat.Clone()
	defer canvas.Close()

	gocv.DrawContours(&canvas, found, -1, OutlineColor, outlineThickness)
	gocv.PutTextWithParams(&canvas, Caption(count), CaptionOrigin, gocv.FontHersheySimplex,
		captionScale, OutlineColor, captionThickness, gocv.LineAA, false)

	annotated, err := safe.NewMatFromMatWithTag(canvas, "detected_contours")
	if err != nil {
		return nil, fmt.Errorf("failed to create annotated Mat: %w", err)
	}

	return &Detection{
		Annotated: annotated,
		Count:     count,
		Areas:     summarize(areas),
	}, nil
}

func summarize(areas []float64) AreaStats {
	if len(areas) == 0 {
		return AreaStats{}
	}

	sorted := make([]float64, len(areas))
	copy(sorted, areas)
	sort.Float64s(sorted)

	stats := AreaStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		stats.StdDev = stat.StdDev(sorted, nil)
	}
	return stats
}
