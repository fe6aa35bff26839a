package filters

import (
	"context"
	"fmt"
	"image"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// GaussianFilter smooths with a square kernel of side params.Blur. Sigma is
// passed as zero so OpenCV derives it from the kernel size.
type GaussianFilter struct{}

func NewGaussianFilter() *GaussianFilter {
	return &GaussianFilter{}
}

func (g *GaussianFilter) Name() string {
	return "gaussian_filter"
}

func (g *GaussianFilter) Label(params models.ParameterSet) string {
	return fmt.Sprintf("Smoothed (Blur: %d)", params.Blur)
}

func (g *GaussianFilter) Apply(ctx context.Context, input *safe.Mat, params models.ParameterSet) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateChannels(input, 1, "gaussian blur"); err != nil {
		return nil, err
	}

	if params.Blur < 1 || params.Blur%2 == 0 {
		return nil, models.NewValidationError(models.FieldBlur.String(), params.Blur, "kernel size must be odd and positive")
	}

	return g.applyGaussianBlur(input, params.Blur)
}

func (g *GaussianFilter) applyGaussianBlur(src *safe.Mat, kernelSize int) (*safe.Mat, error) {
	dst, err := safe.NewMatWithTag(src.Rows(), src.Cols(), src.Type(), "smoothed")
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()

	gocv.GaussianBlur(srcMat, &dstMat, image.Point{X: kernelSize, Y: kernelSize}, 0, 0, gocv.BorderDefault)

	return dst, nil
}
