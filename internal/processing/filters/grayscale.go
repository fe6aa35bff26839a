package filters

import (
	"context"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/conversion"
	"colony-counter/internal/opencv/safe"
)

// GrayscaleConverter reduces a color image to single-channel intensity
type GrayscaleConverter struct{}

func NewGrayscaleConverter() *GrayscaleConverter {
	return &GrayscaleConverter{}
}

func (g *GrayscaleConverter) Name() string {
	return "grayscale"
}

func (g *GrayscaleConverter) Label(models.ParameterSet) string {
	return "Grayscale"
}

func (g *GrayscaleConverter) Apply(ctx context.Context, input *safe.Mat, params models.ParameterSet) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return conversion.ConvertToGrayscale(input)
}
