package filters

import (
	"context"
	"fmt"
	"image"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MorphologyFilter cleans a binary mask with an opening (removes specks)
// followed by a closing (merges fragments). Both use a square all-ones
// kernel. With n iterations an opening is n erosions then n dilations and a
// closing is n dilations then n erosions.
type MorphologyFilter struct{}

func NewMorphologyFilter() *MorphologyFilter {
	return &MorphologyFilter{}
}

func (m *MorphologyFilter) Name() string {
	return "morphology_filter"
}

func (m *MorphologyFilter) Label(params models.ParameterSet) string {
	return fmt.Sprintf("Morphology (Kernel: %d, Iterations: %d)", params.KernelSize, params.Iterations)
}

func (m *MorphologyFilter) Apply(ctx context.Context, input *safe.Mat, params models.ParameterSet) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateChannels(input, 1, "morphology"); err != nil {
		return nil, err
	}

	if params.KernelSize < 1 {
		return nil, models.NewValidationError(models.FieldKernelSize.String(), params.KernelSize, "must be positive")
	}
	if params.Iterations < 1 {
		return nil, models.NewValidationError(models.FieldIterations.String(), params.Iterations, "must be positive")
	}

	return m.applyMorphologicalCleanup(input, params.KernelSize, params.Iterations)
}

func (m *MorphologyFilter) applyMorphologicalCleanup(src *safe.Mat, kernelSize, iterations int) (*safe.Mat, error) {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()

	srcMat := src.GetMat()
	work := srcMat.Clone()

	// Opening operation to remove small noise
	work = repeat(work, kernel, iterations, erode)
	work = repeat(work, kernel, iterations, dilate)

	// Closing operation to connect broken regions
	work = repeat(work, kernel, iterations, dilate)
	work = repeat(work, kernel, iterations, erode)
	defer work.Close()

	result, err := safe.NewMatFromMatWithTag(work, "morphology")
	if err != nil {
		return nil, fmt.Errorf("failed to create result Mat: %w", err)
	}

	return result, nil
}

type morphOp int

const (
	erode morphOp = iota
	dilate
)

// repeat applies op n times, closing each intermediate. It consumes in.
func repeat(in gocv.Mat, kernel gocv.Mat, n int, op morphOp) gocv.Mat {
	current := in
	for i := 0; i < n; i++ {
		next := gocv.NewMat()
		switch op {
		case erode:
			gocv.Erode(current, &next, kernel)
		case dilate:
			gocv.Dilate(current, &next, kernel)
		}
		current.Close()
		current = next
	}
	return current
}
