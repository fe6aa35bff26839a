package threshold

import (
	"context"
	"fmt"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MaxValue is the intensity given to foreground pixels.
const MaxValue = 255

// InverseBinary marks pixels at or below the cutoff as foreground (MaxValue)
// and brighter pixels as background (0). Colonies are darker than the plate.
type InverseBinary struct{}

func NewInverseBinary() *InverseBinary {
	return &InverseBinary{}
}

func (t *InverseBinary) Name() string {
	return "inverse_binary_threshold"
}

func (t *InverseBinary) Label(params models.ParameterSet) string {
	return fmt.Sprintf("Threshold (Value: %d)", params.Threshold)
}

func (t *InverseBinary) Apply(ctx context.Context, input *safe.Mat, params models.ParameterSet) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateChannels(input, 1, "threshold"); err != nil {
		return nil, err
	}

	r := models.Range(models.FieldThreshold)
	if !r.Contains(params.Threshold) {
		return nil, models.NewValidationError(models.FieldThreshold.String(), params.Threshold,
			fmt.Sprintf("must be within [%d, %d]", r.Min, r.Max))
	}

	dst, err := safe.NewMatWithTag(input.Rows(), input.Cols(), gocv.MatTypeCV8UC1, "threshold")
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	srcMat := input.GetMat()
	dstMat := dst.GetMat()
	gocv.Threshold(srcMat, &dstMat, float32(params.Threshold), MaxValue, gocv.ThresholdBinaryInv)

	return dst, nil
}
