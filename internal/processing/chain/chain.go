package chain

import (
	"context"
	"fmt"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"
)

// ProcessingStep is one transform of the chain. Apply must not modify input.
type ProcessingStep interface {
	Apply(ctx context.Context, input *safe.Mat, params models.ParameterSet) (*safe.Mat, error)
	Name() string
	Label(params models.ParameterSet) string
}

// StepResult is the raw output of one step, before any display conversion.
type StepResult struct {
	Name  string
	Label string
	Mat   *safe.Mat
}

type ProcessingChain struct {
	steps []ProcessingStep
}

func NewProcessingChain(steps []ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// Execute feeds input through every step in order and returns each step's
// output. The caller owns the returned Mats. On failure everything produced
// so far is closed and no results are returned.
func (pc *ProcessingChain) Execute(ctx context.Context, input *safe.Mat, params models.ParameterSet) ([]StepResult, error) {
	results := make([]StepResult, 0, len(pc.steps))
	current := input

	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			closeResults(results)
			return nil, ctx.Err()
		default:
		}

		result, err := step.Apply(ctx, current, params)
		if err != nil {
			closeResults(results)
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		results = append(results, StepResult{
			Name:  step.Name(),
			Label: step.Label(params),
			Mat:   result,
		})
		current = result
	}

	return results, nil
}

func closeResults(results []StepResult) {
	for _, r := range results {
		r.Mat.Close()
	}
}
