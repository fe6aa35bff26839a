package pipeline

import (
	"context"
	"fmt"
	"time"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/conversion"
	"colony-counter/internal/opencv/safe"
	"colony-counter/internal/processing/chain"
	"colony-counter/internal/processing/contours"
	"colony-counter/internal/processing/filters"
	"colony-counter/internal/processing/threshold"
)

// StageCount is the number of stages every successful run produces.
const StageCount = 6

// OriginalLabel labels the first stage.
const OriginalLabel = "Original Image"

// StageTiming records how long one stage took.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Result is the outcome of one run. Stages are ready for display; the last
// one is the annotated detection image.
type Result struct {
	Stages     []models.Stage
	Count      int
	Areas      contours.AreaStats
	Parameters models.ParameterSet
	Timings    []StageTiming
}

// Gallery wraps the stages for browsing.
func (r *Result) Gallery() *models.Gallery {
	return models.NewGallery(r.Stages)
}

// Annotated returns the final stage image.
func (r *Result) Annotated() *safe.Mat {
	if len(r.Stages) == 0 {
		return nil
	}
	return r.Stages[len(r.Stages)-1].Image
}

// Retain adds a holder to every stage image. Pair each call with Release.
func (r *Result) Retain() {
	for _, s := range r.Stages {
		s.Image.AddRef()
	}
}

// Release drops one holder. Stage images are freed once the producer's
// reference and every Retain have been released.
func (r *Result) Release() {
	for _, s := range r.Stages {
		s.Image.Release()
	}
}

// Close frees every stage image regardless of holders. Only the sole owner
// of a result may call it.
func (r *Result) Close() {
	for _, s := range r.Stages {
		s.Image.Close()
	}
}

// Pipeline is the fixed colony counting transform. It keeps no state between
// runs, so a single value can serve any number of sessions.
type Pipeline struct {
	transforms *chain.ProcessingChain
	detector   *contours.Detector
}

func New() *Pipeline {
	return &Pipeline{
		transforms: chain.NewProcessingChain([]chain.ProcessingStep{
			filters.NewGrayscaleConverter(),
			filters.NewGaussianFilter(),
			threshold.NewInverseBinary(),
			filters.NewMorphologyFilter(),
		}),
		detector: contours.NewDetector(),
	}
}

// Run produces exactly StageCount stages from src. Parameters are validated
// once up front. src is never modified. On error nothing is returned and every
// intermediate image is released.
func (p *Pipeline) Run(ctx context.Context, src *safe.Mat, params models.ParameterSet) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(src, "pipeline"); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	result := &Result{Parameters: params, Stages: make([]models.Stage, 0, StageCount)}
	ok := false
	defer func() {
		if !ok {
			result.Close()
		}
	}()

	start := time.Now()
	original, err := conversion.ToDisplay(src)
	if err != nil {
		return nil, fmt.Errorf("original stage failed: %w", err)
	}
	result.Stages = append(result.Stages, models.Stage{Label: OriginalLabel, Image: original})
	result.Timings = append(result.Timings, StageTiming{Name: "original", Duration: time.Since(start)})

	start = time.Now()
	steps, err := p.transforms.Execute(ctx, original, params)
	if err != nil {
		return nil, err
	}
	chainTime := time.Since(start)
	defer func() {
		for _, s := range steps {
			s.Mat.Close()
		}
	}()

	for _, step := range steps {
		display, err := conversion.ToDisplay(step.Mat)
		if err != nil {
			return nil, fmt.Errorf("display conversion for %s failed: %w", step.Name, err)
		}
		result.Stages = append(result.Stages, models.Stage{Label: step.Label, Image: display})
	}
	result.Timings = append(result.Timings, StageTiming{Name: "transforms", Duration: chainTime})

	start = time.Now()
	mask := steps[len(steps)-1].Mat
	detection, err := p.detector.Detect(ctx, original, mask)
	if err != nil {
		return nil, fmt.Errorf("step %s failed: %w", p.detector.Name(), err)
	}
	result.Stages = append(result.Stages, models.Stage{
		Label: contours.Label(detection.Count),
		Image: detection.Annotated,
	})
	result.Count = detection.Count
	result.Areas = detection.Areas
	result.Timings = append(result.Timings, StageTiming{Name: "contours", Duration: time.Since(start)})

	ok = true
	return result, nil
}
