package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"colony-counter/internal/logger"
	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"
	"colony-counter/internal/pipeline"

	"fyne.io/fyne/v2"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = fmt.Errorf("%w: no image loaded", models.ErrInvalidInput)

// Options configures a Session.
type Options struct {
	OutputDir  string
	AutoExport bool
	Parameters models.ParameterSet
	Logger     logger.Logger
	// Clock overrides the exporter time source.
	Clock func() time.Time
}

// Session holds the state one viewer needs: the loaded source image, the
// current parameters and the result of the last successful run.
//
// Runs and parameter changes are serialized by mu. A result is published only
// once its run has completed. Readers that touch stage pixels go through
// Acquire or RenderCurrent, which hold a reference on the stage images, so a
// replaced result is freed only after its last reader is done.
type Session struct {
	pipeline *pipeline.Pipeline
	loader   *pipeline.Loader
	exporter *pipeline.Exporter
	logger   logger.Logger
	timings  *Tracker

	autoExport bool

	mu     sync.Mutex
	source *safe.Mat
	params models.ParameterSet

	// pubMu orders Retain against the swap in publish.
	pubMu   sync.RWMutex
	result  atomic.Pointer[pipeline.Result]
	gallery atomic.Pointer[models.Gallery]
}

func NewSession(opts Options) (*Session, error) {
	if err := opts.Parameters.Validate(); err != nil {
		return nil, fmt.Errorf("initial parameters: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	exporter := pipeline.NewExporter(opts.OutputDir, log)
	if opts.Clock != nil {
		exporter.WithClock(opts.Clock)
	}

	return &Session{
		pipeline:   pipeline.New(),
		loader:     pipeline.NewLoader(log),
		exporter:   exporter,
		logger:     log,
		timings:    NewTracker(),
		autoExport: opts.AutoExport,
		params:     opts.Parameters,
	}, nil
}

// Load reads the image at path and runs the pipeline with the current
// parameters. On failure the previously loaded image and gallery stay active.
// Failed loads are timed under "load_failed".
func (s *Session) Load(ctx context.Context, path string) (*models.Gallery, error) {
	t := s.timings.Start("load")
	src, err := s.loader.Load(path)
	if err != nil {
		t.Operation = "load_failed"
		s.timings.End(t)
		s.logger.Warning("Session", "image load failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, err
	}
	s.timings.End(t)

	return s.adopt(ctx, src, path)
}

// LoadReader is Load for an image picked through a fyne file dialog.
func (s *Session) LoadReader(ctx context.Context, reader fyne.URIReadCloser) (*models.Gallery, error) {
	name := reader.URI().Name()

	t := s.timings.Start("load")
	src, err := s.loader.LoadFromReader(reader)
	if err != nil {
		t.Operation = "load_failed"
		s.timings.End(t)
		s.logger.Warning("Session", "image load failed", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return nil, err
	}
	s.timings.End(t)

	return s.adopt(ctx, src, name)
}

func (s *Session) adopt(ctx context.Context, src *safe.Mat, name string) (*models.Gallery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gallery, err := s.runLocked(ctx, src, s.params)
	if err != nil {
		src.Close()
		return nil, err
	}

	if s.source != nil {
		s.source.Close()
	}
	s.source = src

	s.logger.Info("Session", "image loaded", map[string]interface{}{
		"source": name,
		"width":  src.Cols(),
		"height": src.Rows(),
		"count":  s.Count(),
	})

	return gallery, nil
}

// Recompute reruns the pipeline on the loaded image with params. Invalid
// parameters or a failed run leave the current gallery and parameters
// untouched.
func (s *Session) Recompute(ctx context.Context, params models.ParameterSet) (*models.Gallery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.recomputeLocked(ctx, params)
}

// Update changes a single parameter, starting from the parameters in effect
// when the call acquires the session. Without a loaded image only the stored
// parameters change and the returned gallery is nil.
func (s *Session) Update(ctx context.Context, field models.Field, value int) (*models.Gallery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.params.Update(field, value)
	if err != nil {
		return nil, err
	}

	if s.source == nil {
		s.params = next
		return nil, nil
	}
	return s.recomputeLocked(ctx, next)
}

func (s *Session) recomputeLocked(ctx context.Context, params models.ParameterSet) (*models.Gallery, error) {
	if s.source == nil {
		return nil, ErrNoImage
	}

	gallery, err := s.runLocked(ctx, s.source, params)
	if err != nil {
		return nil, err
	}
	s.params = params
	return gallery, nil
}

func (s *Session) runLocked(ctx context.Context, src *safe.Mat, params models.ParameterSet) (*models.Gallery, error) {
	t := s.timings.Start("run")
	result, err := s.pipeline.Run(ctx, src, params)
	if err != nil {
		s.logger.Error("Session", err, map[string]interface{}{
			"parameters": params.String(),
		})
		return nil, err
	}
	elapsed := s.timings.End(t)
	for _, st := range result.Timings {
		s.timings.Record("stage:"+st.Name, st.Duration)
	}

	// Runs are serialized by mu, so result cannot be replaced before the
	// automatic export below finishes.
	gallery := s.publish(result)

	s.logger.Debug("Session", "pipeline run completed", map[string]interface{}{
		"parameters":  params.String(),
		"count":       result.Count,
		"duration_ms": elapsed.Milliseconds(),
	})

	if s.autoExport {
		if _, err := s.export(result.Annotated(), pipeline.ExportContours); err != nil {
			s.logger.Warning("Session", "automatic export failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return gallery, nil
}

// publish makes result current and drops the session's reference on the
// previous one.
func (s *Session) publish(result *pipeline.Result) *models.Gallery {
	gallery := result.Gallery()

	s.pubMu.Lock()
	old := s.result.Swap(result)
	s.gallery.Store(gallery)
	s.pubMu.Unlock()

	if old != nil {
		old.Release()
	}
	return gallery
}

func (s *Session) acquire() (*pipeline.Result, *models.Gallery, func()) {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()

	r := s.result.Load()
	if r == nil {
		return nil, nil, func() {}
	}
	r.Retain()
	return r, s.gallery.Load(), r.Release
}

// Acquire returns the current result with its stage images pinned. The
// images stay valid until release is called, even if a later run replaces
// the result. The result is nil when nothing has been computed.
func (s *Session) Acquire() (result *pipeline.Result, release func()) {
	r, _, release := s.acquire()
	return r, release
}

// RenderCurrent calls fn with the stage under the gallery cursor while its
// image is pinned. last reports whether that stage is the final one.
func (s *Session) RenderCurrent(fn func(stage models.Stage, last bool) error) error {
	_, g, release := s.acquire()
	defer release()

	if g == nil {
		return models.ErrGalleryExhausted
	}
	stage, err := g.Current()
	if err != nil {
		return err
	}
	return fn(stage, g.Index() == g.Len()-1)
}

// Export writes the annotated image of the current result.
func (s *Session) Export(kind pipeline.ExportKind) (string, error) {
	result, release := s.Acquire()
	defer release()

	if result == nil {
		return "", fmt.Errorf("%w: nothing to export", models.ErrExportFailure)
	}
	return s.export(result.Annotated(), kind)
}

func (s *Session) export(img *safe.Mat, kind pipeline.ExportKind) (string, error) {
	t := s.timings.Start("export")
	path, err := s.exporter.Export(img, kind)
	if err != nil {
		return "", err
	}
	s.timings.End(t)
	return path, nil
}

// Advance moves the gallery cursor forward. See models.Gallery.Advance. The
// returned stage image may only be read through RenderCurrent or Acquire.
func (s *Session) Advance() (models.Stage, error) {
	g := s.gallery.Load()
	if g == nil {
		return models.Stage{}, models.ErrGalleryExhausted
	}
	return g.Advance()
}

// Gallery returns the gallery of the last successful run, or nil. Use it for
// cursor state; pixel access goes through RenderCurrent.
func (s *Session) Gallery() *models.Gallery {
	return s.gallery.Load()
}

// Count is the object count of the last successful run, or -1.
func (s *Session) Count() int {
	r := s.result.Load()
	if r == nil {
		return -1
	}
	return r.Count
}

func (s *Session) Parameters() models.ParameterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Session) Timings() *Tracker {
	return s.timings
}

// Shutdown releases the source image and the session's hold on the current
// result. Outstanding Acquire holders keep their images until they release.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pubMu.Lock()
	old := s.result.Swap(nil)
	s.gallery.Store(nil)
	s.pubMu.Unlock()

	if old != nil {
		old.Release()
	}
	if s.source != nil {
		s.source.Close()
		s.source = nil
	}
	s.logger.Debug("Session", "session released", nil)
}

// IsExhausted reports whether err is the end-of-gallery signal.
func IsExhausted(err error) bool {
	return errors.Is(err, models.ErrGalleryExhausted)
}
