package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"colony-counter/internal/logger"
	"colony-counter/internal/models"
	"colony-counter/internal/opencv/conversion"
	"colony-counter/internal/pipeline"
	"colony-counter/internal/services"

	"fyne.io/fyne/v2"
	"github.com/disintegration/imaging"
)

// jobQueueSize bounds how many loads and recomputes may wait for the worker.
const jobQueueSize = 16

// Controller turns view events into session calls and pushes the results back
// to the view. Pipeline runs happen on a single worker goroutine in the order
// they were requested; widget updates go through fyne.Do.
type Controller struct {
	view        *View
	session     *services.Session
	logger      logger.Logger
	previewSize int

	jobs     chan func()
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// async runs blocking work; tests replace it with a synchronous call.
	async func(func())
}

func NewController(session *services.Session, log logger.Logger, previewSize int) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	c := &Controller{
		session:     session,
		logger:      log,
		previewSize: previewSize,
		jobs:        make(chan func(), jobQueueSize),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	c.async = c.enqueue
	go c.worker()
	return c
}

func (c *Controller) worker() {
	defer close(c.stopped)
	for {
		select {
		case job := <-c.jobs:
			job()
		case <-c.done:
			return
		}
	}
}

// enqueue hands f to the worker. After Shutdown it drops f.
func (c *Controller) enqueue(f func()) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.jobs <- f:
	case <-c.done:
	}
}

func (c *Controller) SetView(view *View) {
	c.view = view
	view.SetController(c)
	view.SetParameters(c.session.Parameters())
}

// LoadImage asks the user for a file and loads it.
func (c *Controller) LoadImage() {
	c.view.ShowFileDialog(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("file selection", err)
			return
		}
		if reader == nil {
			return
		}
		c.LoadReader(reader)
	})
}

// LoadReader loads an already opened image.
func (c *Controller) LoadReader(reader fyne.URIReadCloser) {
	c.view.SetStatus("Loading image...")
	c.async(func() {
		_, err := c.session.LoadReader(context.Background(), reader)
		c.afterRun(err, "Image loaded")
	})
}

// LoadPath loads an image from the local file system.
func (c *Controller) LoadPath(path string) {
	c.view.SetStatus("Loading image...")
	c.async(func() {
		_, err := c.session.Load(context.Background(), path)
		c.afterRun(err, "Image loaded")
	})
}

// UpdateParameter applies a slider change and recomputes every stage.
func (c *Controller) UpdateParameter(field models.Field, value int) {
	c.logger.Debug("Controller", "parameter changed", map[string]interface{}{
		"parameter": field.String(),
		"value":     value,
	})

	c.view.SetStatus("Processing...")
	c.async(func() {
		g, err := c.session.Update(context.Background(), field, value)
		if err == nil && g == nil {
			fyne.Do(func() {
				c.view.SetParameters(c.session.Parameters())
				c.view.SetStatus("Ready")
			})
			return
		}
		c.afterRun(err, "Stages updated")
	})
}

func (c *Controller) afterRun(err error, okStatus string) {
	fyne.Do(func() {
		c.view.SetParameters(c.session.Parameters())
		if err != nil {
			c.handleError("pipeline", err)
			c.view.SetStatus("Failed")
			return
		}
		c.view.SetImageLoaded(true)
		c.view.SetCount(c.session.Count())
		c.showCurrent()
		c.view.SetStatus(okStatus)
	})
}

// NextStage shows the following stage. On the last stage it only reports that
// the gallery is exhausted.
func (c *Controller) NextStage() {
	_, err := c.session.Advance()
	if err != nil && !services.IsExhausted(err) {
		c.handleError("navigation", err)
		return
	}
	if services.IsExhausted(err) {
		c.view.SetStatus("Last stage reached")
	}
	c.showCurrent()
}

// FirstStage rewinds the gallery.
func (c *Controller) FirstStage() {
	g := c.session.Gallery()
	if g == nil {
		return
	}
	g.Reset()
	c.showCurrent()
	c.view.SetStatus("Ready")
}

// Export writes the annotated image to the configured output directory.
func (c *Controller) Export() {
	path, err := c.session.Export(pipeline.ExportFinal)
	if err != nil {
		c.handleError("export", err)
		return
	}
	c.view.SetStatus("Exported " + path)
	c.view.ShowInformation("Export", fmt.Sprintf("Saved %s", path))
}

func (c *Controller) showCurrent() {
	err := c.session.RenderCurrent(func(stage models.Stage, last bool) error {
		img, err := c.preview(stage)
		if err != nil {
			return err
		}
		c.view.SetStage(stage.Label, img, last)
		return nil
	})
	if err != nil && !services.IsExhausted(err) {
		c.handleError("display", err)
	}
}

// preview converts a stage to an image fitted inside the preview square.
func (c *Controller) preview(stage models.Stage) (image.Image, error) {
	img, err := conversion.MatToImage(stage.Image)
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, c.previewSize, c.previewSize, imaging.Lanczos), nil
}

func (c *Controller) handleError(action string, err error) {
	c.logger.Error("Controller", err, map[string]interface{}{
		"action": action,
	})

	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		c.view.ShowError(fmt.Errorf("invalid %s: %s", ve.Parameter, ve.Message))
	default:
		c.view.ShowError(err)
	}
}

// Shutdown stops the worker once the job it is running returns. Queued jobs
// are dropped.
func (c *Controller) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.done)
		<-c.stopped
		c.logger.Info("Controller", "shutdown completed", nil)
	})
}
