package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"colony-counter/internal/logger"
	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"

	"fyne.io/fyne/v2"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader is the image source. Every failure wraps models.ErrInvalidInput.
type Loader struct {
	logger logger.Logger
}

func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{logger: log}
}

// Load reads the raster image at path as a three-channel BGR Mat.
func (l *Loader) Load(path string) (*safe.Mat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", models.ErrInvalidInput, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", models.ErrInvalidInput, err)
	}

	l.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"path":       path,
		"size_bytes": len(data),
	})

	return l.LoadFromBytes(data)
}

// LoadFromReader reads an image chosen through a fyne file dialog.
func (l *Loader) LoadFromReader(reader fyne.URIReadCloser) (*safe.Mat, error) {
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", models.ErrInvalidInput, err)
	}

	l.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"uri":        reader.URI().String(),
		"extension":  strings.ToLower(reader.URI().Extension()),
		"size_bytes": len(data),
	})

	return l.LoadFromBytes(data)
}

// LoadFromBytes decodes encoded image data.
func (l *Loader) LoadFromBytes(data []byte) (*safe.Mat, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", models.ErrInvalidInput)
	}

	// The standard decoders identify the format and reject truncated headers
	// before OpenCV sees the data.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unrecognized image format: %v", models.ErrInvalidInput, err)
	}
	if err := safe.ValidateDimensions(cfg.Width, cfg.Height, "load"); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image with OpenCV: %v", models.ErrInvalidInput, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", models.ErrInvalidInput)
	}

	safeMat, err := safe.NewMatFromMatWithTag(mat, "original")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	l.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"width":    safeMat.Cols(),
		"height":   safeMat.Rows(),
		"channels": safeMat.Channels(),
		"format":   format,
	})

	return safeMat, nil
}
