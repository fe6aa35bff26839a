package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"colony-counter/internal/logger"
	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ExportKind distinguishes why an image was written.
type ExportKind string

const (
	// ExportContours is the automatic export after a full pipeline run.
	ExportContours ExportKind = "contours"
	// ExportFinal is an export the user asked for.
	ExportFinal ExportKind = "final"
)

// TimestampLayout is the second-resolution stamp embedded in file names.
const TimestampLayout = "20060102_150405"

// Exporter writes JPEG files named output_<kind>_<YYYYMMDD_HHMMSS>.jpg.
// An existing file is never overwritten; a name collision is reported as an
// export failure.
type Exporter struct {
	dir    string
	now    func() time.Time
	logger logger.Logger
}

func NewExporter(dir string, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{dir: dir, now: time.Now, logger: log}
}

// WithClock replaces the time source used for file names.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Dir is the directory exports are written to.
func (e *Exporter) Dir() string {
	return e.dir
}

// FileName returns the name an export of kind at t would receive.
func FileName(kind ExportKind, t time.Time) string {
	return fmt.Sprintf("output_%s_%s.jpg", kind, t.Format(TimestampLayout))
}

// Export encodes img as JPEG and returns the path written.
func (e *Exporter) Export(img *safe.Mat, kind ExportKind) (string, error) {
	if err := safe.ValidateMatForOperation(img, "export"); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrExportFailure, err)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img.GetMat())
	if err != nil {
		return "", fmt.Errorf("%w: jpeg encoding failed: %v", models.ErrExportFailure, err)
	}
	defer buf.Close()

	if e.dir != "" {
		if err := os.MkdirAll(e.dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrExportFailure, err)
		}
	}

	path := filepath.Join(e.dir, FileName(kind, e.now()))
	if err := writeExclusive(path, buf.GetBytes()); err != nil {
		e.logger.Error("Exporter", err, map[string]interface{}{"path": path})
		return "", fmt.Errorf("%w: %v", models.ErrExportFailure, err)
	}

	e.logger.Info("Exporter", "image exported", map[string]interface{}{
		"path":   path,
		"kind":   string(kind),
		"width":  img.Cols(),
		"height": img.Rows(),
	})

	return path, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Join(err, os.Remove(path))
	}
	return f.Close()
}
