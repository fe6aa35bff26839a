// Command colony-count runs the colony counting pipeline on one image and
// prints the number of detected objects.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"colony-counter/internal/config"
	"colony-counter/internal/logger"
	"colony-counter/internal/models"
	"colony-counter/internal/pipeline"
	"colony-counter/internal/services"

	"gocv.io/x/gocv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration failed: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("colony-count", flag.ContinueOnError)
	imagePath := fs.String("image", "", "Path to the plate image (JPEG, PNG, BMP, TIFF or WebP)")
	export := fs.Bool("export", false, "Write the annotated image as output_final_<timestamp>.jpg")
	stagesDir := fs.String("stages", "", "Directory to write every stage as a numbered PNG")
	cfg.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: colony-count -image <path> [-blur 5] [-threshold 150] [-kernel 2] [-iterations 1] [-set field=value] [-out dir] [-export] [-stages dir]")
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger setup failed: %v\n", err)
		return 2
	}

	session, err := services.NewSession(services.Options{
		OutputDir:  cfg.OutputDir,
		AutoExport: cfg.AutoExport,
		Parameters: cfg.Parameters,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %v\n", err)
		return 2
	}
	defer session.Shutdown()

	if _, err := session.Load(context.Background(), *imagePath); err != nil {
		fmt.Fprintf(os.Stderr, "Counting failed: %v\n", err)
		return 1
	}
	defer logTimings(session.Timings(), log)

	result, release := session.Acquire()
	defer release()

	fmt.Printf("Image: %s\n", *imagePath)
	fmt.Printf("Parameters: %s\n", result.Parameters)
	fmt.Printf("Objects Detected: %d\n", result.Count)
	if result.Count > 0 {
		fmt.Printf("Area (px): min %.0f  max %.0f  mean %.1f  median %.1f  stddev %.1f\n",
			result.Areas.Min, result.Areas.Max, result.Areas.Mean, result.Areas.Median, result.Areas.StdDev)
	}

	if *stagesDir != "" {
		if err := writeStages(result.Stages, *stagesDir, log); err != nil {
			fmt.Fprintf(os.Stderr, "Writing stages failed: %v\n", err)
			return 1
		}
	}

	if *export {
		path, err := session.Export(pipeline.ExportFinal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			return 1
		}
		fmt.Printf("Exported: %s\n", path)
	}

	return 0
}

// writeStages dumps every stage as NN_<label>.png for inspection.
func writeStages(stages []models.Stage, dir string, log logger.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for i, stage := range stages {
		name := fmt.Sprintf("%02d_%s.png", i, slug(stage.Label))
		path := filepath.Join(dir, name)
		if ok := gocv.IMWrite(path, stage.Image.GetMat()); !ok {
			return fmt.Errorf("%w: could not write %s", models.ErrExportFailure, path)
		}
		log.Debug("colony-count", "stage written", map[string]interface{}{
			"stage": stage.Label,
			"path":  path,
		})
	}
	return nil
}

// logTimings reports the mean duration of every timed operation at debug level.
func logTimings(t *services.Tracker, log logger.Logger) {
	for _, op := range t.Operations() {
		log.Debug("colony-count", "timing", map[string]interface{}{
			"operation": op,
			"samples":   len(t.Timings(op)),
			"mean_ms":   float64(t.Average(op).Microseconds()) / 1000,
		})
	}
}

func slug(label string) string {
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case len(out) > 0 && out[len(out)-1] != '_':
			out = append(out, '_')
		}
	}
	for len(out) > 0 && out[len(out)-1] == '_' {
		out = out[:len(out)-1]
	}
	return string(out)
}
