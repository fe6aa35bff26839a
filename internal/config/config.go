package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"colony-counter/internal/logger"
	"colony-counter/internal/models"
)

// DefaultPreviewSize is the edge of the square the viewer fits stages into.
const DefaultPreviewSize = 400

// Config is the runtime configuration shared by both entry points.
type Config struct {
	LogLevel    logger.LogLevel
	LogFormat   logger.Format
	OutputDir   string
	AutoExport  bool
	PreviewSize int
	Parameters  models.ParameterSet
}

func Default() Config {
	return Config{
		LogLevel:    logger.InfoLevel,
		LogFormat:   logger.FormatConsole,
		OutputDir:   ".",
		PreviewSize: DefaultPreviewSize,
		Parameters:  models.DefaultParameters(),
	}
}

// FromEnv starts from Default and applies environment overrides. getenv is
// os.Getenv outside tests.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if getenv("DEBUG") == "1" {
		cfg.LogLevel = logger.DebugLevel
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if v := getenv("COLONY_LOG_FORMAT"); v != "" {
		cfg.LogFormat = logger.Format(strings.ToLower(v))
	}
	if v := getenv("COLONY_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("COLONY_AUTO_EXPORT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("COLONY_AUTO_EXPORT: %w", err)
		}
		cfg.AutoExport = b
	}

	envInts := []struct {
		key   string
		field models.Field
	}{
		{"COLONY_BLUR", models.FieldBlur},
		{"COLONY_THRESHOLD", models.FieldThreshold},
		{"COLONY_KERNEL", models.FieldKernelSize},
		{"COLONY_ITERATIONS", models.FieldIterations},
	}
	for _, e := range envInts {
		v := getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", e.key, models.NewValidationError(e.field.String(), v, "not an integer"))
		}
		next, err := cfg.Parameters.Update(e.field, n)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", e.key, err)
		}
		cfg.Parameters = next
	}

	return cfg, nil
}

// Flags binds command line overrides for cfg to fs. Call Validate after
// fs.Parse.
func (cfg *Config) Flags(fs *flag.FlagSet) {
	fs.IntVar(&cfg.Parameters.Blur, "blur", cfg.Parameters.Blur, "Gaussian kernel size, odd, 1-21")
	fs.IntVar(&cfg.Parameters.Threshold, "threshold", cfg.Parameters.Threshold, "binarization threshold, 0-255")
	fs.IntVar(&cfg.Parameters.KernelSize, "kernel", cfg.Parameters.KernelSize, "morphology kernel size, 1-10")
	fs.IntVar(&cfg.Parameters.Iterations, "iterations", cfg.Parameters.Iterations, "morphology iterations, 1-10")
	fs.Func("set", "parameter override as field=value, repeatable (blur, threshold, kernel_size, iterations)", cfg.setParameter)
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory for exported images")
	fs.BoolVar(&cfg.AutoExport, "auto-export", cfg.AutoExport, "export the annotated image after every run")
	fs.Func("log-level", "debug, info, warn or error", func(s string) error {
		level, err := logger.ParseLevel(s)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
		return nil
	})
	fs.Func("log-format", "console, json or tint", func(s string) error {
		cfg.LogFormat = logger.Format(strings.ToLower(s))
		return nil
	})
}

func (cfg *Config) setParameter(arg string) error {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return fmt.Errorf("expected field=value, got %q", arg)
	}
	field, err := models.ParseField(name)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return models.NewValidationError(field.String(), raw, "not an integer")
	}
	next, err := cfg.Parameters.Update(field, n)
	if err != nil {
		return err
	}
	cfg.Parameters = next
	return nil
}

// Validate checks the assembled configuration. An even blur coming from a
// flag is raised to the next odd size like any other update.
func (cfg *Config) Validate() error {
	if cfg.Parameters.Blur%2 == 0 {
		next, err := cfg.Parameters.Update(models.FieldBlur, cfg.Parameters.Blur)
		if err != nil {
			return err
		}
		cfg.Parameters = next
	}
	if err := cfg.Parameters.Validate(); err != nil {
		return err
	}

	switch cfg.LogFormat {
	case logger.FormatConsole, logger.FormatJSON, logger.FormatTint:
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	if cfg.PreviewSize <= 0 {
		return fmt.Errorf("preview size must be positive, got %d", cfg.PreviewSize)
	}
	return nil
}

// NewLogger builds the logger the configuration asks for, writing to stderr.
func (cfg Config) NewLogger() (logger.Logger, error) {
	return logger.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
}
