package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"colony-counter/internal/config"
	"colony-counter/internal/gui"
	"colony-counter/internal/logger"
	"colony-counter/internal/services"
	"colony-counter/internal/shutdown"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName    = "Colony Counter"
	AppID      = "com.imageprocessing.colony-counter"
	AppVersion = "1.0.0"
)

// Application wires the session, the view and the controller together.
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger

	controller *gui.Controller
	view       *gui.View
	session    *services.Session
	shutdown   *shutdown.Manager
}

func main() {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}
	cfg.Flags(flag.CommandLine)
	imagePath := flag.String("image", "", "image to load at startup")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	application, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}

	application.Run(*imagePath)
}

func NewApplication(cfg config.Config) (*Application, error) {
	appLogger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	session, err := services.NewSession(services.Options{
		OutputDir:  cfg.OutputDir,
		AutoExport: cfg.AutoExport,
		Parameters: cfg.Parameters,
		Logger:     appLogger,
	})
	if err != nil {
		return nil, err
	}

	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})
	fyneApp := app.NewWithID(AppID)

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(float32(cfg.PreviewSize)+200, float32(cfg.PreviewSize)+300))
	window.CenterOnScreen()

	view := gui.NewView(window, cfg.Parameters, cfg.PreviewSize)
	controller := gui.NewController(session, appLogger, cfg.PreviewSize)
	controller.SetView(view)

	shutdownManager := shutdown.NewManager(appLogger)
	shutdownManager.Register("session", session)
	shutdownManager.Register("controller", controller)

	appLogger.Info("Application", "application initialized", map[string]interface{}{
		"version":     AppVersion,
		"go_version":  runtime.Version(),
		"log_level":   cfg.LogLevel.String(),
		"output_dir":  cfg.OutputDir,
		"auto_export": cfg.AutoExport,
		"parameters":  cfg.Parameters.String(),
	})

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		logger:     appLogger,
		controller: controller,
		view:       view,
		session:    session,
		shutdown:   shutdownManager,
	}
	application.setupWindowEvents()

	return application, nil
}

// Run shows the window and blocks until the application quits.
func (a *Application) Run(imagePath string) {
	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	a.view.Show()
	if imagePath != "" {
		a.controller.LoadPath(imagePath)
	}

	a.fyneApp.Run()
	a.shutdown.Shutdown()
	fmt.Fprintln(os.Stderr, "Application terminated")
}

func (a *Application) setupWindowEvents() {
	a.window.SetOnClosed(func() {
		a.logger.Info("Application", "window closed, releasing resources", nil)
		a.shutdown.Shutdown()
	})
}
