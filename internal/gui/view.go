package gui

import (
	"image"

	"colony-counter/internal/gui/widgets"
	"colony-counter/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// View owns the widgets and dialogs. It holds no counting state.
type View struct {
	window     fyne.Window
	controller *Controller

	toolbar        *widgets.Toolbar
	stageDisplay   *widgets.StageDisplay
	parameterPanel *widgets.ParameterPanel
	mainContainer  *fyne.Container
}

func NewView(window fyne.Window, params models.ParameterSet, previewSize int) *View {
	view := &View{
		window:         window,
		toolbar:        widgets.NewToolbar(),
		stageDisplay:   widgets.NewStageDisplay(float32(previewSize)),
		parameterPanel: widgets.NewParameterPanel(params),
	}

	view.mainContainer = container.NewBorder(
		view.toolbar.GetContainer(),
		view.parameterPanel.GetContainer(),
		nil, nil,
		view.stageDisplay.GetContainer(),
	)

	return view
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller

	v.toolbar.SetLoadHandler(controller.LoadImage)
	v.toolbar.SetNextHandler(controller.NextStage)
	v.toolbar.SetFirstHandler(controller.FirstStage)
	v.toolbar.SetExportHandler(controller.Export)
	v.parameterPanel.SetParameterChangeHandler(controller.UpdateParameter)
}

func (v *View) GetMainContainer() *fyne.Container {
	return v.mainContainer
}

func (v *View) SetStage(label string, img image.Image, last bool) {
	v.stageDisplay.SetStage(label, img)
	v.toolbar.SetAtLastStage(last)
}

func (v *View) SetImageLoaded(loaded bool) {
	v.toolbar.SetImageLoaded(loaded)
}

func (v *View) SetParameters(params models.ParameterSet) {
	v.parameterPanel.SetParameters(params)
}

func (v *View) SetCount(count int) {
	v.toolbar.SetCount(count)
}

func (v *View) SetStatus(status string) {
	v.toolbar.SetStatus(status)
}

func (v *View) ShowError(err error) {
	dialog.ShowError(err, v.window)
}

func (v *View) ShowInformation(title, message string) {
	dialog.ShowInformation(title, message, v.window)
}

// imageExtensions are the file types pipeline.Loader decodes.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

func (v *View) ShowFileDialog(callback func(fyne.URIReadCloser, error)) {
	d := dialog.NewFileOpen(callback, v.window)
	d.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	d.Show()
}

func (v *View) GetWindow() fyne.Window {
	return v.window
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
