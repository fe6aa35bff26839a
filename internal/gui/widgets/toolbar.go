package widgets

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type Toolbar struct {
	container    *fyne.Container
	loadButton   *widget.Button
	nextButton   *widget.Button
	firstButton  *widget.Button
	exportButton *widget.Button
	statusLabel  *widget.Label
	countLabel   *widget.Label

	loadHandler   func()
	nextHandler   func()
	firstHandler  func()
	exportHandler func()
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.createComponents()
	toolbar.buildLayout()
	return toolbar
}

func (t *Toolbar) createComponents() {
	t.loadButton = widget.NewButton("Load Image", t.onLoadClicked)
	t.loadButton.Importance = widget.HighImportance

	t.nextButton = widget.NewButton("Next Stage", t.onNextClicked)
	t.nextButton.Disable()

	t.firstButton = widget.NewButton("First Stage", t.onFirstClicked)
	t.firstButton.Disable()

	t.exportButton = widget.NewButton("Export Result", t.onExportClicked)
	t.exportButton.Importance = widget.HighImportance
	t.exportButton.Disable()

	t.statusLabel = widget.NewLabel("Ready")
	t.countLabel = widget.NewLabel("Objects: --")
}

func (t *Toolbar) buildLayout() {
	background := canvas.NewRectangle(color.RGBA{R: 248, G: 249, B: 250, A: 255})

	actions := container.NewHBox(
		t.loadButton,
		widget.NewSeparator(),
		t.firstButton,
		t.nextButton,
		widget.NewSeparator(),
		t.exportButton,
	)

	status := container.NewHBox(t.countLabel, widget.NewSeparator(), t.statusLabel)

	t.container = container.NewStack(
		background,
		container.NewPadded(container.NewVBox(actions, status)),
	)
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetLoadHandler(handler func())   { t.loadHandler = handler }
func (t *Toolbar) SetNextHandler(handler func())   { t.nextHandler = handler }
func (t *Toolbar) SetFirstHandler(handler func())  { t.firstHandler = handler }
func (t *Toolbar) SetExportHandler(handler func()) { t.exportHandler = handler }

func (t *Toolbar) onLoadClicked() {
	if t.loadHandler != nil {
		t.loadHandler()
	}
}

func (t *Toolbar) onNextClicked() {
	if t.nextHandler != nil {
		t.nextHandler()
	}
}

func (t *Toolbar) onFirstClicked() {
	if t.firstHandler != nil {
		t.firstHandler()
	}
}

func (t *Toolbar) onExportClicked() {
	if t.exportHandler != nil {
		t.exportHandler()
	}
}

// SetImageLoaded enables the buttons that need a gallery.
func (t *Toolbar) SetImageLoaded(loaded bool) {
	if loaded {
		t.nextButton.Enable()
		t.firstButton.Enable()
		t.exportButton.Enable()
	} else {
		t.nextButton.Disable()
		t.firstButton.Disable()
		t.exportButton.Disable()
	}
}

// SetAtLastStage disables Next Stage once the final stage is shown.
func (t *Toolbar) SetAtLastStage(last bool) {
	if last {
		t.nextButton.Disable()
	} else {
		t.nextButton.Enable()
	}
}

func (t *Toolbar) SetStatus(status string) {
	t.statusLabel.SetText(status)
}

func (t *Toolbar) Status() string {
	return t.statusLabel.Text
}

func (t *Toolbar) SetCount(count int) {
	if count < 0 {
		t.countLabel.SetText("Objects: --")
		return
	}
	t.countLabel.SetText(fmt.Sprintf("Objects: %d", count))
}

func (t *Toolbar) Count() string {
	return t.countLabel.Text
}

func (t *Toolbar) NextButton() *widget.Button   { return t.nextButton }
func (t *Toolbar) FirstButton() *widget.Button  { return t.firstButton }
func (t *Toolbar) ExportButton() *widget.Button { return t.exportButton }
func (t *Toolbar) LoadButton() *widget.Button   { return t.loadButton }
