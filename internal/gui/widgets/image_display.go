package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StageDisplay shows one stage image under its label.
type StageDisplay struct {
	container fyne.CanvasObject
	image     *canvas.Image
	label     *widget.Label
}

func NewStageDisplay(size float32) *StageDisplay {
	display := &StageDisplay{}

	display.image = canvas.NewImageFromImage(nil)
	display.image.FillMode = canvas.ImageFillContain
	display.image.ScaleMode = canvas.ImageScaleSmooth
	display.image.SetMinSize(fyne.NewSize(size, size))

	display.label = widget.NewLabel("No image loaded")
	display.label.Alignment = fyne.TextAlignCenter
	display.label.TextStyle = fyne.TextStyle{Bold: true}

	display.container = container.NewBorder(display.label, nil, nil, nil, display.image)
	return display
}

func (sd *StageDisplay) GetContainer() fyne.CanvasObject {
	return sd.container
}

func (sd *StageDisplay) SetStage(label string, img image.Image) {
	sd.label.SetText(label)
	sd.image.Image = img
	sd.image.Refresh()
}

func (sd *StageDisplay) Label() string {
	return sd.label.Text
}

func (sd *StageDisplay) Image() image.Image {
	return sd.image.Image
}
