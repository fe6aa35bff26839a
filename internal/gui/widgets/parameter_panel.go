package widgets

import (
	"fmt"

	"colony-counter/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var fieldTitles = map[models.Field]string{
	models.FieldBlur:       "Blur",
	models.FieldThreshold:  "Threshold",
	models.FieldKernelSize: "Kernel Size",
	models.FieldIterations: "Iterations",
}

type parameterControl struct {
	slider *widget.Slider
	label  *widget.Label
}

// ParameterPanel holds one slider per tunable field. The change handler fires
// when the user releases a slider, not on every intermediate value.
type ParameterPanel struct {
	container              *fyne.Container
	controls               map[models.Field]*parameterControl
	parameterChangeHandler func(models.Field, int)
}

func NewParameterPanel(params models.ParameterSet) *ParameterPanel {
	pp := &ParameterPanel{controls: make(map[models.Field]*parameterControl)}

	rows := make([]fyne.CanvasObject, 0, len(models.Fields()))
	for _, field := range models.Fields() {
		rows = append(rows, pp.buildControl(field, params.Get(field)))
	}
	pp.container = container.NewVBox(
		widget.NewLabel("Parameters:"),
		container.NewGridWithColumns(2, rows...),
	)
	return pp
}

func (pp *ParameterPanel) buildControl(field models.Field, value int) fyne.CanvasObject {
	r := models.Range(field)

	slider := widget.NewSlider(float64(r.Min), float64(r.Max))
	slider.SetValue(float64(value))

	label := widget.NewLabel(labelText(field, value))

	slider.OnChanged = func(v float64) {
		label.SetText(labelText(field, snap(r, int(v))))
	}
	slider.OnChangeEnded = func(v float64) {
		if pp.parameterChangeHandler != nil {
			pp.parameterChangeHandler(field, snap(r, int(v)))
		}
	}

	pp.controls[field] = &parameterControl{slider: slider, label: label}
	return container.NewVBox(label, slider)
}

func snap(r models.ParameterRange, v int) int {
	if r.OddOnly && v%2 == 0 {
		v++
	}
	return v
}

func labelText(field models.Field, value int) string {
	return fmt.Sprintf("%s: %d", fieldTitles[field], value)
}

func (pp *ParameterPanel) GetContainer() *fyne.Container {
	return pp.container
}

func (pp *ParameterPanel) SetParameterChangeHandler(handler func(models.Field, int)) {
	pp.parameterChangeHandler = handler
}

// SetParameters moves every slider to params without firing the change handler.
func (pp *ParameterPanel) SetParameters(params models.ParameterSet) {
	for field, ctl := range pp.controls {
		value := params.Get(field)
		onChanged := ctl.slider.OnChanged
		ctl.slider.OnChanged = nil
		ctl.slider.SetValue(float64(value))
		ctl.slider.OnChanged = onChanged
		ctl.label.SetText(labelText(field, value))
	}
}

// Slider exposes the control for field.
func (pp *ParameterPanel) Slider(field models.Field) *widget.Slider {
	if ctl, ok := pp.controls[field]; ok {
		return ctl.slider
	}
	return nil
}
