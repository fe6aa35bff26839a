package models

import (
	"fmt"
	"strings"
)

// Field identifies one tunable value of a ParameterSet.
type Field int

const (
	FieldBlur Field = iota
	FieldThreshold
	FieldKernelSize
	FieldIterations
)

var fieldNames = map[Field]string{
	FieldBlur:       "blur",
	FieldThreshold:  "threshold",
	FieldKernelSize: "kernel_size",
	FieldIterations: "iterations",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Fields lists every field in display order.
func Fields() []Field {
	return []Field{FieldBlur, FieldThreshold, FieldKernelSize, FieldIterations}
}

// ParseField accepts the names produced by Field.String, plus "kernel".
func ParseField(name string) (Field, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "kernel" {
		return FieldKernelSize, nil
	}
	for field, fieldName := range fieldNames {
		if fieldName == normalized {
			return field, nil
		}
	}
	return 0, NewValidationError("field", name, "unknown parameter")
}

// ParameterRange is the inclusive range a field accepts.
type ParameterRange struct {
	Min     int
	Max     int
	OddOnly bool
}

func (r ParameterRange) Contains(value int) bool {
	return value >= r.Min && value <= r.Max
}

var parameterRanges = map[Field]ParameterRange{
	FieldBlur:       {Min: 1, Max: 21, OddOnly: true},
	FieldThreshold:  {Min: 0, Max: 255},
	FieldKernelSize: {Min: 1, Max: 10},
	FieldIterations: {Min: 1, Max: 10},
}

// Range returns the valid range of field.
func Range(field Field) ParameterRange {
	return parameterRanges[field]
}

// ParameterSet holds the knobs the pipeline reads on every run. Values are
// copied by value; an update produces a new set.
type ParameterSet struct {
	Blur       int `json:"blur"`
	Threshold  int `json:"threshold"`
	KernelSize int `json:"kernel_size"`
	Iterations int `json:"iterations"`
}

// DefaultParameters suit a light plate with dark colonies.
func DefaultParameters() ParameterSet {
	return ParameterSet{
		Blur:       5,
		Threshold:  150,
		KernelSize: 2,
		Iterations: 1,
	}
}

// Get returns the value of field.
func (p ParameterSet) Get(field Field) int {
	switch field {
	case FieldBlur:
		return p.Blur
	case FieldThreshold:
		return p.Threshold
	case FieldKernelSize:
		return p.KernelSize
	case FieldIterations:
		return p.Iterations
	}
	return 0
}

// Update returns a copy of p with field set to value. An even blur inside the
// range is raised to the next odd size; anything out of range is rejected.
func (p ParameterSet) Update(field Field, value int) (ParameterSet, error) {
	r, ok := parameterRanges[field]
	if !ok {
		return p, NewValidationError(field.String(), value, "unknown parameter")
	}
	if !r.Contains(value) {
		return p, NewValidationError(field.String(), value,
			fmt.Sprintf("must be within [%d, %d]", r.Min, r.Max))
	}
	if r.OddOnly && value%2 == 0 {
		value++
	}

	next := p
	switch field {
	case FieldBlur:
		next.Blur = value
	case FieldThreshold:
		next.Threshold = value
	case FieldKernelSize:
		next.KernelSize = value
	case FieldIterations:
		next.Iterations = value
	}

	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}

// Validate checks every field. The pipeline calls it once before the first stage.
func (p ParameterSet) Validate() error {
	for _, field := range Fields() {
		value := p.Get(field)
		r := parameterRanges[field]
		if !r.Contains(value) {
			return NewValidationError(field.String(), value,
				fmt.Sprintf("must be within [%d, %d]", r.Min, r.Max))
		}
		if r.OddOnly && value%2 == 0 {
			return NewValidationError(field.String(), value, "must be odd")
		}
	}
	return nil
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("blur=%d threshold=%d kernel_size=%d iterations=%d",
		p.Blur, p.Threshold, p.KernelSize, p.Iterations)
}
