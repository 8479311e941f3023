package blocks

import "math"

// Block kinds offered by the editor toolbox.
const (
	KindPitch = "drone_pitch"
	KindRoll  = "drone_roll"
	KindYaw   = "drone_yaw"
	KindHover = "drone_hover"
	KindDelay = "delay"
)

// Field names used by the editor.
const (
	FieldDirection = "DIRECTION"
	FieldDuration  = "DURATION"
	FieldHeight    = "HEIGHT"
	FieldSeconds   = "SECONDS"
)

// Numeric field widget bounds and default, shared by every numeric field.
const (
	MinValue     = 0.1
	MaxValue     = 10.0
	DefaultValue = 1.0
)

// Option is one dropdown entry: a label shown to the user and the stored value.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldSpec describes a field widget on a block.
type FieldSpec struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // "dropdown" or "number"
	Options []Option `json:"options,omitempty"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Default float64  `json:"default,omitempty"`
}

// BlockSpec describes one toolbox entry.
type BlockSpec struct {
	Type   string      `json:"type"`
	Label  string      `json:"label"`
	Fields []FieldSpec `json:"fields"`
}

func numberField(name string) FieldSpec {
	return FieldSpec{Name: name, Type: "number", Min: MinValue, Max: MaxValue, Default: DefaultValue}
}

func dropdownField(options ...Option) FieldSpec {
	return FieldSpec{Name: FieldDirection, Type: "dropdown", Options: options}
}

var (
	pitchOptions = []Option{{"Forward", "FORWARD"}, {"Backward", "BACKWARD"}}
	sideOptions  = []Option{{"Left", "LEFT"}, {"Right", "RIGHT"}}
)

var catalog = []BlockSpec{
	{Type: KindPitch, Label: "Pitch", Fields: []FieldSpec{dropdownField(pitchOptions...), numberField(FieldDuration)}},
	{Type: KindRoll, Label: "Roll", Fields: []FieldSpec{dropdownField(sideOptions...), numberField(FieldDuration)}},
	{Type: KindYaw, Label: "Yaw", Fields: []FieldSpec{dropdownField(sideOptions...), numberField(FieldDuration)}},
	{Type: KindHover, Label: "Hover at", Fields: []FieldSpec{numberField(FieldHeight), numberField(FieldDuration)}},
	{Type: KindDelay, Label: "Wait for", Fields: []FieldSpec{numberField(FieldSeconds)}},
}

// Catalog returns the "Drone Controls" toolbox.
func Catalog() []BlockSpec {
	out := make([]BlockSpec, len(catalog))
	copy(out, catalog)
	return out
}

// Clamp applies the number widget bounds. NaN, which the widget cannot
// produce, becomes DefaultValue.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultValue
	}
	if v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}
