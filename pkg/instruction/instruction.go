// Package instruction defines the flat, timed drone instructions produced by
// the block compiler and consumed by the simulator's executor.
package instruction

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the physical action an instruction performs.
type Kind string

const (
	Pitch Kind = "pitch"
	Roll  Kind = "roll"
	Yaw   Kind = "yaw"
	Hover Kind = "hover"
	Delay Kind = "delay"
)

// Direction selects the sign of a torque instruction.
type Direction string

const (
	Forward  Direction = "FORWARD"
	Backward Direction = "BACKWARD"
	Left     Direction = "LEFT"
	Right    Direction = "RIGHT"
)

// Instruction is one timed action. Values are immutable once built.
type Instruction struct {
	Kind      Kind
	Direction Direction     // pitch, roll, yaw
	Height    float64       // hover only, metres
	Duration  time.Duration // how long the executor stays on this instruction
}

// NewPitch creates a pitch instruction.
func NewPitch(dir Direction, d time.Duration) Instruction {
	return Instruction{Kind: Pitch, Direction: dir, Duration: d}
}

// NewRoll creates a roll instruction.
func NewRoll(dir Direction, d time.Duration) Instruction {
	return Instruction{Kind: Roll, Direction: dir, Duration: d}
}

// NewYaw creates a yaw instruction.
func NewYaw(dir Direction, d time.Duration) Instruction {
	return Instruction{Kind: Yaw, Direction: dir, Duration: d}
}

// NewHover creates a hover instruction holding height for d.
func NewHover(height float64, d time.Duration) Instruction {
	return Instruction{Kind: Hover, Height: height, Duration: d}
}

// NewDelay creates a wait with no physical effect.
func NewDelay(d time.Duration) Instruction {
	return Instruction{Kind: Delay, Duration: d}
}

// IsTorque reports whether the instruction applies and later cancels a torque.
func (i Instruction) IsTorque() bool {
	switch i.Kind {
	case Pitch, Roll, Yaw:
		return true
	}
	return false
}

func (i Instruction) String() string {
	switch i.Kind {
	case Pitch, Roll, Yaw:
		return fmt.Sprintf("%s(%s, %v)", i.Kind, i.Direction, i.Duration)
	case Hover:
		return fmt.Sprintf("hover(%.2fm, %v)", i.Height, i.Duration)
	default:
		return fmt.Sprintf("%s(%v)", i.Kind, i.Duration)
	}
}

// wireInstruction is the JSON form; duration is in milliseconds.
type wireInstruction struct {
	Type      Kind      `json:"type"`
	Direction Direction `json:"direction,omitempty"`
	Height    float64   `json:"height,omitempty"`
	Duration  float64   `json:"duration"`
}

// MarshalJSON encodes the instruction with its duration in milliseconds.
func (i Instruction) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireInstruction{
		Type:      i.Kind,
		Direction: i.Direction,
		Height:    i.Height,
		Duration:  float64(i.Duration) / float64(time.Millisecond),
	})
}

// UnmarshalJSON decodes the millisecond JSON form.
func (i *Instruction) UnmarshalJSON(data []byte) error {
	var w wireInstruction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case Pitch, Roll, Yaw, Hover, Delay:
	default:
		return fmt.Errorf("unknown instruction type %q", w.Type)
	}
	*i = Instruction{
		Kind:      w.Type,
		Direction: w.Direction,
		Height:    w.Height,
		Duration:  time.Duration(w.Duration * float64(time.Millisecond)),
	}
	return nil
}

// TotalDuration sums the durations of a program.
func TotalDuration(program []Instruction) time.Duration {
	var total time.Duration
	for _, in := range program {
		total += in.Duration
	}
	return total
}
