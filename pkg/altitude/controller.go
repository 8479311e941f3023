// Package altitude holds the drone's PID altitude-hold controller.
package altitude

import (
	"time"

	"go.einride.tech/pid"
)

// Fixed controller gains and sampling interval.
const (
	Kp = 100.0
	Ki = 0.1
	Kd = 50.0

	TickRate = 60
)

// SamplingInterval is one physics tick. Integer nanoseconds truncate 1/60 s
// to 16666666ns, so the controller's dt is short by under one part in 10^7.
const SamplingInterval = time.Second / TickRate

// State is a read-only view of the controller.
type State struct {
	Enabled   bool     `json:"enabled"`
	Target    *float64 `json:"target_height"`
	Integral  float64  `json:"integral"`
	LastError float64  `json:"last_error"`
	Force     float64  `json:"force"`
}

// Controller computes a vertical force that drives the body toward a target
// height. It is disabled until Enable is called and stays enabled until
// Disable, regardless of whether the target was reached.
//
// The integral term has no windup limit.
type Controller struct {
	ctrl      pid.Controller
	target    float64
	hasTarget bool
	enabled   bool
}

// NewController creates a disabled controller with the fixed gains.
func NewController() *Controller {
	return &Controller{
		ctrl: pid.Controller{
			Config: pid.ControllerConfig{
				ProportionalGain: Kp,
				IntegralGain:     Ki,
				DerivativeGain:   Kd,
			},
		},
	}
}

// Enable sets the target height and clears the integral and last error.
func (a *Controller) Enable(target float64) {
	a.target = target
	a.hasTarget = true
	a.enabled = true
	a.ctrl.State = pid.ControllerState{}
}

// Disable stops force contribution. Accumulated state is kept until the
// next Enable.
func (a *Controller) Disable() {
	a.enabled = false
}

// Enabled reports whether the controller contributes force.
func (a *Controller) Enabled() bool {
	return a.enabled
}

// Target returns the target height, if one was ever set.
func (a *Controller) Target() (float64, bool) {
	return a.target, a.hasTarget
}

// Update advances the controller one tick from the current height and
// returns the vertical force to apply. ok is false while disabled.
func (a *Controller) Update(height float64) (force float64, ok bool) {
	if !a.enabled || !a.hasTarget {
		return 0, false
	}
	a.ctrl.Update(pid.ControllerInput{
		ReferenceSignal:  a.target,
		ActualSignal:     height,
		SamplingInterval: SamplingInterval,
	})
	return a.ctrl.State.ControlSignal, true
}

// State returns a snapshot of the controller.
func (a *Controller) State() State {
	s := State{
		Enabled:   a.enabled,
		Integral:  a.ctrl.State.ControlErrorIntegral,
		LastError: a.ctrl.State.ControlError,
		Force:     a.ctrl.State.ControlSignal,
	}
	if a.hasTarget {
		t := a.target
		s.Target = &t
	}
	return s
}
