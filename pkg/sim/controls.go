package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Key names accepted by Session.Key. Browser key values are accepted too.
const (
	KeySpace      = "space"
	KeyW          = "w"
	KeyS          = "s"
	KeyA          = "a"
	KeyD          = "d"
	KeyH          = "h"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
)

// Keys lists the recognised manual controls.
func Keys() []string {
	return []string{KeySpace, KeyW, KeyS, KeyA, KeyD, KeyH, KeyArrowLeft, KeyArrowRight, KeyArrowUp, KeyArrowDown}
}

// Key applies one manual control press to the drone. Forces and torques
// last for the next tick only. "h" turns on the altitude hold at
// DefaultHoverHeight. Returns false for unrecognised keys.
func (s *Session) Key(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := s.world.Body
	switch key {
	case KeySpace, " ", KeyW:
		body.ApplyLocalForce(mgl64.Vec3{0, ThrustForce, 0}, mgl64.Vec3{})
	case KeyS:
		body.ApplyLocalForce(mgl64.Vec3{0, -ThrustForce, 0}, mgl64.Vec3{})
	case KeyA:
		body.ApplyTorque(mgl64.Vec3{0, 0, TorqueMagnitude})
	case KeyD:
		body.ApplyTorque(mgl64.Vec3{0, 0, -TorqueMagnitude})
	case KeyArrowLeft:
		body.ApplyTorque(mgl64.Vec3{0, TorqueMagnitude, 0})
	case KeyArrowRight:
		body.ApplyTorque(mgl64.Vec3{0, -TorqueMagnitude, 0})
	case KeyArrowUp:
		body.ApplyTorque(mgl64.Vec3{TorqueMagnitude, 0, 0})
	case KeyArrowDown:
		body.ApplyTorque(mgl64.Vec3{-TorqueMagnitude, 0, 0})
	case KeyH:
		s.hover.Enable(DefaultHoverHeight)
	default:
		return false
	}

	s.log.Debug("key", "key", key, "tick", s.tick)
	return true
}
