// Package physics is a small fixed-step rigid-body world: one dynamic box,
// constant gravity and a static ground plane.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World defaults.
const (
	DefaultGravity     = -9.82
	DefaultGroundLevel = -2.0
	Restitution        = 0.3
	Friction           = 0.3

	// restingSpeed is the impact speed below which a ground contact does not bounce.
	restingSpeed = 0.2
)

// Plane is a static horizontal plane with +Y normal.
type Plane struct {
	Y float64
}

// World owns the body and advances it in fixed steps.
type World struct {
	Gravity mgl64.Vec3
	Ground  Plane
	Body    *Body

	time  float64
	steps uint64
}

// NewWorld creates a world with gravity, the ground plane and no body.
func NewWorld() *World {
	return &World{
		Gravity: mgl64.Vec3{0, DefaultGravity, 0},
		Ground:  Plane{Y: DefaultGroundLevel},
	}
}

// NewDroneWorld creates the simulator's world: a 1 kg, 1 x 0.2 x 1 m box
// at the origin above the ground.
func NewDroneWorld() *World {
	w := NewWorld()
	w.Body = NewBox(1, mgl64.Vec3{0.5, 0.1, 0.5})
	return w
}

// Step advances the world by dt and clears the body's force accumulators.
func (w *World) Step(dt float64) {
	if b := w.Body; b != nil {
		b.integrate(w.Gravity, dt)
		w.resolveGround(b)
		b.ClearForces()
	}
	w.time += dt
	w.steps++
}

// Time returns the simulated seconds elapsed.
func (w *World) Time() float64 { return w.time }

// Steps returns the number of steps taken.
func (w *World) Steps() uint64 { return w.steps }

// OnGround reports whether the body touches the ground plane.
func (w *World) OnGround() bool {
	if w.Body == nil {
		return false
	}
	return lowestCorner(w.Body) <= w.Ground.Y+1e-6
}

func lowestCorner(b *Body) float64 {
	low := math.Inf(1)
	for _, c := range b.Corners() {
		low = math.Min(low, c.Y())
	}
	return low
}

// resolveGround pushes the body out of the plane and applies restitution
// and Coulomb friction to the contact velocity.
func (w *World) resolveGround(b *Body) {
	penetration := w.Ground.Y - lowestCorner(b)
	if penetration <= 0 {
		return
	}
	b.Position[1] += penetration

	vy := b.Velocity.Y()
	if vy >= 0 {
		return
	}

	impact := -vy
	if impact < restingSpeed {
		b.Velocity[1] = 0
	} else {
		b.Velocity[1] = impact * Restitution
	}

	// Friction impulse is bounded by the normal impulse.
	normalDelta := b.Velocity.Y() + impact
	tangent := mgl64.Vec3{b.Velocity.X(), 0, b.Velocity.Z()}
	speed := tangent.Len()
	if speed == 0 {
		return
	}
	reduce := math.Min(speed, Friction*normalDelta)
	tangent = tangent.Mul((speed - reduce) / speed)
	b.Velocity[0] = tangent.X()
	b.Velocity[2] = tangent.Z()
}
