package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Default body parameters.
const (
	DefaultLinearDamping  = 0.01
	DefaultAngularDamping = 0.01
)

// Body is a dynamic box-shaped rigid body. Forces and torques accumulate
// between steps and are cleared after each one, so every Apply call acts for
// exactly one step.
type Body struct {
	Mass        float64
	HalfExtents mgl64.Vec3

	Position        mgl64.Vec3
	Quaternion      mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	LinearDamping  float64
	AngularDamping float64

	force      mgl64.Vec3
	torque     mgl64.Vec3
	invInertia mgl64.Vec3 // body frame, diagonal
}

// NewBox creates a box body with the given mass and half extents.
func NewBox(mass float64, halfExtents mgl64.Vec3) *Body {
	b := &Body{
		Mass:           mass,
		HalfExtents:    halfExtents,
		Quaternion:     mgl64.QuatIdent(),
		LinearDamping:  DefaultLinearDamping,
		AngularDamping: DefaultAngularDamping,
	}
	b.invInertia = boxInverseInertia(mass, halfExtents)
	return b
}

func boxInverseInertia(mass float64, he mgl64.Vec3) mgl64.Vec3 {
	x, y, z := 2*he.X(), 2*he.Y(), 2*he.Z()
	inertia := mgl64.Vec3{
		mass / 12 * (y*y + z*z),
		mass / 12 * (x*x + z*z),
		mass / 12 * (x*x + y*y),
	}
	var inv mgl64.Vec3
	for i := range inertia {
		if inertia[i] > 0 {
			inv[i] = 1 / inertia[i]
		}
	}
	return inv
}

// ApplyForce adds a world-frame force at a world-frame offset from the
// centre of mass.
func (b *Body) ApplyForce(force, relativePoint mgl64.Vec3) {
	b.force = b.force.Add(force)
	b.torque = b.torque.Add(relativePoint.Cross(force))
}

// ApplyLocalForce adds a body-frame force at a body-frame point.
func (b *Body) ApplyLocalForce(localForce, localPoint mgl64.Vec3) {
	b.ApplyForce(b.Quaternion.Rotate(localForce), b.Quaternion.Rotate(localPoint))
}

// ApplyTorque adds a world-frame torque.
func (b *Body) ApplyTorque(torque mgl64.Vec3) {
	b.torque = b.torque.Add(torque)
}

// Force returns the force accumulated for the next step.
func (b *Body) Force() mgl64.Vec3 { return b.force }

// Torque returns the torque accumulated for the next step.
func (b *Body) Torque() mgl64.Vec3 { return b.torque }

// ClearForces empties the accumulators.
func (b *Body) ClearForces() {
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// integrate advances the body by dt with semi-implicit Euler.
func (b *Body) integrate(gravity mgl64.Vec3, dt float64) {
	if b.Mass <= 0 {
		return
	}

	accel := gravity.Add(b.force.Mul(1 / b.Mass))
	b.Velocity = b.Velocity.Add(accel.Mul(dt))

	// Angular acceleration is solved in the body frame where inertia is diagonal.
	localTorque := b.Quaternion.Conjugate().Rotate(b.torque)
	localAlpha := mgl64.Vec3{
		localTorque.X() * b.invInertia.X(),
		localTorque.Y() * b.invInertia.Y(),
		localTorque.Z() * b.invInertia.Z(),
	}
	b.AngularVelocity = b.AngularVelocity.Add(b.Quaternion.Rotate(localAlpha).Mul(dt))

	b.Velocity = b.Velocity.Mul(math.Pow(1-b.LinearDamping, dt))
	b.AngularVelocity = b.AngularVelocity.Mul(math.Pow(1-b.AngularDamping, dt))

	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	spin := mgl64.Quat{W: 0, V: b.AngularVelocity}.Mul(b.Quaternion).Scale(0.5 * dt)
	b.Quaternion = b.Quaternion.Add(spin).Normalize()
}

// Corners returns the eight box corners in world coordinates.
func (b *Body) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	he := b.HalfExtents
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				local := mgl64.Vec3{sx * he.X(), sy * he.Y(), sz * he.Z()}
				out[i] = b.Position.Add(b.Quaternion.Rotate(local))
				i++
			}
		}
	}
	return out
}
