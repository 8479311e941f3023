package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const dt = 1.0 / 60.0

func near(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestFreeFall(t *testing.T) {
	w := NewDroneWorld()

	for i := 0; i < 10; i++ {
		w.Step(dt)
	}

	wantV := DefaultGravity * 10 * dt
	if !near(w.Body.Velocity.Y(), wantV, 1e-2) {
		t.Errorf("vy = %v, want ~%v", w.Body.Velocity.Y(), wantV)
	}
	if w.Body.Position.Y() >= 0 {
		t.Errorf("body should have fallen, y = %v", w.Body.Position.Y())
	}
	if w.Steps() != 10 || !near(w.Time(), 10*dt, 1e-12) {
		t.Errorf("steps=%d time=%v", w.Steps(), w.Time())
	}
}

func TestRestsOnGround(t *testing.T) {
	w := NewDroneWorld()

	for i := 0; i < 600; i++ {
		w.Step(dt)
	}

	rest := DefaultGroundLevel + w.Body.HalfExtents.Y()
	if !near(w.Body.Position.Y(), rest, 1e-2) {
		t.Errorf("y = %v, want ~%v", w.Body.Position.Y(), rest)
	}
	if !w.OnGround() {
		t.Error("body should be on the ground")
	}
	if w.Body.Position.Y() < rest-1e-6 {
		t.Errorf("body sank below ground: %v", w.Body.Position.Y())
	}
}

func TestForcesClearedAfterStep(t *testing.T) {
	w := NewDroneWorld()
	w.Body.ApplyTorque(mgl64.Vec3{2, 0, 0})
	w.Body.ApplyForce(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{})

	w.Step(dt)

	if w.Body.Force() != (mgl64.Vec3{}) || w.Body.Torque() != (mgl64.Vec3{}) {
		t.Errorf("accumulators not cleared: f=%v tau=%v", w.Body.Force(), w.Body.Torque())
	}
}

func TestTorquePulseCancels(t *testing.T) {
	w := NewDroneWorld()
	w.Gravity = mgl64.Vec3{}

	w.Body.ApplyTorque(mgl64.Vec3{2, 0, 0})
	w.Step(dt)

	spin := w.Body.AngularVelocity.X()
	if spin <= 0 {
		t.Fatalf("angular velocity x = %v, want > 0", spin)
	}

	for i := 0; i < 30; i++ {
		w.Step(dt)
	}

	w.Body.ApplyTorque(mgl64.Vec3{-2, 0, 0})
	w.Step(dt)

	if got := w.Body.AngularVelocity.Len(); got > spin*1e-2 {
		t.Errorf("residual spin = %v after cancel (pulse gave %v)", got, spin)
	}
}

func TestApplyLocalForceFollowsOrientation(t *testing.T) {
	b := NewBox(1, mgl64.Vec3{0.5, 0.1, 0.5})
	b.Quaternion = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	b.ApplyLocalForce(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{})

	f := b.Force()
	if !near(f.X(), -1, 1e-9) || !near(f.Y(), 0, 1e-9) {
		t.Errorf("world force = %v, want (-1,0,0)", f)
	}
	if b.Torque().Len() > 1e-12 {
		t.Errorf("force at origin should add no torque, got %v", b.Torque())
	}
}

func TestApplyForceOffCentreAddsTorque(t *testing.T) {
	b := NewBox(1, mgl64.Vec3{0.5, 0.1, 0.5})
	b.ApplyForce(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0})

	if !near(b.Torque().Z(), 1, 1e-12) {
		t.Errorf("torque = %v, want (0,0,1)", b.Torque())
	}
}

func TestBoxInertia(t *testing.T) {
	inv := boxInverseInertia(1, mgl64.Vec3{0.5, 0.1, 0.5})

	// Ix = Iz = (0.2^2 + 1^2)/12, Iy = (1 + 1)/12
	if !near(1/inv.X(), 1.04/12, 1e-12) || !near(1/inv.Z(), 1.04/12, 1e-12) {
		t.Errorf("Ix,Iz = %v,%v", 1/inv.X(), 1/inv.Z())
	}
	if !near(1/inv.Y(), 2.0/12, 1e-12) {
		t.Errorf("Iy = %v", 1/inv.Y())
	}
}

func TestBounce(t *testing.T) {
	w := NewDroneWorld()
	w.Body.Position = mgl64.Vec3{0, DefaultGroundLevel + 0.11, 0}
	w.Body.Velocity = mgl64.Vec3{0, -5, 0}

	w.Step(dt)

	// Impact speed includes one step of gravity.
	maxBounce := (5 - DefaultGravity*dt) * Restitution
	if vy := w.Body.Velocity.Y(); vy <= 0 || vy > maxBounce+1e-9 {
		t.Errorf("vy after impact = %v, want (0, %v]", vy, maxBounce)
	}
}
