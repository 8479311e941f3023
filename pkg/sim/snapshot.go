package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-flightschool/pkg/altitude"
)

// Snapshot is the drone's observable state at one tick.
type Snapshot struct {
	Tick            uint64         `json:"tick"`
	Time            float64        `json:"time"`
	Position        mgl64.Vec3     `json:"position"`
	Quaternion      [4]float64     `json:"quaternion"` // x, y, z, w
	Velocity        mgl64.Vec3     `json:"velocity"`
	AngularVelocity mgl64.Vec3     `json:"angular_velocity"`
	Euler           mgl64.Vec3     `json:"euler"` // roll, pitch, yaw in radians
	OnGround        bool           `json:"on_ground"`
	Hover           altitude.State `json:"hover"`
	Run             *RunInfo       `json:"run,omitempty"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	b := s.world.Body
	q := b.Quaternion
	snap := Snapshot{
		Tick:            s.tick,
		Time:            s.world.Time(),
		Position:        b.Position,
		Quaternion:      [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
		Velocity:        b.Velocity,
		AngularVelocity: b.AngularVelocity,
		Euler:           eulerXYZ(q),
		OnGround:        s.world.OnGround(),
		Hover:           s.hover.State(),
	}
	if info, ok := s.exec.Active(); ok {
		snap.Run = &info
	}
	return snap
}

// eulerXYZ decomposes q as R = Rx*Ry*Rz and returns the three angles.
func eulerXYZ(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4() // column-major: m[col*4+row]

	sy := mgl64.Clamp(m[8], -1, 1)
	y := math.Asin(sy)
	if math.Abs(sy) > 0.9999999 {
		return mgl64.Vec3{math.Atan2(m[6], m[5]), y, 0}
	}
	return mgl64.Vec3{math.Atan2(-m[9], m[10]), y, math.Atan2(-m[4], m[0])}
}
