// Package sim runs the drone simulation: a fixed 60 Hz loop that steps the
// physics world, applies the altitude hold and advances block programs.
package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-flightschool/internal/log"
	"github.com/teslashibe/go-flightschool/pkg/altitude"
	"github.com/teslashibe/go-flightschool/pkg/instruction"
	"github.com/teslashibe/go-flightschool/pkg/physics"
)

// Loop and actuator constants.
const (
	TickRate            = 60
	Dt                  = 1.0 / TickRate
	TorqueMagnitude     = 2.0
	ThrustForce         = 10.0
	DefaultHoverHeight  = 1.0
	DefaultSnapshotRate = 6 // ticks between observer snapshots (10 Hz)

	heartbeatTicks = 5 * TickRate
)

// TickInterval is the wall-clock period of one tick.
const TickInterval = time.Second / TickRate

// Observer receives session events. Calls are made on the ticking goroutine
// after the session lock is released, so observers may call back into the
// session.
type Observer interface {
	OnSnapshot(Snapshot)
	OnRun(RunInfo)
	OnEffect(Effect)
}

// Session owns one world, one altitude controller and one executor. All
// state changes are serialized by a single mutex, and the loop applies
// them in a fixed order each tick: physics step, hover force, executor.
type Session struct {
	mu       sync.Mutex
	world    *physics.World
	hover    *altitude.Controller
	exec     *Executor
	tick     uint64
	observer Observer

	snapshotEvery uint64
	rate          time.Duration
	stop          chan struct{}
	stopOnce      sync.Once

	log *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSnapshotEvery sets how many ticks pass between observer snapshots.
func WithSnapshotEvery(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.snapshotEvery = uint64(n)
		}
	}
}

// WithRate overrides the wall-clock tick period used by Run.
func WithRate(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.rate = d
		}
	}
}

// WithObserver attaches an observer at construction.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// NewSession creates a session with a fresh drone world.
func NewSession(opts ...Option) *Session {
	s := &Session{
		world:         physics.NewDroneWorld(),
		hover:         altitude.NewController(),
		exec:          NewExecutor(),
		snapshotEvery: DefaultSnapshotRate,
		rate:          TickInterval,
		stop:          make(chan struct{}),
		log:           log.With("component", "sim"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetObserver replaces the observer. Nil detaches it.
func (s *Session) SetObserver(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// Run starts the tick loop. Blocks until Stop is called.
func (s *Session) Run() {
	ticker := time.NewTicker(s.rate)
	defer ticker.Stop()

	s.log.Info("simulation loop started", "rate", s.rate)
	for {
		select {
		case <-s.stop:
			s.log.Info("simulation loop stopped", "ticks", s.Ticks())
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Stop halts the tick loop. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// events collects what a tick produced so observers can be notified
// outside the lock.
type events struct {
	effects  []Effect
	runs     []RunInfo
	snapshot *Snapshot
}

func (ev events) deliver(o Observer) {
	if o == nil {
		return
	}
	for _, e := range ev.effects {
		o.OnEffect(e)
	}
	for _, r := range ev.runs {
		o.OnRun(r)
	}
	if ev.snapshot != nil {
		o.OnSnapshot(*ev.snapshot)
	}
}

// Step advances the simulation by exactly one tick.
func (s *Session) Step() {
	s.mu.Lock()
	ev := s.stepLocked()
	obs := s.observer
	s.mu.Unlock()

	ev.deliver(obs)
}

func (s *Session) stepLocked() events {
	var ev events

	s.world.Step(Dt)
	s.tick++

	body := s.world.Body
	if force, ok := s.hover.Update(body.Position.Y()); ok {
		body.ApplyLocalForce(mgl64.Vec3{0, force, 0}, mgl64.Vec3{})
	}

	effects, finished := s.exec.Advance(s.tick, body, s.hover)
	ev.effects = effects
	if finished != nil {
		s.log.Info("program finished", "run", finished.ID, "instructions", finished.Instructions, "tick", s.tick)
		ev.runs = append(ev.runs, *finished)
	}

	if s.tick%s.snapshotEvery == 0 {
		snap := s.snapshotLocked()
		ev.snapshot = &snap
	}
	if s.tick%heartbeatTicks == 0 {
		s.log.Debug("heartbeat", "tick", s.tick, "y", body.Position.Y(), "hover", s.hover.Enabled(), "busy", s.exec.Busy())
	}
	return ev
}

// Execute starts a program run. It fails with ErrBusy while a previous run
// is still executing.
func (s *Session) Execute(program []instruction.Instruction) (RunInfo, error) {
	s.mu.Lock()
	info, err := s.exec.Start(program, s.tick)
	obs := s.observer
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("program rejected", "error", err)
		return RunInfo{}, err
	}
	s.log.Info("program started", "run", info.ID, "instructions", info.Instructions, "duration", instruction.TotalDuration(program))
	if obs != nil {
		obs.OnRun(info)
	}
	return info, nil
}

// Wait blocks until the run finishes or ctx is done.
func (s *Session) Wait(ctx context.Context, id RunID) (RunInfo, error) {
	s.mu.Lock()
	done, ok := s.exec.doneChan(id)
	s.mu.Unlock()
	if !ok {
		return RunInfo{}, ErrUnknownRun
	}

	select {
	case <-done:
	case <-ctx.Done():
		return RunInfo{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.exec.Info(id)
	if !ok {
		return RunInfo{}, ErrUnknownRun
	}
	return info, nil
}

// Lookup returns a recent run.
func (s *Session) Lookup(id RunID) (RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.exec.Info(id)
	if !ok {
		return RunInfo{}, ErrUnknownRun
	}
	return info, nil
}

// Busy reports whether a program is executing.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec.Busy()
}

// Reset puts the drone back at the origin at rest, switches the altitude
// hold off and abandons any executing program. The tick counter keeps
// running.
func (s *Session) Reset() {
	s.mu.Lock()
	abandoned := s.exec.Abandon(s.tick)
	s.world = physics.NewDroneWorld()
	s.hover = altitude.NewController()
	snap := s.snapshotLocked()
	obs := s.observer
	s.mu.Unlock()

	s.log.Info("world reset", "tick", snap.Tick)
	if obs == nil {
		return
	}
	if abandoned != nil {
		obs.OnRun(*abandoned)
	}
	obs.OnSnapshot(snap)
}

// Ticks returns the number of ticks stepped.
func (s *Session) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Trace returns the most recent executor effects, oldest first.
func (s *Session) Trace() []Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec.Trace()
}

// Hover returns the altitude controller state.
func (s *Session) Hover() altitude.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hover.State()
}
