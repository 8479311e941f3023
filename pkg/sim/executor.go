package sim

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/teslashibe/go-flightschool/pkg/instruction"
)

var (
	// ErrBusy is returned when a run is started while another is executing.
	ErrBusy = errors.New("sim: a program is already executing")
	// ErrUnknownRun is returned for run ids the session does not remember.
	ErrUnknownRun = errors.New("sim: unknown run")
)

const (
	maxTrace   = 1024
	maxHistory = 16
)

// Actuator receives torque pulses.
type Actuator interface {
	ApplyTorque(torque mgl64.Vec3)
}

// HoverController is switched on by hover instructions.
type HoverController interface {
	Enable(target float64)
}

// RunID identifies one program run.
type RunID string

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunFinished  RunStatus = "finished"
	RunAbandoned RunStatus = "abandoned"
)

// RunInfo describes a run.
type RunInfo struct {
	ID           RunID                    `json:"id"`
	Status       RunStatus                `json:"status"`
	Index        int                      `json:"index"`
	Instructions int                      `json:"instructions"`
	Current      *instruction.Instruction `json:"current,omitempty"`
	StartTick    uint64                   `json:"start_tick"`
	EndTick      uint64                   `json:"end_tick,omitempty"`
}

// EffectKind names what an executor step did to the world.
type EffectKind string

const (
	EffectTorque EffectKind = "torque" // rotation pulse applied
	EffectCancel EffectKind = "cancel" // opposite pulse applied
	EffectHover  EffectKind = "hover"  // altitude hold enabled
	EffectWait   EffectKind = "wait"   // delay entered
)

// Effect is one applied executor action. Seq is strictly increasing across
// the session.
type Effect struct {
	Seq         uint64                  `json:"seq"`
	Tick        uint64                  `json:"tick"`
	Run         RunID                   `json:"run"`
	Index       int                     `json:"index"`
	Kind        EffectKind              `json:"kind"`
	Instruction instruction.Instruction `json:"instruction"`
	Torque      mgl64.Vec3              `json:"torque"`
}

type run struct {
	id      RunID
	program []instruction.Instruction
	status  RunStatus

	index     int
	entered   bool
	enteredAt uint64
	torque    mgl64.Vec3

	startTick uint64
	endTick   uint64
	done      chan struct{}
}

func (r *run) info() RunInfo {
	ri := RunInfo{
		ID:           r.id,
		Status:       r.status,
		Index:        r.index,
		Instructions: len(r.program),
		StartTick:    r.startTick,
		EndTick:      r.endTick,
	}
	if r.status == RunRunning && r.entered && r.index < len(r.program) {
		in := r.program[r.index]
		ri.Current = &in
	}
	return ri
}

// Executor runs one program at a time as a state machine advanced once per
// tick. An instruction stays active until the simulated time since it was
// entered reaches its duration.
type Executor struct {
	active *run
	runs   map[RunID]*run
	order  []RunID

	seq   uint64
	trace []Effect
}

// NewExecutor creates an idle executor.
func NewExecutor() *Executor {
	return &Executor{runs: make(map[RunID]*run)}
}

// Busy reports whether a run is executing.
func (e *Executor) Busy() bool {
	return e.active != nil
}

// Start queues a program. The first instruction is entered on the next
// Advance. Returns ErrBusy while another run is active.
func (e *Executor) Start(program []instruction.Instruction, tick uint64) (RunInfo, error) {
	if e.active != nil {
		return RunInfo{}, ErrBusy
	}

	r := &run{
		id:        RunID(uuid.New().String()),
		program:   append([]instruction.Instruction(nil), program...),
		status:    RunRunning,
		startTick: tick,
		done:      make(chan struct{}),
	}
	e.active = r
	e.remember(r)
	return r.info(), nil
}

func (e *Executor) remember(r *run) {
	e.runs[r.id] = r
	e.order = append(e.order, r.id)
	for len(e.order) > maxHistory {
		old := e.order[0]
		if e.runs[old] == e.active {
			break
		}
		delete(e.runs, old)
		e.order = e.order[1:]
	}
}

// Advance moves the active run forward at tick. It returns the effects
// applied and, when the run completed on this tick, its final info.
func (e *Executor) Advance(tick uint64, act Actuator, hover HoverController) ([]Effect, *RunInfo) {
	r := e.active
	if r == nil {
		return nil, nil
	}

	var effects []Effect
	for r.index < len(r.program) {
		in := r.program[r.index]
		if !r.entered {
			effects = append(effects, e.enter(r, in, tick, act, hover))
		}
		if ticksToDuration(tick-r.enteredAt) < in.Duration {
			return effects, nil
		}
		if in.IsTorque() {
			act.ApplyTorque(r.torque.Mul(-1))
			effects = append(effects, e.record(r, in, tick, EffectCancel, r.torque.Mul(-1)))
		}
		r.index++
		r.entered = false
		r.torque = mgl64.Vec3{}
	}

	info := e.finish(r, tick, RunFinished)
	return effects, &info
}

func (e *Executor) enter(r *run, in instruction.Instruction, tick uint64, act Actuator, hover HoverController) Effect {
	r.entered = true
	r.enteredAt = tick

	switch in.Kind {
	case instruction.Pitch, instruction.Roll, instruction.Yaw:
		r.torque = TorqueFor(in)
		act.ApplyTorque(r.torque)
		return e.record(r, in, tick, EffectTorque, r.torque)
	case instruction.Hover:
		hover.Enable(in.Height)
		return e.record(r, in, tick, EffectHover, mgl64.Vec3{})
	default:
		return e.record(r, in, tick, EffectWait, mgl64.Vec3{})
	}
}

func (e *Executor) record(r *run, in instruction.Instruction, tick uint64, kind EffectKind, torque mgl64.Vec3) Effect {
	e.seq++
	eff := Effect{
		Seq:         e.seq,
		Tick:        tick,
		Run:         r.id,
		Index:       r.index,
		Kind:        kind,
		Instruction: in,
		Torque:      torque,
	}
	e.trace = append(e.trace, eff)
	if len(e.trace) > maxTrace {
		e.trace = e.trace[len(e.trace)-maxTrace:]
	}
	return eff
}

func (e *Executor) finish(r *run, tick uint64, status RunStatus) RunInfo {
	r.status = status
	r.endTick = tick
	close(r.done)
	if e.active == r {
		e.active = nil
	}
	return r.info()
}

// Abandon drops the active run without applying any cancelling torque.
// Used when the world is reset underneath it.
func (e *Executor) Abandon(tick uint64) *RunInfo {
	if e.active == nil {
		return nil
	}
	info := e.finish(e.active, tick, RunAbandoned)
	return &info
}

// Active returns the executing run, if any.
func (e *Executor) Active() (RunInfo, bool) {
	if e.active == nil {
		return RunInfo{}, false
	}
	return e.active.info(), true
}

// Info looks up a recent run.
func (e *Executor) Info(id RunID) (RunInfo, bool) {
	r, ok := e.runs[id]
	if !ok {
		return RunInfo{}, false
	}
	return r.info(), true
}

// Trace returns a copy of the most recent effects, oldest first.
func (e *Executor) Trace() []Effect {
	out := make([]Effect, len(e.trace))
	copy(out, e.trace)
	return out
}

func (e *Executor) doneChan(id RunID) (<-chan struct{}, bool) {
	r, ok := e.runs[id]
	if !ok {
		return nil, false
	}
	return r.done, true
}

// TorqueFor returns the torque a rotation instruction applies: pitch about
// X (forward positive), yaw about Y and roll about Z (left positive).
func TorqueFor(in instruction.Instruction) mgl64.Vec3 {
	switch in.Kind {
	case instruction.Pitch:
		if in.Direction == instruction.Forward {
			return mgl64.Vec3{TorqueMagnitude, 0, 0}
		}
		return mgl64.Vec3{-TorqueMagnitude, 0, 0}
	case instruction.Roll:
		if in.Direction == instruction.Left {
			return mgl64.Vec3{0, 0, TorqueMagnitude}
		}
		return mgl64.Vec3{0, 0, -TorqueMagnitude}
	case instruction.Yaw:
		if in.Direction == instruction.Left {
			return mgl64.Vec3{0, TorqueMagnitude, 0}
		}
		return mgl64.Vec3{0, -TorqueMagnitude, 0}
	}
	return mgl64.Vec3{}
}

// ticksToDuration converts a tick count to simulated time without drift.
func ticksToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks) * time.Second / TickRate
}
