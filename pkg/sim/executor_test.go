package sim

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-flightschool/pkg/instruction"
)

// mockActuator records every torque pulse with the tick it was applied on.
type mockActuator struct {
	mu     sync.Mutex
	tick   uint64
	pulses []struct {
		tick   uint64
		torque mgl64.Vec3
	}
}

func (m *mockActuator) ApplyTorque(torque mgl64.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulses = append(m.pulses, struct {
		tick   uint64
		torque mgl64.Vec3
	}{m.tick, torque})
}

func (m *mockActuator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pulses)
}

type mockHover struct {
	targets []float64
}

func (m *mockHover) Enable(target float64) {
	m.targets = append(m.targets, target)
}

// drive advances e from tick 1 until the run finishes or limit is hit and
// returns the tick it finished on.
func drive(t *testing.T, e *Executor, act *mockActuator, hover HoverController, limit uint64) uint64 {
	t.Helper()
	for tick := uint64(1); tick <= limit; tick++ {
		act.tick = tick
		if _, done := e.Advance(tick, act, hover); done != nil {
			return tick
		}
	}
	t.Fatalf("run did not finish within %d ticks", limit)
	return 0
}

func TestExecutor_PitchThenDelay(t *testing.T) {
	e := NewExecutor()
	act := &mockActuator{}
	program := []instruction.Instruction{
		instruction.NewPitch(instruction.Forward, time.Second),
		instruction.NewDelay(time.Second),
	}

	if _, err := e.Start(program, 0); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	end := drive(t, e, act, &mockHover{}, 1000)

	// Entered on tick 1, one second each at 60 Hz.
	if end != 121 {
		t.Errorf("finished on tick %d, want 121", end)
	}
	if act.count() != 2 {
		t.Fatalf("torque pulses = %d, want 2", act.count())
	}
	on, off := act.pulses[0], act.pulses[1]
	if on.torque != (mgl64.Vec3{TorqueMagnitude, 0, 0}) {
		t.Errorf("first pulse = %v, want (+2,0,0)", on.torque)
	}
	if off.torque != on.torque.Mul(-1) {
		t.Errorf("cancel pulse = %v, want %v", off.torque, on.torque.Mul(-1))
	}
	if off.tick-on.tick != 60 {
		t.Errorf("pulse gap = %d ticks, want 60", off.tick-on.tick)
	}
	if e.Busy() {
		t.Error("executor should be idle after the run")
	}
}

func TestExecutor_TraceSequence(t *testing.T) {
	e := NewExecutor()
	act := &mockActuator{}
	program := []instruction.Instruction{
		instruction.NewRoll(instruction.Left, 500*time.Millisecond),
		instruction.NewYaw(instruction.Right, 500*time.Millisecond),
		instruction.NewHover(2, 250*time.Millisecond),
		instruction.NewDelay(250 * time.Millisecond),
	}

	e.Start(program, 0)
	drive(t, e, act, &mockHover{}, 1000)

	trace := e.Trace()
	wantKinds := []EffectKind{EffectTorque, EffectCancel, EffectTorque, EffectCancel, EffectHover, EffectWait}
	if len(trace) != len(wantKinds) {
		t.Fatalf("trace length = %d, want %d: %+v", len(trace), len(wantKinds), trace)
	}
	for i, eff := range trace {
		if eff.Kind != wantKinds[i] {
			t.Errorf("trace[%d].Kind = %s, want %s", i, eff.Kind, wantKinds[i])
		}
		if i > 0 && eff.Seq <= trace[i-1].Seq {
			t.Errorf("seq not increasing at %d: %d after %d", i, eff.Seq, trace[i-1].Seq)
		}
		if i > 0 && eff.Tick < trace[i-1].Tick {
			t.Errorf("tick went backwards at %d", i)
		}
	}

	// The next instruction is entered on the same tick the previous one exits.
	if trace[1].Tick != trace[2].Tick {
		t.Errorf("roll exit tick %d != yaw entry tick %d", trace[1].Tick, trace[2].Tick)
	}
}

func TestExecutor_HoverEnablesController(t *testing.T) {
	e := NewExecutor()
	hover := &mockHover{}
	e.Start([]instruction.Instruction{instruction.NewHover(1.5, time.Second)}, 0)

	drive(t, e, &mockActuator{}, hover, 1000)

	if len(hover.targets) != 1 || hover.targets[0] != 1.5 {
		t.Errorf("hover targets = %v, want [1.5]", hover.targets)
	}
}

func TestExecutor_Busy(t *testing.T) {
	e := NewExecutor()
	prog := []instruction.Instruction{instruction.NewDelay(100 * time.Millisecond)}

	if _, err := e.Start(prog, 0); err != nil {
		t.Fatalf("first Start() error: %v", err)
	}
	if _, err := e.Start(prog, 0); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Start() error = %v, want ErrBusy", err)
	}

	drive(t, e, &mockActuator{}, &mockHover{}, 100)

	if _, err := e.Start(prog, 100); err != nil {
		t.Errorf("Start() after finish error: %v", err)
	}
}

func TestExecutor_EmptyProgram(t *testing.T) {
	e := NewExecutor()
	info, _ := e.Start(nil, 5)

	effects, done := e.Advance(6, &mockActuator{}, &mockHover{})
	if done == nil {
		t.Fatal("empty program should finish on its first tick")
	}
	if len(effects) != 0 {
		t.Errorf("effects = %v, want none", effects)
	}
	if done.ID != info.ID || done.Status != RunFinished {
		t.Errorf("done = %+v", done)
	}
}

func TestExecutor_Abandon(t *testing.T) {
	e := NewExecutor()
	act := &mockActuator{}
	info, _ := e.Start([]instruction.Instruction{instruction.NewPitch(instruction.Backward, time.Second)}, 0)

	e.Advance(1, act, &mockHover{})
	abandoned := e.Abandon(2)

	if abandoned == nil || abandoned.Status != RunAbandoned {
		t.Fatalf("Abandon() = %+v", abandoned)
	}
	if act.count() != 1 {
		t.Errorf("abandon should not apply a cancel pulse, pulses = %d", act.count())
	}
	done, ok := e.doneChan(info.ID)
	if !ok {
		t.Fatal("run should still be remembered")
	}
	select {
	case <-done:
	default:
		t.Error("done channel should be closed")
	}
	if e.Abandon(3) != nil {
		t.Error("second Abandon() should be a no-op")
	}
}

func TestExecutor_CurrentInstruction(t *testing.T) {
	e := NewExecutor()
	prog := []instruction.Instruction{
		instruction.NewDelay(time.Second),
		instruction.NewYaw(instruction.Left, time.Second),
	}
	e.Start(prog, 0)

	e.Advance(1, &mockActuator{}, &mockHover{})
	info, ok := e.Active()
	if !ok || info.Current == nil || info.Current.Kind != instruction.Delay {
		t.Fatalf("Active() = %+v, %v", info, ok)
	}

	for tick := uint64(2); tick <= 61; tick++ {
		e.Advance(tick, &mockActuator{}, &mockHover{})
	}
	info, _ = e.Active()
	if info.Index != 1 || info.Current.Kind != instruction.Yaw {
		t.Errorf("after 1s: index=%d current=%v", info.Index, info.Current)
	}
}

func TestTorqueFor(t *testing.T) {
	tests := []struct {
		in   instruction.Instruction
		want mgl64.Vec3
	}{
		{instruction.NewPitch(instruction.Forward, 0), mgl64.Vec3{2, 0, 0}},
		{instruction.NewPitch(instruction.Backward, 0), mgl64.Vec3{-2, 0, 0}},
		{instruction.NewRoll(instruction.Left, 0), mgl64.Vec3{0, 0, 2}},
		{instruction.NewRoll(instruction.Right, 0), mgl64.Vec3{0, 0, -2}},
		{instruction.NewYaw(instruction.Left, 0), mgl64.Vec3{0, 2, 0}},
		{instruction.NewYaw(instruction.Right, 0), mgl64.Vec3{0, -2, 0}},
		{instruction.NewDelay(0), mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := TorqueFor(tt.in); got != tt.want {
				t.Errorf("TorqueFor() = %v, want %v", got, tt.want)
			}
		})
	}
}
