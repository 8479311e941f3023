package web

import (
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-flightschool/pkg/blocks"
	"github.com/teslashibe/go-flightschool/pkg/hub"
	"github.com/teslashibe/go-flightschool/pkg/protocol"
	"github.com/teslashibe/go-flightschool/pkg/sim"
)

// Error codes sent to websocket clients.
const (
	codeBusy       = "busy"
	codeBadRequest = "bad_request"
	codeUnknownKey = "unknown_key"
)

// =============================================================================
// Session observer
// =============================================================================

// OnSnapshot broadcasts telemetry to websocket clients.
func (s *Server) OnSnapshot(snap sim.Snapshot) {
	if s.broadcast(s.encode(protocol.NewTelemetryMessage(telemetryData(snap)))) {
		s.telemetrySent.Add(1)
	}
}

// OnRun broadcasts run lifecycle changes.
func (s *Server) OnRun(info sim.RunInfo) {
	s.broadcast(s.encode(protocol.NewRunMessage(runData(info))))
}

// OnEffect broadcasts executor effects.
func (s *Server) OnEffect(e sim.Effect) {
	s.broadcast(s.encode(protocol.NewEffectMessage(effectData(e))))
}

// encode serializes a freshly built message, logging failures.
func (s *Server) encode(msg *protocol.Message, err error) []byte {
	if err == nil {
		var data []byte
		if data, err = msg.Bytes(); err == nil {
			return data
		}
	}
	s.log.Warn("encode message", "error", err)
	return nil
}

// broadcast sends data to every client. Nothing is sent without clients.
func (s *Server) broadcast(data []byte) bool {
	if data == nil || s.telemetry.ClientCount() == 0 {
		return false
	}
	s.telemetry.Broadcast(hub.NewJSONMessage(data))
	return true
}

func (s *Server) reply(c *hub.Client, data []byte) {
	if data != nil {
		s.telemetry.Send(c, data)
	}
}

func (s *Server) replyError(c *hub.Client, code, message string) {
	s.reply(c, s.encode(protocol.NewErrorMessage(code, message)))
}

// reset resets the world and tells every client.
func (s *Server) reset() {
	s.session.Reset()
	s.resets.Add(1)
	s.broadcast(s.encode(protocol.NewResetMessage(s.session.Ticks())))
}

// =============================================================================
// Websocket
// =============================================================================

// handleTelemetryWS streams telemetry and accepts control messages
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	client := hub.NewClient(s.telemetry, c)
	s.reply(client, s.encode(protocol.NewTelemetryMessage(telemetryData(s.session.Snapshot()))))
	client.Run() // Blocks until connection closes
}

// handleClientMessage runs on a client's read goroutine
func (s *Server) handleClientMessage(c *hub.Client, data []byte) {
	s.messagesReceived.Add(1)

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.replyError(c, codeBadRequest, err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			s.replyError(c, codeBadRequest, err.Error())
			return
		}
		s.reply(c, s.encode(protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())))

	case protocol.TypeKey:
		key, err := msg.GetKeyCommand()
		if err != nil {
			s.replyError(c, codeBadRequest, err.Error())
			return
		}
		if !s.session.Key(key.Key) {
			s.replyError(c, codeUnknownKey, "unknown key "+key.Key)
			return
		}
		s.keysApplied.Add(1)

	case protocol.TypeProgram:
		cmd, err := msg.GetProgramCommand()
		if err != nil {
			s.replyError(c, codeBadRequest, err.Error())
			return
		}
		program, err := blocks.CompileJSON(cmd.Workspace)
		if err != nil {
			s.replyError(c, codeBadRequest, err.Error())
			return
		}
		if _, err := s.execute(program); err != nil {
			code := codeBadRequest
			if errors.Is(err, sim.ErrBusy) {
				code = codeBusy
			}
			s.replyError(c, code, err.Error())
		}

	case protocol.TypeReset:
		s.reset()

	default:
		s.replyError(c, codeBadRequest, "unsupported message type "+string(msg.Type))
	}
}

// =============================================================================
// Conversion to wire types
// =============================================================================

func telemetryData(snap sim.Snapshot) protocol.TelemetryData {
	t := protocol.TelemetryData{
		Tick:            snap.Tick,
		Time:            snap.Time,
		Position:        snap.Position,
		Quaternion:      snap.Quaternion,
		Velocity:        snap.Velocity,
		AngularVelocity: snap.AngularVelocity,
		Euler:           snap.Euler,
		OnGround:        snap.OnGround,
		Hover: protocol.HoverState{
			Enabled:   snap.Hover.Enabled,
			Target:    snap.Hover.Target,
			Integral:  snap.Hover.Integral,
			LastError: snap.Hover.LastError,
			Force:     snap.Hover.Force,
		},
	}
	if snap.Run != nil {
		t.RunID = string(snap.Run.ID)
		if snap.Run.Current != nil {
			t.Instruction = snap.Run.Current.String()
		}
	}
	return t
}

func runData(info sim.RunInfo) protocol.RunData {
	return protocol.RunData{
		ID:           string(info.ID),
		Status:       string(info.Status),
		Index:        info.Index,
		Instructions: info.Instructions,
		StartTick:    info.StartTick,
		EndTick:      info.EndTick,
	}
}

func effectData(e sim.Effect) protocol.EffectData {
	return protocol.EffectData{
		Seq:         e.Seq,
		Tick:        e.Tick,
		RunID:       string(e.Run),
		Index:       e.Index,
		Kind:        string(e.Kind),
		Instruction: e.Instruction.String(),
		Torque:      e.Torque,
	}
}
