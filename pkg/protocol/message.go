// Package protocol defines the websocket messages exchanged between the
// flight school server and its clients (browser scene, flightctl).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of websocket message
type MessageType string

const (
	// Server → client messages
	TypeTelemetry MessageType = "telemetry" // Drone state snapshot
	TypeRun       MessageType = "run"       // Program run started or ended
	TypeEffect    MessageType = "effect"    // One executor effect
	TypeReset     MessageType = "reset"     // World was reset
	TypeError     MessageType = "error"     // Rejected client command

	// Client → server messages
	TypeKey     MessageType = "key"     // Manual control press
	TypeProgram MessageType = "program" // Blockly workspace to run

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all websocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// TelemetryData is one drone snapshot
type TelemetryData struct {
	Tick            uint64     `json:"tick"`
	Time            float64    `json:"time"`                  // Simulated seconds
	Position        [3]float64 `json:"position"`              // Metres, Y up
	Quaternion      [4]float64 `json:"quaternion"`            // x, y, z, w
	Velocity        [3]float64 `json:"velocity"`              // m/s
	AngularVelocity [3]float64 `json:"angular_velocity"`      // rad/s
	Euler           [3]float64 `json:"euler"`                 // Roll about X, Y, Z (radians)
	OnGround        bool       `json:"on_ground"`             // Touching the ground plane
	Hover           HoverState `json:"hover"`                 // Altitude hold
	RunID           string     `json:"run_id,omitempty"`      // Executing program, if any
	Instruction     string     `json:"instruction,omitempty"` // Active instruction
}

// HoverState mirrors the altitude controller
type HoverState struct {
	Enabled   bool     `json:"enabled"`
	Target    *float64 `json:"target,omitempty"`
	Integral  float64  `json:"integral"`
	LastError float64  `json:"last_error"`
	Force     float64  `json:"force"`
}

// RunData reports a program run's lifecycle
type RunData struct {
	ID           string `json:"id"`
	Status       string `json:"status"` // "running", "finished", "abandoned"
	Index        int    `json:"index"`
	Instructions int    `json:"instructions"`
	StartTick    uint64 `json:"start_tick"`
	EndTick      uint64 `json:"end_tick,omitempty"`
}

// EffectData is one applied instruction effect
type EffectData struct {
	Seq         uint64     `json:"seq"`
	Tick        uint64     `json:"tick"`
	RunID       string     `json:"run_id"`
	Index       int        `json:"index"`
	Kind        string     `json:"kind"` // "torque", "cancel", "hover", "wait"
	Instruction string     `json:"instruction"`
	Torque      [3]float64 `json:"torque"`
}

// ResetData follows a world reset
type ResetData struct {
	Tick uint64 `json:"tick"`
}

// ErrorData explains why a client command was rejected
type ErrorData struct {
	Code    string `json:"code"` // "busy", "bad_request", "unknown_key"
	Message string `json:"message"`
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// KeyCommand presses one manual control key
type KeyCommand struct {
	Key string `json:"key"`
}

// ProgramCommand runs a Blockly workspace
type ProgramCommand struct {
	Workspace json.RawMessage `json:"workspace"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData for health checks
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"` // Unix milliseconds
}

// PongData for health check responses
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}
