package protocol

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewTelemetryMessage creates a telemetry message
func NewTelemetryMessage(t TelemetryData) (*Message, error) {
	return NewMessage(TypeTelemetry, t)
}

// NewRunMessage creates a run lifecycle message
func NewRunMessage(r RunData) (*Message, error) {
	return NewMessage(TypeRun, r)
}

// NewEffectMessage creates an executor effect message
func NewEffectMessage(e EffectData) (*Message, error) {
	return NewMessage(TypeEffect, e)
}

// NewResetMessage creates a reset notification
func NewResetMessage(tick uint64) (*Message, error) {
	return NewMessage(TypeReset, ResetData{Tick: tick})
}

// NewErrorMessage creates an error reply
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewKeyMessage creates a manual control message
func NewKeyMessage(key string) (*Message, error) {
	return NewMessage(TypeKey, KeyCommand{Key: key})
}

// NewProgramMessage creates a program message from a Blockly workspace
func NewProgramMessage(workspace []byte) (*Message, error) {
	return NewMessage(TypeProgram, ProgramCommand{Workspace: json.RawMessage(workspace)})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetTelemetryData extracts telemetry from a message
func (m *Message) GetTelemetryData() (*TelemetryData, error) {
	var data TelemetryData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRunData extracts run data from a message
func (m *Message) GetRunData() (*RunData, error) {
	var data RunData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEffectData extracts an effect from a message
func (m *Message) GetEffectData() (*EffectData, error) {
	var data EffectData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts an error reply from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetKeyCommand extracts a key press from a message
func (m *Message) GetKeyCommand() (*KeyCommand, error) {
	var data KeyCommand
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetProgramCommand extracts a program from a message
func (m *Message) GetProgramCommand() (*ProgramCommand, error) {
	var data ProgramCommand
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
