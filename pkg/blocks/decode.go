package blocks

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/teslashibe/go-flightschool/pkg/instruction"
)

// wireWorkspace is the editor's JSON workspace serialization.
type wireWorkspace struct {
	Blocks struct {
		Blocks []wireBlock `json:"blocks"`
	} `json:"blocks"`
}

type wireBlock struct {
	Type   string                     `json:"type"`
	ID     string                     `json:"id,omitempty"`
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
	Next   *wireNext                  `json:"next,omitempty"`
}

type wireNext struct {
	Block *wireBlock `json:"block"`
}

// Decode parses a serialized workspace into a Program. Only malformed JSON is
// an error; unknown block kinds decode to UnknownBlock and out-of-range
// numbers are clamped the way the editor widgets would clamp them.
func Decode(data []byte) (Program, error) {
	var ws wireWorkspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return Program{}, fmt.Errorf("decode workspace: %w", err)
	}

	prog := Program{Chains: make([]Chain, 0, len(ws.Blocks.Blocks))}
	for i := range ws.Blocks.Blocks {
		var chain Chain
		for b := &ws.Blocks.Blocks[i]; b != nil; b = b.next() {
			chain = append(chain, b.decode())
		}
		prog.Chains = append(prog.Chains, chain)
	}
	return prog, nil
}

func (b *wireBlock) next() *wireBlock {
	if b.Next == nil {
		return nil
	}
	return b.Next.Block
}

func (b *wireBlock) decode() Block {
	switch b.Type {
	case KindPitch:
		return PitchBlock{
			Direction: b.direction(pitchOptions),
			Seconds:   b.number(FieldDuration),
		}
	case KindRoll:
		return RollBlock{
			Direction: b.direction(sideOptions),
			Seconds:   b.number(FieldDuration),
		}
	case KindYaw:
		return YawBlock{
			Direction: b.direction(sideOptions),
			Seconds:   b.number(FieldDuration),
		}
	case KindHover:
		return HoverBlock{
			Height:  b.number(FieldHeight),
			Seconds: b.number(FieldDuration),
		}
	case KindDelay:
		return DelayBlock{Seconds: b.number(FieldSeconds)}
	default:
		return UnknownBlock{Kind: b.Type}
	}
}

// number reads a numeric field, accepting JSON numbers or numeric strings.
func (b *wireBlock) number(name string) float64 {
	raw, ok := b.Fields[name]
	if !ok {
		return DefaultValue
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return DefaultValue
		}
		if v, err = strconv.ParseFloat(s, 64); err != nil || math.IsNaN(v) {
			return DefaultValue
		}
	}
	return Clamp(v)
}

// direction reads a dropdown, falling back to its first option.
func (b *wireBlock) direction(options []Option) instruction.Direction {
	fallback := instruction.Direction(options[0].Value)

	raw, ok := b.Fields[FieldDirection]
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fallback
	}
	for _, o := range options {
		if o.Value == s {
			return instruction.Direction(s)
		}
	}
	return fallback
}
