package blocks

import (
	"time"

	"github.com/teslashibe/go-flightschool/pkg/instruction"
)

// Compile flattens a program into instructions: chains in discovery order,
// each walked head to tail, one instruction per recognized block. Unknown
// blocks emit nothing.
func Compile(p Program) []instruction.Instruction {
	out := make([]instruction.Instruction, 0, p.Len())
	for _, chain := range p.Chains {
		for _, b := range chain {
			if in, ok := compileBlock(b); ok {
				out = append(out, in)
			}
		}
	}
	return out
}

// CompileJSON decodes a serialized workspace and compiles it.
func CompileJSON(data []byte) ([]instruction.Instruction, error) {
	p, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Compile(p), nil
}

func compileBlock(b Block) (instruction.Instruction, bool) {
	switch b := b.(type) {
	case PitchBlock:
		return instruction.NewPitch(b.Direction, seconds(b.Seconds)), true
	case RollBlock:
		return instruction.NewRoll(b.Direction, seconds(b.Seconds)), true
	case YawBlock:
		return instruction.NewYaw(b.Direction, seconds(b.Seconds)), true
	case HoverBlock:
		return instruction.NewHover(b.Height, seconds(b.Seconds)), true
	case DelayBlock:
		return instruction.NewDelay(seconds(b.Seconds)), true
	}
	return instruction.Instruction{}, false
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
