// Package blocks turns visual editor programs into drone instructions.
//
// A program is a set of top-level chains. Each decoded block is a typed
// variant carrying its own fields; the compiler walks every chain head to
// tail and emits one instruction per recognized block.
package blocks

import "github.com/teslashibe/go-flightschool/pkg/instruction"

// Block is one decoded editor block.
type Block interface {
	Type() string
}

// PitchBlock tilts the drone forward or backward.
type PitchBlock struct {
	Direction instruction.Direction
	Seconds   float64
}

// RollBlock rolls the drone left or right.
type RollBlock struct {
	Direction instruction.Direction
	Seconds   float64
}

// YawBlock turns the drone left or right.
type YawBlock struct {
	Direction instruction.Direction
	Seconds   float64
}

// HoverBlock holds an altitude.
type HoverBlock struct {
	Height  float64
	Seconds float64
}

// DelayBlock waits.
type DelayBlock struct {
	Seconds float64
}

// UnknownBlock keeps an unrecognized block's place in its chain.
type UnknownBlock struct {
	Kind string
}

func (PitchBlock) Type() string     { return KindPitch }
func (RollBlock) Type() string      { return KindRoll }
func (YawBlock) Type() string       { return KindYaw }
func (HoverBlock) Type() string     { return KindHover }
func (DelayBlock) Type() string     { return KindDelay }
func (b UnknownBlock) Type() string { return b.Kind }

// Chain is a linear run of blocks linked by their "next" connection.
type Chain []Block

// Program is every top-level chain in the workspace, in discovery order.
type Program struct {
	Chains []Chain
}

// Len returns the total number of blocks across all chains.
func (p Program) Len() int {
	n := 0
	for _, c := range p.Chains {
		n += len(c)
	}
	return n
}
