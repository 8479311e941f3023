// Package puzzle checks answers to the "move the robot" lessons. Each
// answer is parsed into commands, played back the way the lesson canvas
// animates them and then compared with the goal.
package puzzle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPuzzle is returned for lessons without an exercise.
var ErrNoPuzzle = errors.New("puzzle: lesson has no exercise")

// Playback constants, in canvas pixels.
const (
	Speed     = 2  // pixels moved per animation frame
	Tolerance = 5  // max distance from the goal that still counts
	GridUnit  = 50 // one grid unit on the lesson canvas
)

// MessageRetry is shown when the robot stops away from the goal.
const MessageRetry = "Not quite right! Try again."

// Point is a canvas position. Y grows downwards.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Command is one parsed robot command with the position it drives to.
type Command struct {
	Name   string `json:"name"`
	Units  int    `json:"units,omitempty"`
	Target Point  `json:"target"`
}

// Step records how one command moved the robot.
type Step struct {
	Command Command `json:"command"`
	From    Point   `json:"from"`
	To      Point   `json:"to"`
	Frames  int     `json:"frames"`
}

// Result is the outcome of playing an answer. Input mistakes are reported
// in Message, not as errors.
type Result struct {
	Lesson   int       `json:"lesson"`
	Solved   bool      `json:"solved"`
	Message  string    `json:"message,omitempty"`
	Hint     string    `json:"hint,omitempty"`
	Commands []Command `json:"commands,omitempty"`
	Steps    []Step    `json:"steps,omitempty"`
	Start    Point     `json:"start"`
	Goal     Point     `json:"goal"`
	Final    Point     `json:"final"`
	Frames   int       `json:"frames"`
}

// Puzzle checks one lesson's answers.
type Puzzle interface {
	Play(code string) Result
}

var registry = map[int]Puzzle{
	1: textAnswer{lesson: 1, answer: "done", message: `Please type "done" to complete the lesson`},
	2: repeatRight,
	3: rightUnits,
	4: grid2D,
}

// For returns the puzzle for a lesson.
func For(lesson int) (Puzzle, error) {
	p, ok := registry[lesson]
	if !ok {
		return nil, fmt.Errorf("lesson %d: %w", lesson, ErrNoPuzzle)
	}
	return p, nil
}

// Play runs code against a lesson's puzzle.
func Play(lesson int, code string) (Result, error) {
	p, err := For(lesson)
	if err != nil {
		return Result{}, err
	}
	return p.Play(code), nil
}

// textAnswer is solved by typing a fixed word, ignoring case.
type textAnswer struct {
	lesson  int
	answer  string
	message string
}

func (p textAnswer) Play(code string) Result {
	r := Result{Lesson: p.lesson}
	if strings.ToLower(code) == p.answer {
		r.Solved = true
		return r
	}
	r.Message = p.message
	return r
}

// grid is a robot on the lesson canvas driven by parsed commands.
type grid struct {
	lesson int
	start  Point
	goal   Point
	// parse returns the commands, an optional hint, or a usage message
	// when the code is not understood.
	parse func(code string, start Point) (cmds []Command, hint, usage string)
}

func (g grid) Play(code string) Result {
	r := Result{Lesson: g.lesson, Start: g.start, Goal: g.goal, Final: g.start}

	cmds, hint, usage := g.parse(code, g.start)
	if usage != "" {
		r.Message = usage
		return r
	}
	r.Hint = hint

	pos := g.start
	for _, c := range cmds {
		// Each command moves along one axis and keeps the other coordinate.
		switch c.Name {
		case CmdMoveRight:
			c.Target.Y = pos.Y
		case CmdMoveUp:
			c.Target.X = pos.X
		}
		r.Commands = append(r.Commands, c)

		next, frames := move(pos, c)
		r.Steps = append(r.Steps, Step{Command: c, From: pos, To: next, Frames: frames})
		r.Frames += frames
		pos = next
	}
	r.Final = pos

	if abs(pos.X-g.goal.X) < Tolerance && abs(pos.Y-g.goal.Y) < Tolerance {
		r.Solved = true
	} else {
		r.Message = MessageRetry
	}
	return r
}

// move advances Speed pixels per frame until the command's target is
// reached or passed. Right moves only increase X and up moves only
// decrease Y, so a target behind the robot takes no frames.
func move(from Point, c Command) (Point, int) {
	switch c.Name {
	case CmdMoveRight:
		frames := framesTo(c.Target.X - from.X)
		return Point{X: from.X + frames*Speed, Y: from.Y}, frames
	case CmdMoveUp:
		frames := framesTo(from.Y - c.Target.Y)
		return Point{X: from.X, Y: from.Y - frames*Speed}, frames
	}
	return from, 0
}

func framesTo(distance int) int {
	if distance <= 0 {
		return 0
	}
	return (distance + Speed - 1) / Speed
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
