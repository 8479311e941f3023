package puzzle

import (
	"regexp"
	"strconv"
	"strings"
)

// Command names.
const (
	CmdMoveRight = "moveRight"
	CmdMoveUp    = "moveUp"
)

// Lesson 2: repeated moveRight() calls, each 40 px further than the last.
const repeatStep = 40

var (
	repeatRightRe = regexp.MustCompile(`^(moveRight\(\)\s*)+$`)
	callRightRe   = regexp.MustCompile(`moveRight\(\)`)

	rightUnitsRe = regexp.MustCompile(`^moveRight\(\s*(\d+)\s*\)\s*$`)

	firstRightRe = regexp.MustCompile(`moveRight\(\s*(\d+)\s*\)`)
	firstUpRe    = regexp.MustCompile(`moveUp\(\s*(\d+)\s*\)`)
)

var repeatRight = grid{
	lesson: 2,
	start:  Point{X: 50, Y: 55},
	goal:   Point{X: 250, Y: 55},
	parse: func(code string, start Point) ([]Command, string, string) {
		code = strings.TrimSpace(code)
		if !repeatRightRe.MatchString(code) {
			return nil, "", "Use moveRight() commands to reach the star!"
		}
		n := len(callRightRe.FindAllString(code, -1))
		cmds := make([]Command, n)
		for i := range cmds {
			cmds[i] = Command{
				Name:   CmdMoveRight,
				Target: Point{X: start.X + repeatStep*(i+1), Y: start.Y},
			}
		}
		return cmds, "", ""
	},
}

// Lesson 3: one moveRight(units) call; the star is seven units away.
const rightUnitsAnswer = 7

var rightUnits = grid{
	lesson: 3,
	start:  Point{X: 50, Y: 55},
	goal:   Point{X: 400, Y: 55},
	parse: func(code string, start Point) ([]Command, string, string) {
		const usage = "Use moveRight(units) to specify how far to move! Example: moveRight(7)"

		m := rightUnitsRe.FindStringSubmatch(strings.TrimSpace(code))
		if m == nil {
			return nil, "", usage
		}
		units, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, "", usage
		}

		var hint string
		if units != rightUnitsAnswer {
			hint = "Not quite the right distance! Count the grid units to the star."
		}
		return []Command{{
			Name:   CmdMoveRight,
			Units:  units,
			Target: Point{X: 50 + units*GridUnit, Y: start.Y},
		}}, hint, ""
	},
}

// Lesson 4: at most one moveRight(units) then one moveUp(units), found
// anywhere in the code. Later calls of the same command are ignored.
var grid2D = grid{
	lesson: 4,
	start:  Point{X: 50, Y: 350},
	goal:   Point{X: 200, Y: 50},
	parse: func(code string, start Point) ([]Command, string, string) {
		const usage = "Use moveRight(units) or moveUp(units) to reach the star! Example: moveRight(3) or moveUp(7)"

		var cmds []Command
		if m := firstRightRe.FindStringSubmatch(code); m != nil {
			units, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, "", usage
			}
			cmds = append(cmds, Command{
				Name:   CmdMoveRight,
				Units:  units,
				Target: Point{X: 50 + units*GridUnit, Y: start.Y},
			})
		}
		if m := firstUpRe.FindStringSubmatch(code); m != nil {
			units, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, "", usage
			}
			cmds = append(cmds, Command{
				Name:   CmdMoveUp,
				Units:  units,
				Target: Point{X: start.X, Y: 350 - units*GridUnit},
			})
		}
		if len(cmds) == 0 {
			return nil, "", usage
		}
		return cmds, "", ""
	},
}
