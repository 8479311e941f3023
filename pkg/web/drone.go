package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-flightschool/pkg/blocks"
	"github.com/teslashibe/go-flightschool/pkg/instruction"
	"github.com/teslashibe/go-flightschool/pkg/protocol"
	"github.com/teslashibe/go-flightschool/pkg/sim"
)

// waitSlack is added to a program's duration when a request waits for it.
const waitSlack = 5 * time.Second

func (s *Server) registerDroneRoutes(r fiber.Router) {
	r.Get("/blocks", s.handleBlocks)
	r.Post("/compile", s.handleCompile)
	r.Post("/program", s.handleProgram)
	r.Get("/runs/:id", s.handleGetRun)
	r.Get("/trace", s.handleTrace)
	r.Get("/state", s.handleState)
	r.Get("/keys", s.handleListKeys)
	r.Post("/keys/:key", s.handleKey)
	r.Post("/reset", s.handleReset)
}

// CompileResponse lists the instructions a workspace compiles to
type CompileResponse struct {
	Instructions []instruction.Instruction `json:"instructions"`
	Count        int                       `json:"count"`
	DurationMs   int64                     `json:"duration_ms"`
}

func compileResponse(program []instruction.Instruction) CompileResponse {
	if program == nil {
		program = []instruction.Instruction{}
	}
	return CompileResponse{
		Instructions: program,
		Count:        len(program),
		DurationMs:   instruction.TotalDuration(program).Milliseconds(),
	}
}

// handleBlocks returns the block toolbox
func (s *Server) handleBlocks(c *fiber.Ctx) error {
	return c.JSON(blocks.Catalog())
}

// handleCompile compiles a Blockly workspace without running it
func (s *Server) handleCompile(c *fiber.Ctx) error {
	program, err := blocks.CompileJSON(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(compileResponse(program))
}

// ProgramResponse describes a started (or, with ?wait=true, finished) run
type ProgramResponse struct {
	Run protocol.RunData `json:"run"`
	CompileResponse
}

// handleProgram compiles a workspace and starts it on the drone
func (s *Server) handleProgram(c *fiber.Ctx) error {
	program, err := blocks.CompileJSON(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	info, err := s.execute(program)
	if errors.Is(err, sim.ErrBusy) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !c.QueryBool("wait") {
		return c.Status(fiber.StatusAccepted).JSON(ProgramResponse{Run: runData(info), CompileResponse: compileResponse(program)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), instruction.TotalDuration(program)+waitSlack)
	defer cancel()
	info, err = s.session.Wait(ctx, info.ID)
	if err != nil {
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(ProgramResponse{Run: runData(info), CompileResponse: compileResponse(program)})
}

// execute starts a program and counts the outcome.
func (s *Server) execute(program []instruction.Instruction) (sim.RunInfo, error) {
	info, err := s.session.Execute(program)
	if err != nil {
		if errors.Is(err, sim.ErrBusy) {
			s.runsRejected.Add(1)
		}
		return sim.RunInfo{}, err
	}
	s.runsStarted.Add(1)
	return info, nil
}

// handleGetRun returns a recent run
func (s *Server) handleGetRun(c *fiber.Ctx) error {
	info, err := s.session.Lookup(sim.RunID(c.Params("id")))
	if errors.Is(err, sim.ErrUnknownRun) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runData(info))
}

// handleTrace returns recent executor effects
func (s *Server) handleTrace(c *fiber.Ctx) error {
	trace := s.session.Trace()
	out := make([]protocol.EffectData, 0, len(trace))
	for _, e := range trace {
		out = append(out, effectData(e))
	}
	return c.JSON(fiber.Map{"effects": out, "count": len(out)})
}

// handleState returns the current drone snapshot
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(telemetryData(s.session.Snapshot()))
}

// handleListKeys returns the manual control keys
func (s *Server) handleListKeys(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"keys": sim.Keys()})
}

// handleKey applies one manual control press
func (s *Server) handleKey(c *fiber.Ctx) error {
	key := c.Params("key")
	applied := s.session.Key(key)
	if applied {
		s.keysApplied.Add(1)
	}
	return c.JSON(fiber.Map{"key": key, "applied": applied})
}

// handleReset resets the world
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.reset()
	return c.JSON(telemetryData(s.session.Snapshot()))
}
