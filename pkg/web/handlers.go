package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-flightschool/pkg/lessons"
	"github.com/teslashibe/go-flightschool/pkg/puzzle"
)

// progressMaxAge keeps the lesson cookie for a year.
const progressMaxAge = 365 * 24 * time.Hour

func (s *Server) registerLessonRoutes(r fiber.Router) {
	r.Get("/", s.handleListLessons)
	r.Get("/:id", s.handleGetLesson)
	r.Post("/:id/play", s.handlePlayLesson)
	r.Post("/:id/complete", s.handleCompleteLesson)
}

// progress reads the learner's progress cookie, writing the default when it
// is absent or unreadable.
func (s *Server) progress(c *fiber.Ctx) lessons.Progress {
	p, ok := lessons.ParseProgress(c.Cookies(lessons.CookieName))
	if !ok {
		s.setProgress(c, p)
	}
	return p
}

func (s *Server) setProgress(c *fiber.Ctx, p lessons.Progress) {
	c.Cookie(&fiber.Cookie{
		Name:     lessons.CookieName,
		Value:    p.Encode(),
		Path:     "/",
		Expires:  time.Now().Add(progressMaxAge),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// lessonError maps catalog errors to status codes.
func lessonError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, lessons.ErrUnknownLesson), errors.Is(err, puzzle.ErrNoPuzzle):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, lessons.ErrLocked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func lessonID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid lesson id %q", c.Params("id"))
	}
	return id, nil
}

// handleListLessons returns the catalog with the learner's unlocks
func (s *Server) handleListLessons(c *fiber.Ctx) error {
	p := s.progress(c)
	return c.JSON(fiber.Map{
		"lessons":  s.catalog.List(p),
		"progress": p,
	})
}

// handleGetLesson returns one unlocked lesson
func (s *Server) handleGetLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	l, err := s.catalog.Open(id, s.progress(c))
	if err != nil {
		return lessonError(c, err)
	}
	return c.JSON(l)
}

// PlayRequest is the body of a lesson answer
type PlayRequest struct {
	Code string `json:"code"`
}

// handlePlayLesson checks an answer against the lesson's puzzle
func (s *Server) handlePlayLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := s.catalog.Open(id, s.progress(c)); err != nil {
		return lessonError(c, err)
	}

	var req PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body must be {\"code\": \"...\"}"})
	}

	result, err := puzzle.Play(id, req.Code)
	if err != nil {
		return lessonError(c, err)
	}
	s.log.Debug("lesson played", "lesson", id, "solved", result.Solved, "commands", len(result.Commands))
	return c.JSON(result)
}

// handleCompleteLesson unlocks the next lesson
func (s *Server) handleCompleteLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p := s.progress(c)
	if _, err := s.catalog.Open(id, p); err != nil {
		return lessonError(c, err)
	}

	changed := p.Complete(id)
	if changed {
		s.setProgress(c, p)
		s.log.Info("lesson completed", "lesson", id, "unlocked", p.Unlocked())
	}
	return c.JSON(fiber.Map{
		"lesson":   id,
		"changed":  changed,
		"progress": p,
	})
}
