package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/caskdeck/caskdeck/internal/brew"
	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateTaskRequest is the body of POST /api/v1/tasks.
type CreateTaskRequest struct {
	Action      string `json:"action"`
	PackageID   string `json:"package_id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.Warn("task create body parse failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	action, err := task.ParseAction(req.Action)
	if err != nil {
		return err
	}
	t, err := s.runner.Submit(action, req.PackageID, req.DisplayName)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(t)
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	snap := s.board.Snapshot()
	filter := c.Query("state")
	if filter == "" {
		return c.JSON(snap)
	}

	var states []task.State
	for _, raw := range strings.Split(filter, ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			states = append(states, task.State(raw))
		}
	}
	snap.Tasks = snap.Filter(states...)
	if snap.Tasks == nil {
		snap.Tasks = []status.TaskView{}
	}
	return c.JSON(snap)
}

func (s *Server) getTask(c *fiber.Ctx) error {
	id := c.Params("id")
	v, ok := s.board.Get(id)
	if !ok {
		return errors.NewNotFoundError("task", id)
	}
	return c.JSON(v)
}

func (s *Server) installedCasks(c *fiber.Ctx) error {
	filter, err := matchFilter(c)
	if err != nil {
		return err
	}
	tokens, err := s.casks.Installed(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"casks": filter.Tokens(tokens)})
}

func (s *Server) outdatedCasks(c *fiber.Ctx) error {
	filter, err := matchFilter(c)
	if err != nil {
		return err
	}
	casks, err := s.casks.Outdated(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"casks": filter.Outdated(casks)})
}

func matchFilter(c *fiber.Ctx) (*brew.Filter, error) {
	var patterns []string
	if m := c.Query("match"); m != "" {
		patterns = strings.Split(m, ",")
	}
	return brew.NewFilter(patterns...)
}

// errorHandler maps domain errors to HTTP status codes.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusCode(err)
	if code < fiber.StatusInternalServerError {
		return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
	}

	if errors.GetSeverity(err) >= errors.SeverityError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	} else {
		s.logger.Warn("request failed", "path", c.Path(), "error", err)
	}
	msg := err.Error()
	if !errors.IsUserFacing(err) {
		msg = "internal server error"
	}
	return c.Status(code).JSON(ErrorResponse{Error: msg})
}

func statusCode(err error) int {
	var fe *fiber.Error
	var notFound *errors.NotFoundError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrInvalidAction):
		return fiber.StatusBadRequest
	case errors.Is(err, errors.ErrDuplicatePackage):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}
