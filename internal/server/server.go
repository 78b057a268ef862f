package server

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/caskdeck/caskdeck/internal/brew"
	"github.com/caskdeck/caskdeck/internal/logging"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
)

// RequestIDHeader carries the request ID assigned to every API call.
const RequestIDHeader = "X-Request-ID"

// Submitter accepts new tasks. *runner.Runner implements it.
type Submitter interface {
	Submit(action task.Action, packageID, displayName string) (task.Task, error)
}

// CaskSource answers read-only cask queries. *brew.Client implements it.
type CaskSource interface {
	Installed(ctx context.Context) ([]string, error)
	Outdated(ctx context.Context) ([]brew.OutdatedCask, error)
}

// Config wires a Server to the rest of the application.
type Config struct {
	Runner Submitter
	Casks  CaskSource
	Logger *logging.Logger

	// Board serves task queries and the event stream. It must be attached
	// to the reporter the runner uses.
	Board *status.Board

	// ClientBuffer is how many events a slow websocket client may lag
	// behind before events are dropped for it.
	ClientBuffer int
}

// Server is the HTTP API.
type Server struct {
	app     *fiber.App
	runner  Submitter
	board   *status.Board
	casks   CaskSource
	logger  *logging.Logger
	buffer  int
	clients *clientSet
}

const defaultClientBuffer = 64

// New creates a Server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = defaultClientBuffer
	}

	s := &Server{
		runner:  cfg.Runner,
		board:   cfg.Board,
		casks:   cfg.Casks,
		logger:  cfg.Logger.WithComponent("server"),
		buffer:  cfg.ClientBuffer,
		clients: newClientSet(),
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	s.app.Use(s.requestID)
	s.app.Use(s.accessLog)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.Post("/", s.createTask)
	tasks.Get("/", s.listTasks)
	tasks.Get("/:id", s.getTask)

	casks := api.Group("/casks")
	casks.Get("/installed", s.installedCasks)
	casks.Get("/outdated", s.outdatedCasks)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	s.app.Get("/ws/events", websocket.New(s.streamEvents))
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and disconnects event clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.clients.closeAll()
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("request_id", id)
	c.Set(RequestIDHeader, id)
	return c.Next()
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	route := ""
	if c.Route() != nil {
		route = c.Route().Path
	}
	s.logger.Debug("http access",
		"method", c.Method(),
		"path", c.Path(),
		"route", route,
		"status", c.Response().StatusCode(),
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", c.Locals("request_id"))
	return err
}
