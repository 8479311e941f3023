// Package web serves the flight school HTTP API and the telemetry websocket.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-flightschool/internal/config"
	"github.com/teslashibe/go-flightschool/internal/log"
	"github.com/teslashibe/go-flightschool/pkg/hub"
	"github.com/teslashibe/go-flightschool/pkg/lessons"
	"github.com/teslashibe/go-flightschool/pkg/sim"
)

// Version is reported by /health.
var Version = "0.1.0"

// Stats are server counters exposed on /metrics.
type Stats struct {
	RunsStarted      uint64 `json:"runs_started"`
	RunsRejected     uint64 `json:"runs_rejected"`
	Resets           uint64 `json:"resets"`
	KeysApplied      uint64 `json:"keys_applied"`
	TelemetrySent    uint64 `json:"telemetry_sent"`
	MessagesReceived uint64 `json:"messages_received"`
	Clients          int    `json:"clients"`
	Ticks            uint64 `json:"ticks"`
}

// Server is the flight school web server
type Server struct {
	app     *fiber.App
	cfg     config.Config
	session *sim.Session
	catalog *lessons.Catalog
	log     *slog.Logger

	// Hub for telemetry websocket broadcast (thread-safe!)
	telemetry *hub.Hub

	runsStarted      atomic.Uint64
	runsRejected     atomic.Uint64
	resets           atomic.Uint64
	keysApplied      atomic.Uint64
	telemetrySent    atomic.Uint64
	messagesReceived atomic.Uint64
}

// NewServer creates the server and registers itself as the session's
// observer so telemetry flows to websocket clients.
func NewServer(cfg config.Config, session *sim.Session, catalog *lessons.Catalog) *Server {
	s := &Server{
		cfg:       cfg,
		session:   session,
		catalog:   catalog,
		log:       log.With("component", "web"),
		telemetry: hub.New("telemetry"),
	}
	s.telemetry.SetHandler(s.handleClientMessage)
	session.SetObserver(s)

	app := fiber.New(fiber.Config{
		AppName:               "flightschool",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type",
		AllowCredentials: cfg.AllowOrigins != "*",
	}))
	if cfg.RequestLog {
		app.Use(logger.New())
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	// API routes
	api := app.Group("/api")
	s.registerLessonRoutes(api.Group("/lessons"))
	s.registerDroneRoutes(api.Group("/drone"))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))

	// Static files
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the hub and serves until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.log.Info("web server listening", "addr", s.cfg.Addr())
	go s.telemetry.Run()
	return s.app.Listen(s.cfg.Addr())
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.log.Error("web server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server and the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.telemetry.Stop()
	return s.app.ShutdownWithContext(ctx)
}

// Stats returns a snapshot of the server counters.
func (s *Server) Stats() Stats {
	return Stats{
		RunsStarted:      s.runsStarted.Load(),
		RunsRejected:     s.runsRejected.Load(),
		Resets:           s.resets.Load(),
		KeysApplied:      s.keysApplied.Load(),
		TelemetrySent:    s.telemetrySent.Load(),
		MessagesReceived: s.messagesReceived.Load(),
		Clients:          s.telemetry.ClientCount(),
		Ticks:            s.session.Ticks(),
	}
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"tick":    s.session.Ticks(),
		"busy":    s.session.Busy(),
		"clients": s.telemetry.ClientCount(),
	})
}

// handleMetrics exposes counters in Prometheus text format
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	st := s.Stats()
	busy := 0
	if s.session.Busy() {
		busy = 1
	}
	return c.SendString(fmt.Sprintf(`# HELP flightschool_ticks Physics ticks since start
# TYPE flightschool_ticks counter
flightschool_ticks %d

# HELP flightschool_busy Whether a program is running
# TYPE flightschool_busy gauge
flightschool_busy %d

# HELP flightschool_clients Connected telemetry clients
# TYPE flightschool_clients gauge
flightschool_clients %d

# HELP flightschool_runs_started Total programs started
# TYPE flightschool_runs_started counter
flightschool_runs_started %d

# HELP flightschool_runs_rejected Total programs rejected while busy
# TYPE flightschool_runs_rejected counter
flightschool_runs_rejected %d

# HELP flightschool_resets Total world resets
# TYPE flightschool_resets counter
flightschool_resets %d

# HELP flightschool_keys_applied Total manual control presses
# TYPE flightschool_keys_applied counter
flightschool_keys_applied %d

# HELP flightschool_telemetry_sent Total telemetry broadcasts
# TYPE flightschool_telemetry_sent counter
flightschool_telemetry_sent %d

# HELP flightschool_messages_received Total websocket messages received
# TYPE flightschool_messages_received counter
flightschool_messages_received %d
`, st.Ticks, busy, st.Clients, st.RunsStarted, st.RunsRejected, st.Resets,
		st.KeysApplied, st.TelemetrySent, st.MessagesReceived))
}
