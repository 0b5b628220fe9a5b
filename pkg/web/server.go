// Package web serves the driver dashboard: the latest advisory as JSON,
// live status and annotated frames over websockets, and Prometheus metrics.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-roadsense/internal/metrics"
	"github.com/teslashibe/go-roadsense/pkg/hub"
	"github.com/teslashibe/go-roadsense/pkg/overlay"
	"github.com/teslashibe/go-roadsense/pkg/pipeline"
)

//go:embed static
var staticFiles embed.FS

const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithRenderer enables the annotated camera stream.
func WithRenderer(r *overlay.Renderer) Option {
	return func(s *Server) {
		s.renderer = r
	}
}

// WithMetrics exposes m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithConfig publishes the pipeline configuration on /api/config.
func WithConfig(cfg pipeline.Config) Option {
	return func(s *Server) {
		s.config = &cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server is the web dashboard. It implements pipeline.Presenter.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	renderer *overlay.Renderer
	metrics  *metrics.Metrics
	config   *pipeline.Config

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	cameraHub *hub.Hub

	mu   sync.RWMutex
	last *pipeline.Report
}

// NewServer creates a dashboard listening on addr, e.g. ":8080".
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.statusHub = hub.New("status", hub.WithReplay(), hub.WithLogger(s.logger))
	s.cameraHub = hub.New("camera", hub.WithLogger(s.logger))

	app := fiber.New(fiber.Config{
		AppName:               "RoadSense Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)
	api.Get("/health", s.handleHealth)

	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	root, _ := fs.Sub(staticFiles, "static")
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(root),
		Index: "index.html",
	}))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.addr)
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Present records the report and pushes it to dashboard clients.
// Frames are only rendered while someone is watching the camera feed.
func (s *Server) Present(ctx context.Context, r *pipeline.Report) {
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()

	if err := s.statusHub.BroadcastJSON(r); err != nil {
		s.logger.Warn("encode status", "error", err)
	}

	if s.renderer == nil || s.cameraHub.ClientCount() == 0 {
		return
	}
	frame, err := s.renderer.Render(r)
	if err != nil {
		s.logger.Warn("render frame", "seq", r.Seq, "error", err)
		return
	}
	s.cameraHub.BroadcastBinary(frame)
}

// Last returns the most recent report, or nil before the first frame.
func (s *Server) Last() *pipeline.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Verify Server implements pipeline.Presenter at compile time.
var _ pipeline.Presenter = (*Server)(nil)
