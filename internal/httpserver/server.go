package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"eventboard/backend/internal/config"
	authusecase "eventboard/backend/internal/usecase/auth"
	categoryusecase "eventboard/backend/internal/usecase/category"
	eventusecase "eventboard/backend/internal/usecase/event"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Services groups the use cases served over HTTP.
type Services struct {
	Auth       *authusecase.Service
	Categories *categoryusecase.Service
	Events     *eventusecase.Service
}

// Pinger reports storage health. A nil Pinger means in-memory storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         chi.Router
	services       Services
	db             Pinger
	metrics        *Metrics
	logger         *logrus.Logger
	allowedOrigins []string
	addr           string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, services Services, db Pinger, logger *logrus.Logger) *Server {
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	srv := &Server{
		router:         chi.NewRouter(),
		services:       services,
		db:             db,
		metrics:        NewMetrics(),
		logger:         logger,
		allowedOrigins: cfg.AllowedOrigins,
		addr:           addr,
	}
	srv.registerRoutes()

	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
	return srv
}

// Start bootstraps the HTTP server on the provided address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the fully wired router, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
