// Package api wires the admin HTTP/WS surface around the worker
// pipeline: read-only and operator-action endpoints over the worker
// Registry, InternalQueue, and PoisonLog, plus a live dashboard fed by
// worker lifecycle events. None of it sits on the core hand-off path;
// removing this package does not change pipeline behavior.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pyqs-go/pyqs/internal/api/handlers"
	apiMiddleware "github.com/pyqs-go/pyqs/internal/api/middleware"
	"github.com/pyqs-go/pyqs/internal/api/websocket"
	"github.com/pyqs-go/pyqs/internal/config"
	"github.com/pyqs-go/pyqs/internal/events"
	"github.com/pyqs-go/pyqs/internal/queue"
)

// Server is the admin HTTP server.
type Server struct {
	router       *chi.Mux
	config       *config.Config
	adminHandler *handlers.AdminHandler
	wsHub        *websocket.Hub
	wsHandler    *websocket.Handler
	publisher    events.Publisher
}

// NewServer builds the admin HTTP server. registryClient may be nil
// (registry disabled); publisher may be nil (dashboard disabled, /ws
// is not routed).
func NewServer(cfg *config.Config, registryClient *redis.Client, internal *queue.InternalQueue, poison *queue.PoisonLog, publisher events.Publisher) *Server {
	wsHub := websocket.NewHub(publisher)

	s := &Server{
		router:       chi.NewRouter(),
		config:       cfg,
		adminHandler: handlers.NewAdminHandler(registryClient, internal, poison),
		wsHub:        wsHub,
		wsHandler:    websocket.NewHandler(wsHub),
		publisher:    publisher,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(apiMiddleware.RequestLogger())
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Heartbeat("/health"))

	if s.config.Admin.AuthEnabled {
		apiKeys := make(map[string]bool, len(s.config.Admin.APIKeys))
		for _, key := range s.config.Admin.APIKeys {
			apiKeys[key] = true
		}
		s.router.Use(apiMiddleware.Auth(&apiMiddleware.AuthConfig{
			Enabled:   true,
			JWTSecret: s.config.Admin.JWTSecret,
			APIKeys:   apiKeys,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		if s.config.Admin.RateLimitRPS > 0 {
			r.Use(apiMiddleware.ClientRateLimit(s.config.Admin.RateLimitRPS))
		}

		r.Get("/health", s.adminHandler.HealthCheck)

		r.Get("/workers", s.adminHandler.ListWorkers)
		r.Get("/workers/{workerID}", s.adminHandler.GetWorker)

		r.Get("/queue", s.adminHandler.GetQueueDepth)

		r.Get("/poison", s.adminHandler.ListPoisonMessages)
		if s.config.Admin.AuthEnabled {
			r.With(apiMiddleware.RequireRole(apiMiddleware.RoleAdmin)).Delete("/poison", s.adminHandler.ClearPoisonMessages)
		} else {
			r.Delete("/poison", s.adminHandler.ClearPoisonMessages)
		}
	})

	if s.publisher != nil {
		s.router.Get("/ws", s.wsHandler.ServeWS)
	}

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, promhttp.Handler())
	}
}

// Start starts the WebSocket hub.
func (s *Server) Start(ctx context.Context) {
	if s.publisher != nil {
		go s.wsHub.Run(ctx)
	}
}

// Stop stops the WebSocket hub.
func (s *Server) Stop() {
	if s.publisher != nil {
		s.wsHub.Stop()
	}
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
