// Package api provides the HTTP API server for absbridge.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/r3labs/sse/v2"

	"github.com/statkit/absbridge/pkg/config"
	"github.com/statkit/absbridge/pkg/logging"
	"github.com/statkit/absbridge/pkg/middleware"
	"github.com/statkit/absbridge/pkg/services"
)

// refreshStream is the SSE stream carrying cache refresh events
const refreshStream = "refresh"

// Server represents the HTTP API server
type Server struct {
	config *config.Config
	router *mux.Router
	server *http.Server
	flows  *services.DataflowService
	logger logging.Logger
	events *sse.Server
	hub    *wsHub
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, flows *services.DataflowService, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	events := sse.New()
	events.AutoReplay = false
	events.CreateStream(refreshStream)

	s := &Server{
		config: cfg,
		router: mux.NewRouter(),
		flows:  flows,
		logger: logger,
		events: events,
		hub:    newWSHub(logger),
	}

	// Fan cache refresh events out to the SSE stream and WebSocket clients
	flows.Subscribe(s.broadcastRefresh)

	s.setupRoutes()
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", logging.F("addr", addr))

	var err error
	if s.config.Server.TLS.Enabled {
		err = s.server.ListenAndServeTLS(
			s.config.Server.TLS.CertFile,
			s.config.Server.TLS.KeyFile,
		)
	} else {
		err = s.server.ListenAndServe()
	}

	// If the server was shut down gracefully, this error is expected
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.events.Close()
	s.hub.close()
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health is always public
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)

	protected := api
	if s.config.Auth.JWTSecret != "" || s.config.Auth.APIKeyHash != "" {
		var tokens *services.TokenService
		if s.config.Auth.JWTSecret != "" {
			tokens = services.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenExpiration)
		}
		authMiddleware := middleware.NewAuthMiddleware(tokens, s.config.Auth.APIKeyHash)

		protected = api.NewRoute().Subrouter()
		protected.Use(authMiddleware.Authenticate)
	}

	protected.HandleFunc("/dataflows", s.handleGetDataflows).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/dataflows/{flowId}/data/{dataKey}", s.handleGetFlowData).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/dataflows/{flowId}/data", s.handleGetFlowData).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/structures/{structureType}/{agencyId}", s.handleGetStructures).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	protected.HandleFunc("/ws", s.hub.handleWebSocket).Methods(http.MethodGet)
}

// broadcastRefresh publishes a refresh event to SSE and WebSocket clients
func (s *Server) broadcastRefresh(event services.RefreshEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal refresh event", logging.F("error", err))
		return
	}

	s.events.Publish(refreshStream, &sse.Event{Data: data})
	s.hub.broadcast(data)
}
