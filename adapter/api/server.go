// Package api provides the HTTP API for the task matrix.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// APIVersion is reported by the welcome endpoint.
const APIVersion = "2.0.0"

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	metrics observability.Metrics
	handler *TaskHandler
	ping    func(ctx context.Context) error
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithMetrics records request metrics.
func WithMetrics(m observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithDatabasePing sets the check behind the database field of /health.
func WithDatabasePing(ping func(ctx context.Context) error) ServerOption {
	return func(s *Server) { s.ping = ping }
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handler *TaskHandler, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		metrics: observability.NoopMetrics{},
		handler: handler,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleWelcome)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", observability.MetricsHandler(s.metrics))

	s.mux.HandleFunc("GET /api/v2/tasks", s.handler.ListTasks)
	s.mux.HandleFunc("POST /api/v2/tasks", s.handler.CreateTask)
	s.mux.HandleFunc("GET /api/v2/tasks/search", s.handler.SearchTasks)
	s.mux.HandleFunc("GET /api/v2/tasks/quadrant/{quadrant}", s.handler.ListByQuadrant)
	s.mux.HandleFunc("GET /api/v2/tasks/status/{status}", s.handler.ListByStatus)
	s.mux.HandleFunc("GET /api/v2/tasks/{id}", s.handler.GetTask)
	s.mux.HandleFunc("PUT /api/v2/tasks/{id}", s.handler.UpdateTask)
	s.mux.HandleFunc("PATCH /api/v2/tasks/{id}", s.handler.UpdateTask)
	s.mux.HandleFunc("PATCH /api/v2/tasks/{id}/complete", s.handler.CompleteTask)
	s.mux.HandleFunc("DELETE /api/v2/tasks/{id}", s.handler.DeleteTask)

	s.mux.HandleFunc("GET /api/v2/stats", s.handler.GetStats)
	s.mux.HandleFunc("GET /api/v2/stats/deadlines", s.handler.GetDeadlines)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoverer(s.logger),
		requestContext,
		accessLog(s.logger, s.metrics),
	)
}

// handleWelcome describes the service.
func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":     observability.ServiceName,
		"description": "Task management on the Eisenhower matrix",
		"version":     APIVersion,
	})
}

// handleHealth reports liveness and whether the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "database ping failed", "error", err)
			dbStatus = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// APIError is the JSON error body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.Status, map[string]*APIError{"error": apiErr})
}

// toAPIError maps domain and request errors onto HTTP statuses.
func toAPIError(err error) *APIError {
	var (
		validationErr *task.ValidationError
		inputErr      *task.InvalidInputError
		notFoundErr   *task.NotFoundError
		requestErr    *RequestError
	)

	switch {
	case errors.As(err, &validationErr):
		return &APIError{Status: http.StatusBadRequest, Code: "validation_error", Message: validationErr.Message, Field: validationErr.Field}
	case errors.As(err, &inputErr):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_input", Message: inputErr.Error(), Field: inputErr.Field}
	case errors.As(err, &requestErr):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_body", Message: requestErr.Message, Field: requestErr.Field}
	case errors.As(err, &notFoundErr):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: notFoundErr.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"}
	}
}
