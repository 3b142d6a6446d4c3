// Package server provides the HTTP API server for webforge
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/accounts"
	"github.com/shivavenkatesh/webforge/internal/credits"
	"github.com/shivavenkatesh/webforge/internal/editor"
	"github.com/shivavenkatesh/webforge/internal/projects"
	"github.com/shivavenkatesh/webforge/internal/ratelimit"
	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/internal/support"
)

// Version is reported by /health
const Version = "0.1.0"

const maxBodyBytes = 1 << 20

// Services are the application services the API exposes
type Services struct {
	Accounts *accounts.Service
	Credits  *credits.Service
	Projects *projects.Service
	Editor   *editor.Manager
	Support  *support.Service

	// Limiter enforces per-IP windows; nil disables it
	Limiter *ratelimit.Limiter

	// Throttle bounds assistant messages per user; nil disables it
	Throttle *ratelimit.Throttle
}

// Config configures the server
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigin   string
	SiteURL      string
}

// Server is the HTTP API server
type Server struct {
	svc    Services
	config Config
	logger zerolog.Logger
	server *http.Server
}

// New creates a new server
func New(svc Services, cfg Config, logger zerolog.Logger) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the full middleware chain around the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/signup", s.handleSignUp)

	mux.Handle("GET /me", s.authed(s.handleGetMe))
	mux.Handle("PATCH /me", s.authed(s.handleUpdateMe))
	mux.Handle("GET /credits", s.authed(s.handleCredits))
	mux.Handle("GET /referrals", s.authed(s.handleReferrals))
	mux.Handle("GET /referrals/stats", s.authed(s.handleReferralStats))

	mux.Handle("GET /projects", s.authed(s.handleListProjects))
	mux.Handle("POST /projects", s.authed(s.handleCreateProject))
	mux.Handle("GET /projects/catalog", s.authed(s.handleCatalog))
	mux.Handle("GET /projects/{id}", s.authed(s.handleGetProject))
	mux.Handle("PATCH /projects/{id}", s.authed(s.handleUpdateProject))
	mux.Handle("DELETE /projects/{id}", s.authed(s.handleDeleteProject))
	mux.Handle("GET /projects/{id}/files", s.authed(s.handleProjectFiles))

	mux.Handle("POST /editor/{id}", s.authed(s.handleOpenEditor))
	mux.Handle("GET /editor/{id}", s.authed(s.handleEditorSnapshot))
	mux.Handle("DELETE /editor/{id}", s.authed(s.handleCloseEditor))
	mux.Handle("POST /editor/{id}/messages", s.authed(s.handleEditorMessage))
	mux.Handle("PUT /editor/{id}/code", s.authed(s.handleEditorCode))
	mux.Handle("POST /editor/{id}/save", s.authed(s.handleEditorSave))

	mux.Handle("GET /tickets", s.authed(s.handleListTickets))
	mux.Handle("POST /tickets", s.authed(s.handleCreateTicket))
	mux.Handle("GET /tickets/{id}", s.authed(s.handleGetTicket))
	mux.Handle("PATCH /tickets/{id}", s.authed(s.handleUpdateTicket))

	var h http.Handler = mux
	if s.svc.Limiter != nil {
		h = skipPaths(ratelimit.Middleware(s.svc.Limiter, s.logger), h, "/health")
	}
	h = corsMiddleware(s.config.CORSOrigin, h)
	h = loggingMiddleware(s.logger, h)
	h = recoveryMiddleware(s.logger, h)
	return h
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", s.config.Addr).Msg("server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "version": Version}, http.StatusOK)
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service errors to status codes. Unknown errors are
// logged and reported as 500 without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, "internal server error", status)
		return
	}
	writeError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, editor.ErrNoSession):
		return http.StatusNotFound

	case errors.Is(err, projects.ErrForbidden),
		errors.Is(err, editor.ErrForbidden),
		errors.Is(err, support.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, accounts.ErrUserExists),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, editor.ErrBusy):
		return http.StatusConflict

	case errors.Is(err, editor.ErrClosed):
		return http.StatusGone

	case errors.Is(err, store.ErrInsufficientCredits):
		return http.StatusPaymentRequired

	case errors.Is(err, accounts.ErrInvalidEmail),
		errors.Is(err, accounts.ErrNameRequired),
		errors.Is(err, projects.ErrNameRequired),
		errors.Is(err, projects.ErrUnsupportedType),
		errors.Is(err, projects.ErrUnknownTemplate),
		errors.Is(err, projects.ErrInvalidVisibility),
		errors.Is(err, support.ErrSubjectRequired),
		errors.Is(err, support.ErrMessageRequired),
		errors.Is(err, support.ErrInvalidPriority),
		errors.Is(err, support.ErrInvalidStatus),
		errors.Is(err, credits.ErrInvalidAmount):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
