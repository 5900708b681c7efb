// Package http exposes the operational admin surface of the bot: liveness,
// readiness, Prometheus metrics and the number of in-flight sessions.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/intake/internal/logging"
)

// SessionCounter reports the number of stored sessions.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// ReadinessChecker reports the outcome of the latest startup or periodic check.
type ReadinessChecker interface {
	Ready() error
}

// Server serves the admin routes.
type Server struct {
	Sessions  SessionCounter
	Readiness ReadinessChecker
	Metrics   http.Handler
	Logger    *slog.Logger
}

// NewHandler builds the admin router. Nil dependencies disable their route.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	if s.Sessions != nil {
		r.Get("/sessions", s.SessionCount)
	}
	return r
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	if s.Readiness != nil {
		if err := s.Readiness.Ready(); err != nil {
			writeJSON(w, s.Logger, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, s.Logger, http.StatusOK, map[string]string{"status": "ready"})
}

// SessionCount handles GET /sessions.
func (s *Server) SessionCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.Sessions.Count(r.Context())
	if err != nil {
		s.Logger.Error("Failed to count sessions", "err", err)
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.Logger, http.StatusOK, map[string]int{"active": n})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
