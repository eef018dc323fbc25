// Package http exposes the engine's read surface: health, readiness,
// metrics, and the per-beach status query endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SnapshotReader looks up persisted status snapshots.
type SnapshotReader interface {
	Latest(ctx context.Context, beachID int64) (domain.StatusSnapshot, error)
	History(ctx context.Context, beachID int64, from, to time.Time) ([]domain.StatusSnapshot, error)
}

// LatestCache fronts the latest-status lookup. A nil cache disables the
// read-through.
type LatestCache interface {
	GetLatest(ctx context.Context, beachID int64) (domain.StatusSnapshot, bool, error)
	SetLatest(ctx context.Context, s domain.StatusSnapshot) error
}

// Server exposes the engine over HTTP.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotReader
	cache      LatestCache
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the health, metrics, and beach
// status routes.
func NewServer(addr string, ready ReadinessChecker, snapshots SnapshotReader, cache LatestCache, clock clockwork.Clock, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		cache:     cache,
		clock:     clock,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/beaches/{id}/status", s.handleLatestStatus)
	mux.HandleFunc("GET /v1/beaches/{id}/history", s.handleHistory)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// statusResponse is a snapshot plus its display color.
type statusResponse struct {
	domain.StatusSnapshot
	Color string `json:"color"`
}

func toStatusResponse(snap domain.StatusSnapshot) statusResponse {
	return statusResponse{StatusSnapshot: snap, Color: snap.Status.Color()}
}

func (s *Server) handleLatestStatus(w http.ResponseWriter, r *http.Request) {
	beachID, ok := beachIDFromPath(w, r)
	if !ok {
		return
	}

	if s.cache != nil {
		if snap, found, err := s.cache.GetLatest(r.Context(), beachID); err != nil {
			s.logger.Warn("latest-status cache read failed", "beach_id", beachID, "error", err)
		} else if found {
			writeJSON(w, http.StatusOK, toStatusResponse(snap))
			return
		}
	}

	snap, err := s.snapshots.Latest(r.Context(), beachID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no status for beach"})
		return
	}
	if err != nil {
		s.logger.Error("latest status lookup failed", "beach_id", beachID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(r.Context(), snap); err != nil {
			s.logger.Warn("latest-status cache fill failed", "beach_id", beachID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, toStatusResponse(snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	beachID, ok := beachIDFromPath(w, r)
	if !ok {
		return
	}

	from, to, err := s.historyRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snaps, err := s.snapshots.History(r.Context(), beachID, from, to)
	if err != nil {
		s.logger.Error("history lookup failed", "beach_id", beachID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	out := make([]statusResponse, len(snaps))
	for i, snap := range snaps {
		out[i] = toStatusResponse(snap)
	}
	writeJSON(w, http.StatusOK, map[string]any{"beach_id": beachID, "snapshots": out})
}

func beachIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid beach id"})
		return 0, false
	}
	return id, true
}

// historyRange parses the from/to query params. Defaults: the 24 hours
// up to now.
func (s *Server) historyRange(r *http.Request) (time.Time, time.Time, error) {
	now := s.clock.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from timestamp, want RFC 3339")
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to timestamp, want RFC 3339")
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to precedes from")
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
