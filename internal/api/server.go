// Package api exposes the read-only HTTP surface: health, live session
// counts, and the archived game list. No session mutation happens here.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gambit/internal/archive"
)

// StatsSource reports live registry counts.
type StatsSource interface {
	Stats() map[string]int
}

// GameLister reads archived games.
type GameLister interface {
	ListGames(ctx context.Context, limit int) ([]archive.GameRecord, error)
}

// Server is the HTTP API. games may be nil when no archive is configured.
type Server struct {
	stats  StatsSource
	games  GameLister
	logger *zap.Logger
	mux    *http.ServeMux
}

// NewServer builds the API with its routes registered.
func NewServer(stats StatsSource, games GameLister, logger *zap.Logger) *Server {
	s := &Server{
		stats:  stats,
		games:  games,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.Handle("/health", s.middleware(http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/api/sessions", s.middleware(http.HandlerFunc(s.handleSessions)))
	s.mux.Handle("/api/games", s.middleware(http.HandlerFunc(s.handleGames)))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Stats())
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if s.games == nil {
		s.writeError(w, http.StatusNotFound, "archive not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	games, err := s.games.ListGames(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing games failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list games")
		return
	}
	if games == nil {
		games = []archive.GameRecord{}
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
