// Package web serves the score channel over websockets and a small JSON
// leaderboard API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/platformer/internal/broadcast"
	"github.com/vovakirdan/platformer/internal/storage"
)

// Leaderboard is the read side of the store the API serves.
type Leaderboard interface {
	ListGames(ctx context.Context) ([]storage.Game, error)
	GameBySlug(ctx context.Context, slug string) (storage.Game, bool, error)
	TopGameplays(ctx context.Context, gameID int64, limit int) ([]storage.Gameplay, error)
	GameStats(ctx context.Context, gameID int64) (storage.GameStats, error)
}

// Config holds socket timing.
type Config struct {
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	PingInterval time.Duration
}

// DefaultConfig returns the socket timings used by serve.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 10 * time.Second,
		PongTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
	}
}

// Server handles HTTP and websocket requests.
type Server struct {
	hub    *broadcast.Hub
	board  Leaderboard
	logger *log.Logger
	config Config
}

// NewServer creates a server.
func NewServer(hub *broadcast.Hub, board Leaderboard, logger *log.Logger, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{hub: hub, board: board, logger: logger, config: cfg}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	r.Use(s.requestLogger)
	r.Use(corsMiddleware)

	r.Get("/socket/websocket", s.handleSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/games", s.handleListGames)
		r.Get("/games/{slug}/gameplays", s.handleGameplays)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// requestLogger logs each request through the server's logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to write response", "err", err)
	}
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
