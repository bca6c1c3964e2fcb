package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"vizboard/internal/handler"
	"vizboard/internal/middleware"
	"vizboard/internal/store"
	"vizboard/internal/token"
)

// Server wires the API stores, handlers and middleware.
type Server struct {
	db          *sql.DB
	authH       *handler.AuthHandler
	chartH      *handler.ChartHandler
	tokens      *token.Manager
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, tokens *token.Manager, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	chartStore := store.NewChartStore(db)

	return &Server{
		db:          db,
		authH:       handler.NewAuthHandler(userStore, tokens, logger.With("component", "auth")),
		chartH:      handler.NewChartHandler(chartStore, logger.With("component", "chart")),
		tokens:      tokens,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/users/register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /api/users/login", s.rateLimitedHandler(s.authH.Login))

	requireToken := middleware.RequireToken(s.tokens)
	mux.Handle("GET /api/users/me", requireToken(http.HandlerFunc(s.authH.Me)))

	mux.HandleFunc("GET /api/chart/data", s.chartH.Data)
	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
