package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"vizboard/internal/middleware"
	"vizboard/internal/websocket"
)

// Server wires the dashboard handlers and the notification hub.
type Server struct {
	handler    *Handler
	dashboards *Registry
	hub        *websocket.Hub
	logger     *slog.Logger
}

func New(backend Backend, hub *websocket.Hub, origin string, logger *slog.Logger) *Server {
	dashboards := NewRegistry(backend, hub, logger.With("component", "dashboards"))
	return &Server{
		handler:    NewHandler(backend, dashboards, origin, logger),
		dashboards: dashboards,
		hub:        hub,
		logger:     logger,
	}
}

// Dashboards returns the registry for periodic sweep tasks.
func (s *Server) Dashboards() *Registry {
	return s.dashboards
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handler.Home)
	mux.HandleFunc("GET /login", s.handler.LoginPage)
	mux.HandleFunc("POST /login", s.handler.Login)
	mux.HandleFunc("GET /register", s.handler.RegisterPage)
	mux.HandleFunc("POST /register", s.handler.Register)
	mux.HandleFunc("POST /logout", s.handler.Logout)

	mux.HandleFunc("POST /filters", s.handler.ApplyFilter)
	mux.HandleFunc("POST /filters/reset", s.handler.ResetFilters)
	mux.HandleFunc("GET /share", s.handler.Share)

	mux.HandleFunc("GET /api/charts", s.handler.Charts)
	mux.HandleFunc("POST /api/charts/select", s.handler.SelectCategory)

	mux.Handle("GET /ws", websocket.HandleWebSocket(s.hub))

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
