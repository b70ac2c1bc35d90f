// Package api provides the HTTP and websocket surface of the Atelier backend.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/atelier/pkg/observability"
	"github.com/google/uuid"
)

// Server is the HTTP API server.
type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger
	auth     Authenticator
	projects *ProjectHandler
	users    *UserHandler
	ws       *WSHandler
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

// NewServer creates the API server and registers all routes.
func NewServer(cfg ServerConfig, auth Authenticator, projects *ProjectHandler, users *UserHandler, ws *WSHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     auth,
		projects: projects,
		users:    users,
		ws:       ws,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: withRequestID(s.mux),
		// No ReadTimeout/WriteTimeout: the /ws endpoint holds its
		// connection open well past any sane request deadline.
		ReadHeaderTimeout: cfg.ReadTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Projects
	s.mux.HandleFunc("POST /api/v1/projects", s.requireUser(s.projects.CreateProject))
	s.mux.HandleFunc("GET /api/v1/projects", s.projects.ListProjects)
	s.mux.HandleFunc("GET /api/v1/projects/popular", s.projects.PopularProjects)
	s.mux.HandleFunc("GET /api/v1/projects/{projectID}", s.projects.GetProject)

	// Tasks
	s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/apply", s.requireUser(s.projects.ApplyToTask))
	s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/applicants/{userID}/accept", s.requireUser(s.projects.AcceptApplicant))
	s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/complete", s.requireUser(s.projects.CompleteTask))
	s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/finalize", s.requireUser(s.projects.FinalizeTask))
	s.mux.HandleFunc("GET /api/v1/tasks/{taskID}/completion", s.projects.GetCompletionView)

	// Code files
	s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/files", s.requireUser(s.projects.CreateCodeFile))
	s.mux.HandleFunc("PUT /api/v1/tasks/{taskID}/files/{fileID}", s.requireUser(s.projects.SaveCodeFile))
	s.mux.HandleFunc("PATCH /api/v1/tasks/{taskID}/files/{fileID}", s.requireUser(s.projects.RenameCodeFile))
	s.mux.HandleFunc("DELETE /api/v1/tasks/{taskID}/files/{fileID}", s.requireUser(s.projects.DeleteCodeFile))
	s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/files/{fileID}/run", s.requireUser(s.projects.RunCodeFile))

	// Users
	s.mux.HandleFunc("POST /api/v1/users", s.users.RegisterUser)
	s.mux.HandleFunc("GET /api/v1/users/rankings", s.users.RankUsers)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/stats", s.users.GetUserStats)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/on-time-rate", s.users.GetOnTimeRate)
	s.mux.HandleFunc("POST /api/v1/users/{userID}/ratings", s.requireUser(s.users.SubmitRating))
	s.mux.HandleFunc("POST /api/v1/users/me/skills", s.requireUser(s.users.AddSkill))

	// Collaboration rooms
	s.mux.HandleFunc("GET /ws", s.requireUser(s.ws.Serve))
}

// requireUser resolves the authenticated user and passes it to the handler.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.UserID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next(w, r, userID)
	}
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// withRequestID stamps a request ID on the context so every log line emitted
// while serving the request carries it. An inbound X-Request-ID is honored.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), r.Header.Get("X-Request-ID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
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

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
