// Package api provides the build-status REST API for bookc.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/bookforge/bookc/internal/config"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// Server is the build-status HTTP API.
type Server struct {
	cfg     *config.Config
	router  chi.Router
	tracker *Tracker
}

// NewServer creates a build-status API server backed by tracker.
func NewServer(cfg *config.Config, tracker *Tracker) *Server {
	s := &Server{cfg: cfg, tracker: tracker}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.API.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/build", s.handleStartBuild)
	r.Get("/build/{id}", s.handleGetBuild)

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type startBuildRequest struct {
	Definition book.BookDefinition `json:"definition"`
	OutputPath string              `json:"outputPath"`
}

type startBuildResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleStartBuild(w http.ResponseWriter, r *http.Request) {
	var req startBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Definition.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OutputPath == "" {
		writeError(w, http.StatusBadRequest, "outputPath is required")
		return
	}

	id := uuid.NewString()
	s.tracker.StartAsync(id, &req.Definition, req.OutputPath)
	writeJSON(w, http.StatusAccepted, startBuildResponse{ID: id})
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok := s.tracker.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown build id")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
