package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
)

// Server exposes the tracked containers over a local JSON API.
type Server struct {
	session *tracker.Session
	router  chi.Router
	logger  *slog.Logger
}

// NewServer creates an API server.
func NewServer(session *tracker.Session, logger *slog.Logger) *Server {
	s := &Server{
		session: session,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/containers", func(r chi.Router) {
			r.Get("/", s.handleListContainers)
			r.Post("/", s.handleCreateContainer)
			r.Get("/{id}", s.handleGetContainer)
			r.Put("/{id}", s.handleUpdateContainer)
			r.Delete("/{id}", s.handleDeleteContainer)
			r.Post("/{id}/refill", s.handleRefillContainer)
		})
		r.Get("/alerts", s.handleGetAlerts)
		r.Put("/alerts", s.handleSetAlerts)
	})
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// containerRequest is the body of create and update calls.
type containerRequest struct {
	Name      string                      `json:"name"`
	Resources map[string]model.StockInput `json:"resources"`
}

func (req containerRequest) stocks() (map[model.ResourceKind]model.StockInput, error) {
	out := make(map[model.ResourceKind]model.StockInput, len(req.Resources))
	for name, in := range req.Resources {
		kind, err := model.ParseKind(name)
		if err != nil {
			return nil, err
		}
		if _, dup := out[kind]; dup {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateKind, name)
		}
		out[kind] = in
	}
	return out, nil
}

type alertsState struct {
	Enabled bool `json:"enabled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reload picks up changes other processes wrote to the store. On failure
// the last loaded state is served.
func (s *Server) reload(r *http.Request) {
	if err := s.session.Load(r.Context()); err != nil {
		s.logger.Error("reload state failed", "error", err)
	}
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	s.reload(r)
	writeJSON(w, http.StatusOK, s.session.Views())
}

func (s *Server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	s.reload(r)
	v, ok := s.session.View(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: tracker.ErrNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	var req containerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	stocks, err := req.stocks()
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := s.session.Add(ctx, req.Name, stocks)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, _ := s.session.View(c.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleUpdateContainer(w http.ResponseWriter, r *http.Request) {
	var req containerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	stocks, err := req.stocks()
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := s.session.Edit(ctx, chi.URLParam(r, "id"), req.Name, stocks)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, _ := s.session.View(c.ID)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.session.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefillContainer(w http.ResponseWriter, r *http.Request) {
	var kinds []model.ResourceKind
	for _, name := range r.URL.Query()["kind"] {
		kind, err := model.ParseKind(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		kinds = append(kinds, kind)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := s.session.Refill(ctx, chi.URLParam(r, "id"), kinds...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, _ := s.session.View(c.ID)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	s.reload(r)
	writeJSON(w, http.StatusOK, alertsState{Enabled: s.session.AlertsEnabled()})
}

func (s *Server) handleSetAlerts(w http.ResponseWriter, r *http.Request) {
	var req alertsState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.session.SetAlertsEnabled(ctx, req.Enabled); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alertsState{Enabled: s.session.AlertsEnabled()})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrNotTracked),
		errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrEmptyName),
		errors.Is(err, model.ErrNoResources),
		errors.Is(err, model.ErrDuplicateKind):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
