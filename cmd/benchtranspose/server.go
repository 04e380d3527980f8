package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/segmentio/ksuid"

	"github.com/cwbudde/algo-transpose/internal/history"
	"github.com/cwbudde/algo-transpose/internal/metrics"
)

const defaultRunLimit = 20

// server exposes metrics and recorded runs. store may be nil, in which case
// the run endpoints answer 503.
type server struct {
	store     *history.Store
	collector *metrics.Collector
	log       *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", s.collector.Handler())

	r.Get("/health", s.collector.InstrumentHandler("/health", s.handleHealth))

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.collector.InstrumentHandler("/runs", s.handleListRuns))
		r.Get("/{id}", s.collector.InstrumentHandler("/runs/{id}", s.handleGetRun))
		r.Delete("/{id}", s.collector.InstrumentHandler("/runs/{id}", s.handleDeleteRun))
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"history": s.store != nil,
	})
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	limit := defaultRunLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		limit = n
	}

	runs, err := s.store.List(limit)
	if err != nil {
		s.log.Error("list runs", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")

		return
	}

	s.writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	run, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) runID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	if !s.requireStore(w) {
		return ksuid.Nil, false
	}

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid run id")
		return ksuid.Nil, false
	}

	return id, true
}

func (s *server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return false
	}

	return true
}

func (s *server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	s.log.Error("history", "err", err)
	s.writeError(w, http.StatusInternalServerError, "history error")
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", "err", err)
	}
}
