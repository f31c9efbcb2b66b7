// Package server exposes the editing pipeline over HTTP: submit a
// section for processing, list stored results, fetch one result, and
// read run statistics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/redpen-ai/redpen/internal/pipeline"
	"github.com/redpen-ai/redpen/internal/store"
)

// Runner executes one fan-out/fan-in run. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, originalText, sectionType string, models []string) (*pipeline.ResultBundle, error)
}

// ResultStore persists bundles. *store.Store satisfies it.
type ResultStore interface {
	Save(b *pipeline.ResultBundle) (string, error)
	List() ([]string, error)
	Load(id string) (*pipeline.ResultBundle, error)
}

// Server holds the HTTP handler state.
type Server struct {
	runner        Runner
	store         ResultStore
	stats         *Stats
	defaultModels []string
	logger        *slog.Logger
}

// New assembles a Server. defaultModels is used when a process request
// names no models of its own.
func New(runner Runner, st ResultStore, defaultModels []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:        runner,
		store:         st,
		stats:         NewStats(),
		defaultModels: defaultModels,
		logger:        logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/process", s.handleProcess)
	mux.HandleFunc("GET /v1/results", s.handleList)
	mux.HandleFunc("GET /v1/results/{id}", s.handleGet)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// with a grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type processRequest struct {
	Text        string   `json:"text"`
	SectionType string   `json:"section_type"`
	Models      []string `json:"models,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	models := req.Models
	if len(models) == 0 {
		models = s.defaultModels
	}

	s.stats.RunStarted()
	bundle, err := s.runner.Run(r.Context(), req.Text, req.SectionType, models)
	if err != nil {
		s.stats.RunFailed()
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrEmptyText) || errors.Is(err, pipeline.ErrNoModels) || errors.Is(err, pipeline.ErrEmptyModel) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}

	id, err := s.store.Save(bundle)
	if err != nil {
		s.stats.RunFailed()
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	bundle.ID = id
	s.stats.RunCompleted(len(bundle.ModelOutputs))

	s.logger.Info("run stored", "id", id, "section", bundle.SectionType)
	s.writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"results": ids})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bundle, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "status", status, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
