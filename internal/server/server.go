// Package server exposes the ledger, milestones and reminders over a local HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/soberlit/internal/app"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	app     *app.App
	router  chi.Router
	version string
	started time.Time
}

func New(a *app.App, version string) *Server {
	s := &Server{
		app:     a,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.refreshSettings)
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Get("/ledger", s.handleLedger)
		r.Post("/confirm", s.handleConfirm)
		r.Post("/relapse", s.handleRelapse)
		r.Put("/start-date", s.handleStartDate)

		r.Get("/milestones", s.handleMilestones)
		r.Get("/milestones/next", s.handleNextMilestone)
		r.Post("/milestones/journal", s.handleJournal)

		r.Get("/reminders", s.handleListReminders)
		r.Post("/reminders/schedule", s.handleScheduleReminders)
		r.Delete("/reminders", s.handleCancelReminders)
	})

	s.router = r
}

// refreshSettings reloads stored settings so edits made by the CLI apply to the running API.
func (s *Server) refreshSettings(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.Refresh(r.Context()); err != nil {
			logger.Warn("Failed to reload settings", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP API stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrStartDateInFuture):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
