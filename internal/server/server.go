// Package server exposes the network queries over HTTP. Every query answers
// immediately: 200 with the cached record when it is complete, 202 with a
// job id to poll otherwise.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/jobs"
	"github.com/mathursrus/LinkedIn-Network/internal/jobstore"
	"github.com/mathursrus/LinkedIn-Network/internal/ratelimit"
	"github.com/mathursrus/LinkedIn-Network/internal/search"
)

// DefaultAddr matches the address the assistant front end expects
const DefaultAddr = "127.0.0.1:8001"

// Submitter accepts jobs; *jobs.Orchestrator implements it
type Submitter interface {
	Submit(ctx context.Context, job jobs.Job) (*jobs.Submission, error)
}

// JobFactory turns a strategy and the request parameters into a job
type JobFactory func(strategy search.Strategy, params map[string]string) jobs.Job

// Deps are the collaborators the server needs
type Deps struct {
	Jobs     Submitter
	Store    jobstore.Store
	Searcher *search.Searcher
	NewJob   JobFactory
	Limiter  ratelimit.RateLimiter
}

// Server manages the HTTP server and routes
type Server struct {
	deps     Deps
	validate *validator.Validate
	logger   zerolog.Logger
	started  time.Time
	router   *http.ServeMux
	server   *http.Server
}

// New creates a server listening on addr
func New(addr string, deps Deps) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if deps.Searcher == nil {
		deps.Searcher = search.New(nil, nil, 0)
	}

	s := &Server{
		deps:     deps,
		validate: newValidator(),
		logger:   log.With().Str("component", "api").Logger(),
		started:  time.Now(),
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(s.router),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with its middleware
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /who_do_i_know_at_company", s.handleCompany)
	mux.HandleFunc("GET /who_works_as_role_at_company", s.handleRole)
	mux.HandleFunc("GET /who_can_introduce_me_to_person", s.handleMutual)
	mux.HandleFunc("GET /who_does_person_know_at_company", s.handleConnections)
	mux.HandleFunc("GET /job_status/{job_id...}", s.handleJobStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info().Str("address", s.server.Addr).Msg("HTTP server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped")
	return <-errCh
}
