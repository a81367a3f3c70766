package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mathursrus/LinkedIn-Network/internal/jobs"
	"github.com/mathursrus/LinkedIn-Network/internal/jobstore"
	"github.com/mathursrus/LinkedIn-Network/internal/reqctx"
	"github.com/mathursrus/LinkedIn-Network/internal/search"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	var p companyParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.submit(w, r, search.CompanyConnections{Searcher: s.deps.Searcher, Company: p.Company}, map[string]string{
		"company": p.Company,
	})
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	var p roleParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.submit(w, r, search.RoleAtCompany{Searcher: s.deps.Searcher, Role: p.Role, Company: p.Company}, map[string]string{
		"role":    p.Role,
		"company": p.Company,
	})
}

func (s *Server) handleMutual(w http.ResponseWriter, r *http.Request) {
	var p personParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target := search.Target{ProfileURL: p.ProfileURL, Person: p.Person, Company: p.Company}
	s.submit(w, r, search.MutualConnections{Searcher: s.deps.Searcher, Target: target}, map[string]string{
		"person":      p.Person,
		"company":     p.Company,
		"profile_url": p.ProfileURL,
	})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	var p connectionsParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target := search.Target{ProfileURL: p.ProfileURL, Person: p.PersonName, Company: p.CompanyName}
	strategy := search.ConnectionsOfConnection{Searcher: s.deps.Searcher, Target: target, Company: p.CompanyName}
	s.submit(w, r, strategy, map[string]string{
		"person_name":  p.PersonName,
		"company_name": p.CompanyName,
		"profile_url":  p.ProfileURL,
	})
}

// submit answers with the finished record or the job id to poll
func (s *Server) submit(w http.ResponseWriter, r *http.Request, strategy search.Strategy, params map[string]string) {
	sub, err := s.deps.Jobs.Submit(r.Context(), s.deps.NewJob(strategy, compact(params)))
	if err != nil {
		s.logger.Error().
			Str("query", strategy.Name()).
			Err(reqctx.NewRequestError(r.Context(), err)).
			Msg("Failed to submit job")
		if errors.Is(err, jobs.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start job")
		return
	}

	if sub.Complete() {
		writeJSON(w, http.StatusOK, sub.Record)
		return
	}
	writeJSON(w, http.StatusAccepted, models.NewProcessingResponse(strategy.Name(), sub.Key))
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Store.Get(r.Context(), r.PathValue("job_id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rec)
	case errors.Is(err, jobstore.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "invalid job id")
	case errors.Is(err, jobstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	default:
		s.logger.Error().Err(reqctx.NewRequestError(r.Context(), err)).Msg("Failed to read job record")
		writeError(w, http.StatusInternalServerError, "failed to read job")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
