package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackadvisor/pkg/advise"
	"github.com/matzehuels/stackadvisor/pkg/buildinfo"
	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
	"github.com/matzehuels/stackadvisor/pkg/store"
)

// AdviseResponse is returned by POST /v1/advise.
type AdviseResponse struct {
	ID        string            `json:"id"`
	ExpiresAt time.Time         `json:"expires_at"`
	Report    *resolver.Report  `json:"report"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	var opts advise.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if opts.TimeLimit <= 0 || opts.TimeLimit > s.opts.MaxTimeLimit {
		opts.TimeLimit = s.opts.MaxTimeLimit
	}
	opts.Logger = s.logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec := store.NewRecord(result.Report, result.Project, s.opts.TTL)
	rec.Pipeline = result.Pipeline
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store report"))
		return
	}

	resp := AdviseResponse{
		ID:        rec.ID,
		ExpiresAt: rec.ExpiresAt,
		Report:    result.Report,
	}
	if len(result.Artifacts) > 0 {
		resp.Artifacts = make(map[string]string, len(result.Artifacts))
		for format, data := range result.Artifacts {
			resp.Artifacts[format] = string(data)
		}
	}
	s.logger.Info("advise finished",
		"id", rec.ID,
		"products", len(result.Report.Products),
		"termination", result.Report.Stats.Termination)
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load report"))
		return
	}
	if rec == nil {
		s.writeError(w, errors.New(errors.ErrCodeReportNotFound, "report %s not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "delete report"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
