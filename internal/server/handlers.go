// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/genotype"
	"github.com/pdiddy/genocode/internal/intake"
	"github.com/pdiddy/genocode/internal/plot"
	"github.com/pdiddy/genocode/internal/report"
	"github.com/pdiddy/genocode/internal/store"
	"github.com/pdiddy/genocode/pkg/types"
)

// Response is the JSON envelope of every API response.
type Response[T any] struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Response T      `json:"response,omitempty"`
}

func writeJSON[T any](w http.ResponseWriter, status int, v T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response[T]{Success: true, Response: v})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("request", r.Method+" "+routeOf(r)), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response[any]{Error: err.Error()})
}

// fail maps domain errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrConsentRequired):
		s.writeError(w, r, http.StatusForbidden, err)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, intake.ErrNoData):
		s.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, genotype.ErrTooLarge), errors.As(err, &maxErr):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, store.ErrEmptySubject), errors.Is(err, genotype.ErrNoCalls),
		errors.Is(err, report.ErrUnknownGenotype), errors.Is(err, plot.ErrUnknownKind):
		s.writeError(w, r, http.StatusBadRequest, err)
	default:
		s.writeError(w, r, http.StatusInternalServerError, err)
	}
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}

// subjectFrom reads the subject from the header, falling back to the
// "subject" query parameter. It never reads the request body.
func subjectFrom(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(SubjectHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("subject"))
}

type studySummary struct {
	ID        string   `json:"id"`
	RSID      string   `json:"rsid"`
	Gene      string   `json:"gene,omitempty"`
	Phenotype string   `json:"phenotype"`
	Unit      string   `json:"unit,omitempty"`
	Reference string   `json:"reference_genotype"`
	Genotypes []string `json:"genotypes"`
}

func (s *Server) handleMain(w http.ResponseWriter, r *http.Request) {
	studies := s.svc.Catalog.Get().Studies()
	out := make([]studySummary, 0, len(studies))
	for _, st := range studies {
		sum := studySummary{
			ID: st.ID, RSID: st.RSID, Gene: st.Gene, Phenotype: st.Phenotype,
			Unit: st.Unit, Reference: st.ReferenceGenotype,
		}
		for _, g := range st.Groups {
			sum.Genotypes = append(sum.Genotypes, g.Genotype)
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"studies": s.svc.Catalog.Get().Len(),
	})
}

type consentRequest struct {
	Subject string `json:"subject"`
	Version string `json:"version"`
}

type consentStatus struct {
	Active         bool          `json:"active"`
	Current        bool          `json:"current"`
	CurrentVersion string        `json:"current_version"`
	Consent        types.Consent `json:"consent"`
}

func (s *Server) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decoding consent: %w", err))
			return
		}
	} else {
		req.Subject = r.FormValue("subject")
		req.Version = r.FormValue("version")
	}
	if req.Subject == "" {
		req.Subject = r.Header.Get(SubjectHeader)
	}

	current := s.svc.Store.ConsentVersion()
	if req.Version != "" && req.Version != current {
		s.writeError(w, r, http.StatusBadRequest,
			fmt.Errorf("consent version %q is not current (want %q)", req.Version, current))
		return
	}
	c, err := s.svc.Store.GrantConsent(r.Context(), req.Subject, current)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleConsentStatus(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Store.Consent(r.Context(), chi.URLParam(r, "subject"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	current := s.svc.Store.ConsentVersion()
	writeJSON(w, http.StatusOK, consentStatus{
		Active:         c.Active(),
		Current:        c.Active() && c.Version == current,
		CurrentVersion: current,
		Consent:        c,
	})
}

func (s *Server) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Revoke(r.Context(), chi.URLParam(r, "subject"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"uploads_deleted": n})
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Delete(r.Context(), chi.URLParam(r, "subject"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"uploads_deleted": n})
}

// handleLoad accepts a raw genotype file as the "file" part of a
// multipart form or as the request body.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Import.MaxBytes
	if limit <= 0 {
		limit = genotype.DefaultMaxBytes
	}
	// Leave room for multipart framing; intake enforces the file limit.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	var body io.Reader = r.Body
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.fail(w, r, fmt.Errorf("reading upload: %w", err))
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("form field \"file\" is required: %w", err))
			return
		}
		defer f.Close()
		body = f
	}

	subject := subjectFrom(r)
	if subject == "" && r.MultipartForm != nil {
		subject = strings.TrimSpace(r.FormValue("subject"))
	}
	if subject == "" {
		s.fail(w, r, store.ErrEmptySubject)
		return
	}
	res, err := s.svc.Import(r.Context(), subject, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	subject := subjectFrom(r)
	if subject == "" {
		s.fail(w, r, store.ErrEmptySubject)
		return
	}
	set, err := s.svc.Report(r.Context(), subject, s.cfg.Report)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// studyReport builds the report for the URL's study, optionally placing
// the ?genotype= call.
func (s *Server) studyReport(r *http.Request) (*report.Report, error) {
	study, err := s.svc.Catalog.Get().ByID(chi.URLParam(r, "studyID"))
	if err != nil {
		return nil, err
	}
	return report.Build(r.Context(), study, r.URL.Query().Get("genotype"), s.cfg.Report, nil)
}

func (s *Server) handleStatistic(w http.ResponseWriter, r *http.Request) {
	rep, err := s.studyReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	kind, err := plot.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.studyReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := plot.Render(&buf, rep, kind, "svg"); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func (s *Server) handleLiterature(w http.ResponseWriter, r *http.Request) {
	studyID := chi.URLParam(r, "studyID")
	if _, err := s.svc.Catalog.Get().ByID(studyID); err != nil {
		s.fail(w, r, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	arts, err := s.svc.Store.Articles(r.Context(), studyID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if arts == nil {
		arts = []types.Article{}
	}
	writeJSON(w, http.StatusOK, arts)
}
