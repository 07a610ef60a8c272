// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genocode/pkg/types"
)

// QueryFile is a saved search: the query, the settings that shaped it, and
// its results. Reloading one avoids querying the APIs again.
type QueryFile struct {
	StudyID     string          `yaml:"study_id,omitempty"`
	Query       SavedQuery      `yaml:"query"`
	MaxResults  int             `yaml:"max_results"`
	RecencyBias bool            `yaml:"recency_bias"`
	Results     []types.Article `yaml:"results"`
	DupsRemoved int             `yaml:"duplicates_removed"`
	Errors      []string        `yaml:"backend_errors,omitempty"`
	SavedAt     time.Time       `yaml:"saved_at"`
}

// SavedQuery is the serializable form of a Query. Dates are YYYY-MM-DD.
type SavedQuery struct {
	FreeText string   `yaml:"free_text,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	DateFrom string   `yaml:"date_from,omitempty"`
	DateTo   string   `yaml:"date_to,omitempty"`
}

// NewQueryFile captures a finished search.
func NewQueryFile(studyID string, q Query, cfg types.LiteratureConfig, recencyBias bool, out Output) *QueryFile {
	qf := &QueryFile{
		StudyID:     studyID,
		Query:       SavedQuery{FreeText: q.FreeText, Keywords: q.Keywords},
		MaxResults:  cfg.MaxResults,
		RecencyBias: recencyBias,
		Results:     out.Results,
		DupsRemoved: out.DupsRemoved,
		Errors:      out.BackendErrors,
		SavedAt:     time.Now().UTC(),
	}
	if !q.DateFrom.IsZero() {
		qf.Query.DateFrom = q.DateFrom.Format(time.DateOnly)
	}
	if !q.DateTo.IsZero() {
		qf.Query.DateTo = q.DateTo.Format(time.DateOnly)
	}
	return qf
}

// Write saves the query file as YAML.
func (qf *QueryFile) Write(path string) error {
	data, err := yaml.Marshal(qf)
	if err != nil {
		return fmt.Errorf("encoding query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a saved search.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	return &qf, nil
}

// Query converts the saved parameters back to a Query.
func (s SavedQuery) Query() (Query, error) {
	q := Query{FreeText: s.FreeText, Keywords: s.Keywords}
	var err error
	if s.DateFrom != "" {
		if q.DateFrom, err = time.Parse(time.DateOnly, s.DateFrom); err != nil {
			return q, fmt.Errorf("invalid date_from %q: %w", s.DateFrom, err)
		}
	}
	if s.DateTo != "" {
		if q.DateTo, err = time.Parse(time.DateOnly, s.DateTo); err != nil {
			return q, fmt.Errorf("invalid date_to %q: %w", s.DateTo, err)
		}
	}
	return q, nil
}
