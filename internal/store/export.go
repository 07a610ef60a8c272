// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genocode/pkg/types"
)

// SubjectExport is everything stored for one subject.
type SubjectExport struct {
	Subject    string         `json:"subject" yaml:"subject"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Consent    types.Consent  `json:"consent" yaml:"consent"`
	Uploads    []types.Upload `json:"uploads" yaml:"uploads"`
	Calls      []types.Call   `json:"calls" yaml:"calls"`
}

// Export collects the subject's consent, uploads and calls (sorted by rsid).
func (s *Store) Export(ctx context.Context, subject string) (*SubjectExport, error) {
	c, err := s.Consent(ctx, subject)
	if err != nil {
		return nil, err
	}
	uploads, err := s.Uploads(ctx, subject)
	if err != nil {
		return nil, err
	}
	calls, err := s.Genotypes(ctx, subject)
	if err != nil {
		return nil, err
	}

	out := &SubjectExport{
		Subject:    c.Subject,
		ExportedAt: s.now(),
		Consent:    c,
		Uploads:    uploads,
		Calls:      make([]types.Call, 0, len(calls)),
	}
	for _, call := range calls {
		out.Calls = append(out.Calls, call)
	}
	sort.Slice(out.Calls, func(i, j int) bool { return out.Calls[i].RSID < out.Calls[j].RSID })
	return out, nil
}

// WriteExport encodes the subject's data to w as "yaml" or "json".
func (s *Store) WriteExport(ctx context.Context, subject, format string, w io.Writer) error {
	exp, err := s.Export(ctx, subject)
	if err != nil {
		return err
	}
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(exp)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

// ExportFile writes the subject's data to <DataDir>/index/export-<pseudonym>.<format>
// and returns the path. The file is readable only by its owner.
func (s *Store) ExportFile(ctx context.Context, subject, format string) (string, error) {
	if format == "" {
		format = "yaml"
	}
	id, err := s.key(subject)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dataDir, indexDir, fmt.Sprintf("export-%s.%s", id[:16], format))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating export: %w", err)
	}
	if err := s.WriteExport(ctx, subject, format, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	return path, f.Close()
}
