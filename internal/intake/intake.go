// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intake runs the subject data lifecycle: consent-checked import
// of raw genotype files with archiving, revocation and deletion, reports,
// and literature linking for catalog studies.
// The CLI and the HTTP server both go through it.
package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/genocode/internal/archive"
	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/events"
	"github.com/pdiddy/genocode/internal/genotype"
	"github.com/pdiddy/genocode/internal/report"
	"github.com/pdiddy/genocode/internal/store"
	"github.com/pdiddy/genocode/pkg/types"
)

// Service wires the store to the archive, event publisher and catalog.
// Archive may be nil (archiving disabled); Events and Log may be nil.
type Service struct {
	Store    *store.Store
	Archive  archive.Archiver
	Events   events.Publisher
	Catalog  *catalog.Live
	MaxBytes int64
	Source   string
	Log      *zap.Logger
}

// Result summarizes an import.
type Result struct {
	Upload    types.Upload `json:"upload"`
	Total     int          `json:"total_lines"`
	NoCalls   int          `json:"no_calls"`
	Malformed int          `json:"malformed"`

	// Covered lists catalog study IDs whose SNP the upload carries.
	Covered []string `json:"covered"`
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Import parses r as a raw genotype file and stores it for subject. The
// subject must hold current consent; this is checked before the file is
// read and again inside the store transaction. The raw bytes are archived
// first and removed again if storing fails.
func (s *Service) Import(ctx context.Context, subject string, r io.Reader) (*Result, error) {
	ok, err := s.Store.HasConsent(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrConsentRequired
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = genotype.DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", genotype.ErrTooLarge, limit)
	}
	file, err := genotype.Parse(bytes.NewReader(data), limit)
	if err != nil {
		return nil, err
	}

	pseudonym := s.Store.Pseudonym(subject)
	opts := store.UploadOptions{ID: store.NewUploadID()}
	if s.Archive != nil {
		opts.ArchiveKey = archive.Key(pseudonym, opts.ID)
		if err := s.Archive.Put(ctx, opts.ArchiveKey, data); err != nil {
			return nil, fmt.Errorf("archiving upload: %w", err)
		}
	}

	up, err := s.Store.SaveUpload(ctx, subject, file, opts)
	if err != nil {
		if opts.ArchiveKey != "" {
			if derr := s.Archive.Delete(ctx, opts.ArchiveKey); derr != nil {
				s.log().Warn("removing orphaned archive", zap.String("key", opts.ArchiveKey), zap.Error(derr))
			}
		}
		return nil, err
	}

	res := &Result{
		Upload:    up,
		Total:     file.Total,
		NoCalls:   file.NoCalls,
		Malformed: len(file.Malformed),
		Covered:   []string{},
	}
	if s.Catalog != nil {
		for _, st := range s.Catalog.Get().Studies() {
			if _, ok := file.Calls[st.RSID]; ok {
				res.Covered = append(res.Covered, st.ID)
			}
		}
	}

	s.publish(ctx, events.TypeUploadImported, pseudonym, events.UploadImported{
		UploadID:   up.ID,
		Format:     up.Format,
		Calls:      up.Calls,
		Covered:    len(res.Covered),
		ArchiveKey: up.ArchiveKey,
	})
	s.log().Info("upload imported",
		zap.String("subject", short(pseudonym)),
		zap.String("upload", up.ID),
		zap.Int("calls", up.Calls),
		zap.Int("covered", len(res.Covered)))
	return res, nil
}

// Revoke revokes the subject's consent and removes their genotype data,
// archived files included. It returns the number of uploads removed.
func (s *Service) Revoke(ctx context.Context, subject string) (int, error) {
	keys, err := s.Store.RevokeConsent(ctx, subject)
	if err != nil {
		return 0, err
	}
	return s.removed(ctx, events.TypeConsentRevoked, subject, keys), nil
}

// Delete removes the subject entirely, consent record included.
func (s *Service) Delete(ctx context.Context, subject string) (int, error) {
	keys, err := s.Store.DeleteSubject(ctx, subject)
	if err != nil {
		return 0, err
	}
	return s.removed(ctx, events.TypeSubjectDeleted, subject, keys), nil
}

func (s *Service) removed(ctx context.Context, eventType, subject string, keys []string) int {
	pseudonym := s.Store.Pseudonym(subject)
	if err := archive.DeleteAll(ctx, s.Archive, keys); err != nil {
		s.log().Error("deleting archived uploads", zap.String("subject", short(pseudonym)), zap.Error(err))
	}
	s.publish(ctx, eventType, pseudonym, events.DataRemoved{Uploads: len(keys)})
	s.log().Info("subject data removed", zap.String("event", eventType), zap.String("subject", short(pseudonym)))
	return len(keys)
}

// ErrNoData is returned by Report when the subject has no stored calls.
var ErrNoData = errors.New("no genotype data stored for subject")

// Report builds the subject's report over the current catalog.
func (s *Service) Report(ctx context.Context, subject string, cfg types.ReportConfig) (*report.Set, error) {
	ok, err := s.Store.HasConsent(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrConsentRequired
	}
	calls, err := s.Store.Genotypes(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, ErrNoData
	}
	return report.BuildAll(ctx, s.Catalog.Get(), calls, cfg)
}

func (s *Service) publish(ctx context.Context, eventType, pseudonym string, data any) {
	if s.Events == nil {
		return
	}
	e, err := events.New(s.Source, eventType, pseudonym, data)
	if err == nil {
		err = s.Events.Publish(ctx, e)
	}
	if err != nil {
		s.log().Warn("publishing event", zap.String("type", eventType), zap.Error(err))
	}
}

// short trims a pseudonym for log lines.
func short(pseudonym string) string {
	if len(pseudonym) > 12 {
		return pseudonym[:12]
	}
	return pseudonym
}
