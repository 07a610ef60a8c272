// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/genocode/pkg/types"
)

// GrantConsent records that subject accepted the given consent version.
// An empty version records the store's current version. Granting again
// replaces an earlier or revoked consent.
func (s *Store) GrantConsent(ctx context.Context, subject, version string) (types.Consent, error) {
	id, err := s.key(subject)
	if err != nil {
		return types.Consent{}, err
	}
	if version == "" {
		version = s.consentVersion
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Consent{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subjects (id, created_at) VALUES (?, ?)`, id, formatTime(now),
	); err != nil {
		return types.Consent{}, fmt.Errorf("inserting subject: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO consents (subject_id, version, granted_at, revoked_at) VALUES (?, ?, ?, NULL)
		 ON CONFLICT(subject_id) DO UPDATE SET
			version=excluded.version, granted_at=excluded.granted_at, revoked_at=NULL`,
		id, version, formatTime(now),
	); err != nil {
		return types.Consent{}, fmt.Errorf("recording consent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Consent{}, err
	}
	return types.Consent{Subject: id, Version: version, GrantedAt: now}, nil
}

// Consent returns the subject's consent record.
func (s *Store) Consent(ctx context.Context, subject string) (types.Consent, error) {
	id, err := s.key(subject)
	if err != nil {
		return types.Consent{}, err
	}
	return s.consentByID(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) consentByID(ctx context.Context, q querier, id string) (types.Consent, error) {
	var granted string
	var revoked sql.NullString
	c := types.Consent{Subject: id}
	err := q.QueryRowContext(ctx,
		`SELECT version, granted_at, revoked_at FROM consents WHERE subject_id = ?`, id,
	).Scan(&c.Version, &granted, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Consent{}, fmt.Errorf("consent for subject: %w", ErrNotFound)
	}
	if err != nil {
		return types.Consent{}, fmt.Errorf("reading consent: %w", err)
	}
	c.GrantedAt = parseTime(granted)
	if revoked.Valid {
		t := parseTime(revoked.String)
		c.RevokedAt = &t
	}
	return c, nil
}

// HasConsent reports whether subject holds active consent for the current
// consent version.
func (s *Store) HasConsent(ctx context.Context, subject string) (bool, error) {
	c, err := s.Consent(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Active() && c.Version == s.consentVersion, nil
}

// RevokeConsent marks the subject's consent revoked and deletes every
// stored upload and genotype call. It returns the archive keys of the
// deleted uploads so the caller can remove the raw files.
func (s *Store) RevokeConsent(ctx context.Context, subject string) ([]string, error) {
	id, err := s.key(subject)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE consents SET revoked_at = ? WHERE subject_id = ? AND revoked_at IS NULL`,
		formatTime(s.now()), id)
	if err != nil {
		return nil, fmt.Errorf("revoking consent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.consentByID(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	keys, err := archiveKeys(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM uploads WHERE subject_id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting uploads: %w", err)
	}
	return keys, tx.Commit()
}

// DeleteSubject removes the subject and everything stored for it,
// consent included. It returns the archive keys of deleted uploads.
func (s *Store) DeleteSubject(ctx context.Context, subject string) ([]string, error) {
	id, err := s.key(subject)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keys, err := archiveKeys(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("subject: %w", ErrNotFound)
	}
	return keys, tx.Commit()
}

func archiveKeys(ctx context.Context, tx *sql.Tx, id string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT archive_key FROM uploads WHERE subject_id = ? AND archive_key IS NOT NULL AND archive_key != ''
		 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("listing archived uploads: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// NewUploadID returns a fresh upload identifier.
func NewUploadID() string {
	return uuid.NewString()
}

// UploadOptions carries optional upload metadata.
type UploadOptions struct {
	// ID is the upload identifier; empty generates one.
	ID string

	// ArchiveKey locates the archived raw file.
	ArchiveKey string
}

// SaveUpload stores a parsed raw file for subject. The subject must hold
// active consent for the current version, checked in the same transaction
// as the write. The new calls replace every call stored earlier.
func (s *Store) SaveUpload(ctx context.Context, subject string, file *types.GenotypeFile, opts UploadOptions) (types.Upload, error) {
	id, err := s.key(subject)
	if err != nil {
		return types.Upload{}, err
	}
	if opts.ID == "" {
		opts.ID = NewUploadID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Upload{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := s.consentByID(ctx, tx, id)
	if errors.Is(err, ErrNotFound) || (err == nil && (!c.Active() || c.Version != s.consentVersion)) {
		return types.Upload{}, ErrConsentRequired
	}
	if err != nil {
		return types.Upload{}, err
	}

	up := types.Upload{
		ID:         opts.ID,
		Subject:    id,
		Format:     file.Format,
		Calls:      len(file.Calls),
		ArchiveKey: opts.ArchiveKey,
		CreatedAt:  s.now(),
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM genotypes WHERE subject_id = ?`, id); err != nil {
		return types.Upload{}, fmt.Errorf("clearing earlier calls: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO uploads (id, subject_id, format, calls, archive_key, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		up.ID, id, string(up.Format), up.Calls, up.ArchiveKey, formatTime(up.CreatedAt),
	); err != nil {
		return types.Upload{}, fmt.Errorf("inserting upload: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO genotypes (subject_id, rsid, chromosome, position, genotype, upload_id) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return types.Upload{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, call := range file.Calls {
		if _, err := stmt.ExecContext(ctx, id, call.RSID, call.Chromosome, call.Position, call.Genotype, up.ID); err != nil {
			return types.Upload{}, fmt.Errorf("inserting call %s: %w", call.RSID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return types.Upload{}, err
	}
	return up, nil
}

// Uploads lists the subject's uploads, oldest first.
func (s *Store) Uploads(ctx context.Context, subject string) ([]types.Upload, error) {
	id, err := s.key(subject)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, format, calls, COALESCE(archive_key, ''), created_at FROM uploads WHERE subject_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	defer rows.Close()

	var out []types.Upload
	for rows.Next() {
		up := types.Upload{Subject: id}
		var format, created string
		if err := rows.Scan(&up.ID, &format, &up.Calls, &up.ArchiveKey, &created); err != nil {
			return nil, err
		}
		up.Format = types.RawFormat(format)
		up.CreatedAt = parseTime(created)
		out = append(out, up)
	}
	return out, rows.Err()
}

// Genotypes returns the subject's stored calls keyed by rsid.
func (s *Store) Genotypes(ctx context.Context, subject string) (map[string]types.Call, error) {
	id, err := s.key(subject)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT rsid, COALESCE(chromosome, ''), COALESCE(position, 0), genotype FROM genotypes WHERE subject_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("reading genotypes: %w", err)
	}
	defer rows.Close()

	calls := make(map[string]types.Call)
	for rows.Next() {
		var c types.Call
		if err := rows.Scan(&c.RSID, &c.Chromosome, &c.Position, &c.Genotype); err != nil {
			return nil, err
		}
		calls[c.RSID] = c
	}
	return calls, rows.Err()
}
