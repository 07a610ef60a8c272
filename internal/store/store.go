// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists protected subject data and linked literature in
// SQLite. Subjects are keyed by a salted SHA-256 pseudonym; raw subject
// identifiers are never written. Genotype calls are stored only while the
// subject holds active consent for the current consent version.
package store

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/genocode/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "genocode.db"

	// DefaultConsentVersion is required when the config names none.
	DefaultConsentVersion = "1"

	defaultMaxResults = 20
)

var (
	// ErrConsentRequired is returned when storing data for a subject
	// without active consent.
	ErrConsentRequired = errors.New("active consent required")

	// ErrNotFound is returned when a subject or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptySubject is returned for a blank subject identifier.
	ErrEmptySubject = errors.New("subject identifier is required")
)

// Store manages the genocode SQLite database.
type Store struct {
	db             *sql.DB
	dataDir        string
	salt           string
	consentVersion string
	maxResults     int

	// fts is false when SQLite was built without FTS5; article search
	// then falls back to LIKE matching.
	fts bool

	// now is replaced in tests.
	now func() time.Time
}

// Open opens or creates the database at <DataDir>/index/genocode.db and
// applies the schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	dir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dsn := filepath.Join(dir, dbFile) + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:             db,
		dataDir:        cfg.DataDir,
		salt:           cfg.PseudonymSalt,
		consentVersion: cfg.ConsentVersion,
		maxResults:     cfg.MaxResults,
		now:            func() time.Time { return time.Now().UTC() },
	}
	if s.consentVersion == "" {
		s.consentVersion = DefaultConsentVersion
	}
	if s.maxResults <= 0 {
		s.maxResults = defaultMaxResults
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if s.salt == "" {
		salt, err := s.storedSalt()
		if err != nil {
			db.Close()
			return nil, err
		}
		s.salt = salt
	}
	return s, nil
}

// storedSalt returns the database's own pseudonym salt, generating and
// persisting 32 random bytes on first use.
func (s *Store) storedSalt() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating pseudonym salt: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('pseudonym_salt', ?)`, hex.EncodeToString(buf),
	); err != nil {
		return "", fmt.Errorf("storing pseudonym salt: %w", err)
	}

	var salt string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'pseudonym_salt'`).Scan(&salt); err != nil {
		return "", fmt.Errorf("reading pseudonym salt: %w", err)
	}
	return salt, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ConsentVersion returns the consent version subjects must hold.
func (s *Store) ConsentVersion() string { return s.consentVersion }

// Pseudonym returns the stored key for a subject identifier.
func (s *Store) Pseudonym(subject string) string {
	sum := sha256.Sum256([]byte(s.salt + "\x00" + strings.TrimSpace(subject)))
	return hex.EncodeToString(sum[:])
}

func (s *Store) key(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrEmptySubject
	}
	return s.Pseudonym(subject), nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS consents (
			subject_id TEXT PRIMARY KEY REFERENCES subjects(id) ON DELETE CASCADE,
			version TEXT NOT NULL,
			granted_at TEXT NOT NULL,
			revoked_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
			format TEXT NOT NULL,
			calls INTEGER NOT NULL,
			archive_key TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_subject ON uploads(subject_id)`,
		`CREATE TABLE IF NOT EXISTS genotypes (
			subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
			rsid TEXT NOT NULL,
			chromosome TEXT,
			position INTEGER,
			genotype TEXT NOT NULL,
			upload_id TEXT NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
			PRIMARY KEY (subject_id, rsid)
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			date TEXT,
			source TEXT,
			url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS study_articles (
			study_id TEXT NOT NULL,
			article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			score REAL NOT NULL,
			linked_at TEXT NOT NULL,
			PRIMARY KEY (study_id, article_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var n int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&n); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if n > 0 {
		s.fts = true
		return nil
	}

	fts := []string{
		`CREATE VIRTUAL TABLE articles_fts USING fts5(title, abstract, content=articles, content_rowid=id)`,
		`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
			INSERT INTO articles_fts(rowid, title, abstract) VALUES (new.id, new.title, new.abstract);
		END`,
		`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, abstract) VALUES ('delete', old.id, old.title, old.abstract);
		END`,
		`CREATE TRIGGER articles_au AFTER UPDATE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, abstract) VALUES ('delete', old.id, old.title, old.abstract);
			INSERT INTO articles_fts(rowid, title, abstract) VALUES (new.id, new.title, new.abstract);
		END`,
	}
	if _, err := s.db.Exec(fts[0]); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating FTS index: %w", err)
	}
	for _, stmt := range fts[1:] {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS triggers: %w", err)
		}
	}
	s.fts = true
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
