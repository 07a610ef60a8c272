// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/genocode/pkg/types"
)

// LinkArticles upserts articles and links them to studyID with their
// relevance scores. Existing links are rescored. Articles without an
// identifier or title are skipped. It returns the number linked.
func (s *Store) LinkArticles(ctx context.Context, studyID string, articles []types.Article) (int, error) {
	if studyID == "" {
		return 0, errors.New("study ID is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	linked := 0
	now := formatTime(s.now())
	for _, a := range articles {
		if a.Identifier == "" || a.Title == "" {
			continue
		}
		authors, _ := json.Marshal(a.Authors)
		date := ""
		if !a.Date.IsZero() {
			date = a.Date.Format("2006-01-02")
		}

		var articleID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO articles (identifier, title, authors, abstract, date, source, url)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(identifier) DO UPDATE SET
				title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
				date=excluded.date, source=excluded.source, url=excluded.url
			 RETURNING id`,
			a.Identifier, a.Title, string(authors), a.Abstract, date, a.Source, a.URL,
		).Scan(&articleID)
		if err != nil {
			return 0, fmt.Errorf("upserting article %s: %w", a.Identifier, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO study_articles (study_id, article_id, score, linked_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(study_id, article_id) DO UPDATE SET score=excluded.score, linked_at=excluded.linked_at`,
			studyID, articleID, a.RelevanceScore, now,
		); err != nil {
			return 0, fmt.Errorf("linking article %s: %w", a.Identifier, err)
		}
		linked++
	}
	return linked, tx.Commit()
}

// Articles returns the articles linked to studyID, best scored first.
// limit <= 0 uses the configured maximum.
func (s *Store) Articles(ctx context.Context, studyID string, limit int) ([]types.Article, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.identifier, a.title, a.authors, a.abstract, a.date, a.source, a.url, sa.score
		 FROM study_articles sa JOIN articles a ON a.id = sa.article_id
		 WHERE sa.study_id = ?
		 ORDER BY sa.score DESC, a.date DESC
		 LIMIT ?`, studyID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return scanArticles(rows)
}

// ArticlesByStudy returns the linked articles of every study ID given.
func (s *Store) ArticlesByStudy(ctx context.Context, studyIDs []string, limit int) (map[string][]types.Article, error) {
	out := make(map[string][]types.Article, len(studyIDs))
	for _, id := range studyIDs {
		arts, err := s.Articles(ctx, id, limit)
		if err != nil {
			return nil, err
		}
		if len(arts) > 0 {
			out[id] = arts
		}
	}
	return out, nil
}

// SearchArticles runs a full-text search over stored article titles and
// abstracts. Each whitespace-separated term must match.
func (s *Store) SearchArticles(ctx context.Context, query string, limit int) ([]types.Article, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, errors.New("search query is empty")
	}
	if limit <= 0 {
		limit = s.maxResults
	}
	if !s.fts {
		return s.searchArticlesLike(ctx, query, limit)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.identifier, a.title, a.authors, a.abstract, a.date, a.source, a.url,
			COALESCE((SELECT MAX(score) FROM study_articles WHERE article_id = a.id), 0)
		 FROM articles_fts
		 JOIN articles a ON a.id = articles_fts.rowid
		 WHERE articles_fts MATCH ?
		 ORDER BY articles_fts.rank
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	return scanArticles(rows)
}

func (s *Store) searchArticlesLike(ctx context.Context, query string, limit int) ([]types.Article, error) {
	var where []string
	var args []any
	for _, term := range strings.Fields(query) {
		where = append(where, `(a.title LIKE ? OR a.abstract LIKE ?)`)
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.identifier, a.title, a.authors, a.abstract, a.date, a.source, a.url,
			COALESCE((SELECT MAX(score) FROM study_articles WHERE article_id = a.id), 0) AS best
		 FROM articles a
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY best DESC, a.id
		 LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	return scanArticles(rows)
}

// ftsQuery quotes each term so user input cannot inject FTS5 syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

func scanArticles(rows *sql.Rows) ([]types.Article, error) {
	defer rows.Close()
	var out []types.Article
	for rows.Next() {
		var a types.Article
		var authors, abstract, date, source, url sql.NullString
		if err := rows.Scan(&a.Identifier, &a.Title, &authors, &abstract, &date, &source, &url, &a.RelevanceScore); err != nil {
			return nil, err
		}
		if authors.Valid && authors.String != "" {
			if err := json.Unmarshal([]byte(authors.String), &a.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors of %s: %w", a.Identifier, err)
			}
		}
		a.Abstract, a.Source, a.URL = abstract.String, source.String, url.String
		if date.String != "" {
			if t, err := parseDate(date.String); err == nil {
				a.Date = t
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
