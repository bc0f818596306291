// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paper-desk/internal/export"
	"github.com/pdiddy/paper-desk/pkg/types"
)

// Translation is a stored translated title and summary.
type Translation struct {
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary" yaml:"summary"`
	Model   string `json:"model" yaml:"model"`
}

// SavedPaper is a paper in the library, with its translation if one was
// saved alongside it.
type SavedPaper struct {
	Paper       types.Paper  `json:"paper" yaml:"paper"`
	Translation *Translation `json:"translation,omitempty" yaml:"translation,omitempty"`
	SavedAt     time.Time    `json:"saved_at" yaml:"saved_at"`
}

// SavePaper stores p, replacing any earlier copy with the same identity.
// A nil translation keeps the original text only.
func (s *Store) SavePaper(ctx context.Context, p types.Paper, tr *Translation) error {
	identity := p.Identity()
	if identity == "" {
		return fmt.Errorf("saving paper %q: no link or arXiv ID", p.Title)
	}

	categoriesJSON, _ := json.Marshal(p.Categories)
	var trTitle, trSummary, model sql.NullString
	if tr != nil {
		trTitle = sql.NullString{String: tr.Title, Valid: true}
		trSummary = sql.NullString{String: tr.Summary, Valid: true}
		model = sql.NullString{String: tr.Model, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (identity, arxiv_id, title, authors, published, updated, summary, link,
			categories, translated_title, translated_summary, model, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET
			arxiv_id=excluded.arxiv_id, title=excluded.title, authors=excluded.authors,
			published=excluded.published, updated=excluded.updated, summary=excluded.summary,
			link=excluded.link, categories=excluded.categories,
			translated_title=excluded.translated_title,
			translated_summary=excluded.translated_summary,
			model=excluded.model, saved_at=excluded.saved_at`,
		identity, p.ID, p.Title, p.Authors, formatTime(p.Published), formatTime(p.Updated),
		p.Summary, p.Link, string(categoriesJSON), trTitle, trSummary, model,
		s.now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving paper %s: %w", identity, err)
	}
	return nil
}

// Papers returns saved papers, most recently saved first. A non-empty
// query keeps papers whose original or translated title or summary, or
// whose authors, contain it (case-insensitive).
func (s *Store) Papers(ctx context.Context, query string) ([]SavedPaper, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT arxiv_id, title, authors, published, updated, summary, link, categories,
			translated_title, translated_summary, model, saved_at
		FROM papers`)
	if q := strings.TrimSpace(query); q != "" {
		qb.WriteString(` WHERE title LIKE ? OR summary LIKE ? OR authors LIKE ?
			OR translated_title LIKE ? OR translated_summary LIKE ?`)
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	qb.WriteString(` ORDER BY saved_at DESC, identity`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	var out []SavedPaper
	for rows.Next() {
		var (
			sp                        SavedPaper
			arxivID, authors, summary sql.NullString
			published, updated, link  sql.NullString
			categoriesJSON            sql.NullString
			trTitle, trSummary, model sql.NullString
			savedAt                   int64
		)
		if err := rows.Scan(
			&arxivID, &sp.Paper.Title, &authors, &published, &updated, &summary, &link,
			&categoriesJSON, &trTitle, &trSummary, &model, &savedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		sp.Paper.ID = arxivID.String
		sp.Paper.Authors = authors.String
		sp.Paper.Summary = summary.String
		sp.Paper.Link = link.String
		sp.Paper.Published = parseTime(published.String)
		sp.Paper.Updated = parseTime(updated.String)
		if categoriesJSON.Valid {
			json.Unmarshal([]byte(categoriesJSON.String), &sp.Paper.Categories)
		}
		if trTitle.Valid {
			sp.Translation = &Translation{Title: trTitle.String, Summary: trSummary.String, Model: model.String}
		}
		sp.SavedAt = time.Unix(0, savedAt).UTC()

		out = append(out, sp)
	}
	return out, rows.Err()
}

// RemovePaper deletes the paper whose identity or arXiv ID is identity.
func (s *Store) RemovePaper(ctx context.Context, identity string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE identity = ? OR arxiv_id = ?`, identity, identity)
	if err != nil {
		return fmt.Errorf("removing paper %s: %w", identity, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("paper %s: %w", identity, ErrNotFound)
	}
	return nil
}

// Export builds an export record of the papers matching query. Papers with
// a stored translation are exported translated.
func (s *Store) Export(ctx context.Context, query string, now time.Time) (export.Record, error) {
	saved, err := s.Papers(ctx, query)
	if err != nil {
		return export.Record{}, err
	}
	entries := make([]export.Entry, len(saved))
	for i, sp := range saved {
		entries[i] = export.NewEntry(sp.Display(), sp.Translation != nil)
	}
	return export.NewRecord(entries, now), nil
}

// Display returns the paper with the translated title and summary
// substituted when a translation is stored.
func (sp SavedPaper) Display() types.Paper {
	p := sp.Paper.Clone()
	if sp.Translation != nil {
		if sp.Translation.Title != "" {
			p.Title = sp.Translation.Title
		}
		if sp.Translation.Summary != "" {
			p.Summary = sp.Translation.Summary
		}
	}
	return p
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
