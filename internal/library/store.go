// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists search history, favorite searches and saved
// papers in a local SQLite database.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-desk/pkg/types"
)

const dbFile = "library.db"

// DefaultHistoryLimit is the number of history entries kept.
const DefaultHistoryLimit = 10

// ErrNotFound is returned when an entry or paper does not exist.
var ErrNotFound = errors.New("not found")

// Store manages the library SQLite database.
type Store struct {
	db           *sql.DB
	historyLimit int
	now          func() time.Time
}

// Open opens or creates the library database at cfg.Dir/library.db and
// creates the schema if it does not exist.
func Open(cfg types.LibraryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s := &Store{db: db, historyLimit: limit, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK (kind IN ('history', 'favorite')),
			name TEXT NOT NULL,
			request TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at TEXT NOT NULL,
			touched INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_kind ON searches(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_fingerprint ON searches(fingerprint)`,
		`CREATE TABLE IF NOT EXISTS papers (
			identity TEXT PRIMARY KEY,
			arxiv_id TEXT,
			title TEXT NOT NULL,
			authors TEXT,
			published TEXT,
			updated TEXT,
			summary TEXT,
			link TEXT,
			categories TEXT,
			translated_title TEXT,
			translated_summary TEXT,
			model TEXT,
			saved_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Kind distinguishes history entries from favorites.
type Kind string

const (
	KindHistory  Kind = "history"
	KindFavorite Kind = "favorite"
)

// Entry is a stored search.
type Entry struct {
	ID        string              `json:"id" yaml:"id"`
	Kind      Kind                `json:"kind" yaml:"kind"`
	Name      string              `json:"name" yaml:"name"`
	Request   types.SearchRequest `json:"request" yaml:"request"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
}

// RecordSearch adds req to the history unless a history or favorite entry
// with the same criteria exists. The history is trimmed to its limit,
// oldest first. It reports whether an entry was added.
func (s *Store) RecordSearch(ctx context.Context, req types.SearchRequest) (Entry, bool, error) {
	norm := Normalize(req)
	fp, err := fingerprint(norm)
	if err != nil {
		return Entry{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM searches WHERE fingerprint = ?`, fp,
	).Scan(&existing); err != nil {
		return Entry{}, false, fmt.Errorf("checking history: %w", err)
	}
	if existing > 0 {
		return Entry{}, false, nil
	}

	e := Entry{
		ID:        uuid.NewString(),
		Kind:      KindHistory,
		Name:      Describe(norm),
		Request:   norm,
		CreatedAt: s.now().UTC(),
	}
	reqJSON, err := json.Marshal(norm)
	if err != nil {
		return Entry{}, false, fmt.Errorf("marshaling request: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO searches (id, kind, name, request, fingerprint, created_at, touched) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Name, string(reqJSON), fp, e.CreatedAt.Format(time.RFC3339Nano), e.CreatedAt.UnixNano(),
	); err != nil {
		return Entry{}, false, fmt.Errorf("inserting history entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM searches WHERE kind = 'history' AND seq NOT IN (
			SELECT seq FROM searches WHERE kind = 'history' ORDER BY seq DESC LIMIT ?
		)`, s.historyLimit,
	); err != nil {
		return Entry{}, false, fmt.Errorf("trimming history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, false, fmt.Errorf("committing history entry: %w", err)
	}
	return e, true, nil
}

// History returns history entries, newest first.
func (s *Store) History(ctx context.Context) ([]Entry, error) {
	return s.entries(ctx, KindHistory)
}

// Favorites returns favorite entries, newest first.
func (s *Store) Favorites(ctx context.Context) ([]Entry, error) {
	return s.entries(ctx, KindFavorite)
}

func (s *Store) entries(ctx context.Context, kind Kind) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, request, created_at FROM searches WHERE kind = ? ORDER BY touched DESC, seq DESC`,
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", kind, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Lookup returns the entry with id from either list.
func (s *Store) Lookup(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, request, created_at FROM searches WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("search %s: %w", id, ErrNotFound)
	}
	return e, err
}

// Favorite moves a history entry into the favorites, optionally renaming
// it. Favoriting an existing favorite only renames it.
func (s *Store) Favorite(ctx context.Context, id, name string) (Entry, error) {
	e, err := s.Lookup(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		e.Name = name
	}
	e.Kind = KindFavorite

	res, err := s.db.ExecContext(ctx,
		`UPDATE searches SET kind = 'favorite', name = ?, touched = ? WHERE id = ?`,
		e.Name, s.now().UTC().UnixNano(), id)
	if err != nil {
		return Entry{}, fmt.Errorf("favoriting %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Entry{}, fmt.Errorf("search %s: %w", id, ErrNotFound)
	}
	return e, nil
}

// Remove deletes a history or favorite entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("search %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		kind      string
		reqJSON   string
		createdAt string
	)
	if err := row.Scan(&e.ID, &kind, &e.Name, &reqJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning search: %w", err)
	}
	e.Kind = Kind(kind)
	if err := json.Unmarshal([]byte(reqJSON), &e.Request); err != nil {
		return Entry{}, fmt.Errorf("decoding stored request %s: %w", e.ID, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

// Normalize reduces req to the criteria that identify a search: trimmed,
// non-blank clauses with the first operator cleared, sort settings, cap and
// date range. The paging offset is dropped.
func Normalize(req types.SearchRequest) types.SearchRequest {
	out := types.SearchRequest{
		PageCap:      req.PageCap,
		UserTotalCap: req.UserTotalCap,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		DateRange:    req.DateRange,
	}
	for _, c := range req.Clauses {
		c.Term = strings.TrimSpace(c.Term)
		if c.Field == "" || c.Term == "" {
			continue
		}
		if len(out.Clauses) == 0 {
			c.Operator = types.OpNone
		}
		out.Clauses = append(out.Clauses, c)
	}
	return out
}

func fingerprint(req types.SearchRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("fingerprinting request: %w", err)
	}
	return string(data), nil
}

// Describe renders a short label such as `title:"graph networks" AND author:Kipf`.
func Describe(req types.SearchRequest) string {
	var b strings.Builder
	for i, c := range req.Clauses {
		if i > 0 {
			b.WriteByte(' ')
			if c.Operator != types.OpNone {
				b.WriteString(string(c.Operator))
				b.WriteByte(' ')
			}
		}
		term := c.Term
		if strings.ContainsAny(term, " \t") {
			term = `"` + term + `"`
		}
		b.WriteString(string(c.Field) + ":" + term)
	}
	if b.Len() == 0 {
		return "(empty search)"
	}
	return b.String()
}
