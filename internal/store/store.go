// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists generated artifacts in a local SQLite database and
// exports them as YAML, JSON, Markdown, or HTML.
package store

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
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/study-engine/pkg/types"
)

const (
	dbFile       = "study.db"
	defaultLimit = 50

	// timeLayout has a fixed width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned when no artifact matches an id.
var ErrNotFound = errors.New("artifact not found")

// Store manages the artifact database.
type Store struct {
	db  *sql.DB
	dir string
	now func() time.Time
}

// Record is one stored artifact. Artifact is nil in List results.
type Record struct {
	ID            string            `json:"id" yaml:"id"`
	Type          types.ContentType `json:"type" yaml:"type"`
	Title         string            `json:"title" yaml:"title"`
	Source        string            `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt     time.Time         `json:"created_at" yaml:"created_at"`
	ItemCount     int               `json:"item_count" yaml:"item_count"`
	ChunksTotal   int               `json:"chunks_total" yaml:"chunks_total"`
	ChunksSkipped int               `json:"chunks_skipped" yaml:"chunks_skipped"`
	Artifact      *types.Artifact   `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// Open opens or creates the database at cfg.Dir/study.db and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = types.DefaultConfig().Store.Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir, now: time.Now}
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
		`CREATE TABLE IF NOT EXISTS artifacts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			source TEXT,
			created_at TEXT NOT NULL,
			item_count INTEGER NOT NULL,
			chunks_total INTEGER NOT NULL,
			chunks_skipped INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS artifacts_fts USING fts4(title, body)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores art under a new id and returns the id. An empty title is
// derived from the artifact's type and creation time.
func (s *Store) Save(ctx context.Context, art *types.Artifact, title, source string) (string, error) {
	if art == nil {
		return "", errors.New("saving artifact: nil artifact")
	}
	payload, err := json.Marshal(art)
	if err != nil {
		return "", fmt.Errorf("marshaling artifact: %w", err)
	}

	now := s.now().UTC()
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("%s %s", art.Type, now.Format("2006-01-02 15:04"))
	}
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO artifacts (id, type, title, source, created_at, item_count, chunks_total, chunks_skipped, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(art.Type), title, source, now.Format(timeLayout),
		art.ItemCount(), art.Report.ChunksTotal, len(art.Report.ChunksSkipped), string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("inserting artifact: %w", err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("reading row id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO artifacts_fts (docid, title, body) VALUES (?, ?, ?)`,
		rowid, title, searchText(art),
	); err != nil {
		return "", fmt.Errorf("indexing artifact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing artifact: %w", err)
	}
	return id, nil
}

// resolveID maps a full id or a unique id prefix to the stored id.
func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM artifacts WHERE substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2`,
		utf8.RuneCountInString(id), id, id)
	if err != nil {
		return "", fmt.Errorf("looking up artifact: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var got string
		if err := rows.Scan(&got); err != nil {
			return "", fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, got)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch {
	case len(ids) == 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case ids[0] == id || len(ids) == 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("artifact id prefix %q is ambiguous", id)
}

// Get returns the artifact with the given id or unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		rec     Record
		typ     string
		source  sql.NullString
		created string
		payload string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, type, title, source, created_at, item_count, chunks_total, chunks_skipped, payload
		FROM artifacts WHERE id = ?`, full,
	).Scan(&rec.ID, &typ, &rec.Title, &source, &created, &rec.ItemCount, &rec.ChunksTotal, &rec.ChunksSkipped, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	rec.Type = types.ContentType(typ)
	rec.Source = source.String
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing created_at of artifact %s: %w", rec.ID, err)
	}
	rec.Artifact = &types.Artifact{}
	if err := json.Unmarshal([]byte(payload), rec.Artifact); err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Type restricts results to one content type.
	Type types.ContentType

	// Query is a full-text search over titles and item text.
	Query string

	// Limit caps the number of results. Zero uses a default of 50.
	Limit int
}

// List returns stored artifacts, newest first, without their payloads.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT a.id, a.type, a.title, a.source, a.created_at, a.item_count, a.chunks_total, a.chunks_skipped
		FROM artifacts a`)
	if opts.Query != "" {
		qb.WriteString(` JOIN artifacts_fts f ON f.docid = a.rowid WHERE artifacts_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(` WHERE 1=1`)
	}
	if opts.Type != "" {
		qb.WriteString(` AND a.type = ?`)
		args = append(args, string(opts.Type))
	}
	qb.WriteString(` ORDER BY a.created_at DESC, a.rowid DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			typ     string
			source  sql.NullString
			created string
		)
		if err := rows.Scan(&rec.ID, &typ, &rec.Title, &source, &created, &rec.ItemCount, &rec.ChunksTotal, &rec.ChunksSkipped); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.Type = types.ContentType(typ)
		rec.Source = source.String
		t, err := time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of artifact %s: %w", rec.ID, err)
		}
		rec.CreatedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the artifact with the given id or unique id prefix.
func (s *Store) Delete(ctx context.Context, id string) error {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM artifacts_fts WHERE docid = (SELECT rowid FROM artifacts WHERE id = ?)`, full,
	); err != nil {
		return fmt.Errorf("removing index entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, full); err != nil {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return tx.Commit()
}

// searchText flattens the artifact's visible text for the full-text index.
func searchText(art *types.Artifact) string {
	var parts []string
	switch {
	case art.Quiz != nil:
		for _, q := range art.Quiz.Questions {
			parts = append(parts, q.Question, q.CorrectAnswer, q.Explanation, q.Topic)
		}
	case art.Deck != nil:
		for _, c := range art.Deck.Cards {
			parts = append(parts, c.Front, c.Back, c.Topic)
		}
	case art.Summary != nil:
		parts = append(parts, art.Summary.Text)
	}
	return strings.Join(parts, "\n")
}
