/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: store.go
Description: SQLite persistence for datprobe. Caches analysis results keyed by the
sha256 of the dat file and keeps declared schemas per table name. Timestamps are
stored as RFC3339Nano text, column statistics and headers as JSON documents.
*/

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kleascm/datprobe/pkg/analysis"
	"github.com/kleascm/datprobe/pkg/schema"
)

var ErrNotFound = errors.New("not found")

const createSQL = `
CREATE TABLE IF NOT EXISTS dat_analyses (
	sha256      TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	size        INTEGER NOT NULL,
	width       INTEGER NOT NULL,
	row_count   INTEGER NOT NULL,
	row_length  INTEGER NOT NULL,
	run_id      TEXT NOT NULL,
	analyzed_at TEXT NOT NULL,
	columns     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dat_schemas (
	name       TEXT PRIMARY KEY,
	headers    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// Analysis is a cached scan result for one dat file.
type Analysis struct {
	SHA256     string                 `json:"sha256" yaml:"sha256"`
	Name       string                 `json:"name" yaml:"name"`
	Size       int                    `json:"size" yaml:"size"`
	Width      analysis.PointerWidth  `json:"width" yaml:"width"`
	RowCount   int                    `json:"row_count" yaml:"row_count"`
	RowLength  int                    `json:"row_length" yaml:"row_length"`
	RunID      string                 `json:"run_id" yaml:"run_id"`
	AnalyzedAt time.Time              `json:"analyzed_at" yaml:"analyzed_at"`
	Columns    []analysis.ColumnStats `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Store is a handle on the datprobe database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the tables exist.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// PutAnalysis inserts or replaces the cached result for a.SHA256.
func (s *Store) PutAnalysis(ctx context.Context, a Analysis) error {
	cols, err := json.Marshal(a.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO dat_analyses
		(sha256, name, size, width, row_count, row_length, run_id, analyzed_at, columns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SHA256, a.Name, a.Size, int(a.Width), a.RowCount, a.RowLength, a.RunID,
		a.AnalyzedAt.UTC().Format(time.RFC3339Nano), string(cols))
	if err != nil {
		return fmt.Errorf("store analysis %s: %w", a.Name, err)
	}
	return nil
}

// FindAnalysis returns the cached result for a file hash, including columns.
func (s *Store) FindAnalysis(ctx context.Context, sha256 string) (*Analysis, error) {
	row := s.db.QueryRowContext(ctx, `SELECT sha256, name, size, width, row_count, row_length,
		run_id, analyzed_at, columns FROM dat_analyses WHERE sha256 = ?`, sha256)

	var a Analysis
	var width int
	var at, cols string
	err := row.Scan(&a.SHA256, &a.Name, &a.Size, &width, &a.RowCount, &a.RowLength, &a.RunID, &at, &cols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", sha256, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	a.Width = analysis.PointerWidth(width)
	if a.AnalyzedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return nil, fmt.Errorf("analysis %s: bad timestamp: %w", sha256, err)
	}
	if err := json.Unmarshal([]byte(cols), &a.Columns); err != nil {
		return nil, fmt.Errorf("analysis %s: decode columns: %w", sha256, err)
	}
	return &a, nil
}

// ListAnalyses returns every cached result without column data, newest first.
func (s *Store) ListAnalyses(ctx context.Context) ([]Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sha256, name, size, width, row_count, row_length,
		run_id, analyzed_at FROM dat_analyses ORDER BY analyzed_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var width int
		var at string
		if err := rows.Scan(&a.SHA256, &a.Name, &a.Size, &width, &a.RowCount, &a.RowLength, &a.RunID, &at); err != nil {
			return nil, err
		}
		a.Width = analysis.PointerWidth(width)
		if a.AnalyzedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("analysis %s: bad timestamp: %w", a.SHA256, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes the cached result for a file hash.
func (s *Store) DeleteAnalysis(ctx context.Context, sha256 string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dat_analyses WHERE sha256 = ?`, sha256)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("analysis %s: %w", sha256, ErrNotFound)
	}
	return nil
}

// PutSchema stores the headers of sc under its table name, replacing any
// previous version.
func (s *Store) PutSchema(ctx context.Context, sc schema.Schema) error {
	if sc.Name == "" {
		return errors.New("schema has no table name")
	}
	headers, err := json.Marshal(sc.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO dat_schemas (name, headers, updated_at)
		VALUES (?, ?, ?)`, sc.Name, string(headers), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store schema %s: %w", sc.Name, err)
	}
	return nil
}

// FindSchema returns the schema stored for a table name.
func (s *Store) FindSchema(ctx context.Context, name string) (*schema.Schema, error) {
	var headers string
	err := s.db.QueryRowContext(ctx, `SELECT headers FROM dat_schemas WHERE name = ?`, name).Scan(&headers)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schema %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	sc := &schema.Schema{Name: name}
	if err := json.Unmarshal([]byte(headers), &sc.Headers); err != nil {
		return nil, fmt.Errorf("schema %s: decode headers: %w", name, err)
	}
	return sc, nil
}
