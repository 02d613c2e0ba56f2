package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"navfinder/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ExportLedger = (*SQLiteStore)(nil)

// SQLiteStore implements ExportLedger backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns
// a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id         TEXT PRIMARY KEY,
			code       TEXT NOT NULL,
			name       TEXT NOT NULL,
			start_date TEXT NOT NULL DEFAULT '',
			end_date   TEXT NOT NULL DEFAULT '',
			path       TEXT NOT NULL,
			bytes      INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordExport inserts e into the exports table.
func (s *SQLiteStore) RecordExport(ctx context.Context, e *domain.Export) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (id, code, name, start_date, end_date, path, bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Code, e.Name, e.Range.Start, e.Range.End, e.Path, e.Bytes, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording export %s: %w", e.ID, err)
	}
	return nil
}

// RecentExports returns the latest exports, newest first.
func (s *SQLiteStore) RecentExports(ctx context.Context, limit int) ([]domain.Export, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, start_date, end_date, path, bytes, created_at
		 FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	var out []domain.Export
	for rows.Next() {
		var (
			e       domain.Export
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Range.Start, &e.Range.End, &e.Path, &e.Bytes, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
