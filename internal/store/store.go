// Package store is gno's single embedded relational store: documents,
// content, chunks, full-text rows, vectors, tags, links, and the
// ingest error log all live in one modernc.org/sqlite database. A
// separate in-memory HNSW index (vectorindex.go) is synced from the
// vectors table for nearest-neighbor search.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/gmickel/gno/internal/gnoerr"
)

// Store wraps a *sql.DB configured for single-writer WAL access. All
// writes go through withTx so a transaction failure leaves prior
// committed batches intact.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool

	vecMu      sync.Mutex
	vecIndexes map[string]*VectorIndex
}

// Open creates or opens the SQLite database at path (":memory:" for an
// ephemeral store, used by tests) and applies the schema.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path, vecIndexes: make(map[string]*VectorIndex)}, nil
}

// Close releases the underlying database handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on nil error and
// rolling back otherwise. Every multi-statement write in this package
// goes through this helper so partial writes never persist.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) *gnoerr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gnoerr.New(gnoerr.CodeStoreError, "store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	if err := tx.Commit(); err != nil {
		return gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	return nil
}

// Status summarizes the store for diagnostic surfaces.
type Status struct {
	Path            string
	DocumentCount   int
	ActiveDocuments int
	ChunkCount      int
	VectorCount     int
	IngestErrors    int
}

// GetStatus reports row counts across the core tables.
func (s *Store) GetStatus(ctx context.Context) gnoerr.Result[Status] {
	var st Status
	st.Path = s.path
	queries := []struct {
		sql *int
		q   string
	}{
		{&st.DocumentCount, "SELECT COUNT(*) FROM documents"},
		{&st.ChunkCount, "SELECT COUNT(*) FROM chunks"},
		{&st.VectorCount, "SELECT COUNT(*) FROM vectors"},
		{&st.IngestErrors, "SELECT COUNT(*) FROM ingest_errors"},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.q).Scan(q.sql); err != nil {
			return gnoerr.ErrResult[Status](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE active = 1").Scan(&st.ActiveDocuments); err != nil {
		return gnoerr.ErrResult[Status](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(st)
}

// queryPlaceholders returns "?,?,...,?" for n placeholders, used when
// building dynamic IN (...) clauses that must honor the store's
// query-parameter limit.
func queryPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

// MaxBatchParams bounds the number of placeholders in a single IN
// clause, matching SQLite's default SQLITE_MAX_VARIABLE_NUMBER-derived
// safety margin used throughout this package's batch operations.
const MaxBatchParams = 900
