package store

import (
	"context"
	"database/sql"

	"github.com/gmickel/gno/internal/gnoerr"
)

// IngestError is one append-only log entry.
type IngestError struct {
	Collection  string
	RelPath     string
	Code        string
	Message     string
	DetailsJSON string
	At          int64
}

// RecordError appends one ingest error row. Never fails the caller's
// operation over a logging failure; callers that want that guarantee
// should ignore the returned error for this specific call.
func (s *Store) RecordError(ctx context.Context, e IngestError) *gnoerr.Error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingest_errors (collection, rel_path, code, message, details_json, at)
			VALUES (?,?,?,?,?,?)`,
			e.Collection, e.RelPath, e.Code, e.Message, nullIfEmpty(e.DetailsJSON), e.At)
		return err
	})
}

// GetRecentErrors returns the most recent ingest errors for a
// collection ("" for all collections), newest first.
func (s *Store) GetRecentErrors(ctx context.Context, collection string, limit int) gnoerr.Result[[]IngestError] {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT collection, rel_path, code, message, details_json, at FROM ingest_errors`
	args := []any{}
	if collection != "" {
		q += ` WHERE collection = ?`
		args = append(args, collection)
	}
	q += ` ORDER BY at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return gnoerr.ErrResult[[]IngestError](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []IngestError
	for rows.Next() {
		var e IngestError
		var details sql.NullString
		if err := rows.Scan(&e.Collection, &e.RelPath, &e.Code, &e.Message, &details, &e.At); err != nil {
			return gnoerr.ErrResult[[]IngestError](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		e.DetailsJSON = details.String
		out = append(out, e)
	}
	return gnoerr.Ok(out)
}
