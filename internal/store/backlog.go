package store

import (
	"context"
	"database/sql"

	"github.com/gmickel/gno/internal/gnoerr"
)

// BacklogEntry is one chunk awaiting (re)embedding for a model.
type BacklogEntry struct {
	MirrorHash string
	Seq        int
	Text       string
	Language   string
	CreatedAt  int64
}

// BacklogCursor paginates GetBacklog by (mirrorHash, seq), the same
// composite key chunks are primary-keyed on.
type BacklogCursor struct {
	MirrorHash string
	Seq        int
}

// CountBacklog reports how many chunks of active documents still need
// a vector for model stale-vector definition: a chunk is
// backlogged when (a) it belongs to an active document and (b) no
// (mirrorHash, seq, model) vector exists, or the existing vector's
// embedded_at precedes the chunk's created_at.
func (s *Store) CountBacklog(ctx context.Context, model string) gnoerr.Result[int] {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM chunks c
		LEFT JOIN vectors v ON v.mirror_hash = c.mirror_hash AND v.seq = c.seq AND v.model = ?
		WHERE EXISTS (SELECT 1 FROM documents d WHERE d.mirror_hash = c.mirror_hash AND d.active = 1)
			AND (v.mirror_hash IS NULL OR v.embedded_at < c.created_at)`, model).Scan(&n)
	if err != nil {
		return gnoerr.ErrResult[int](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(n)
}

// GetBacklog returns up to limit backlogged chunks for model, ordered
// by (mirror_hash, seq) and resuming strictly after cursor when
// cursor.MirrorHash is non-empty. The embed scheduler drains this in
// fixed-size batches (spec.md section 4.5, "pass body").
func (s *Store) GetBacklog(ctx context.Context, model string, cursor BacklogCursor, limit int) gnoerr.Result[[]BacklogEntry] {
	if limit <= 0 {
		limit = 32
	}
	q := `
		SELECT c.mirror_hash, c.seq, c.text, c.language, c.created_at
		FROM chunks c
		LEFT JOIN vectors v ON v.mirror_hash = c.mirror_hash AND v.seq = c.seq AND v.model = ?
		WHERE EXISTS (SELECT 1 FROM documents d WHERE d.mirror_hash = c.mirror_hash AND d.active = 1)
			AND (v.mirror_hash IS NULL OR v.embedded_at < c.created_at)`
	args := []any{model}
	if cursor.MirrorHash != "" {
		q += ` AND (c.mirror_hash > ? OR (c.mirror_hash = ? AND c.seq > ?))`
		args = append(args, cursor.MirrorHash, cursor.MirrorHash, cursor.Seq)
	}
	q += ` ORDER BY c.mirror_hash, c.seq LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return gnoerr.ErrResult[[]BacklogEntry](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []BacklogEntry
	for rows.Next() {
		var e BacklogEntry
		var language sql.NullString
		if err := rows.Scan(&e.MirrorHash, &e.Seq, &e.Text, &language, &e.CreatedAt); err != nil {
			return gnoerr.ErrResult[[]BacklogEntry](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		e.Language = language.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return gnoerr.ErrResult[[]BacklogEntry](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(out)
}
