package store

import (
	"context"
	"database/sql"

	"github.com/gmickel/gno/internal/gnoerr"
)

// UpsertContent writes markdown under mirrorHash, write-once: an
// existing row is never overwritten (spec.md section 3, Content:
// "ON CONFLICT DO NOTHING — the first successful write wins").
func (s *Store) UpsertContent(ctx context.Context, mirrorHash, markdown string) *gnoerr.Error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO content (mirror_hash, markdown) VALUES (?, ?) ON CONFLICT(mirror_hash) DO NOTHING`,
			mirrorHash, markdown)
		return err
	})
}

// GetContent fetches the markdown for a mirrorHash, if present.
func (s *Store) GetContent(ctx context.Context, mirrorHash string) gnoerr.Result[string] {
	var markdown string
	err := s.db.QueryRowContext(ctx, `SELECT markdown FROM content WHERE mirror_hash = ?`, mirrorHash).Scan(&markdown)
	if err == sql.ErrNoRows {
		return gnoerr.Ok("")
	}
	if err != nil {
		return gnoerr.ErrResult[string](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(markdown)
}

// DeleteOrphanedContent removes content rows no longer referenced by
// any active document, and their dependent chunks/fts/vectors, as the
// explicit cleanup path named in spec.md section 3's lifecycle notes.
func (s *Store) DeleteOrphanedContent(ctx context.Context) gnoerr.Result[int] {
	var removed int
	gerr := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT mirror_hash FROM content
			WHERE mirror_hash NOT IN (
				SELECT mirror_hash FROM documents WHERE active = 1 AND mirror_hash IS NOT NULL
			)`)
		if err != nil {
			return err
		}
		var orphans []string
		for rows.Next() {
			var h string
			if err := rows.Scan(&h); err != nil {
				rows.Close()
				return err
			}
			orphans = append(orphans, h)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, h := range orphans {
			if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE mirror_hash = ?`, h); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM fts_chunks WHERE mirror_hash = ?`, h); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE mirror_hash = ?`, h); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM content WHERE mirror_hash = ?`, h); err != nil {
				return err
			}
		}
		removed = len(orphans)
		return nil
	})
	if gerr != nil {
		return gnoerr.ErrResult[int](gerr)
	}
	return gnoerr.Ok(removed)
}
