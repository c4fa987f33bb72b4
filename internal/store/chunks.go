package store

import (
	"context"
	"database/sql"

	"github.com/gmickel/gno/internal/gnoerr"
)

// ChunkRow is one persisted chunk of a document's content.
type ChunkRow struct {
	Seq        int
	Pos        int
	Text       string
	StartLine  int
	EndLine    int
	Language   string
	TokenCount int
	CreatedAt  int64
}

// ReplaceChunks atomically replaces every chunk (and its FTS row) for
// mirrorHash, ordered ahead of vector writes: chunk upsert and FTS
// rebuild complete here, and vector writes happen separately, driven
// by the embed scheduler, after this call returns.
func (s *Store) ReplaceChunks(ctx context.Context, mirrorHash string, chunks []ChunkRow) *gnoerr.Error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE mirror_hash = ?`, mirrorHash); err != nil {
			return err
		}
		for _, c := range chunks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO chunks (mirror_hash, seq, pos, text, start_line, end_line, language, token_count, created_at)
				VALUES (?,?,?,?,?,?,?,?,?)`,
				mirrorHash, c.Seq, c.Pos, c.Text, c.StartLine, c.EndLine, nullIfEmpty(c.Language), c.TokenCount, c.CreatedAt); err != nil {
				return err
			}
		}
		return rebuildFtsForHashTx(ctx, tx, mirrorHash)
	})
}

// RebuildFtsForHash rebuilds the fts_chunks rows for mirrorHash from its
// current chunks table rows, the named port operation of spec.md
// section 6 ("rebuildFtsForHash"). ReplaceChunks already calls this
// internally as part of its own transaction; this entry point exists
// for callers that need to force a rebuild without also replacing
// chunks (e.g. repairing a tokenizer migration).
func (s *Store) RebuildFtsForHash(ctx context.Context, mirrorHash string) *gnoerr.Error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return rebuildFtsForHashTx(ctx, tx, mirrorHash)
	})
}

func rebuildFtsForHashTx(ctx context.Context, tx *sql.Tx, mirrorHash string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_chunks WHERE mirror_hash = ?`, mirrorHash); err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, `
		SELECT seq, text, language FROM chunks WHERE mirror_hash = ? ORDER BY seq`, mirrorHash)
	if err != nil {
		return err
	}
	defer rows.Close()

	type ftsSeed struct {
		seq      int
		text     string
		language sql.NullString
	}
	var seeds []ftsSeed
	for rows.Next() {
		var fs ftsSeed
		if err := rows.Scan(&fs.seq, &fs.text, &fs.language); err != nil {
			return err
		}
		seeds = append(seeds, fs)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fs := range seeds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fts_chunks (mirror_hash, seq, text, language) VALUES (?,?,?,?)`,
			mirrorHash, fs.seq, fs.text, fs.language); err != nil {
			return err
		}
	}
	return nil
}

// GetChunks returns every chunk for mirrorHash, ordered by seq.
func (s *Store) GetChunks(ctx context.Context, mirrorHash string) gnoerr.Result[[]ChunkRow] {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, pos, text, start_line, end_line, language, token_count, created_at
		FROM chunks WHERE mirror_hash = ? ORDER BY seq`, mirrorHash)
	if err != nil {
		return gnoerr.ErrResult[[]ChunkRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var c ChunkRow
		var language sql.NullString
		var tokenCount sql.NullInt64
		if err := rows.Scan(&c.Seq, &c.Pos, &c.Text, &c.StartLine, &c.EndLine, &language, &tokenCount, &c.CreatedAt); err != nil {
			return gnoerr.ErrResult[[]ChunkRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		c.Language = language.String
		c.TokenCount = int(tokenCount.Int64)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return gnoerr.ErrResult[[]ChunkRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(out)
}
