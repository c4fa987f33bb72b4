package store

import (
	"context"
	"strings"

	"github.com/gmickel/gno/internal/gnoerr"
)

// FtsResult is one lexical search hit, scored by SQLite FTS5's bm25().
type FtsResult struct {
	MirrorHash string
	Seq        int
	Text       string
	Language   string
	Score      float64 // higher is more relevant
	Snippet    string  // set only when FtsSearchParams.Snippet is true
}

// FtsSearchParams carries searchFts's optional filters (spec.md section
// 6: "searchFts(query, {collection?, limit?, snippet?, tagsAll?,
// tagsAny?, lang?})").
type FtsSearchParams struct {
	Collection string
	Limit      int
	Snippet    bool
	TagsAll    []string // document must carry every tag
	TagsAny    []string // document must carry at least one tag
	Lang       string
}

// SearchFts runs a BM25-style full-text query across chunk text,
// honoring an optional collection restriction, tag filters, and a
// language filter, all joined through documents/tags.
func (s *Store) SearchFts(ctx context.Context, query string, params FtsSearchParams) gnoerr.Result[[]FtsResult] {
	if strings.TrimSpace(query) == "" {
		return gnoerr.Ok[[]FtsResult](nil)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	snippetExpr := "''"
	if params.Snippet {
		snippetExpr = "snippet(fts_chunks, 2, '<b>', '</b>', '...', 8)"
	}

	sqlQuery := `
		SELECT f.mirror_hash, f.seq, f.text, f.language, bm25(fts_chunks) AS score, ` + snippetExpr + `
		FROM fts_chunks f
		JOIN documents d ON d.mirror_hash = f.mirror_hash AND d.active = 1
		WHERE f.text MATCH ?`
	args := []any{query}
	if params.Collection != "" {
		sqlQuery += ` AND d.collection = ?`
		args = append(args, params.Collection)
	}
	if params.Lang != "" {
		sqlQuery += ` AND f.language = ?`
		args = append(args, params.Lang)
	}
	if len(params.TagsAll) > 0 {
		sqlQuery += ` AND d.id IN (
			SELECT document_id FROM tags WHERE tag IN (` + queryPlaceholders(len(params.TagsAll)) + `)
			GROUP BY document_id HAVING COUNT(DISTINCT tag) = ?)`
		for _, t := range params.TagsAll {
			args = append(args, NormalizeTag(t))
		}
		args = append(args, len(params.TagsAll))
	}
	if len(params.TagsAny) > 0 {
		sqlQuery += ` AND d.id IN (
			SELECT DISTINCT document_id FROM tags WHERE tag IN (` + queryPlaceholders(len(params.TagsAny)) + `))`
		for _, t := range params.TagsAny {
			args = append(args, NormalizeTag(t))
		}
	}
	sqlQuery += ` ORDER BY score LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return gnoerr.Ok[[]FtsResult](nil)
		}
		return gnoerr.ErrResult[[]FtsResult](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []FtsResult
	for rows.Next() {
		var r FtsResult
		if err := rows.Scan(&r.MirrorHash, &r.Seq, &r.Text, &r.Language, &r.Score, &r.Snippet); err != nil {
			return gnoerr.ErrResult[[]FtsResult](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		// bm25() returns negative values where lower is better; negate so
		// higher is better, consistent with vector cosine scores.
		r.Score = -r.Score
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return gnoerr.ErrResult[[]FtsResult](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(out)
}
