package store

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/gmickel/gno/internal/gnoerr"
)

// TagSource identifies where a tag was extracted from (spec.md section
// 3, Tag: "source ∈ {frontmatter, body, user}").
type TagSource string

const (
	TagSourceFrontmatter TagSource = "frontmatter"
	TagSourceBody        TagSource = "body"
	TagSourceUser        TagSource = "user"
)

// Tag is one (documentId, tag) row.
type Tag struct {
	Tag    string
	Source TagSource
}

// NormalizeTag lowercases and NFC-normalizes a raw tag string.
func NormalizeTag(raw string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(raw)))
}

// ValidTagGrammar reports whether a normalized tag matches the
// restricted grammar of spec.md section 3: Unicode letters/digits plus
// '.', '-', '/'; no leading/trailing/double slash; no spaces.
func ValidTagGrammar(tag string) bool {
	if tag == "" {
		return false
	}
	if strings.HasPrefix(tag, "/") || strings.HasSuffix(tag, "/") || strings.Contains(tag, "//") {
		return false
	}
	for _, r := range tag {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '.', r == '-', r == '/':
		default:
			return false
		}
	}
	return true
}

// SetDocTags replaces all tags for documentID that came from non-user
// sources with the supplied set, preserving any user-added tags
//( "Primary key (documentId, tag) so the same tag from
// multiple sources collapses" — a tag re-asserted by frontmatter/body
// keeps its row; a tag only ever added by a user is left alone).
// documentID is the document's internal store id (Document.ID), not its
// content-derived docid handle, since only the internal id is
// guaranteed unique per document row.
func (s *Store) SetDocTags(ctx context.Context, documentID int64, tags []Tag) *gnoerr.Error {
	valid := make([]Tag, 0, len(tags))
	for _, t := range tags {
		normalized := NormalizeTag(t.Tag)
		if !ValidTagGrammar(normalized) {
			continue
		}
		valid = append(valid, Tag{Tag: normalized, Source: t.Source})
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tags WHERE document_id = ? AND source != ?`, documentID, string(TagSourceUser)); err != nil {
			return err
		}
		for _, t := range valid {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tags (document_id, tag, source) VALUES (?, ?, ?)
				ON CONFLICT(document_id, tag) DO UPDATE SET source = excluded.source
				WHERE tags.source != ?`,
				documentID, t.Tag, string(t.Source), string(TagSourceUser)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTagsForDoc returns every tag row for a document, keyed by its
// internal store id (Document.ID).
func (s *Store) GetTagsForDoc(ctx context.Context, documentID int64) gnoerr.Result[[]Tag] {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, source FROM tags WHERE document_id = ? ORDER BY tag`, documentID)
	if err != nil {
		return gnoerr.ErrResult[[]Tag](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		var src string
		if err := rows.Scan(&t.Tag, &src); err != nil {
			return gnoerr.ErrResult[[]Tag](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		t.Source = TagSource(src)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return gnoerr.ErrResult[[]Tag](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(out)
}

// DocsByTag returns the internal store ids of documents carrying the
// given normalized tag.
func (s *Store) DocsByTag(ctx context.Context, tag string) gnoerr.Result[[]int64] {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT document_id FROM tags WHERE tag = ? ORDER BY document_id`, NormalizeTag(tag))
	if err != nil {
		return gnoerr.ErrResult[[]int64](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return gnoerr.ErrResult[[]int64](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		out = append(out, id)
	}
	return gnoerr.Ok(out)
}
