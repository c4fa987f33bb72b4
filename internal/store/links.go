package store

import (
	"context"
	"database/sql"

	"github.com/gmickel/gno/internal/gnoerr"
	"github.com/gmickel/gno/internal/linkgraph"
)

// LinkSource identifies whether a link row came from parsing or a user.
type LinkSource string

const (
	LinkSourceParsed LinkSource = "parsed"
	LinkSourceUser   LinkSource = "user"
)

// LinkRow is one persisted link, resolved or not.
type LinkRow struct {
	Ordinal          int
	Kind             linkgraph.Kind
	TargetRef        string
	TargetRefNorm    string
	TargetAnchor     string
	TargetCollection string
	LinkText         string
	StartLine        int
	StartCol         int
	EndLine          int
	EndCol           int
	Source           LinkSource
}

// SetDocLinks replaces every link row for (sourceDocumentID, source)
// with links: "Replaced per (sourceDocumentId, source)." sourceDocumentID
// is the document's internal store id (Document.ID), the only identity
// guaranteed unique per document row.
func (s *Store) SetDocLinks(ctx context.Context, sourceDocumentID int64, links []LinkRow, source LinkSource) *gnoerr.Error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM links WHERE source_document_id = ? AND source = ?`, sourceDocumentID, string(source)); err != nil {
			return err
		}
		for i, l := range links {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO links (
					source_document_id, ordinal, target_ref, target_ref_norm, target_anchor,
					target_collection, link_type, link_text, start_line, start_col, end_line,
					end_col, source
				) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
				sourceDocumentID, i, l.TargetRef, l.TargetRefNorm, nullIfEmpty(l.TargetAnchor),
				nullIfEmpty(l.TargetCollection), string(l.Kind), nullIfEmpty(l.LinkText),
				l.StartLine, l.StartCol, l.EndLine, l.EndCol, string(source)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetLinksForDoc returns every link row originating from sourceDocumentID.
func (s *Store) GetLinksForDoc(ctx context.Context, sourceDocumentID int64) gnoerr.Result[[]LinkRow] {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, link_type, target_ref, target_ref_norm, target_anchor,
			target_collection, link_text, start_line, start_col, end_line, end_col, source
		FROM links WHERE source_document_id = ? ORDER BY ordinal`, sourceDocumentID)
	if err != nil {
		return gnoerr.ErrResult[[]LinkRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		l, scanErr := scanLinkRow(rows)
		if scanErr != nil {
			return gnoerr.ErrResult[[]LinkRow](gnoerr.Wrap(gnoerr.CodeStoreError, scanErr))
		}
		out = append(out, l)
	}
	return gnoerr.Ok(out)
}

// GetBacklinksForDoc performs the symmetric search: every parsed link
// from an active source document whose targetRefNorm is one of
// targetRefNorms (targetCollection is not compared), optionally
// restricted to sourceCollection.
func (s *Store) GetBacklinksForDoc(ctx context.Context, targetRefNorms []string, sourceCollection string) gnoerr.Result[[]LinkRow] {
	if len(targetRefNorms) == 0 {
		return gnoerr.Ok[[]LinkRow](nil)
	}

	var out []LinkRow
	for start := 0; start < len(targetRefNorms); start += MaxBatchParams {
		end := start + MaxBatchParams
		if end > len(targetRefNorms) {
			end = len(targetRefNorms)
		}
		batch := targetRefNorms[start:end]

		q := `
			SELECT l.ordinal, l.link_type, l.target_ref, l.target_ref_norm, l.target_anchor,
				l.target_collection, l.link_text, l.start_line, l.start_col, l.end_line, l.end_col, l.source
			FROM links l
			JOIN documents d ON d.id = l.source_document_id
			WHERE l.source = 'parsed' AND d.active = 1
				AND l.target_ref_norm IN (` + queryPlaceholders(len(batch)) + `)`
		args := make([]any, 0, len(batch)+1)
		for _, t := range batch {
			args = append(args, t)
		}
		if sourceCollection != "" {
			q += ` AND d.collection = ?`
			args = append(args, sourceCollection)
		}

		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return gnoerr.ErrResult[[]LinkRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		for rows.Next() {
			l, scanErr := scanLinkRow(rows)
			if scanErr != nil {
				rows.Close()
				return gnoerr.ErrResult[[]LinkRow](gnoerr.Wrap(gnoerr.CodeStoreError, scanErr))
			}
			out = append(out, l)
		}
		rowsErr := rows.Err()
		rows.Close()
		if rowsErr != nil {
			return gnoerr.ErrResult[[]LinkRow](gnoerr.Wrap(gnoerr.CodeStoreError, rowsErr))
		}
	}
	return gnoerr.Ok(out)
}

func scanLinkRow(row rowScanner) (LinkRow, error) {
	var l LinkRow
	var kind, src string
	var anchor, collection, text sql.NullString
	if err := row.Scan(&l.Ordinal, &kind, &l.TargetRef, &l.TargetRefNorm, &anchor,
		&collection, &text, &l.StartLine, &l.StartCol, &l.EndLine, &l.EndCol, &src); err != nil {
		return LinkRow{}, err
	}
	l.Kind = linkgraph.Kind(kind)
	l.TargetAnchor = anchor.String
	l.TargetCollection = collection.String
	l.LinkText = text.String
	l.Source = LinkSource(src)
	return l, nil
}
