package store

import (
	"context"
	"database/sql"

	"github.com/gmickel/gno/internal/gnoerr"
)

// Document is one tracked file within a collection.
type Document struct {
	ID               int64  // internal primary key, stable for the row's lifetime
	DocID            string // content-derived handle, "#"+first8(sourceHash); not unique
	Collection       string
	RelPath          string
	SourceHash       string
	SourceMime       string
	SourceExt        string
	SourceSize       int64
	SourceMtime      int64
	Title            string
	MirrorHash       string // "" means null: conversion has never succeeded
	ConverterID      string
	ConverterVersion string
	LanguageHint     string
	Active           bool
	LastErrorCode    string
	LastErrorMessage string
	IngestVersion    int
}

// DocRef is the pair spec.md section 6's "upsertDocument → {id, docid}"
// names: id is the internal primary key (the real, unique document
// identity); docid is the content-derived handle, which two documents
// with identical source bytes legitimately share.
type DocRef struct {
	ID    int64
	DocID string
}

// UpsertDocument inserts or updates the row keyed by (collection, relPath).
// Every column is written from d: an empty MirrorHash stores NULL
// (conversion failure path), and LastError* are stored as given, so a
// caller clears them by passing them empty (conversion success path),
// matching the sync service's contract in section 4.3.
func (s *Store) UpsertDocument(ctx context.Context, d Document) gnoerr.Result[DocRef] {
	var ref DocRef
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existingID int64
		scanErr := tx.QueryRowContext(ctx,
			`SELECT id FROM documents WHERE collection = ? AND rel_path = ?`,
			d.Collection, d.RelPath).Scan(&existingID)
		switch scanErr {
		case sql.ErrNoRows:
			res, err := tx.ExecContext(ctx, `
				INSERT INTO documents (
					docid, collection, rel_path, source_hash, source_mime, source_ext,
					source_size, source_mtime, title, mirror_hash, converter_id,
					converter_version, language_hint, active, last_error_code,
					last_error_message, ingest_version
				) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
				d.DocID, d.Collection, d.RelPath, d.SourceHash, nullIfEmpty(d.SourceMime), nullIfEmpty(d.SourceExt),
				d.SourceSize, d.SourceMtime, nullIfEmpty(d.Title), nullIfEmpty(d.MirrorHash), nullIfEmpty(d.ConverterID),
				nullIfEmpty(d.ConverterVersion), nullIfEmpty(d.LanguageHint), boolToInt(d.Active), nullIfEmpty(d.LastErrorCode),
				nullIfEmpty(d.LastErrorMessage), d.IngestVersion)
			if err != nil {
				return err
			}
			newID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ref = DocRef{ID: newID, DocID: d.DocID}
			return nil
		case nil:
			_, err := tx.ExecContext(ctx, `
				UPDATE documents SET
					docid = ?, source_hash = ?, source_mime = ?, source_ext = ?, source_size = ?,
					source_mtime = ?, title = ?, mirror_hash = ?, converter_id = ?,
					converter_version = ?, language_hint = ?, active = ?,
					last_error_code = ?, last_error_message = ?, ingest_version = ?
				WHERE id = ?`,
				d.DocID, d.SourceHash, nullIfEmpty(d.SourceMime), nullIfEmpty(d.SourceExt), d.SourceSize,
				d.SourceMtime, nullIfEmpty(d.Title), nullIfEmpty(d.MirrorHash), nullIfEmpty(d.ConverterID),
				nullIfEmpty(d.ConverterVersion), nullIfEmpty(d.LanguageHint), boolToInt(d.Active),
				nullIfEmpty(d.LastErrorCode), nullIfEmpty(d.LastErrorMessage), d.IngestVersion, existingID)
			if err != nil {
				return err
			}
			ref = DocRef{ID: existingID, DocID: d.DocID}
			return nil
		default:
			return scanErr
		}
	})
	if err != nil {
		return gnoerr.ErrResult[DocRef](err)
	}
	return gnoerr.Ok(ref)
}

// GetDocumentByPath fetches a document by its (collection, relPath) key.
func (s *Store) GetDocumentByPath(ctx context.Context, collection, relPath string) gnoerr.Result[*Document] {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, docid, collection, rel_path, source_hash, source_mime, source_ext,
			source_size, source_mtime, title, mirror_hash, converter_id,
			converter_version, language_hint, active, last_error_code,
			last_error_message, ingest_version
		FROM documents WHERE collection = ? AND rel_path = ?`, collection, relPath)
	d, scanErr := scanDocument(row)
	if scanErr == sql.ErrNoRows {
		return gnoerr.Ok[*Document](nil)
	}
	if scanErr != nil {
		return gnoerr.ErrResult[*Document](gnoerr.Wrap(gnoerr.CodeStoreError, scanErr))
	}
	return gnoerr.Ok(d)
}

// GetDocumentByDocid looks up a document by its content-derived docid
// handle. Because docid is not unique — two documents with identical
// source bytes (e.g. duplicate or templated files) share one — ties are
// broken deterministically by smallest internal id, the oldest matching
// row.
func (s *Store) GetDocumentByDocid(ctx context.Context, docid string) gnoerr.Result[*Document] {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, docid, collection, rel_path, source_hash, source_mime, source_ext,
			source_size, source_mtime, title, mirror_hash, converter_id,
			converter_version, language_hint, active, last_error_code,
			last_error_message, ingest_version
		FROM documents WHERE docid = ? ORDER BY id ASC LIMIT 1`, docid)
	d, scanErr := scanDocument(row)
	if scanErr == sql.ErrNoRows {
		return gnoerr.Ok[*Document](nil)
	}
	if scanErr != nil {
		return gnoerr.ErrResult[*Document](gnoerr.Wrap(gnoerr.CodeStoreError, scanErr))
	}
	return gnoerr.Ok(d)
}

// ListDocumentsByCollection returns every document row (active or not)
// for a collection, used by reconciliation.
func (s *Store) ListDocumentsByCollection(ctx context.Context, collection string) gnoerr.Result[[]Document] {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, docid, collection, rel_path, source_hash, source_mime, source_ext,
			source_size, source_mtime, title, mirror_hash, converter_id,
			converter_version, language_hint, active, last_error_code,
			last_error_message, ingest_version
		FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return gnoerr.ErrResult[[]Document](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, scanErr := scanDocument(rows)
		if scanErr != nil {
			return gnoerr.ErrResult[[]Document](gnoerr.Wrap(gnoerr.CodeStoreError, scanErr))
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return gnoerr.ErrResult[[]Document](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(out)
}

// MarkInactive sets active=false for every document in collection whose
// relPath is not in seenPaths, returning the count affected.
func (s *Store) MarkInactive(ctx context.Context, collection string, seenPaths map[string]struct{}) gnoerr.Result[int] {
	listed := s.ListDocumentsByCollection(ctx, collection)
	if listed.Err != nil {
		return gnoerr.ErrResult[int](listed.Err)
	}

	var toMark []int64
	for _, d := range listed.Value {
		if !d.Active {
			continue
		}
		if _, ok := seenPaths[d.RelPath]; !ok {
			toMark = append(toMark, d.ID)
		}
	}
	if len(toMark) == 0 {
		return gnoerr.Ok(0)
	}

	gerr := s.withTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(toMark); start += MaxBatchParams {
			end := start + MaxBatchParams
			if end > len(toMark) {
				end = len(toMark)
			}
			batch := toMark[start:end]
			args := make([]any, len(batch))
			for i, id := range batch {
				args[i] = id
			}
			q := `UPDATE documents SET active = 0 WHERE id IN (` + queryPlaceholders(len(batch)) + `)`
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if gerr != nil {
		return gnoerr.ErrResult[int](gerr)
	}
	return gnoerr.Ok(len(toMark))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var sourceMime, sourceExt, title, mirrorHash, converterID, converterVersion, languageHint, lastErrorCode, lastErrorMessage sql.NullString
	var active int
	if err := row.Scan(
		&d.ID, &d.DocID, &d.Collection, &d.RelPath, &d.SourceHash, &sourceMime, &sourceExt,
		&d.SourceSize, &d.SourceMtime, &title, &mirrorHash, &converterID,
		&converterVersion, &languageHint, &active, &lastErrorCode,
		&lastErrorMessage, &d.IngestVersion,
	); err != nil {
		return nil, err
	}
	d.SourceMime = sourceMime.String
	d.SourceExt = sourceExt.String
	d.Title = title.String
	d.MirrorHash = mirrorHash.String
	d.ConverterID = converterID.String
	d.ConverterVersion = converterVersion.String
	d.LanguageHint = languageHint.String
	d.Active = active != 0
	d.LastErrorCode = lastErrorCode.String
	d.LastErrorMessage = lastErrorMessage.String
	return &d, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
