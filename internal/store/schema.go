package store

// schemaDDL creates every table and index the store needs. It is
// idempotent (IF NOT EXISTS throughout) so Open can run it on every
// startup without a separate migration runner.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

CREATE TABLE IF NOT EXISTS documents (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	docid             TEXT NOT NULL,
	collection        TEXT NOT NULL,
	rel_path          TEXT NOT NULL,
	source_hash       TEXT NOT NULL,
	source_mime       TEXT,
	source_ext        TEXT,
	source_size       INTEGER NOT NULL,
	source_mtime      INTEGER NOT NULL,
	title             TEXT,
	mirror_hash       TEXT,
	converter_id      TEXT,
	converter_version TEXT,
	language_hint     TEXT,
	active            INTEGER NOT NULL DEFAULT 1,
	last_error_code    TEXT,
	last_error_message TEXT,
	ingest_version    INTEGER NOT NULL DEFAULT 0,
	UNIQUE (collection, rel_path)
);
CREATE INDEX IF NOT EXISTS idx_documents_docid ON documents(docid);
CREATE INDEX IF NOT EXISTS idx_documents_mirror_hash ON documents(mirror_hash);
CREATE INDEX IF NOT EXISTS idx_documents_collection_active ON documents(collection, active);

CREATE TABLE IF NOT EXISTS content (
	mirror_hash TEXT PRIMARY KEY,
	markdown    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	mirror_hash TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	pos         INTEGER NOT NULL,
	text        TEXT NOT NULL,
	start_line  INTEGER NOT NULL,
	end_line    INTEGER NOT NULL,
	language    TEXT,
	token_count INTEGER,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (mirror_hash, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
	mirror_hash UNINDEXED,
	seq UNINDEXED,
	text,
	language UNINDEXED,
	tokenize = 'unicode61'
);

CREATE TABLE IF NOT EXISTS vectors (
	mirror_hash TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	model       TEXT NOT NULL,
	embedding   BLOB NOT NULL,
	embedded_at INTEGER NOT NULL,
	PRIMARY KEY (mirror_hash, seq, model)
);
CREATE INDEX IF NOT EXISTS idx_vectors_model ON vectors(model);

CREATE TABLE IF NOT EXISTS tags (
	document_id INTEGER NOT NULL,
	tag         TEXT NOT NULL,
	source      TEXT NOT NULL,
	PRIMARY KEY (document_id, tag)
);
CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);

CREATE TABLE IF NOT EXISTS links (
	source_document_id INTEGER NOT NULL,
	ordinal            INTEGER NOT NULL,
	target_ref         TEXT NOT NULL,
	target_ref_norm    TEXT NOT NULL,
	target_anchor      TEXT,
	target_collection  TEXT,
	link_type          TEXT NOT NULL,
	link_text          TEXT,
	start_line         INTEGER NOT NULL,
	start_col          INTEGER NOT NULL,
	end_line           INTEGER NOT NULL,
	end_col            INTEGER NOT NULL,
	source             TEXT NOT NULL,
	PRIMARY KEY (source_document_id, ordinal, source)
);
CREATE INDEX IF NOT EXISTS idx_links_target_ref_norm ON links(target_ref_norm, target_collection);

CREATE TABLE IF NOT EXISTS ingest_errors (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	collection  TEXT NOT NULL,
	rel_path    TEXT NOT NULL,
	code        TEXT NOT NULL,
	message     TEXT NOT NULL,
	details_json TEXT,
	at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingest_errors_collection ON ingest_errors(collection, at);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// CurrentIngestVersion gates the "backfill" per-file decision in the
// sync service: documents whose ingest_version
// is older than this are reprocessed on the next sync even when their
// source bytes are unchanged.
const CurrentIngestVersion = 1
