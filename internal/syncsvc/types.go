// Package syncsvc orchestrates gno's sync pipeline (spec.md section
// 4.3): walking a collection, converting and chunking changed files,
// writing the results through the store port, extracting tags and
// links, and reconciling the active document set. It imports the
// walker, convert, chunk, identity, linkgraph, and store packages but
// exposes only SyncCollection/SyncAll so callers never need to know the
// wiring between them.
package syncsvc

import "github.com/gmickel/gno/internal/gnoerr"

// Options parameterizes a sync run.
type Options struct {
	// GitPull runs "git -C root pull" as a best-effort pre-flight step
	// when root is a Git working tree.
	GitPull bool
	// Concurrency bounds in-flight file processing, clamped to [1, 16].
	// 1 (the default) processes files one at a time; at every setting
	// each store write commits in its own transaction.
	Concurrency int
}

// CollectionResult is syncCollection's return value.
type CollectionResult struct {
	Collection           string
	FilesProcessed       int
	FilesAdded           int
	FilesUpdated         int
	FilesUnchanged       int
	FilesErrored         int
	FilesSkipped         int
	FilesMarkedInactive  int
	DurationMs           int64
	Errors               []FileError
	// ChangedDocIDs lists every document whose content changed during
	// this run (added/updated/repaired), for the caller to forward to
	// the embed scheduler's notifySyncComplete.
	ChangedDocIDs []string
}

// FileError records one file-level failure within a collection run.
type FileError struct {
	RelPath string
	Code    string
	Message string
}

// Result is syncAll's composed return value.
type Result struct {
	Collections []CollectionResult
	DurationMs  int64
}

// decision is the per-file outcome of the process/skip/repair logic
// (spec.md section 4.3, "Per-file decision").
type decision int

const (
	decisionSkip decision = iota
	decisionProcessNew
	decisionProcessChanged
	decisionRepair
	decisionBackfill
)

// fileOutcome is the per-file bookkeeping result, folded into a
// CollectionResult after a batch completes.
type fileOutcome struct {
	relPath    string
	decision   decision
	docID      string
	contentHit bool
	err        *gnoerr.Error
	errCode    string
}
