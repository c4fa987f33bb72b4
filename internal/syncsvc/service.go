package syncsvc

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gmickel/gno/internal/chunk"
	"github.com/gmickel/gno/internal/config"
	"github.com/gmickel/gno/internal/convert"
	"github.com/gmickel/gno/internal/gnoerr"
	"github.com/gmickel/gno/internal/identity"
	"github.com/gmickel/gno/internal/linkgraph"
	"github.com/gmickel/gno/internal/store"
	"github.com/gmickel/gno/internal/walker"
)

const batchSize = 50

// SyncAll composes SyncCollection over every collection (spec.md
// section 4.3: "syncAll(collections,…) composes").
func SyncAll(ctx context.Context, st *store.Store, registry *convert.Registry, collections []config.Collection, chunkParams *chunk.Params, opts Options) Result {
	start := time.Now()
	results := make([]CollectionResult, 0, len(collections))
	for _, col := range collections {
		results = append(results, SyncCollection(ctx, st, registry, col, chunkParams, opts))
	}
	return Result{Collections: results, DurationMs: time.Since(start).Milliseconds()}
}

// SyncCollection walks col, converts/chunks every new or changed file,
// and reconciles the active document set
func SyncCollection(ctx context.Context, st *store.Store, registry *convert.Registry, col config.Collection, chunkParams *chunk.Params, opts Options) CollectionResult {
	start := time.Now()
	result := CollectionResult{Collection: col.Name}

	runPreflight(ctx, col.Root, col.UpdateCmd, opts.GitPull)

	walked, err := walker.Walk(walker.Config{
		Root:         col.Root,
		GlobPattern:  col.GlobPattern,
		IncludeExts:  col.IncludeExts,
		ExcludeGlobs: col.ExcludeGlobs,
		MaxBytes:     col.MaxBytes,
	})
	if err != nil {
		result.Errors = append(result.Errors, FileError{Code: gnoerr.CodeInternal, Message: err.Error()})
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	seenPaths := make(map[string]struct{}, len(walked.Entries))
	for _, e := range walked.Entries {
		seenPaths[e.RelPath] = struct{}{}
	}
	for _, sk := range walked.Skipped {
		if sk.Reason == walker.ReasonTooLarge {
			seenPaths[sk.RelPath] = struct{}{}
			_ = st.RecordError(ctx, store.IngestError{
				Collection: col.Name, RelPath: sk.RelPath,
				Code: gnoerr.CodeTooLarge, Message: "file exceeds collection's max bytes",
				At: time.Now().UnixMilli(),
			})
			result.FilesErrored++
			result.Errors = append(result.Errors, FileError{RelPath: sk.RelPath, Code: gnoerr.CodeTooLarge, Message: "file exceeds collection's max bytes"})
		}
		// ReasonExcluded entries are deliberately left out of seenPaths
		//: a document dropped by config reconciles
		// to inactive below.
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 16 {
		concurrency = 16
	}

	outcomes := processEntries(ctx, st, registry, col, chunkParams, walked.Entries, concurrency)
	for _, o := range outcomes {
		result.FilesProcessed++
		switch o.decision {
		case decisionSkip:
			result.FilesUnchanged++
			continue
		}
		if o.err != nil {
			result.FilesErrored++
			result.Errors = append(result.Errors, FileError{RelPath: o.relPath, Code: o.errCode, Message: o.err.Message})
			continue
		}
		switch o.decision {
		case decisionProcessNew:
			result.FilesAdded++
		case decisionProcessChanged, decisionRepair, decisionBackfill:
			result.FilesUpdated++
		}
		if o.docID != "" {
			result.ChangedDocIDs = append(result.ChangedDocIDs, o.docID)
		}
	}

	inactiveRes := st.MarkInactive(ctx, col.Name, seenPaths)
	if inactiveRes.OK {
		result.FilesMarkedInactive = inactiveRes.Value
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// processEntries dispatches each entry to processEntry, sequentially
// under concurrency 1 (walked in groups of batchSize; each store write
// still commits in its own transaction, and the store serializes every
// write behind its own mutex — see DESIGN.md) or via a bounded
// semaphore for concurrency > 1.
func processEntries(ctx context.Context, st *store.Store, registry *convert.Registry, col config.Collection, chunkParams *chunk.Params, entries []walker.Entry, concurrency int) []fileOutcome {
	outcomes := make([]fileOutcome, len(entries))

	if concurrency == 1 {
		for start := 0; start < len(entries); start += batchSize {
			end := start + batchSize
			if end > len(entries) {
				end = len(entries)
			}
			for i := start; i < end; i++ {
				outcomes[i] = processEntry(ctx, st, registry, col, chunkParams, entries[i])
			}
		}
		return outcomes
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	done := make(chan struct{}, len(entries))
	for i := range entries {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = fileOutcome{relPath: entries[i].RelPath, err: gnoerr.Wrap(gnoerr.CodeInternal, err), errCode: gnoerr.CodeInternal}
			done <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			outcomes[i] = processEntry(ctx, st, registry, col, chunkParams, entries[i])
			done <- struct{}{}
		}()
	}
	for range entries {
		<-done
	}
	return outcomes
}

// processEntry applies the decision logic of spec.md section 4.3's
// "Per-file decision" and, when processing is required, runs the
// convert -> chunk -> store write sequence.
func processEntry(ctx context.Context, st *store.Store, registry *convert.Registry, col config.Collection, chunkParams *chunk.Params, e walker.Entry) fileOutcome {
	raw, readErr := os.ReadFile(e.AbsPath)
	if readErr != nil {
		return recordFailure(ctx, st, col.Name, e.RelPath, gnoerr.Wrap(gnoerr.CodeInternal, readErr))
	}
	sourceHash := identity.SourceHash(raw)

	existingRes := st.GetDocumentByPath(ctx, col.Name, e.RelPath)
	if !existingRes.OK {
		return recordFailure(ctx, st, col.Name, e.RelPath, existingRes.Err)
	}
	existing := existingRes.Value

	d := decide(existing, sourceHash)
	if d == decisionSkip {
		return fileOutcome{relPath: e.RelPath, decision: decisionSkip}
	}

	docID := identity.DocID(sourceHash)
	if existing != nil {
		docID = existing.DocID
	}

	mimeType := convert.DetectMime(e.AbsPath, raw)
	ext := filepath.Ext(e.RelPath)

	convResult, cerr := registry.Convert(convert.Input{
		SourcePath: e.AbsPath, RelativePath: e.RelPath, Collection: col.Name,
		Bytes: raw, Mime: mimeType, Ext: ext, MaxBytes: col.MaxBytes,
	})
	if cerr != nil {
		doc := store.Document{
			DocID: docID, Collection: col.Name, RelPath: e.RelPath, SourceHash: sourceHash,
			SourceMime: mimeType, SourceExt: ext, SourceSize: e.Size, SourceMtime: e.ModTime.UnixMilli(),
			Active: true, LastErrorCode: cerr.Code, LastErrorMessage: cerr.Message,
			IngestVersion: store.CurrentIngestVersion,
		}
		if docRes := st.UpsertDocument(ctx, doc); docRes.OK {
			docID = docRes.Value.DocID
		}
		_ = st.RecordError(ctx, store.IngestError{
			Collection: col.Name, RelPath: e.RelPath, Code: cerr.Code, Message: cerr.Message,
			At: time.Now().UnixMilli(),
		})
		return fileOutcome{relPath: e.RelPath, decision: d, err: cerr, errCode: cerr.Code}
	}

	mirrorHash := identity.SourceHash([]byte(convResult.Markdown))

	doc := store.Document{
		DocID: docID, Collection: col.Name, RelPath: e.RelPath, SourceHash: sourceHash,
		SourceMime: mimeType, SourceExt: ext, SourceSize: e.Size, SourceMtime: e.ModTime.UnixMilli(),
		Title: convResult.Title, MirrorHash: mirrorHash,
		ConverterID: convResult.ConverterID, ConverterVersion: convResult.ConverterVer,
		LanguageHint: convResult.LanguageHint, Active: true,
		IngestVersion: store.CurrentIngestVersion,
	}
	docRes := st.UpsertDocument(ctx, doc)
	if !docRes.OK {
		return recordFailure(ctx, st, col.Name, e.RelPath, docRes.Err)
	}
	docID = docRes.Value.DocID
	internalID := docRes.Value.ID
	doc.ID = internalID

	if gerr := st.UpsertContent(ctx, mirrorHash, convResult.Markdown); gerr != nil {
		return recordFailureOnDoc(ctx, st, doc, gerr)
	}

	now := time.Now().UnixMilli()
	chunks := chunk.Chunk(convResult.Markdown, chunkParams, col.LanguageHint)
	rows := make([]store.ChunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = store.ChunkRow{
			Seq: c.Seq, Pos: c.Pos, Text: c.Text, StartLine: c.StartLine, EndLine: c.EndLine,
			Language: c.Language, TokenCount: c.TokenCount, CreatedAt: now,
		}
	}
	if gerr := st.ReplaceChunks(ctx, mirrorHash, rows); gerr != nil {
		return recordFailureOnDoc(ctx, st, doc, gerr)
	}

	if gerr := st.SetDocTags(ctx, internalID, extractTags(convResult.Markdown)); gerr != nil {
		return recordFailureOnDoc(ctx, st, doc, gerr)
	}

	if gerr := extractAndSetLinks(ctx, st, col.Name, e.RelPath, internalID, convResult.Markdown); gerr != nil {
		return recordFailureOnDoc(ctx, st, doc, gerr)
	}

	return fileOutcome{relPath: e.RelPath, decision: d, docID: docID}
}

// decide implements spec.md section 4.3's per-file decision table.
func decide(existing *store.Document, sourceHash string) decision {
	if existing == nil {
		return decisionProcessNew
	}
	if existing.SourceHash != sourceHash {
		return decisionProcessChanged
	}
	if existing.MirrorHash == "" {
		return decisionRepair
	}
	if existing.LastErrorCode != "" {
		return decisionRepair
	}
	if existing.IngestVersion < store.CurrentIngestVersion {
		return decisionBackfill
	}
	return decisionSkip
}

// extractAndSetLinks parses outgoing links from markdown, resolves them
// against candidate documents, and replaces the document's parsed link
// rows.
func extractAndSetLinks(ctx context.Context, st *store.Store, collectionName, relPath string, sourceDocumentID int64, markdown string) *gnoerr.Error {
	excluded := linkgraph.ExcludedRanges(markdown)
	links := linkgraph.Parse(markdown, excluded)

	collections := map[string]struct{}{collectionName: {}}
	for _, l := range links {
		if l.TargetCollection != "" {
			collections[l.TargetCollection] = struct{}{}
		}
	}
	var candidates []linkgraph.DocCandidate
	for colName := range collections {
		docsRes := st.ListDocumentsByCollection(ctx, colName)
		if !docsRes.OK {
			continue
		}
		for _, d := range docsRes.Value {
			if !d.Active {
				continue
			}
			candidates = append(candidates, linkgraph.DocCandidate{
				DocID: d.DocID, Collection: d.Collection, RelPath: d.RelPath, Title: d.Title,
			})
		}
	}

	sourceRelDir := path.Dir(relPath)
	if sourceRelDir == "." {
		sourceRelDir = ""
	}
	resolved := linkgraph.Resolve(links, collectionName, sourceRelDir, candidates)

	rows := make([]store.LinkRow, len(resolved))
	for i, rl := range resolved {
		rows[i] = store.LinkRow{
			Ordinal: i, Kind: rl.Kind, TargetRef: rl.TargetRef, TargetRefNorm: rl.TargetRefNorm,
			TargetAnchor: rl.TargetAnchor, TargetCollection: rl.TargetCollection, LinkText: rl.DisplayText,
			StartLine: rl.StartLine, StartCol: rl.StartCol, EndLine: rl.StartLine, EndCol: rl.StartCol,
		}
	}
	return st.SetDocLinks(ctx, sourceDocumentID, rows, store.LinkSourceParsed)
}

// recordFailure handles a failure before any document row exists for
// this sync attempt: it just logs the ingest error.
func recordFailure(ctx context.Context, st *store.Store, collection, relPath string, gerr *gnoerr.Error) fileOutcome {
	_ = st.RecordError(ctx, store.IngestError{
		Collection: collection, RelPath: relPath, Code: gerr.Code, Message: gerr.Message,
		At: time.Now().UnixMilli(),
	})
	return fileOutcome{relPath: relPath, err: gerr, errCode: gerr.Code}
}

// recordFailureOnDoc handles a store failure after the document row was
// already upserted: it records the error and best-effort stamps the
// document's lastError* fields (spec.md section 4.3: "distinguishes
// store errors... records the error, and updates the document's
// lastError* best-effort").
func recordFailureOnDoc(ctx context.Context, st *store.Store, doc store.Document, gerr *gnoerr.Error) fileOutcome {
	_ = st.RecordError(ctx, store.IngestError{
		Collection: doc.Collection, RelPath: doc.RelPath, Code: gerr.Code, Message: gerr.Message,
		At: time.Now().UnixMilli(),
	})
	doc.LastErrorCode = gerr.Code
	doc.LastErrorMessage = gerr.Message
	_ = st.UpsertDocument(ctx, doc)
	return fileOutcome{relPath: doc.RelPath, docID: doc.DocID, err: gerr, errCode: gerr.Code}
}
