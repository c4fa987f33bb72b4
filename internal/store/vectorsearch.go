package store

import (
	"context"

	"github.com/gmickel/gno/internal/gnoerr"
)

// RebuildVecIndex discards the in-memory index for model (if any) and
// rebuilds it from every durable vector row:
// "rebuildVecIndex reloads the in-memory graph from the vectors table
// on startup or after a detected mismatch."
func (s *Store) RebuildVecIndex(ctx context.Context, model string) *gnoerr.Error {
	rowsResult := s.ListVectors(ctx, model)
	if rowsResult.Err != nil {
		return rowsResult.Err
	}

	idx := NewVectorIndex()
	for _, r := range rowsResult.Value {
		idx.Upsert(r.MirrorHash, r.Seq, r.Embedding)
	}

	s.vecMu.Lock()
	s.vecIndexes[model] = idx
	s.vecMu.Unlock()
	return nil
}

// vecIndexFor returns the cached index for model, building it from the
// store on first use.
func (s *Store) vecIndexFor(ctx context.Context, model string) (*VectorIndex, *gnoerr.Error) {
	s.vecMu.Lock()
	idx, ok := s.vecIndexes[model]
	s.vecMu.Unlock()
	if ok {
		return idx, nil
	}
	if err := s.RebuildVecIndex(ctx, model); err != nil {
		return nil, err
	}
	s.vecMu.Lock()
	idx = s.vecIndexes[model]
	s.vecMu.Unlock()
	return idx, nil
}

// SyncVecIndex applies a batch of freshly written vectors to the
// in-memory index for model without a full rebuild, per spec.md
// section 4.6: "syncVecIndex applies incremental writes to the live
// graph so search results stay current between rebuilds." UpsertVectors
// calls this itself once its transaction commits.
func (s *Store) SyncVecIndex(ctx context.Context, model string, rows []VectorRow) *gnoerr.Error {
	idx, err := s.vecIndexFor(ctx, model)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Model != model {
			continue
		}
		idx.Upsert(r.MirrorHash, r.Seq, r.Embedding)
	}
	return nil
}

// DropFromVecIndex removes mirrorHash's entries from model's live
// index, used after DeleteVectorsForMirror.
func (s *Store) DropFromVecIndex(ctx context.Context, model string, mirrorHash string, seqs []int) *gnoerr.Error {
	idx, err := s.vecIndexFor(ctx, model)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		idx.Delete(mirrorHash, seq)
	}
	return nil
}

// SearchNearest runs a k-nearest-neighbor search against model's live
// index, building it from durable storage on first use.
func (s *Store) SearchNearest(ctx context.Context, model string, query []float32, k int) gnoerr.Result[[]VectorMatch] {
	idx, err := s.vecIndexFor(ctx, model)
	if err != nil {
		return gnoerr.ErrResult[[]VectorMatch](err)
	}
	return gnoerr.Ok(idx.Search(query, k))
}
