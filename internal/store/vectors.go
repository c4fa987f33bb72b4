package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/gmickel/gno/internal/gnoerr"
)

// VectorRow mirrors spec.md section 3's Vector row entity.
type VectorRow struct {
	MirrorHash string
	Seq        int
	Model      string
	Embedding  []float32
	EmbeddedAt int64
}

// UpsertVectors writes a batch of embeddings for one model, replacing
// any existing (mirrorHash, seq, model) row (spec.md section 3: "D is
// fixed per model. Multiple models may coexist").
func (s *Store) UpsertVectors(ctx context.Context, rows []VectorRow) *gnoerr.Error {
	if len(rows) == 0 {
		return nil
	}
	if txErr := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO vectors (mirror_hash, seq, model, embedding, embedded_at)
				VALUES (?,?,?,?,?)
				ON CONFLICT(mirror_hash, seq, model) DO UPDATE SET embedding = excluded.embedding, embedded_at = excluded.embedded_at`,
				r.MirrorHash, r.Seq, r.Model, encodeEmbedding(r.Embedding), r.EmbeddedAt)
			if err != nil {
				return err
			}
		}
		return nil
	}); txErr != nil {
		return txErr
	}

	byModel := make(map[string][]VectorRow)
	for _, r := range rows {
		byModel[r.Model] = append(byModel[r.Model], r)
	}
	for model, modelRows := range byModel {
		if err := s.SyncVecIndex(ctx, model, modelRows); err != nil {
			return err
		}
	}
	return nil
}

// DeleteVectorsForMirror removes every vector row for mirrorHash across
// all models, used when content is reconverted or orphaned.
func (s *Store) DeleteVectorsForMirror(ctx context.Context, mirrorHash string) *gnoerr.Error {
	removed := make(map[string][]int)
	rows, err := s.db.QueryContext(ctx, `SELECT model, seq FROM vectors WHERE mirror_hash = ?`, mirrorHash)
	if err != nil {
		return gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	for rows.Next() {
		var model string
		var seq int
		if scanErr := rows.Scan(&model, &seq); scanErr != nil {
			rows.Close()
			return gnoerr.Wrap(gnoerr.CodeStoreError, scanErr)
		}
		removed[model] = append(removed[model], seq)
	}
	rows.Close()

	if txErr := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE mirror_hash = ?`, mirrorHash)
		return err
	}); txErr != nil {
		return txErr
	}

	for model, seqs := range removed {
		if err := s.DropFromVecIndex(ctx, model, mirrorHash, seqs); err != nil {
			return err
		}
	}
	return nil
}

// ListVectors returns every vector row for a model, used to rebuild the
// in-memory HNSW index from durable storage( rebuildVecIndex).
func (s *Store) ListVectors(ctx context.Context, model string) gnoerr.Result[[]VectorRow] {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mirror_hash, seq, model, embedding, embedded_at FROM vectors WHERE model = ?`, model)
	if err != nil {
		return gnoerr.ErrResult[[]VectorRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	defer rows.Close()

	var out []VectorRow
	for rows.Next() {
		var r VectorRow
		var blob []byte
		if err := rows.Scan(&r.MirrorHash, &r.Seq, &r.Model, &blob, &r.EmbeddedAt); err != nil {
			return gnoerr.ErrResult[[]VectorRow](gnoerr.Wrap(gnoerr.CodeStoreError, err))
		}
		r.Embedding = decodeEmbedding(blob)
		out = append(out, r)
	}
	return gnoerr.Ok(out)
}

// CountVectors reports how many vector rows exist for a model.
func (s *Store) CountVectors(ctx context.Context, model string) gnoerr.Result[int] {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors WHERE model = ?`, model).Scan(&n); err != nil {
		return gnoerr.ErrResult[int](gnoerr.Wrap(gnoerr.CodeStoreError, err))
	}
	return gnoerr.Ok(n)
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
