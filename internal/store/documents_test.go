package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertDocumentInsertsThenUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r1 := s.UpsertDocument(ctx, Document{
		DocID: "d1", Collection: "kb", RelPath: "foo.md",
		SourceHash: "h1", SourceSize: 5, SourceMtime: 100, Active: true,
	})
	require.True(t, r1.OK)
	require.Equal(t, "d1", r1.Value.DocID)

	// Re-upserting the same (collection, relPath) reuses the internal
	// id and updates in place rather than inserting a second row.
	r2 := s.UpsertDocument(ctx, Document{
		DocID: "d1-updated", Collection: "kb", RelPath: "foo.md",
		SourceHash: "h2", SourceSize: 6, SourceMtime: 200, Active: true,
	})
	require.True(t, r2.OK)
	require.Equal(t, r1.Value.ID, r2.Value.ID)
	require.Equal(t, "d1-updated", r2.Value.DocID)

	got := s.GetDocumentByPath(ctx, "kb", "foo.md")
	require.True(t, got.OK)
	require.NotNil(t, got.Value)
	require.Equal(t, "h2", got.Value.SourceHash)
	require.Equal(t, int64(6), got.Value.SourceSize)
}

func TestUpsertDocumentAllowsDuplicateDocid(t *testing.T) {
	// Two distinct files with identical source bytes (a duplicated or
	// templated note) share a content-derived docid; the PK is the
	// internal id, so both rows must coexist rather than colliding.
	s := newTestStore(t)
	ctx := context.Background()

	r1 := s.UpsertDocument(ctx, Document{
		DocID: "#aaaaaaaa", Collection: "kb", RelPath: "one.md",
		SourceHash: "h", SourceSize: 1, SourceMtime: 1, Active: true,
	})
	require.True(t, r1.OK)
	r2 := s.UpsertDocument(ctx, Document{
		DocID: "#aaaaaaaa", Collection: "kb", RelPath: "two.md",
		SourceHash: "h", SourceSize: 1, SourceMtime: 1, Active: true,
	})
	require.True(t, r2.OK)
	require.NotEqual(t, r1.Value.ID, r2.Value.ID)

	byDocid := s.GetDocumentByDocid(ctx, "#aaaaaaaa")
	require.True(t, byDocid.OK)
	require.NotNil(t, byDocid.Value)
	require.Equal(t, r1.Value.ID, byDocid.Value.ID)
	require.Equal(t, "one.md", byDocid.Value.RelPath)
}

func TestGetDocumentByDocidMissing(t *testing.T) {
	s := newTestStore(t)
	got := s.GetDocumentByDocid(context.Background(), "#absent00")
	require.True(t, got.OK)
	require.Nil(t, got.Value)
}

func TestGetDocumentByPathMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got := s.GetDocumentByPath(ctx, "kb", "missing.md")
	require.True(t, got.OK)
	require.Nil(t, got.Value)
}

func TestMarkInactiveOnlyTouchesUnseenActiveDocs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, rel := range []string{"a.md", "b.md", "c.md"} {
		r := s.UpsertDocument(ctx, Document{
			DocID: rel, Collection: "kb", RelPath: rel,
			SourceHash: "h", SourceSize: 1, SourceMtime: 1, Active: true,
		})
		require.True(t, r.OK)
	}

	seen := map[string]struct{}{"a.md": {}, "c.md": {}}
	n := s.MarkInactive(ctx, "kb", seen)
	require.True(t, n.OK)
	require.Equal(t, 1, n.Value)

	docs := s.ListDocumentsByCollection(ctx, "kb")
	require.True(t, docs.OK)
	byPath := map[string]bool{}
	for _, d := range docs.Value {
		byPath[d.RelPath] = d.Active
	}
	require.True(t, byPath["a.md"])
	require.False(t, byPath["b.md"])
	require.True(t, byPath["c.md"])

	// Running reconciliation again with nothing newly unseen is a no-op.
	again := s.MarkInactive(ctx, "kb", seen)
	require.True(t, again.OK)
	require.Equal(t, 0, again.Value)
}
