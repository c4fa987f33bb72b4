package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertContentIsWriteOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.Nil(t, s.UpsertContent(ctx, "m1", "# First"))
	require.Nil(t, s.UpsertContent(ctx, "m1", "# Second, should not win"))

	got := s.GetContent(ctx, "m1")
	require.True(t, got.OK)
	require.Equal(t, "# First", got.Value)
}

func TestGetContentMissingReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	got := s.GetContent(context.Background(), "absent")
	require.True(t, got.OK)
	require.Equal(t, "", got.Value)
}

func TestDeleteOrphanedContentCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.Nil(t, s.UpsertContent(ctx, "orphan", "body"))
	require.Nil(t, s.ReplaceChunks(ctx, "orphan", []ChunkRow{
		{Seq: 0, Pos: 0, Text: "body", StartLine: 1, EndLine: 1, CreatedAt: 1},
	}))
	require.Nil(t, s.UpsertVectors(ctx, []VectorRow{
		{MirrorHash: "orphan", Seq: 0, Model: "m", Embedding: []float32{1, 0}, EmbeddedAt: 1},
	}))

	removed := s.DeleteOrphanedContent(ctx)
	require.True(t, removed.OK)
	require.Equal(t, 1, removed.Value)

	require.Equal(t, "", s.GetContent(ctx, "orphan").Value)
	chunks := s.GetChunks(ctx, "orphan")
	require.True(t, chunks.OK)
	require.Empty(t, chunks.Value)
}

func TestDeleteOrphanedContentKeepsActiveDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.Nil(t, s.UpsertContent(ctx, "active-mirror", "body"))
	docResult := s.UpsertDocument(ctx, Document{
		DocID: "d1", Collection: "kb", RelPath: "a.md", SourceHash: "h",
		SourceSize: 1, SourceMtime: 1, MirrorHash: "active-mirror", Active: true,
	})
	require.True(t, docResult.OK)

	removed := s.DeleteOrphanedContent(ctx)
	require.True(t, removed.OK)
	require.Equal(t, 0, removed.Value)
	require.Equal(t, "body", s.GetContent(ctx, "active-mirror").Value)
}
