package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplaceChunksAtomicReplacement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docResult := s.UpsertDocument(ctx, Document{
		DocID: "d1", Collection: "kb", RelPath: "a.md", SourceHash: "h",
		SourceSize: 1, SourceMtime: 1, MirrorHash: "m1", Active: true,
	})
	require.True(t, docResult.OK)

	first := []ChunkRow{
		{Seq: 0, Pos: 0, Text: "alpha", StartLine: 1, EndLine: 1, Language: "en", CreatedAt: 10},
		{Seq: 1, Pos: 5, Text: "beta", StartLine: 2, EndLine: 2, Language: "en", CreatedAt: 10},
	}
	require.Nil(t, s.ReplaceChunks(ctx, "m1", first))

	ftsBefore := s.SearchFts(ctx, "beta", FtsSearchParams{Limit: 10})
	require.True(t, ftsBefore.OK)
	require.Len(t, ftsBefore.Value, 1)

	got := s.GetChunks(ctx, "m1")
	require.True(t, got.OK)
	require.Len(t, got.Value, 2)
	require.Equal(t, "alpha", got.Value[0].Text)

	second := []ChunkRow{
		{Seq: 0, Pos: 0, Text: "gamma", StartLine: 1, EndLine: 1, CreatedAt: 20},
	}
	require.Nil(t, s.ReplaceChunks(ctx, "m1", second))

	got2 := s.GetChunks(ctx, "m1")
	require.True(t, got2.OK)
	require.Len(t, got2.Value, 1)
	require.Equal(t, "gamma", got2.Value[0].Text)

	fts := s.SearchFts(ctx, "beta", FtsSearchParams{Limit: 10})
	require.True(t, fts.OK)
	require.Empty(t, fts.Value)
}

func TestGetChunksOrdersBySeq(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.Nil(t, s.ReplaceChunks(ctx, "m2", []ChunkRow{
		{Seq: 2, Pos: 20, Text: "third", StartLine: 3, EndLine: 3, CreatedAt: 1},
		{Seq: 0, Pos: 0, Text: "first", StartLine: 1, EndLine: 1, CreatedAt: 1},
		{Seq: 1, Pos: 10, Text: "second", StartLine: 2, EndLine: 2, CreatedAt: 1},
	}))

	got := s.GetChunks(ctx, "m2")
	require.True(t, got.OK)
	require.Equal(t, []string{"first", "second", "third"}, []string{got.Value[0].Text, got.Value[1].Text, got.Value[2].Text})
}
