package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesSchemaIdempotently(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := s.GetStatus(ctx)
	require.True(t, st.OK)
	require.Equal(t, 0, st.Value.DocumentCount)
}

func TestQueryPlaceholders(t *testing.T) {
	require.Equal(t, "", queryPlaceholders(0))
	require.Equal(t, "?", queryPlaceholders(1))
	require.Equal(t, "?,?,?", queryPlaceholders(3))
}

func TestUpsertDocumentReflectsInStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docResult := s.UpsertDocument(ctx, Document{
		DocID: "doc-1", Collection: "notes", RelPath: "a.md", SourceHash: "h1",
		SourceSize: 10, SourceMtime: 1, Active: true,
	})
	require.True(t, docResult.OK)

	st := s.GetStatus(ctx)
	require.True(t, st.OK)
	require.Equal(t, 1, st.Value.DocumentCount)
	require.Equal(t, 1, st.Value.ActiveDocuments)
}
