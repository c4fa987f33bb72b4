package modelcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestUpdateThenReopenSeesMutatedState(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest(dir)

	err := m.Update(func(entries []Entry) []Entry {
		return append(entries, Entry{URI: "hf:org/repo/file.gguf", Type: ModelTypeEmbed, Path: "/tmp/x", CachedAt: time.Now()})
	})
	require.Nil(t, err)

	reopened := NewManifest(dir)
	entry, ok, gerr := reopened.Get("hf:org/repo/file.gguf")
	require.Nil(t, gerr)
	require.True(t, ok)
	assert.Equal(t, ModelTypeEmbed, entry.Type)
}

func TestManifestGetMissingIsNotFound(t *testing.T) {
	m := NewManifest(t.TempDir())
	_, ok, gerr := m.Get("hf:missing/repo/file.gguf")
	require.Nil(t, gerr)
	assert.False(t, ok)
}

func TestManifestRemove(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest(dir)
	require.Nil(t, m.Update(func(entries []Entry) []Entry {
		return append(entries, Entry{URI: "hf:a/b/c.gguf"})
	}))

	removed, err := m.Remove("hf:a/b/c.gguf")
	require.Nil(t, err)
	assert.True(t, removed)

	_, ok, err := m.Get("hf:a/b/c.gguf")
	require.Nil(t, err)
	assert.False(t, ok)
}
