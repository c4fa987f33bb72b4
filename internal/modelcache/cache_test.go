package modelcache

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmickel/gno/internal/gnoerr"
)

type fakeDownloader struct {
	calls int
	body  []byte
}

func (f *fakeDownloader) Download(ctx context.Context, uri URI, destPath string, onProgress ProgressFunc) *gnoerr.Error {
	f.calls++
	if onProgress != nil {
		onProgress(int64(len(f.body)), int64(len(f.body)))
	}
	if err := os.WriteFile(destPath, f.body, 0o644); err != nil {
		return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, err)
	}
	return nil
}

func TestEnsureModelFileScheme(t *testing.T) {
	dir := t.TempDir()
	modelPath := dir + "/model.gguf"
	require.NoError(t, os.WriteFile(modelPath, []byte("x"), 0o644))

	c := NewCache(t.TempDir(), &fakeDownloader{})
	path, err := c.EnsureModel(context.Background(), modelPath, ModelTypeEmbed, Policy{AllowDownload: true}, nil)
	require.Nil(t, err)
	assert.Equal(t, modelPath, path)
}

func TestEnsureModelFileSchemeMissingIsNotFound(t *testing.T) {
	c := NewCache(t.TempDir(), &fakeDownloader{})
	_, err := c.EnsureModel(context.Background(), "/no/such/model.gguf", ModelTypeEmbed, Policy{}, nil)
	require.NotNil(t, err)
	assert.Equal(t, gnoerr.CodeModelNotFound, err.Code)
}

func TestEnsureModelDownloadsOnceThenCaches(t *testing.T) {
	dl := &fakeDownloader{body: []byte("weights")}
	c := NewCache(t.TempDir(), dl)

	path, err := c.EnsureModel(context.Background(), "hf:org/repo/file.gguf", ModelTypeEmbed, Policy{AllowDownload: true}, nil)
	require.Nil(t, err)
	require.FileExists(t, path)
	assert.Equal(t, 1, dl.calls)

	path2, err := c.EnsureModel(context.Background(), "hf:org/repo/file.gguf", ModelTypeEmbed, Policy{AllowDownload: true}, nil)
	require.Nil(t, err)
	assert.Equal(t, path, path2)
	assert.Equal(t, 1, dl.calls, "second call must hit the manifest, not download again")
}

func TestEnsureModelOfflinePolicyWithoutCacheFails(t *testing.T) {
	c := NewCache(t.TempDir(), &fakeDownloader{})
	_, err := c.EnsureModel(context.Background(), "hf:org/repo/file.gguf", ModelTypeEmbed, Policy{Offline: true}, nil)
	require.NotNil(t, err)
	assert.Equal(t, gnoerr.CodeModelNotCached, err.Code)
}

func TestEnsureModelAutoDownloadDisabledFails(t *testing.T) {
	c := NewCache(t.TempDir(), &fakeDownloader{})
	_, err := c.EnsureModel(context.Background(), "hf:org/repo/file.gguf", ModelTypeEmbed, Policy{AllowDownload: false}, nil)
	require.NotNil(t, err)
	assert.Equal(t, gnoerr.CodeAutoDownloadOff, err.Code)
}

func TestEnsureModelStaleManifestEntryRedownloads(t *testing.T) {
	dl := &fakeDownloader{body: []byte("weights")}
	c := NewCache(t.TempDir(), dl)

	path, err := c.EnsureModel(context.Background(), "hf:org/repo/file.gguf", ModelTypeEmbed, Policy{AllowDownload: true}, nil)
	require.Nil(t, err)
	require.NoError(t, os.Remove(path))

	_, err = c.EnsureModel(context.Background(), "hf:org/repo/file.gguf", ModelTypeEmbed, Policy{AllowDownload: true}, nil)
	require.Nil(t, err)
	assert.Equal(t, 2, dl.calls)
}
