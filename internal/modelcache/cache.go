package modelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/gmickel/gno/internal/gnoerr"
)

// Cache is the content-addressed local cache for model files described
// in spec.md section 4.4. It owns a directory tree, a Manifest, and a
// Downloader port for the one scheme (hf:) that needs network access.
type Cache struct {
	dir        string
	manifest   *Manifest
	downloader Downloader
}

// NewCache builds a Cache rooted at dir (typically $GNO_CACHE_DIR/models).
func NewCache(dir string, downloader Downloader) *Cache {
	return &Cache{dir: dir, manifest: NewManifest(dir), downloader: downloader}
}

// EnsureModel resolves uri to a local file path, downloading it if
// necessary and permitted by policy (spec.md section 4.4, "Resolve/ensure
// contract"). http(s) URIs are routed past the cache entirely — they name
// a remote OpenAI-compatible endpoint, not a file — so EnsureModel
// returns the raw URI unchanged for that scheme.
func (c *Cache) EnsureModel(ctx context.Context, rawURI string, typ ModelType, policy Policy, onProgress ProgressFunc) (string, *gnoerr.Error) {
	uri, perr := ParseURI(rawURI)
	if perr != nil {
		return "", perr
	}

	switch uri.Scheme {
	case SchemeFile:
		if _, err := os.Stat(uri.Path); err != nil {
			return "", gnoerr.New(gnoerr.CodeModelNotFound, "model file not found: "+uri.Path, err)
		}
		return uri.Path, nil

	case SchemeHTTP:
		return uri.Raw, nil

	case SchemeHuggingFace:
		return c.ensureRemote(ctx, uri, typ, policy, onProgress)

	default:
		return "", gnoerr.New(gnoerr.CodeInvalidURI, "unsupported scheme for EnsureModel", nil)
	}
}

func (c *Cache) ensureRemote(ctx context.Context, uri URI, typ ModelType, policy Policy, onProgress ProgressFunc) (string, *gnoerr.Error) {
	if path, ok, err := c.lookupCached(uri.Raw); err != nil {
		return "", err
	} else if ok {
		return path, nil
	}

	if policy.Offline {
		return "", gnoerr.New(gnoerr.CodeModelNotCached, "model not cached and policy is offline: "+uri.Raw, nil).
			WithSuggestion("run without --offline, or pre-populate the cache")
	}
	if !policy.AllowDownload {
		return "", gnoerr.New(gnoerr.CodeAutoDownloadOff, "auto-download disabled for "+uri.Raw, nil)
	}

	lockPath := filepath.Join(c.dir, lockFileName(uri.Raw))
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	release, lerr := acquireLock(lockPath)
	if lerr != nil {
		return "", lerr
	}
	defer release()

	// Double-check under lock: another process may have finished the
	// download while we were waiting.
	if path, ok, err := c.lookupCached(uri.Raw); err != nil {
		return "", err
	} else if ok {
		return path, nil
	}

	destPath := c.destPathFor(uri)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	if derr := c.downloader.Download(ctx, uri, destPath, onProgress); derr != nil {
		return "", derr
	}

	info, statErr := os.Stat(destPath)
	if statErr != nil {
		return "", gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, statErr)
	}

	updErr := c.manifest.Update(func(entries []Entry) []Entry {
		out := entries[:0]
		for _, e := range entries {
			if e.URI != uri.Raw {
				out = append(out, e)
			}
		}
		return append(out, Entry{
			URI:      uri.Raw,
			Type:     typ,
			Path:     destPath,
			Size:     info.Size(),
			CachedAt: time.Now(),
		})
	})
	if updErr != nil {
		return "", updErr
	}
	return destPath, nil
}

// lookupCached consults the manifest; a stale entry (backing file
// gone) is removed and reported as a miss
// ModelCacheEntry lifecycle: "removed... when the backing file is gone
// at lookup time (stale repair)."
func (c *Cache) lookupCached(uri string) (string, bool, *gnoerr.Error) {
	entry, ok, err := c.manifest.Get(uri)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	if _, statErr := os.Stat(entry.Path); statErr != nil {
		if _, rerr := c.manifest.Remove(uri); rerr != nil {
			return "", false, rerr
		}
		return "", false, nil
	}
	return entry.Path, true, nil
}

func (c *Cache) destPathFor(uri URI) string {
	file := uri.File
	if file == "" {
		file = uri.Repo + "-" + uri.Quant + ".gguf"
	}
	return filepath.Join(c.dir, "models", uri.Org, uri.Repo, file)
}

// lockFileName derives the per-URI lock file name, per spec.md section
// 4.4: "cacheDir/<sha256(uri)[:32]>.lock".
func lockFileName(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])[:32] + ".lock"
}
