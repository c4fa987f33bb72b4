package modelcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/gmickel/gno/internal/gnoerr"
)

// ManifestVersion is the manifest.json schema version.
const ManifestVersion = "1.0"

// manifestDoc is the on-disk JSON shape.
type manifestDoc struct {
	Version string  `json:"version"`
	Models  []Entry `json:"models"`
}

// Manifest guards manifest.json with a dedicated cross-process lock
// (github.com/gofrs/flock, a short blocking critical section — unlike
// the per-model download lock, a manifest write never runs long enough
// to need the TTL-steal protocol) and an in-memory cache that is
// invalidated before every update.
type Manifest struct {
	path     string
	lock     *flock.Flock
	mu       sync.Mutex
	cached   *manifestDoc
	cachedOK bool
}

// NewManifest opens the manifest at <cacheDir>/manifest.json (not yet
// created on disk until the first update).
func NewManifest(cacheDir string) *Manifest {
	path := filepath.Join(cacheDir, "manifest.json")
	return &Manifest{
		path: path,
		lock: flock.New(filepath.Join(cacheDir, "manifest.lock")),
	}
}

// Get returns the manifest entry for uri, reading through the
// in-memory cache (reloading from disk on first use or after
// invalidation).
func (m *Manifest) Get(uri string) (Entry, bool, *gnoerr.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.readLocked()
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range doc.Models {
		if e.URI == uri {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Update runs fn under the manifest lock with a read-modify-write cycle:
// invalidate the in-memory cache, read from disk, let fn mutate the
// decoded document, then atomically persist the result (spec.md section
// 4.4: "Writes happen under the manifest lock... in-memory cache must be
// invalidated inside the critical section" per section 9).
func (m *Manifest) Update(fn func(entries []Entry) []Entry) *gnoerr.Error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	if err := m.lock.Lock(); err != nil {
		return gnoerr.Wrap(gnoerr.CodeLockFailed, err)
	}
	defer m.lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cachedOK = false // invalidate before the critical section's read

	doc, rerr := m.readFromDisk()
	if rerr != nil {
		return rerr
	}
	doc.Models = fn(doc.Models)
	if err := m.writeAtomic(doc); err != nil {
		return gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	m.cached = doc
	m.cachedOK = true
	return nil
}

// readLocked serves from the in-memory cache, populating it from disk
// on a miss. Callers already hold m.mu.
func (m *Manifest) readLocked() (*manifestDoc, *gnoerr.Error) {
	if m.cachedOK {
		return m.cached, nil
	}
	doc, err := m.readFromDisk()
	if err != nil {
		return nil, err
	}
	m.cached = doc
	m.cachedOK = true
	return doc, nil
}

func (m *Manifest) readFromDisk() (*manifestDoc, *gnoerr.Error) {
	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &manifestDoc{Version: ManifestVersion}, nil
	}
	if err != nil {
		return nil, gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	var doc manifestDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, gnoerr.Wrap(gnoerr.CodeStoreError, err)
	}
	if doc.Version == "" {
		doc.Version = ManifestVersion
	}
	return &doc, nil
}

// writeAtomic persists doc via temp-file-write → fsync → rename →
// parent-directory fsync (best effort; some platforms/filesystems don't
// support directory fsync)
func (m *Manifest) writeAtomic(doc *manifestDoc) error {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(m.path)
	tmp := m.path + "." + uuid.NewString() + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return err
	}
	if dirF, err := os.Open(dir); err == nil {
		_ = dirF.Sync() // best effort: skipped implicitly where Sync is unsupported
		dirF.Close()
	}
	return nil
}

// Remove deletes the entry for uri, if present, returning whether it
// existed.
func (m *Manifest) Remove(uri string) (bool, *gnoerr.Error) {
	var removed bool
	err := m.Update(func(entries []Entry) []Entry {
		out := entries[:0]
		for _, e := range entries {
			if e.URI == uri {
				removed = true
				continue
			}
			out = append(out, e)
		}
		return out
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}
