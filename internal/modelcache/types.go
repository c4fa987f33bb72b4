// Package modelcache implements gno's content-addressed local cache
// for embedding/rerank/generation model files: URI
// parsing, a cross-process exclusive download lock, and an atomically
// updated manifest. It never performs inference itself — callers get a
// local file path back and hand it to their own loader.
package modelcache

import "time"

// Scheme identifies the recognized URI forms of spec.md section 4.4.
type Scheme string

const (
	SchemeHuggingFace Scheme = "hf"
	SchemeFile        Scheme = "file"
	SchemeHTTP         Scheme = "http"
)

// ModelType mirrors spec.md section 3's ModelCacheEntry.type.
type ModelType string

const (
	ModelTypeEmbed  ModelType = "embed"
	ModelTypeRerank ModelType = "rerank"
	ModelTypeGen    ModelType = "gen"
)

// URI is a parsed model URI. Exactly one of the scheme-specific fields
// is meaningful, selected by Scheme.
type URI struct {
	Scheme Scheme
	Raw    string

	// SchemeHuggingFace
	Org      string
	Repo     string
	File     string // explicit file form
	Quant    string // quant-shorthand form, "" if File is set

	// SchemeFile
	Path string

	// SchemeHTTP
	Host        string
	URLPath     string
	ModelName   string // optional "#modelName" fragment
}

// IsRemote reports whether resolving uri requires network access (and
// therefore participates in cache/lock/manifest bookkeeping at all).
func (u URI) IsRemote() bool {
	return u.Scheme == SchemeHuggingFace
}

// Entry is one persisted manifest row (spec.md section 3, ModelCacheEntry).
type Entry struct {
	URI       string    `json:"uri"`
	Type      ModelType `json:"type"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	CachedAt  time.Time `json:"cachedAt"`
}

// Policy controls whether EnsureModel may consult the network.
type Policy struct {
	Offline       bool
	AllowDownload bool
}

// ProgressFunc reports download progress; total is 0 when unknown.
type ProgressFunc func(downloaded, total int64)

// LockTTL bounds how long a download lock is honored before a
// competing process may steal it (spec.md section 4.4: "lock file's
// mtime is older than the lock TTL (24h)").
const LockTTL = 24 * time.Hour

// lockPollInterval and lockMaxAttempts bound the acquisition retry loop
// to roughly ten minutes.
const (
	lockPollInterval = 500 * time.Millisecond
	lockMaxAttempts  = 1200
)
