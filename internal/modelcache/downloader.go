package modelcache

import (
	"context"

	"github.com/gmickel/gno/internal/gnoerr"
)

// Downloader fetches a remote model into destPath. The actual HTTP
// transport is an external collaborator (spec.md section 1: "model
// download HTTP transport" is out of scope for the core) — this
// interface is the port the cache calls through, following spec.md
// section 9's "ports as traits/interfaces" guidance.
type Downloader interface {
	Download(ctx context.Context, uri URI, destPath string, onProgress ProgressFunc) *gnoerr.Error
}
