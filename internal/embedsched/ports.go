package embedsched

import (
	"context"

	"github.com/gmickel/gno/internal/gnoerr"
	"github.com/gmickel/gno/internal/store"
)

// EmbedPort is the outbound embedding capability:
// implementations live outside this module (local via the lifecycle
// manager, or HTTP against an OpenAI-compatible endpoint).
type EmbedPort interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, *gnoerr.Error)
}

// BacklogStore is the subset of the store port the scheduler drains
// (spec.md section 4.6's "pass body").
type BacklogStore interface {
	GetBacklog(ctx context.Context, model string, cursor store.BacklogCursor, limit int) gnoerr.Result[[]store.BacklogEntry]
	UpsertVectors(ctx context.Context, rows []store.VectorRow) *gnoerr.Error
}

// PortResolver returns the currently configured embed port and model
// URI, resolved fresh at the start of every pass so a preset change or
// port reload between notification and run is honored (spec.md section
// 4.6: "Resolve embedPort, vectorIndex, and modelUri at execution time").
type PortResolver func() (EmbedPort, string)
