// Package lifecycle implements gno's single process-wide model lifecycle
// manager: a map of loaded model handles keyed by URI, idle-TTL
// disposal, deduplicated in-flight loads, and a hard load timeout that
// disposes any handle arriving after the deadline.
//
// A model-type-agnostic Load/dispose state machine sits where a
// process-specific health-check/start/pull sequencer would otherwise
// go, and github.com/hashicorp/golang-lru's expirable.LRU handles the
// warm-cache bookkeeping instead of hand-rolled timers.
package lifecycle

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/gmickel/gno/internal/gnoerr"
)

// LoadFunc performs the actual model load for one URI/type. Real
// inference backends live outside this module; the
// manager only owns the lifecycle around whatever LoadFunc returns.
type LoadFunc func(ctx context.Context, uri string, typ string) (handle any, gerr *gnoerr.Error)

// DisposeFunc releases a loaded handle. Supplied alongside LoadFunc
// since only the caller's backend knows how to free its own handles.
type DisposeFunc func(handle any)

// loadedModel is the state tracked per URI.
type loadedModel struct {
	URI      string
	Type     string
	Handle   any
	LoadedAt time.Time
	disposed sync.Once
}

// Config parameterizes the manager.
type Config struct {
	LoadTimeout      time.Duration
	InferenceTimeout time.Duration
	WarmModelTTL     time.Duration
	// MaxWarmModels bounds the expirable LRU's capacity; 0 means a
	// generous default, not "unbounded" (the underlying LRU requires a
	// positive size).
	MaxWarmModels int
}

const defaultMaxWarmModels = 32

// Manager is the single process-wide owner of model handles. It is
// created once at startup and threaded through explicitly rather than
// held behind a package-level global.
type Manager struct {
	cfg     Config
	load    LoadFunc
	dispose DisposeFunc
	group   singleflight.Group
	warm    *lru.LRU[string, *loadedModel]
}

// New builds a Manager. loadFn performs the actual model load;
// disposeFn releases a handle (both are required).
func New(cfg Config, loadFn LoadFunc, disposeFn DisposeFunc) *Manager {
	if cfg.MaxWarmModels <= 0 {
		cfg.MaxWarmModels = defaultMaxWarmModels
	}
	m := &Manager{cfg: cfg, load: loadFn, dispose: disposeFn}
	m.warm = lru.NewLRU[string, *loadedModel](cfg.MaxWarmModels, func(uri string, lm *loadedModel) {
		m.disposeOnce(lm)
	}, cfg.WarmModelTTL)
	return m
}

// disposeOnce releases lm's handle at most once, since both the LRU's
// eviction callback and an explicit Dispose() call may race to free the
// same entry.
func (m *Manager) disposeOnce(lm *loadedModel) {
	lm.disposed.Do(func() { m.dispose(lm.Handle) })
}

// Load returns the warm handle for uri, loading it if necessary. It
// tries the fast path (already warm), then the mid/cold path (load now
// or join an in-flight load).
func (m *Manager) Load(ctx context.Context, uri, typ string) (any, *gnoerr.Error) {
	// Fast path: already warm. Re-Add to push the idle timer back out,
	// since every touch must reset it.
	if lm, ok := m.warm.Get(uri); ok {
		m.warm.Add(uri, lm)
		return lm.Handle, nil
	}

	// Mid/cold path: singleflight collapses concurrent loads of the same
	// URI into one underlying call.
	resultCh := m.group.DoChan(uri, func() (any, error) {
		handle, lerr := m.load(ctx, uri, typ)
		if lerr != nil {
			return nil, lerr
		}
		return &loadedModel{URI: uri, Type: typ, Handle: handle, LoadedAt: time.Now()}, nil
	})

	timer := time.NewTimer(m.cfg.LoadTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return nil, mapLoadError(res.Err)
		}
		lm := res.Val.(*loadedModel)
		m.warm.Add(uri, lm)
		return lm.Handle, nil

	case <-timer.C:
		// Late arrivals must not leak: whenever the underlying call
		// eventually finishes, dispose its handle since nobody is
		// waiting for it anymore.
		go func() {
			res := <-resultCh
			if res.Err == nil {
				lm := res.Val.(*loadedModel)
				if _, alreadyWarm := m.warm.Peek(uri); !alreadyWarm {
					m.disposeOnce(lm)
				}
			}
		}()
		return nil, gnoerr.New(gnoerr.CodeTimeout, "model load timed out: "+uri, nil)

	case <-ctx.Done():
		return nil, gnoerr.Wrap(gnoerr.CodeTimeout, ctx.Err())
	}
}

// mapLoadError normalizes a load failure to TIMEOUT, OUT_OF_MEMORY, or
// LOAD_FAILED.
func mapLoadError(err error) *gnoerr.Error {
	if ae, ok := err.(*gnoerr.Error); ok {
		switch ae.Code {
		case gnoerr.CodeTimeout, gnoerr.CodeOutOfMemory, gnoerr.CodeModelLoadFailed:
			return ae
		}
		return gnoerr.New(gnoerr.CodeModelLoadFailed, ae.Message, ae)
	}
	return gnoerr.Wrap(gnoerr.CodeModelLoadFailed, err)
}

// Dispose releases and forgets uri's handle, if loaded.
func (m *Manager) Dispose(uri string) {
	if lm, ok := m.warm.Peek(uri); ok {
		m.warm.Remove(uri)
		m.disposeOnce(lm)
	}
}

// DisposeAll releases every loaded handle.
func (m *Manager) DisposeAll() {
	for _, uri := range m.warm.Keys() {
		m.Dispose(uri)
	}
}

// Len reports how many models are currently warm.
func (m *Manager) Len() int {
	return m.warm.Len()
}
