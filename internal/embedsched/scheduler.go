package embedsched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gmickel/gno/internal/store"
)

// Config parameterizes a Scheduler.
type Config struct {
	Debounce   time.Duration
	MaxWait    time.Duration
	BatchLimit int
	Logger     *slog.Logger
}

// Scheduler coalesces sync-completion notifications into debounced
// background embedding passes. It guarantees at most one in-flight pass
// and exactly one deterministic follow-up when notifications arrive
// while a pass is running (spec.md section 4.6's concurrency contract).
type Scheduler struct {
	debounce   time.Duration
	maxWait    time.Duration
	batchLimit int
	log        *slog.Logger

	resolve PortResolver
	store   BacklogStore

	mu             sync.Mutex
	timer          *time.Timer
	pendingCount   int
	firstPendingAt time.Time
	running        bool
	needsRerun     bool
	nextRunAt      *time.Time
	disposed       bool
}

// New builds a Scheduler. resolve supplies the current embed port and
// model URI at the start of every pass; st is the store's backlog/vector
// surface.
func New(cfg Config, resolve PortResolver, st BacklogStore) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = DefaultBatchLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		debounce:   cfg.Debounce,
		maxWait:    cfg.MaxWait,
		batchLimit: cfg.BatchLimit,
		log:        cfg.Logger,
		resolve:    resolve,
		store:      st,
	}
}

// NotifySyncComplete records that docIDs's chunks may need (re)embedding
// and arms or rearms the debounce timer, capped so total pending latency
// never exceeds maxWait.
func (s *Scheduler) NotifySyncComplete(docIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || len(docIDs) == 0 {
		return
	}
	s.pendingCount += len(docIDs)
	now := time.Now()
	if s.firstPendingAt.IsZero() {
		s.firstPendingAt = now
	}
	s.armLocked(now)
}

// armLocked (re)starts the debounce timer, capping the delay so the
// pass never waits longer than maxWait past firstPendingAt. Must be
// called with s.mu held.
func (s *Scheduler) armLocked(now time.Time) {
	if s.running {
		// The running pass's completion handler re-arms as needed; avoid
		// racing a timer against it.
		return
	}
	delay := s.debounce
	elapsed := now.Sub(s.firstPendingAt)
	if remaining := s.maxWait - elapsed; remaining < delay {
		if remaining < 0 {
			remaining = 0
		}
		delay = remaining
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	runAt := now.Add(delay)
	s.nextRunAt = &runAt
	s.timer = time.AfterFunc(delay, s.onTimerFire)
}

// onTimerFire runs when the debounce timer expires.
func (s *Scheduler) onTimerFire() {
	s.runPass(context.Background())
}

// TriggerNow cancels the debounce timer and runs a pass immediately,
// unless a pass is already in progress, in which case it marks
// needsRerun and returns a zero result.
func (s *Scheduler) TriggerNow(ctx context.Context) PassResult {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return PassResult{}
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.running {
		s.needsRerun = true
		s.mu.Unlock()
		return PassResult{}
	}
	s.mu.Unlock()
	return s.runPass(ctx)
}

// GetState snapshots the scheduler.
func (s *Scheduler) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *time.Time
	if s.nextRunAt != nil && !s.running {
		t := *s.nextRunAt
		next = &t
	}
	return State{
		PendingDocCount: s.pendingCount,
		Running:         s.running,
		NextRunAt:       next,
	}
}

// Dispose clears the timer; subsequent notifications no-op.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.disposed = true
}

// runPass executes one embedding pass, draining the backlog in batches
// of batchLimit until exhausted. pendingCount and firstPendingAt are
// reset before the pass body runs so notifications arriving mid-pass
// accumulate toward a follow-up.
func (s *Scheduler) runPass(ctx context.Context) PassResult {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return PassResult{}
	}
	if s.running {
		s.needsRerun = true
		s.mu.Unlock()
		return PassResult{}
	}
	s.running = true
	s.pendingCount = 0
	s.firstPendingAt = time.Time{}
	s.nextRunAt = nil
	s.mu.Unlock()

	result := s.drain(ctx)

	s.mu.Lock()
	s.running = false
	rerun := s.needsRerun || s.pendingCount > 0
	s.needsRerun = false
	if rerun {
		if s.pendingCount > 0 && s.firstPendingAt.IsZero() {
			s.firstPendingAt = time.Now()
		}
		if !s.disposed {
			s.armLocked(time.Now())
		}
	}
	s.mu.Unlock()

	return result
}

// drain resolves the current embed port/model and walks the backlog to
// completion, writing embeddings back via the store. Errors embedding a
// batch are counted but do not abort the pass.
func (s *Scheduler) drain(ctx context.Context) PassResult {
	port, model := s.resolve()
	if port == nil || model == "" {
		return PassResult{}
	}

	var result PassResult
	cursor := store.BacklogCursor{}
	for {
		backlogRes := s.store.GetBacklog(ctx, model, cursor, s.batchLimit)
		if !backlogRes.OK {
			s.log.Error("embedsched: backlog fetch failed", "error", backlogRes.Err)
			return result
		}
		entries := backlogRes.Value
		if len(entries) == 0 {
			return result
		}

		texts := make([]string, len(entries))
		for i, e := range entries {
			texts[i] = e.Text
		}

		now := time.Now().UnixMilli()
		embeddings, eerr := port.EmbedBatch(ctx, texts)
		if eerr != nil {
			s.log.Warn("embedsched: batch embed failed", "count", len(entries), "error", eerr)
			result.Errors += len(entries)
		} else {
			rows := make([]store.VectorRow, len(entries))
			for i, e := range entries {
				rows[i] = store.VectorRow{
					MirrorHash: e.MirrorHash,
					Seq:        e.Seq,
					Model:      model,
					Embedding:  embeddings[i],
					EmbeddedAt: now,
				}
			}
			if werr := s.store.UpsertVectors(ctx, rows); werr != nil {
				s.log.Error("embedsched: vector write failed", "error", werr)
				result.Errors += len(entries)
			} else {
				result.Embedded += len(entries)
			}
		}

		last := entries[len(entries)-1]
		cursor = store.BacklogCursor{MirrorHash: last.MirrorHash, Seq: last.Seq}
		if len(entries) < s.batchLimit {
			return result
		}
	}
}
