// Package sync reconciles the store's master partition against externally
// edited collection snapshots. Each collection moves Idle -> Importing ->
// Reconciling -> Idle; at most one reconciliation per collection name is in
// flight, and a burst of triggers for the same name coalesces into the pass
// already waiting, which reads a snapshot at least as new.
package sync

import (
	"context"
	"crypto/rand"
	goerrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/store"
)

// ErrTransient marks a snapshot read failure worth retrying: the source was
// locked or mid-write. Providers wrap it so the synchronizer can tell a
// transient condition from a real one.
var ErrTransient = goerrors.New("snapshot source temporarily unreadable")

// SnapshotProvider produces, on demand, a complete self-consistent snapshot
// of one named collection.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, collection string) ([]store.Item, error)
}

// State names a collection's position in the reconciliation state machine.
type State string

const (
	StateIdle        State = "idle"
	StateImporting   State = "importing"
	StateReconciling State = "reconciling"
)

// Result reports one reconciliation pass.
type Result struct {
	RunID      string                `json:"run_id,omitempty"`
	Collection string                `json:"collection"`
	Coalesced  bool                  `json:"coalesced,omitempty"`
	Retried    bool                  `json:"retried,omitempty"`
	Summary    *store.ReplaceSummary `json:"summary,omitempty"`
}

// DefaultRetryDelay is the fixed pause before the single retry of a
// transient snapshot read failure.
const DefaultRetryDelay = 250 * time.Millisecond

type slot struct {
	mu      sync.Mutex
	waiting atomic.Bool
	state   atomic.Value // State
}

// Synchronizer drives reconciliation passes for named collections.
type Synchronizer struct {
	store      *store.Store
	provider   SnapshotProvider
	retryDelay time.Duration
	logger     *slog.Logger

	mu    sync.Mutex
	slots map[string]*slot
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryDelay overrides the transient-failure retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// New creates a Synchronizer reading snapshots from provider and writing
// into st.
func New(st *store.Store, provider SnapshotProvider, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:      st,
		provider:   provider,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
		slots:      make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CollectionState reports where a collection currently is in the state
// machine.
func (s *Synchronizer) CollectionState(collection string) State {
	sl := s.slot(collection)
	if st, ok := sl.state.Load().(State); ok {
		return st
	}
	return StateIdle
}

// SyncCollection runs one reconciliation pass for a collection. Passes for
// the same name are serialized on the collection's exclusive slot; when one
// pass is already running and another is already waiting, further calls are
// dropped as coalesced, since the waiting pass will read a snapshot at
// least as new as theirs.
func (s *Synchronizer) SyncCollection(ctx context.Context, collection string) (*Result, error) {
	if collection == "" {
		return nil, errors.NewInvalidRequest("collection name is required")
	}

	sl := s.slot(collection)
	if !sl.waiting.CompareAndSwap(false, true) {
		return &Result{Collection: collection, Coalesced: true}, nil
	}
	sl.mu.Lock()
	sl.waiting.Store(false)
	defer func() {
		sl.state.Store(StateIdle)
		sl.mu.Unlock()
	}()

	runID := newRunID()
	logger := s.logger.With("collection", collection, "run_id", runID)

	sl.state.Store(StateImporting)
	items, retried, err := s.readSnapshot(ctx, collection)
	if err != nil {
		logger.Warn("snapshot read failed, keeping existing records", "err", err)
		return nil, errors.NewSyncFailed(collection, err)
	}

	sl.state.Store(StateReconciling)
	summary, err := s.store.ReplaceCollection(collection, items)
	if err != nil {
		return nil, err
	}

	logger.Info("collection reconciled",
		"added", summary.Added, "removed", summary.Removed,
		"unchanged", summary.Unchanged, "retried", retried)

	return &Result{
		RunID:      runID,
		Collection: collection,
		Retried:    retried,
		Summary:    summary,
	}, nil
}

// SyncAll reconciles the given collections in order. The loop is abortable
// between per-collection transactions, never mid-transaction; passes are
// idempotent so aborted work can simply run again.
func (s *Synchronizer) SyncAll(ctx context.Context, collections []string) ([]*Result, error) {
	var results []*Result
	for _, name := range collections {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.SyncCollection(ctx, name)
		if err != nil {
			// A recoverable failure on one collection must not block the
			// rest; existing records for it stay searchable.
			if errors.Is(err, errors.ErrSyncFailed) {
				continue
			}
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run consumes change-detection triggers until the channel closes or ctx is
// cancelled. False-positive triggers cost one no-op reconciliation.
func (s *Synchronizer) Run(ctx context.Context, triggers <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-triggers:
			if !ok {
				return
			}
			if _, err := s.SyncCollection(ctx, name); err != nil {
				s.logger.Error("reconciliation failed", "collection", name, "err", err)
			}
		}
	}
}

// readSnapshot reads the collection snapshot, retrying once after a short
// fixed delay when the provider reports a transient failure.
func (s *Synchronizer) readSnapshot(ctx context.Context, collection string) ([]store.Item, bool, error) {
	items, err := s.provider.Snapshot(ctx, collection)
	if err == nil {
		return items, false, nil
	}
	if !goerrors.Is(err, ErrTransient) {
		return nil, false, err
	}

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-time.After(s.retryDelay):
	}

	items, err = s.provider.Snapshot(ctx, collection)
	if err != nil {
		return nil, true, err
	}
	return items, true, nil
}

func (s *Synchronizer) slot(collection string) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[collection]
	if !ok {
		sl = &slot{}
		s.slots[collection] = sl
	}
	return sl
}

// newRunID stamps a reconciliation pass for logs and status reporting.
func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
