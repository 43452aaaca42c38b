package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinityhardik/shiftPaste/internal/config"
	"github.com/infinityhardik/shiftPaste/internal/db"
	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/store"
)

// fakeProvider serves canned snapshots and scripted failures per collection.
type fakeProvider struct {
	snapshots map[string][]store.Item
	failures  map[string][]error // consumed one per call, then success
	calls     map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		snapshots: make(map[string][]store.Item),
		failures:  make(map[string][]error),
		calls:     make(map[string]int),
	}
}

func (p *fakeProvider) Snapshot(_ context.Context, collection string) ([]store.Item, error) {
	p.calls[collection]++
	if errs := p.failures[collection]; len(errs) > 0 {
		err := errs[0]
		p.failures[collection] = errs[1:]
		return nil, err
	}
	items, ok := p.snapshots[collection]
	if !ok {
		return nil, fmt.Errorf("no such collection %q", collection)
	}
	return items, nil
}

func newTestSync(t *testing.T) (*Synchronizer, *fakeProvider, *store.Store) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	st := store.New(database, config.DefaultConfig())
	provider := newFakeProvider()
	s := New(st, provider, WithRetryDelay(time.Millisecond))
	return s, provider, st
}

func TestSyncCollection_ReplacesFromSnapshot(t *testing.T) {
	s, provider, st := newTestSync(t)
	provider.snapshots["pipes"] = []store.Item{{Content: "A"}, {Content: "B"}}

	res, err := s.SyncCollection(context.Background(), "pipes")
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Coalesced)
	assert.False(t, res.Retried)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 2, res.Summary.Added)

	records, err := st.FetchCandidates(store.ScopeMaster, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSyncCollection_RetriesOnceOnTransient(t *testing.T) {
	s, provider, _ := newTestSync(t)
	provider.snapshots["pipes"] = []store.Item{{Content: "A"}}
	provider.failures["pipes"] = []error{fmt.Errorf("file busy: %w", ErrTransient)}

	res, err := s.SyncCollection(context.Background(), "pipes")
	require.NoError(t, err)
	assert.True(t, res.Retried)
	assert.Equal(t, 2, provider.calls["pipes"])
}

func TestSyncCollection_TransientTwiceFailsAndKeepsRecords(t *testing.T) {
	s, provider, st := newTestSync(t)
	provider.snapshots["pipes"] = []store.Item{{Content: "A"}}

	_, err := s.SyncCollection(context.Background(), "pipes")
	require.NoError(t, err)

	transient := fmt.Errorf("file busy: %w", ErrTransient)
	provider.failures["pipes"] = []error{transient, transient}

	_, err = s.SyncCollection(context.Background(), "pipes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSyncFailed))

	// Existing records survive a failed pass untouched.
	records, err := st.FetchCandidates(store.ScopeMaster, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSyncCollection_NonTransientFailsWithoutRetry(t *testing.T) {
	s, provider, _ := newTestSync(t)
	provider.failures["pipes"] = []error{fmt.Errorf("permanent")}
	provider.snapshots["pipes"] = []store.Item{{Content: "A"}}

	_, err := s.SyncCollection(context.Background(), "pipes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSyncFailed))
	assert.Equal(t, 1, provider.calls["pipes"])
}

func TestSyncCollection_EmptyNameRejected(t *testing.T) {
	s, _, _ := newTestSync(t)

	_, err := s.SyncCollection(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestSyncAll_SkipsFailedCollections(t *testing.T) {
	s, provider, st := newTestSync(t)
	provider.snapshots["good"] = []store.Item{{Content: "A"}}
	provider.failures["bad"] = []error{fmt.Errorf("unreadable")}

	results, err := s.SyncAll(context.Background(), []string{"bad", "good"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].Collection)

	records, err := st.FetchCandidates(store.ScopeMaster, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSyncAll_AbortsBetweenCollections(t *testing.T) {
	s, provider, _ := newTestSync(t)
	provider.snapshots["one"] = []store.Item{{Content: "A"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SyncAll(ctx, []string{"one"})
	require.Error(t, err)
	assert.Zero(t, provider.calls["one"])
}

func TestSyncCollection_PassesAreIdempotent(t *testing.T) {
	s, provider, st := newTestSync(t)
	provider.snapshots["pipes"] = []store.Item{{Content: "A"}, {Content: "B"}}

	for i := 0; i < 3; i++ {
		res, err := s.SyncCollection(context.Background(), "pipes")
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, 0, res.Summary.Added)
			assert.Equal(t, 0, res.Summary.Removed)
		}
	}

	records, err := st.FetchCandidates(store.ScopeMaster, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

// blockingProvider parks every Snapshot call until release closes and flags
// any two calls that overlap in time.
type blockingProvider struct {
	items    []store.Item
	entered  chan struct{}
	release  chan struct{}
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (p *blockingProvider) Snapshot(_ context.Context, _ string) ([]store.Item, error) {
	if p.inFlight.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.inFlight.Add(-1)

	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.release
	return p.items, nil
}

func TestSyncCollection_SerializesPerCollection(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	st := store.New(database, config.DefaultConfig())

	provider := &blockingProvider{
		items:   []store.Item{{Content: "A"}},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := New(st, provider)

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := s.SyncCollection(context.Background(), "pipes")
		first <- outcome{res, err}
	}()
	<-provider.entered
	assert.Equal(t, StateImporting, s.CollectionState("pipes"))

	second := make(chan outcome, 1)
	go func() {
		res, err := s.SyncCollection(context.Background(), "pipes")
		second <- outcome{res, err}
	}()

	// Only after the second pass has claimed the waiting seat is a third
	// call guaranteed to coalesce instead of queueing up itself.
	sl := s.slot("pipes")
	require.Eventually(t, func() bool { return sl.waiting.Load() },
		2*time.Second, time.Millisecond)

	res, err := s.SyncCollection(context.Background(), "pipes")
	require.NoError(t, err)
	assert.True(t, res.Coalesced)
	assert.Nil(t, res.Summary)

	close(provider.release)
	for _, ch := range []chan outcome{first, second} {
		select {
		case out := <-ch:
			require.NoError(t, out.err)
			assert.False(t, out.res.Coalesced)
			require.NotNil(t, out.res.Summary)
		case <-time.After(2 * time.Second):
			t.Fatal("a queued pass did not complete")
		}
	}
	assert.False(t, provider.overlap.Load(),
		"snapshot reads for one collection overlapped")
	assert.Equal(t, StateIdle, s.CollectionState("pipes"))
}

func TestCollectionState_IdleWhenNotSyncing(t *testing.T) {
	s, _, _ := newTestSync(t)
	assert.Equal(t, StateIdle, s.CollectionState("anything"))
}

func TestRun_ConsumesTriggers(t *testing.T) {
	s, provider, st := newTestSync(t)
	provider.snapshots["pipes"] = []store.Item{{Content: "A"}}

	triggers := make(chan string)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), triggers)
		close(done)
	}()

	triggers <- "pipes"
	close(triggers)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after trigger channel close")
	}

	records, err := st.FetchCandidates(store.ScopeMaster, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
