// Package store implements the content store: the durable, transactional
// record of clipboard history and master collections. It is the single
// writer surface of the engine; the lexical index is maintained inside the
// same transactions so the two can never be observed out of sync.
package store

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/infinityhardik/shiftPaste/internal/config"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// EventOp names a store mutation for change notifications.
type EventOp string

const (
	OpAppend     EventOp = "append"
	OpEvict      EventOp = "evict"
	OpReplace    EventOp = "replace"
	OpDelete     EventOp = "delete"
	OpDeactivate EventOp = "deactivate"
	OpPurge      EventOp = "purge"
	OpReset      EventOp = "reset"
)

// Event is emitted after a committed transaction so a consumer (UI, result
// cache) can refresh whatever it is displaying.
type Event struct {
	Op         EventOp     `json:"op"`
	Kind       record.Kind `json:"kind"`
	IDs        []int64     `json:"ids,omitempty"`
	Collection string      `json:"collection,omitempty"`
}

// Store wraps the SQLite database with the transactional mutation API.
// All methods are safe for concurrent use; writes take a single in-process
// lock for the duration of their transaction, reads never do.
type Store struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger

	// mu serializes write transactions. Reads go through SQLite's WAL
	// snapshot and never wait on it.
	mu sync.Mutex

	lmu       sync.Mutex
	listeners []func(Event)

	// now is swappable for tests
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the timestamp source. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over an initialized database.
func New(db *sql.DB, cfg *config.Config, opts ...Option) *Store {
	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for read-only collaborators (the query
// facade and the index rebuild procedure).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Subscribe registers a listener for post-transaction change events.
// Listeners run synchronously on the mutating goroutine, after the store's
// write lock is released, so a listener may call back into the store.
func (s *Store) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) emit(events ...Event) {
	s.lmu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.lmu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
