// Package ingest accepts the capture observation feed: clipboard contents
// observed by an external capture mechanism at its own cadence. The ingestor
// deduplicates against the last accepted observation and writes accepted
// content to the store; it never blocks the producer beyond one store
// mutation.
package ingest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/infinityhardik/shiftPaste/internal/store"
)

// Observation is one observed clipboard state pushed by the capture feed.
// The producer guarantees observations arrive in capture order.
type Observation struct {
	Content    string
	SourceApp  string
	ObservedAt time.Time
}

// Ingestor consumes observations and forwards accepted ones to the store.
type Ingestor struct {
	store  *store.Store
	logger *slog.Logger

	mu           sync.Mutex
	lastAccepted string
	haveLast     bool
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Ingestor) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates an Ingestor writing into st.
func New(st *store.Store, opts ...Option) *Ingestor {
	g := &Ingestor{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Observe processes one observation. Empty or whitespace-only content is
// dropped, as is content exactly equal (pre-normalization) to the last
// accepted observation; both count as rejections, not errors. Everything
// else goes through the store's append, which applies its own
// adjacent-duplicate rule against the surviving history.
func (g *Ingestor) Observe(obs Observation) (*store.AppendResult, error) {
	if strings.TrimSpace(obs.Content) == "" {
		return &store.AppendResult{Rejected: true, Reason: store.RejectEmpty}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.haveLast && obs.Content == g.lastAccepted {
		return &store.AppendResult{Rejected: true, Reason: store.RejectDuplicateAdjacent}, nil
	}

	res, err := g.store.AppendClipboard(obs.Content, obs.SourceApp)
	if err != nil {
		return nil, err
	}
	if !res.Rejected {
		g.lastAccepted = obs.Content
		g.haveLast = true
		g.logger.Debug("captured clipboard content",
			"id", res.ID, "source_app", obs.SourceApp, "evicted", len(res.Evicted))
	}
	return res, nil
}

// Run drains a feed channel until it closes or ctx is cancelled. Errors are
// logged and do not stop the loop; a failed append must not stall the
// capture stream.
func (g *Ingestor) Run(ctx context.Context, feed <-chan Observation) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-feed:
			if !ok {
				return
			}
			if _, err := g.Observe(obs); err != nil {
				g.logger.Error("failed to ingest observation", "err", err)
			}
		}
	}
}
