// Package query is the read-side facade: it narrows the candidate set via
// the lexical index, hands the candidates to the ranking engine, and returns
// the top results. It never writes and never blocks behind a writer.
package query

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/infinityhardik/shiftPaste/internal/config"
	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/rank"
	"github.com/infinityhardik/shiftPaste/internal/record"
	"github.com/infinityhardik/shiftPaste/internal/store"
)

// Result limits
const (
	DefaultMaxResults = 20
	MaxMaxResults     = 100
)

// Input contains parameters for a query.
type Input struct {
	Query       string
	MaxResults  int         // default 20, capped at 100
	Scope       store.Scope // default: all
	Collections []string    // optional master-collection filter
}

// Output contains the ranked results.
type Output struct {
	Results []rank.Result `json:"results"`
	// FullScan reports whether the index was bypassed for this query.
	FullScan bool `json:"full_scan,omitempty"`
}

// Facade orchestrates index, store, and ranking engine for reads.
type Facade struct {
	store      *store.Store
	engine     rank.Engine
	floorChars int
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithClock sets the time source used for recency scoring. Default time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) {
		if now != nil {
			f.now = now
		}
	}
}

// New creates a query facade over a store.
func New(st *store.Store, cfg *config.Config, opts ...Option) *Facade {
	f := &Facade{
		store:      st,
		engine:     rank.New(cfg),
		floorChars: cfg.ScanFloorChars,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Query runs one synchronous search. Safe to call concurrently with writers;
// the candidate read observes a consistent store snapshot.
func (f *Facade) Query(in Input) (*Output, error) {
	scope := in.Scope
	if scope == "" {
		scope = store.ScopeAll
	}
	if !store.ValidScope(scope) {
		return nil, errors.NewInvalidRequest("scope must be one of: all, clipboard, master")
	}

	maxResults := in.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxMaxResults {
		maxResults = MaxMaxResults
	}

	candidates, fullScan, err := f.candidates(in.Query, scope, in.Collections)
	if err != nil {
		return nil, err
	}

	results := f.engine.Rank(in.Query, candidates, f.now(), maxResults)
	return &Output{Results: results, FullScan: fullScan}, nil
}

// candidates fetches the records to rank. The empty query always full-scans.
// Otherwise the index narrows the set; if it comes back empty and the query
// is below the scan floor the facade falls back to a full scan, because a
// very short query may match via scattered single characters the index
// cannot anticipate.
func (f *Facade) candidates(query string, scope store.Scope, collections []string) ([]record.Queryable, bool, error) {
	queryNorm := record.NormalizeQuery(query)
	if queryNorm == "" {
		cands, err := f.store.FetchCandidates(scope, collections)
		return cands, true, err
	}

	refs, err := index.Candidates(f.store.DB(), queryNorm)
	if err != nil {
		return nil, false, err
	}

	if len(refs) == 0 {
		if utf8.RuneCountInString(queryNorm) < f.floorChars {
			f.logger.Debug("index returned no candidates, full scan",
				"query_chars", utf8.RuneCountInString(queryNorm), "floor", f.floorChars)
			cands, err := f.store.FetchCandidates(scope, collections)
			return cands, true, err
		}
		return nil, false, nil
	}

	refs = filterRefs(refs, scope)
	cands, err := f.store.FetchByRefs(refs)
	if err != nil {
		return nil, false, err
	}
	return filterCollections(cands, collections), false, nil
}

func filterRefs(refs []index.Ref, scope store.Scope) []index.Ref {
	if scope == store.ScopeAll {
		return refs
	}
	want := record.KindClipboard
	if scope == store.ScopeMaster {
		want = record.KindMaster
	}
	out := refs[:0]
	for _, r := range refs {
		if r.Kind == want {
			out = append(out, r)
		}
	}
	return out
}

func filterCollections(cands []record.Queryable, collections []string) []record.Queryable {
	if len(collections) == 0 {
		return cands
	}
	allowed := make(map[string]bool, len(collections))
	for _, c := range collections {
		allowed[c] = true
	}
	out := cands[:0]
	for _, c := range cands {
		if c.Kind == record.KindClipboard || allowed[c.Collection] {
			out = append(out, c)
		}
	}
	return out
}
