// Package rank implements the ranking engine: a pure function from a query
// and a candidate set to an ordered, scored result list. It holds no state
// beyond its configuration and touches no storage, which keeps every result
// reproducible from (query, candidates, now) alone.
package rank

import (
	"sort"
	"time"
	"unicode"

	"github.com/infinityhardik/shiftPaste/internal/config"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// baseQuality is the fixed score for any successful sequential match before
// bonuses and penalties apply.
const baseQuality = 2.0

// Engine scores and orders candidates. The zero value is unusable; build
// one with New.
type Engine struct {
	halfLifeHours     float64
	masterBoost       float64
	qualityWeight     float64
	recencyWeight     float64
	consecutiveBonus  float64
	firstCharBonus    float64
	wordBoundaryBonus float64
	gapPenalty        float64
}

// New builds an engine from the scoring section of the configuration.
func New(cfg *config.Config) Engine {
	return Engine{
		halfLifeHours:     cfg.RecencyHalfLifeHours,
		masterBoost:       cfg.MasterBoost,
		qualityWeight:     cfg.QualityWeight,
		recencyWeight:     cfg.RecencyWeight,
		consecutiveBonus:  cfg.ConsecutiveBonus,
		firstCharBonus:    cfg.FirstCharBonus,
		wordBoundaryBonus: cfg.WordBoundaryBonus,
		gapPenalty:        cfg.GapPenalty,
	}
}

// Result is one ranked candidate.
type Result struct {
	Record  record.Queryable `json:"record"`
	Score   float64          `json:"score"`
	Quality float64          `json:"quality"`
	Recency float64          `json:"recency"`

	// Positions holds the rune indices of the matched characters within the
	// normalized content, in match order. Empty for an empty query.
	Positions []int `json:"positions,omitempty"`
}

// Rank matches, scores, and orders candidates against the query. Candidates
// that do not sequentially match are excluded entirely. The result is
// descending by score, ties broken by recency basis (newer first), then by
// id (higher first), then by kind, so identical inputs always produce the
// identical list. maxResults > 0 truncates.
func (e Engine) Rank(query string, candidates []record.Queryable, now time.Time, maxResults int) []Result {
	needle := []rune(record.NormalizeQuery(query))

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		haystack := []rune(record.Normalize(c.Content))
		positions, ok := match(needle, haystack)
		if !ok {
			continue
		}

		quality := e.quality(positions, haystack)
		recency := e.Recency(now, c.RecencyBasis)

		score := e.qualityWeight*quality + e.recencyWeight*recency
		if c.Kind == record.KindMaster {
			score *= e.masterBoost
		}

		results = append(results, Result{
			Record:    c,
			Score:     score,
			Quality:   quality,
			Recency:   recency,
			Positions: positions,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Record.RecencyBasis != b.Record.RecencyBasis {
			return a.Record.RecencyBasis > b.Record.RecencyBasis
		}
		if a.Record.ID != b.Record.ID {
			return a.Record.ID > b.Record.ID
		}
		return a.Record.Kind > b.Record.Kind
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Match reports whether content sequentially matches query, and at which
// normalized rune positions. Exposed for callers that need the predicate
// without scoring.
func (e Engine) Match(query, content string) ([]int, bool) {
	return match([]rune(record.NormalizeQuery(query)), []rune(record.Normalize(content)))
}

// match runs the leftmost-greedy scan: each query rune is matched at the
// first available position at or after the previous match. An empty query
// matches everything.
func match(needle, haystack []rune) ([]int, bool) {
	if len(needle) == 0 {
		return nil, true
	}

	positions := make([]int, 0, len(needle))
	from := 0
	for _, qr := range needle {
		found := -1
		for i := from; i < len(haystack); i++ {
			if haystack[i] == qr {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, false
		}
		positions = append(positions, found)
		from = found + 1
	}
	return positions, true
}

// quality computes normalized match quality in [0, 1] from the greedy match
// positions. An empty query scores the fixed baseline 1.0 so empty-query
// ordering falls entirely to recency and boost.
//
// Raw scoring: baseQuality for the match, a consecutive bonus per adjacent
// matched pair with no gap, a first-character bonus when the match starts
// the content or follows a non-alphanumeric boundary, a word-boundary bonus
// for every later matched rune that starts a word, and a penalty per skipped
// rune between matched positions. A given position earns at most one
// boundary bonus. The raw value is clamped at zero and divided by the best
// raw value achievable for this query length, which is constant per query
// and therefore preserves ordering between candidates.
func (e Engine) quality(positions []int, haystack []rune) float64 {
	n := len(positions)
	if n == 0 {
		return 1.0
	}

	raw := baseQuality

	// Position 0 earns the first-character bonus or nothing; later positions
	// earn the word-boundary bonus at most once each. The consecutive bonus
	// and gap penalty are independent of the boundary bonuses.
	if isBoundary(haystack, positions[0]) {
		raw += e.firstCharBonus
	}
	for i := 1; i < n; i++ {
		gap := positions[i] - positions[i-1] - 1
		if gap == 0 {
			raw += e.consecutiveBonus
		} else {
			raw -= e.gapPenalty * float64(gap)
		}
		if isBoundary(haystack, positions[i]) {
			raw += e.wordBoundaryBonus
		}
	}

	if raw < 0 {
		raw = 0
	}

	best := baseQuality + e.firstCharBonus +
		(e.consecutiveBonus+e.wordBoundaryBonus)*float64(n-1)
	quality := raw / best
	if quality > 1 {
		quality = 1
	}
	return quality
}

// Recency maps a record's recency basis to (0, 1]: 1/(1 + age/halflife)
// with age measured in hours. Timestamps in the future clamp to age zero.
func (e Engine) Recency(now time.Time, basis int64) float64 {
	ageHours := now.Sub(time.Unix(basis, 0)).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return 1.0 / (1.0 + ageHours/e.halfLifeHours)
}

// isBoundary reports whether the rune at pos starts the text or follows a
// non-alphanumeric rune.
func isBoundary(text []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	prev := text[pos-1]
	return !isAlnum(prev)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
