package rank

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinityhardik/shiftPaste/internal/config"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

func testEngine() Engine {
	return New(config.DefaultConfig())
}

func clip(id int64, content string, basis int64) record.Queryable {
	return record.Queryable{
		Kind:         record.KindClipboard,
		ID:           id,
		Content:      content,
		RecencyBasis: basis,
	}
}

func master(id int64, content, collection string, basis int64) record.Queryable {
	return record.Queryable{
		Kind:         record.KindMaster,
		ID:           id,
		Content:      content,
		Collection:   collection,
		RecencyBasis: basis,
	}
}

func TestMatch_SubsequenceIsLeftmostGreedy(t *testing.T) {
	e := testEngine()

	positions, ok := e.Match("mrlx", "MARLEX")
	require.True(t, ok)
	assert.Equal(t, []int{0, 2, 3, 5}, positions)
}

func TestMatch_OrderMatters(t *testing.T) {
	e := testEngine()

	// All query characters occur in the content, but not in order.
	_, ok := e.Match("xml", "MARLEX")
	assert.False(t, ok)
}

func TestMatch_CaseAndSpaceInsensitive(t *testing.T) {
	e := testEngine()

	_, ok := e.Match("MR LX", "marlex pipes")
	assert.True(t, ok)
}

func TestMatch_EmptyQueryMatchesEverything(t *testing.T) {
	e := testEngine()

	positions, ok := e.Match("", "anything at all")
	require.True(t, ok)
	assert.Empty(t, positions)
}

func TestQuality_ScatteredMatch(t *testing.T) {
	e := testEngine()
	now := time.Now()

	// m@0, r@2, l@3, x@5 against "marlex":
	// raw = 2.0 (base) + 4.0 (first char) - 0.5 (gap a) + 5.0 (rl adjacent)
	//       - 0.5 (gap e) = 10.0
	// best = 2.0 + 4.0 + 3*(5.0+3.0) = 30.0
	results := e.Rank("mrlx", []record.Queryable{clip(1, "MARLEX", now.Unix())}, now, 0)
	require.Len(t, results, 1)
	assert.InDelta(t, 10.0/30.0, results[0].Quality, 1e-9)
	assert.Equal(t, []int{0, 2, 3, 5}, results[0].Positions)
}

func TestQuality_ConsecutiveBeatsScattered(t *testing.T) {
	e := testEngine()
	now := time.Now()
	basis := now.Unix()

	results := e.Rank("mar", []record.Queryable{
		clip(1, "marlex", basis),
		clip(2, "m-a-r", basis),
	}, now, 0)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].Record.ID,
		"contiguous match should outrank scattered match")
	assert.Greater(t, results[0].Quality, results[1].Quality)
}

func TestQuality_WordBoundaryBonus(t *testing.T) {
	e := testEngine()
	now := time.Now()
	basis := now.Unix()

	// Same gap structure apart from the boundary: "foo bar" gives the b a
	// word-boundary bonus, "foodbar" does not.
	results := e.Rank("fb", []record.Queryable{
		clip(1, "foodbar", basis),
		clip(2, "foo bar", basis),
	}, now, 0)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].Record.ID)
}

func TestQuality_ClampsAtZero(t *testing.T) {
	e := testEngine()
	now := time.Now()

	// Huge gap between matched characters drives the raw score negative;
	// quality must clamp at zero, not go below.
	content := "z" + strings.Repeat("q", 100) + "y"
	results := e.Rank("zy", []record.Queryable{clip(1, content, now.Unix())}, now, 0)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].Quality, 0.0)
	assert.Equal(t, 0.0, results[0].Quality)
}

func TestQuality_EmptyQueryBaseline(t *testing.T) {
	e := testEngine()
	now := time.Now()

	results := e.Rank("", []record.Queryable{clip(1, "whatever", now.Unix())}, now, 0)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Quality)
}

func TestRecency_DecaysWithAge(t *testing.T) {
	e := testEngine()
	now := time.Now()

	fresh := e.Recency(now, now.Unix())
	weekOld := e.Recency(now, now.Add(-168*time.Hour).Unix())
	monthOld := e.Recency(now, now.Add(-4*168*time.Hour).Unix())

	assert.InDelta(t, 1.0, fresh, 1e-3)
	assert.InDelta(t, 0.5, weekOld, 1e-3) // one half-life
	assert.Greater(t, weekOld, monthOld)
}

func TestRecency_FutureTimestampClamps(t *testing.T) {
	e := testEngine()
	now := time.Now()

	assert.Equal(t, 1.0, e.Recency(now, now.Add(time.Hour).Unix()))
}

func TestRank_RecencyBreaksQualityTies(t *testing.T) {
	e := testEngine()
	now := time.Now()

	results := e.Rank("marlex", []record.Queryable{
		clip(1, "marlex", now.Add(-24*time.Hour).Unix()),
		clip(2, "marlex", now.Unix()),
	}, now, 0)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].Record.ID)
}

func TestRank_IDBreaksFullTies(t *testing.T) {
	e := testEngine()
	now := time.Now()
	basis := now.Unix()

	results := e.Rank("marlex", []record.Queryable{
		clip(3, "marlex", basis),
		clip(7, "marlex", basis),
		clip(5, "marlex", basis),
	}, now, 0)
	require.Len(t, results, 3)
	assert.Equal(t, int64(7), results[0].Record.ID)
	assert.Equal(t, int64(5), results[1].Record.ID)
	assert.Equal(t, int64(3), results[2].Record.ID)
}

func TestRank_MasterBoost(t *testing.T) {
	e := testEngine()
	now := time.Now()
	basis := now.Unix()

	results := e.Rank("marlex", []record.Queryable{
		clip(1, "marlex", basis),
		master(1, "marlex", "pipes", basis),
	}, now, 0)
	require.Len(t, results, 2)
	assert.Equal(t, record.KindMaster, results[0].Record.Kind)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRank_NonMatchesExcluded(t *testing.T) {
	e := testEngine()
	now := time.Now()

	results := e.Rank("zzz", []record.Queryable{
		clip(1, "marlex", now.Unix()),
		clip(2, "pipes", now.Unix()),
	}, now, 0)
	assert.Empty(t, results)
}

func TestRank_TruncatesToMaxResults(t *testing.T) {
	e := testEngine()
	now := time.Now()

	candidates := make([]record.Queryable, 10)
	for i := range candidates {
		candidates[i] = clip(int64(i+1), "marlex", now.Unix())
	}

	results := e.Rank("mar", candidates, now, 3)
	assert.Len(t, results, 3)
}

func TestRank_Deterministic(t *testing.T) {
	e := testEngine()
	now := time.Now()
	basis := now.Unix()

	candidates := []record.Queryable{
		clip(1, "marlex pipes", basis),
		master(2, "marlex fittings", "catalog", basis-100),
		clip(3, "mr lx notes", basis-50),
	}

	first := e.Rank("mrlx", candidates, now, 0)
	for i := 0; i < 5; i++ {
		again := e.Rank("mrlx", candidates, now, 0)
		require.Equal(t, first, again)
	}
}
