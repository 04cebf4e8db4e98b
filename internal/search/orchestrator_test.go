package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildscout/buildscout/internal/sources"
)

// stubAdapter is a canned sources.Adapter for orchestrator tests.
type stubAdapter struct {
	name       string
	rows       []map[string]any
	err        error
	panics     bool
	configured bool
	delay      time.Duration
}

func (s *stubAdapter) Name() string         { return s.name }
func (s *stubAdapter) ValidateConfig() bool { return s.configured }

func (s *stubAdapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panics {
		panic("adapter exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func newTestOrchestrator(adapters map[string]sources.Adapter) *Orchestrator {
	names := map[string]string{"good": "Good Source", "bad": "Bad Source"}
	return NewOrchestrator(adapters, names, testLogger())
}

func TestSearchAllSourcesMixedSuccessAndFailure(t *testing.T) {
	rows := []map[string]any{
		{"title": "one", "created_utc": 1695900000},
		{"title": "two", "created_utc": 1695800000},
		{"title": "three"},
		{"title": "four"},
	}
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: rows, configured: true},
		"bad":  &stubAdapter{name: "bad", err: errors.New("connection refused"), configured: true},
	})

	results, meta := orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"good", "bad"},
	})

	assert.Len(t, results, 4)
	assert.Empty(t, meta.Error)
	assert.Equal(t, 4, meta.TotalResults)
	assert.ElementsMatch(t, []string{"good", "bad"}, meta.SourcesSearched)

	good := meta.SourceResults["good"]
	assert.True(t, good.Success)
	assert.Equal(t, 4, good.Count)

	bad := meta.SourceResults["bad"]
	assert.False(t, bad.Success)
	assert.Equal(t, 0, bad.Count)
	assert.Equal(t, "connection refused", bad.Error)
	assert.True(t, bad.ScraperConfigured)
}

func TestSearchAllSourcesResultsSortedNewestFirst(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: []map[string]any{
			{"title": "older", "created_utc": 1695800000},
			{"title": "newer", "created_utc": 1695900000},
			{"title": "undated"},
		}},
	})

	results, _ := orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"good"},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "newer", results[0].Title)
	assert.Equal(t, "older", results[1].Title)
	assert.Equal(t, "undated", results[2].Title)
}

func TestSearchAllSourcesNoValidSources(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good"},
	})

	results, meta := orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"nope", "also-nope"},
	})

	assert.NotNil(t, results)
	assert.Len(t, results, 0)
	assert.Equal(t, "No valid sources selected", meta.Error)
}

func TestSearchAllSourcesUnknownSourcesAreSkipped(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: []map[string]any{{"title": "hit"}}},
	})

	results, meta := orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"good", "unknown"},
	})

	assert.Len(t, results, 1)
	assert.Equal(t, []string{"good"}, meta.SourcesSearched)
	_, reported := meta.SourceResults["unknown"]
	assert.False(t, reported)
}

func TestSearchAllSourcesPanicIsolation(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: []map[string]any{{"title": "hit"}}},
		"bad":  &stubAdapter{name: "bad", panics: true},
	})

	results, meta := orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"good", "bad"},
	})

	assert.Len(t, results, 1)
	bad := meta.SourceResults["bad"]
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, "adapter exploded")
}

func TestSearchAllSourcesProgressCheckpoints(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: []map[string]any{{"title": "hit"}}},
	})

	var percents []int
	_, _ = orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"good"},
		Progress: func(percent int, message string) {
			percents = append(percents, percent)
		},
	})

	require.NotEmpty(t, percents)
	assert.Equal(t, 0, percents[0])
	assert.Equal(t, 100, percents[len(percents)-1])
	for _, p := range percents {
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestSearchAllSourcesProgressMonotonicAcrossSources(t *testing.T) {
	ids := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	adapters := make(map[string]sources.Adapter, len(ids))
	for _, id := range ids {
		adapters[id] = &stubAdapter{
			name:  id,
			rows:  []map[string]any{{"title": id}},
			delay: time.Millisecond,
		}
	}
	orch := newTestOrchestrator(adapters)

	var percents []int
	_, _ = orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: ids,
		Progress: func(percent int, message string) {
			percents = append(percents, percent)
		},
	})

	// 0%, one checkpoint per source, then merge and completion.
	require.Len(t, percents, len(ids)+3)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1],
			"progress went backwards at step %d: %v", i, percents)
	}
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestSearchAllSourcesPanickingProgressCallback(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: []map[string]any{{"title": "hit"}}},
	})

	results, meta := orch.SearchAllSources(context.Background(), Request{
		Query:    "roof",
		Sources:  []string{"good"},
		Progress: func(percent int, message string) { panic("observer bug") },
	})

	assert.Len(t, results, 1)
	assert.Empty(t, meta.Error)
}

func TestSearchSingleSource(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", rows: []map[string]any{{"title": "hit"}}, configured: true},
	})

	results, outcome := orch.SearchSingleSource(context.Background(), "good", "roof", 10, 30, nil)
	assert.Len(t, results, 1)
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.Count)

	results, outcome = orch.SearchSingleSource(context.Background(), "missing", "roof", 10, 30, nil)
	assert.Len(t, results, 0)
	assert.False(t, outcome.Success)
	assert.Equal(t, "unknown source: missing", outcome.Error)
}

func TestScraperStatus(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", configured: true},
		"bad":  &stubAdapter{name: "bad", configured: false},
	})

	status := orch.ScraperStatus()
	require.Len(t, status, 2)
	assert.Equal(t, "Good Source", status["good"].Name)
	assert.True(t, status["good"].Configured)
	assert.True(t, status["good"].Available)
	assert.False(t, status["bad"].Configured)
}

func TestSearchAllSourcesMetadataTiming(t *testing.T) {
	orch := newTestOrchestrator(map[string]sources.Adapter{
		"good": &stubAdapter{name: "good", delay: 20 * time.Millisecond},
	})

	before := time.Now().UTC()
	_, meta := orch.SearchAllSources(context.Background(), Request{
		Query:   "roof",
		Sources: []string{"good"},
	})

	assert.GreaterOrEqual(t, meta.SearchTimeSeconds, 0.0)
	assert.False(t, meta.SearchTimestamp.Before(before))
	assert.Equal(t, time.UTC, meta.SearchTimestamp.Location())
}
