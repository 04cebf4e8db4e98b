// Package search implements the core of buildscout: concurrent multi-source
// search orchestration, schema normalization, merging, filtering, and query
// suggestion heuristics. Provider-specific protocol handling lives behind
// the sources.Adapter contract.
package search

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/sources"
)

// ProgressFunc receives progress checkpoints during a search. Implementations
// are invoked synchronously; a panicking callback is recovered and can never
// lose already-computed results.
type ProgressFunc func(percent int, message string)

// Request describes one multi-source search invocation.
type Request struct {
	Query          string
	Sources        []string
	LimitPerSource int
	DaysBack       int
	SourceParams   map[string]sources.Params
	Progress       ProgressFunc
}

// Orchestrator fans a query out to the configured source adapters, isolates
// per-source failures, and assembles the merged result set with per-source
// timing metadata. The adapter mapping is fixed at construction and shared
// read-only across concurrent searches.
type Orchestrator struct {
	adapters   map[string]sources.Adapter
	names      map[string]string
	normalizer *Normalizer
	logger     *logrus.Logger
}

// NewOrchestrator creates an orchestrator over the given adapter mapping.
// names maps source identifiers to human-readable display names used in
// progress and status messages.
func NewOrchestrator(adapters map[string]sources.Adapter, names map[string]string, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		adapters:   adapters,
		names:      names,
		normalizer: NewNormalizer(logger),
		logger:     logger,
	}
}

// Normalizer exposes the orchestrator's normalizer for callers that need to
// normalize rows outside a search call.
func (o *Orchestrator) Normalizer() *Normalizer {
	return o.normalizer
}

// unit is the outcome of one source's search-and-normalize branch.
type unit struct {
	records ResultSet
	outcome SourceOutcome
}

// SearchAllSources searches the selected sources concurrently and returns
// the merged result set plus per-invocation metadata. Expected failures
// (unknown sources, adapter errors) never surface as errors: they degrade to
// empty results and error metadata.
func (o *Orchestrator) SearchAllSources(ctx context.Context, req Request) (ResultSet, Metadata) {
	start := time.Now()

	o.logger.WithFields(logrus.Fields{
		"query":   req.Query,
		"sources": req.Sources,
		"limit":   req.LimitPerSource,
	}).Info("Starting multi-source search")

	o.reportProgress(req.Progress, 0, fmt.Sprintf("Initialising search for %q...", req.Query))

	valid := make([]string, 0, len(req.Sources))
	for _, src := range req.Sources {
		if _, ok := o.adapters[src]; ok {
			valid = append(valid, src)
		}
	}
	if len(valid) == 0 {
		o.logger.Error("No valid sources selected")
		return ResultSet{}, Metadata{Error: "No valid sources selected"}
	}

	results := make([]unit, len(valid))
	var wg sync.WaitGroup
	for i, src := range valid {
		// Searching spans up to ~80% of the reported progress. Each source's
		// checkpoint is emitted here, before its goroutine starts, so the
		// callback always runs on the caller's goroutine and the reported
		// percentages never go backwards.
		o.reportProgress(req.Progress, i*80/len(valid), fmt.Sprintf("Searching %s...", o.displayName(src)))
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			results[i] = o.searchSource(ctx, src, req.Query, req.LimitPerSource, req.DaysBack, req.SourceParams[src])
		}(i, src)
	}
	wg.Wait()

	o.reportProgress(req.Progress, 90, "Merging and normalizing results...")

	sets := make([]ResultSet, 0, len(valid))
	sourceResults := make(map[string]SourceOutcome, len(valid))
	for i, src := range valid {
		sourceResults[src] = results[i].outcome
		if results[i].outcome.Success {
			sets = append(sets, results[i].records)
		}
	}
	merged := Merge(sets)

	elapsed := time.Since(start).Seconds()
	meta := Metadata{
		Query:             req.Query,
		SourcesSearched:   valid,
		TotalResults:      len(merged),
		SearchTimeSeconds: round2(elapsed),
		SearchTimestamp:   time.Now().UTC(),
		SourceResults:     sourceResults,
	}

	o.reportProgress(req.Progress, 100, fmt.Sprintf("Search completed! Found %d total results.", len(merged)))

	o.logger.WithFields(logrus.Fields{
		"total_results": len(merged),
		"elapsed":       fmt.Sprintf("%.2fs", elapsed),
	}).Info("Search completed")

	return merged, meta
}

// SearchSingleSource runs one fan-out branch directly for a single provider.
// An unknown source is a local error reported in the outcome, not a failure
// of the call.
func (o *Orchestrator) SearchSingleSource(ctx context.Context, source, query string, limit, daysBack int, params sources.Params) (ResultSet, SourceOutcome) {
	if _, ok := o.adapters[source]; !ok {
		o.logger.WithField("source", source).Error("Unknown source")
		return ResultSet{}, SourceOutcome{
			Success: false,
			Error:   fmt.Sprintf("unknown source: %s", source),
		}
	}

	u := o.searchSource(ctx, source, query, limit, daysBack, params)
	return u.records, u.outcome
}

// searchSource runs one adapter's search followed by normalization, timing
// the whole unit. Errors and panics both become failed outcomes so one
// source can never disturb its siblings.
func (o *Orchestrator) searchSource(ctx context.Context, source, query string, limit, daysBack int, params sources.Params) (u unit) {
	adapter := o.adapters[source]
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"source": source,
				"panic":  fmt.Sprint(r),
			}).Error("Source search panicked")
			u = unit{
				records: ResultSet{},
				outcome: SourceOutcome{
					Success:           false,
					Error:             fmt.Sprintf("panic: %v", r),
					SearchTimeSeconds: round2(time.Since(start).Seconds()),
					ScraperConfigured: adapter.ValidateConfig(),
				},
			}
		}
	}()

	raw, err := adapter.Search(ctx, query, limit, daysBack, params)
	if err != nil {
		o.logger.WithFields(logrus.Fields{
			"source": source,
			"error":  err.Error(),
		}).Error("Source search failed")
		return unit{
			records: ResultSet{},
			outcome: SourceOutcome{
				Success:           false,
				Error:             err.Error(),
				SearchTimeSeconds: round2(time.Since(start).Seconds()),
				ScraperConfigured: adapter.ValidateConfig(),
			},
		}
	}

	records := o.normalizer.NormalizeAll(raw, source)
	elapsed := time.Since(start).Seconds()

	o.logger.WithFields(logrus.Fields{
		"source":  source,
		"count":   len(records),
		"elapsed": fmt.Sprintf("%.2fs", elapsed),
	}).Info("Source search completed")

	return unit{
		records: records,
		outcome: SourceOutcome{
			Success:           true,
			Count:             len(records),
			SearchTimeSeconds: round2(elapsed),
			ScraperConfigured: adapter.ValidateConfig(),
		},
	}
}

// ScraperStatus reports each configured adapter's display name and
// configuration state. Available is always true for registered adapters.
func (o *Orchestrator) ScraperStatus() map[string]SourceStatus {
	status := make(map[string]SourceStatus, len(o.adapters))
	for source, adapter := range o.adapters {
		status[source] = SourceStatus{
			Name:       o.displayName(source),
			Configured: adapter.ValidateConfig(),
			Available:  true,
		}
	}
	return status
}

// Suggestions proposes query refinements. See Suggestions in suggest.go.
func (o *Orchestrator) Suggestions(query string) []string {
	return Suggestions(query)
}

// FilterResults applies the given filters to a result set. See
// FilterResults in filter.go.
func (o *Orchestrator) FilterResults(rs ResultSet, f Filter) ResultSet {
	filtered := FilterResults(rs, f)
	o.logger.WithFields(logrus.Fields{
		"before": len(rs),
		"after":  len(filtered),
	}).Info("Filtered results")
	return filtered
}

func (o *Orchestrator) displayName(source string) string {
	if name, ok := o.names[source]; ok {
		return name
	}
	return source
}

func (o *Orchestrator) reportProgress(fn ProgressFunc, percent int, message string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"percent": percent,
				"panic":   fmt.Sprint(r),
			}).Warn("Progress callback panicked")
		}
	}()
	fn(percent, message)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
