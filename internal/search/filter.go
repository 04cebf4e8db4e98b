package search

import (
	"strings"
	"time"
)

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Filter holds optional result filters. Omitted (zero/nil) filters are
// no-ops; provided filters compose with logical AND.
type Filter struct {
	Sources  []string
	Dates    *DateRange
	MinScore *float64
	Keyword  string
}

// FilterResults returns a new filtered view of the result set without
// mutating the input. Records with a nil date are excluded whenever a date
// range is given. The keyword filter is a case-insensitive substring match
// against title or body.
func FilterResults(rs ResultSet, f Filter) ResultSet {
	if len(rs) == 0 {
		return rs
	}

	var sourceSet map[string]struct{}
	if len(f.Sources) > 0 {
		sourceSet = make(map[string]struct{}, len(f.Sources))
		for _, s := range f.Sources {
			sourceSet[s] = struct{}{}
		}
	}
	keyword := strings.ToLower(f.Keyword)

	filtered := make(ResultSet, 0, len(rs))
	for _, rec := range rs {
		if sourceSet != nil {
			if _, ok := sourceSet[rec.Source]; !ok {
				continue
			}
		}
		if f.Dates != nil {
			if rec.Date == nil || rec.Date.Before(f.Dates.Start) || rec.Date.After(f.Dates.End) {
				continue
			}
		}
		if f.MinScore != nil && rec.Score < *f.MinScore {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(rec.Title), keyword) &&
			!strings.Contains(strings.ToLower(rec.Body), keyword) {
			continue
		}
		filtered = append(filtered, rec)
	}

	return filtered
}
