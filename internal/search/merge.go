package search

import "sort"

// Merge concatenates normalized per-source result sets into one set ordered
// newest first. Empty sets are dropped; records without a date are treated
// as oldest and settle after every dated record. No deduplication happens
// across sources. The returned set is a fresh slice with sequential order.
func Merge(sets []ResultSet) ResultSet {
	merged := ResultSet{}
	for _, set := range sets {
		if len(set) == 0 {
			continue
		}
		merged = append(merged, set...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		di, dj := merged[i].Date, merged[j].Date
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})

	return merged
}
