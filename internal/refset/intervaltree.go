package refset

import "sort"

// IntervalTree provides O(log n + k) range-overlap queries using a
// sorted-slice approach. Entries are added once at build time and never
// modified afterwards.
type IntervalTree struct {
	entries []Entry
	maxEnd  []int64 // maxEnd[i] = max(End) for entries[0..i]
}

// Entry is one reference interval inside a Collection, carrying the name and
// precedence rank of its sub-collection plus its position in the concatenation
// of all sub-collections (discovery order).
type Entry struct {
	Interval Interval
	SetName  string
	Rank     int
	Ord      int
}

// BuildIntervalTree creates an interval tree from a slice of entries.
func BuildIntervalTree(entries []Entry) *IntervalTree {
	if len(entries) == 0 {
		return &IntervalTree{}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Interval.Start < sorted[j].Interval.Start
	})

	// Build prefix-max array: maxEnd[i] = max(end) for sorted[0..i]
	maxEnd := make([]int64, len(sorted))
	maxEnd[0] = sorted[0].Interval.End
	for i := 1; i < len(sorted); i++ {
		maxEnd[i] = sorted[i].Interval.End
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &IntervalTree{entries: sorted, maxEnd: maxEnd}
}

// FindOverlapping returns all entries whose interval shares at least one base
// with [start, end], in discovery order (ascending Ord).
func (t *IntervalTree) FindOverlapping(start, end int64) []Entry {
	if len(t.entries) == 0 {
		return nil
	}

	var result []Entry

	// Binary search: find rightmost entry with start <= end.
	// All candidates must start at or before the query end, so we only
	// need to scan from index 0 to that boundary.
	hi := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Interval.Start > end
	})
	// hi is the first index with start > end; candidates are [0, hi).

	for i := hi - 1; i >= 0; i-- {
		// Prune: maxEnd[i] is the max end for entries[0..i].
		// If maxEnd[i] < start, no entry at or before i can reach the query.
		if t.maxEnd[i] < start {
			break
		}
		if t.entries[i].Interval.End >= start {
			result = append(result, t.entries[i])
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ord < result[j].Ord
	})

	return result
}
