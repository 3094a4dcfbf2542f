package availability

import (
	"sort"
	"time"
)

// mergeIntervals collapses overlapping and touching intervals into a
// sorted, disjoint set. Empty intervals are dropped.
func mergeIntervals(intervals []Interval) []Interval {
	kept := make([]Interval, 0, len(intervals))
	for _, interval := range intervals {
		if !interval.Empty() {
			kept = append(kept, interval)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Start.Before(kept[j].Start)
	})

	merged := []Interval{kept[0]}
	for _, interval := range kept[1:] {
		last := &merged[len(merged)-1]
		if !interval.Start.After(last.End) {
			if interval.End.After(last.End) {
				last.End = interval.End
			}
			continue
		}
		merged = append(merged, interval)
	}
	return merged
}

// subtractIntervals removes busy from the window, returning the gaps.
// busy must be sorted and disjoint (mergeIntervals output).
func subtractIntervals(window Interval, busy []Interval) []Interval {
	if window.Empty() {
		return nil
	}

	var free []Interval
	cursor := window.Start
	for _, interval := range busy {
		if !interval.End.After(window.Start) || !interval.Start.Before(window.End) {
			continue
		}
		if interval.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: minTime(interval.Start, window.End)})
		}
		if interval.End.After(cursor) {
			cursor = interval.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// intersectIntervals returns the overlap of two sorted, disjoint sets.
func intersectIntervals(a, b []Interval) []Interval {
	var result []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if end.After(start) {
			result = append(result, Interval{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return result
}

func clipIntervals(intervals []Interval, window Interval) []Interval {
	var clipped []Interval
	for _, interval := range intervals {
		start := maxTime(interval.Start, window.Start)
		end := minTime(interval.End, window.End)
		if end.After(start) {
			clipped = append(clipped, Interval{Start: start, End: end})
		}
	}
	return clipped
}

func filterMinDuration(intervals []Interval, minDuration time.Duration) []Interval {
	if minDuration <= 0 {
		return intervals
	}
	var filtered []Interval
	for _, interval := range intervals {
		if interval.Duration() >= minDuration {
			filtered = append(filtered, interval)
		}
	}
	return filtered
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
