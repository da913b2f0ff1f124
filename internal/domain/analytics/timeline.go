package analytics

import (
	"sort"
	"time"
)

// DefaultPreviewLimit is how many feed entries the compact view shows.
const DefaultPreviewLimit = 6

// DateFilterLayout is the format of the exact-date timeline filter.
const DateFilterLayout = "2006-01-02"

// Timeline is a merged, newest-first activity feed.
type Timeline struct {
	Events []TimelineEvent
}

// MergeTimeline concatenates the sources in argument order and sorts the
// result newest first. The sort is stable, so events with equal dates keep
// their concatenation order; events without a date go last. A non-empty
// dateFilter (YYYY-MM-DD) keeps only events on that UTC day.
func MergeTimeline(dateFilter string, sources ...[]TimelineEvent) Timeline {
	n := 0
	for _, s := range sources {
		n += len(s)
	}

	merged := make([]TimelineEvent, 0, n)
	for _, s := range sources {
		for _, ev := range s {
			if dateFilter != "" && !onDate(ev, dateFilter) {
				continue
			}
			merged = append(merged, ev)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return newer(merged[i], merged[j])
	})
	return Timeline{Events: merged}
}

// Len is the number of events after filtering.
func (t Timeline) Len() int { return len(t.Events) }

// Preview returns the first n events. n <= 0 means everything.
func (t Timeline) Preview(n int) []TimelineEvent {
	if n <= 0 || n >= len(t.Events) {
		return t.Events
	}
	return t.Events[:n]
}

// HasMore reports whether Preview(n) hides any events.
func (t Timeline) HasMore(n int) bool {
	return n > 0 && len(t.Events) > n
}

// DateKey formats t the way the exact-date filter compares it.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateFilterLayout)
}

func onDate(ev TimelineEvent, day string) bool {
	return ev.Date != nil && DateKey(*ev.Date) == day
}

func newer(a, b TimelineEvent) bool {
	switch {
	case a.Date == nil:
		return false
	case b.Date == nil:
		return true
	}
	return a.Date.After(*b.Date)
}
