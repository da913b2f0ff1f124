package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// Scope selects which results feed the leaderboard.
type Scope string

const (
	// ScopeAllTime ranks doctors over every result ever uploaded.
	ScopeAllTime Scope = "all-time"
	// ScopeRange ranks doctors over results inside the dashboard range.
	ScopeRange Scope = "range"
)

var ErrInvalidScope = errors.New("invalid leaderboard scope")

// ParseScope accepts all-time or range. An empty string means all-time.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeAllTime, nil
	case ScopeAllTime, ScopeRange:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// Input is one snapshot of rows for a dashboard computation. Signups,
// Results and Records must already be limited to Range; AuthoredResults is
// limited according to LeaderboardScope by whoever fetched it.
type Input struct {
	Range            DateRange
	Granularity      Granularity
	DateFilter       string
	LeaderboardScope Scope

	Signups         []SignupRow
	Results         []ResultRow
	Records         []RecordRow
	AuthoredResults []AuthoredResultRow
}

// Compute builds the whole dashboard from a snapshot. It does no I/O and
// holds no state between calls.
func Compute(in Input) *Dashboard {
	plan := PlanBuckets(in.Range, in.Granularity)
	hist := plan.Fill(in.Results)

	timeline := MergeTimeline(in.DateFilter,
		NormalizeSignups(in.Signups),
		NormalizeResults(in.Results),
		NormalizeRecords(in.Records),
	)

	scope := in.LeaderboardScope
	if scope == "" {
		scope = ScopeAllTime
	}

	return &Dashboard{
		Range:            plan.Range,
		Granularity:      plan.Granularity,
		Buckets:          plan.Buckets,
		Series:           hist.Points,
		Dropped:          hist.Dropped,
		Timeline:         timeline.Events,
		TimelineTotal:    timeline.Len(),
		Leaderboard:      Leaderboard(in.AuthoredResults),
		LeaderboardScope: scope,
		Totals: Totals{
			Signups: len(in.Signups),
			Results: len(in.Results),
			Records: len(in.Records),
		},
	}
}
