package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"", ScopeAllTime},
		{"all-time", ScopeAllTime},
		{"RANGE", ScopeRange},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if err != nil {
			t.Errorf("ParseScope(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseScope("weekly"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope, got %v", err)
	}
}

func TestCompute(t *testing.T) {
	doctor := uuid.New()
	jan2 := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 16, 0, 0, 0, time.UTC)
	jan6 := time.Date(2024, 1, 6, 11, 0, 0, 0, time.UTC)

	in := Input{
		Range:       DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 7)},
		Granularity: GranularityAuto,
		Signups: []SignupRow{
			{ID: uuid.New(), FullName: strPtr("Ada"), Role: strPtr("CLIENT"), CreatedAt: &jan2},
		},
		Results: []ResultRow{
			{ID: uuid.New(), CreatedAt: &jan5},
			{ID: uuid.New(), CreatedAt: &jan5},
			{ID: uuid.New()},
		},
		Records: []RecordRow{
			{ID: uuid.New(), Diagnosis: strPtr("Flu"), CreatedAt: &jan6},
		},
		AuthoredResults: []AuthoredResultRow{
			authored(&doctor, "Dr Who"),
			authored(nil, ""),
			authored(&doctor, "Dr Who"),
		},
	}

	d := Compute(in)

	if d.Granularity != GranularityDay {
		t.Errorf("expected day granularity, got %s", d.Granularity)
	}
	if len(d.Buckets) != 7 || len(d.Series) != 7 {
		t.Fatalf("expected 7 buckets and points, got %d and %d", len(d.Buckets), len(d.Series))
	}
	if d.Series[4].Value != 2 {
		t.Errorf("expected Jan 5 = 2, got %d", d.Series[4].Value)
	}
	if d.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", d.Dropped)
	}

	if d.TimelineTotal != 5 || len(d.Timeline) != 5 {
		t.Fatalf("expected 5 timeline events, got %d", d.TimelineTotal)
	}
	if d.Timeline[0].Kind != KindRecord {
		t.Errorf("expected record newest, got %s", d.Timeline[0].Kind)
	}
	if d.Timeline[4].Date != nil {
		t.Error("expected undated result last")
	}

	if d.LeaderboardScope != ScopeAllTime {
		t.Errorf("expected all-time scope by default, got %s", d.LeaderboardScope)
	}
	if len(d.Leaderboard) != 2 || d.Leaderboard[0].Total != 2 {
		t.Errorf("unexpected leaderboard %+v", d.Leaderboard)
	}

	want := Totals{Signups: 1, Results: 3, Records: 1}
	if d.Totals != want {
		t.Errorf("expected totals %+v, got %+v", want, d.Totals)
	}
}

func TestCompute_DateFilter(t *testing.T) {
	jan2 := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	jan3 := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)

	d := Compute(Input{
		Range:      DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 7)},
		DateFilter: "2024-01-03",
		Results: []ResultRow{
			{ID: uuid.New(), CreatedAt: &jan2},
			{ID: uuid.New(), CreatedAt: &jan3},
		},
	})

	if d.TimelineTotal != 1 {
		t.Errorf("expected 1 event on Jan 3, got %d", d.TimelineTotal)
	}
	total := 0
	for _, p := range d.Series {
		total += p.Value
	}
	if total != 2 {
		t.Errorf("expected the date filter to leave the histogram alone, got %d", total)
	}
}

func TestCompute_Empty(t *testing.T) {
	d := Compute(Input{Range: DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 1)}})

	if len(d.Series) != 1 || d.Series[0].Value != 0 {
		t.Errorf("expected a single zero point, got %+v", d.Series)
	}
	if d.Leaderboard == nil || len(d.Leaderboard) != 0 {
		t.Errorf("expected empty non-nil leaderboard, got %v", d.Leaderboard)
	}
	if d.TimelineTotal != 0 {
		t.Errorf("expected empty timeline, got %d", d.TimelineTotal)
	}
}
