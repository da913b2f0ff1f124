package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ── Mock Repository ──

type mockRepo struct {
	mu sync.Mutex

	signups  []SignupRow
	results  []ResultRow
	records  []RecordRow
	authored []AuthoredResultRow

	resultsErr error
	window     *DateRange
	windowSet  bool
	start, end time.Time
}

func (m *mockRepo) SignupsBetween(_ context.Context, start, end time.Time) ([]SignupRow, error) {
	m.mu.Lock()
	m.start, m.end = start, end
	m.mu.Unlock()
	return m.signups, nil
}

func (m *mockRepo) ResultsBetween(_ context.Context, _, _ time.Time) ([]ResultRow, error) {
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	return m.results, nil
}

func (m *mockRepo) RecordsBetween(_ context.Context, _, _ time.Time) ([]RecordRow, error) {
	return m.records, nil
}

func (m *mockRepo) AuthoredResults(_ context.Context, window *DateRange) ([]AuthoredResultRow, error) {
	m.mu.Lock()
	m.window, m.windowSet = window, true
	m.mu.Unlock()
	return m.authored, nil
}

// ── Mock Recorder ──

type mockRecorder struct {
	mu           sync.Mutex
	computations []string
	dropped      int
	failures     []string
}

func (r *mockRecorder) ObserveComputation(granularity string, dropped int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computations = append(r.computations, granularity)
	r.dropped += dropped
}

func (r *mockRecorder) FetchFailed(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, source)
}

func newTestService(repo Repository) (*Service, *mockRecorder) {
	svc := NewService(repo, zerolog.Nop())
	rec := &mockRecorder{}
	svc.SetRecorder(rec)
	return svc, rec
}

func jan(d int) DateRange {
	return DateRange{Start: day(2024, 1, 1), End: day(2024, 1, d)}
}

func TestService_Dashboard(t *testing.T) {
	at := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		signups: []SignupRow{{ID: uuid.New(), CreatedAt: &at}},
		results: []ResultRow{{ID: uuid.New(), CreatedAt: &at}, {ID: uuid.New()}},
	}
	svc, rec := newTestService(repo)

	d, err := svc.Dashboard(context.Background(), Query{Range: jan(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Totals.Signups != 1 || d.Totals.Results != 2 {
		t.Errorf("unexpected totals %+v", d.Totals)
	}
	if d.Series[2].Value != 1 {
		t.Errorf("expected Jan 3 = 1, got %d", d.Series[2].Value)
	}

	if !repo.start.Equal(day(2024, 1, 1)) || !repo.end.Equal(day(2024, 1, 11).Add(-time.Nanosecond)) {
		t.Errorf("expected normalized bounds, got %s to %s", repo.start, repo.end)
	}
	if len(rec.computations) != 1 || rec.computations[0] != "day" {
		t.Errorf("expected one day computation recorded, got %v", rec.computations)
	}
	if rec.dropped != 1 {
		t.Errorf("expected 1 dropped recorded, got %d", rec.dropped)
	}
}

func TestService_Dashboard_AllTimeScope(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(repo)

	d, err := svc.Dashboard(context.Background(), Query{Range: jan(7)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.windowSet {
		t.Fatal("expected authored results to be fetched")
	}
	if repo.window != nil {
		t.Errorf("expected no window for all-time, got %+v", repo.window)
	}
	if d.LeaderboardScope != ScopeAllTime {
		t.Errorf("expected all-time scope, got %s", d.LeaderboardScope)
	}
}

func TestService_Dashboard_RangeScope(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(repo)

	d, err := svc.Dashboard(context.Background(), Query{Range: jan(7), Scope: ScopeRange})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.window == nil {
		t.Fatal("expected a window for range scope")
	}
	if !repo.window.Start.Equal(day(2024, 1, 1)) {
		t.Errorf("expected window to start Jan 1, got %s", repo.window.Start)
	}
	if d.LeaderboardScope != ScopeRange {
		t.Errorf("expected range scope, got %s", d.LeaderboardScope)
	}
}

func TestService_Dashboard_FetchError(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &mockRepo{resultsErr: boom}
	svc, rec := newTestService(repo)
	svc.SetQueryTimeout(time.Second)

	d, err := svc.Dashboard(context.Background(), Query{Range: jan(7)})
	if err == nil {
		t.Fatal("expected error")
	}
	if d != nil {
		t.Error("expected no dashboard on error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
	if len(rec.failures) != 1 || rec.failures[0] != "results" {
		t.Errorf("expected results fetch failure recorded, got %v", rec.failures)
	}
	if len(rec.computations) != 0 {
		t.Error("expected no computation recorded on error")
	}
}

func TestLastDays(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	r := LastDays(now, 30)

	if !r.Start.Equal(day(2024, 3, 2)) {
		t.Errorf("expected Mar 2 start, got %s", r.Start)
	}
	if r.Days() != 30 {
		t.Errorf("expected 30 days, got %d", r.Days())
	}
}

func TestParseQuery(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)

	q, err := ParseQuery(RawQuery{}, now, QueryDefaults{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Range.Start.Equal(day(2024, 5, 17)) || q.Range.Days() != DefaultRangeDays {
		t.Errorf("expected default 30-day range ending Jun 15, got %s to %s", q.Range.Start, q.Range.End)
	}
	if q.Granularity != GranularityAuto || q.Scope != ScopeAllTime {
		t.Errorf("unexpected defaults %+v", q)
	}

	q, err = ParseQuery(RawQuery{
		Start:       "2024-01-01",
		End:         "2024-01-31",
		Granularity: "week",
		Date:        "2024-01-15",
		Scope:       "range",
	}, now, QueryDefaults{Scope: ScopeAllTime})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Range.Days() != 31 || q.Granularity != GranularityWeek || q.Scope != ScopeRange || q.DateFilter != "2024-01-15" {
		t.Errorf("unexpected query %+v", q)
	}

	q, err = ParseQuery(RawQuery{Start: "2024-01-01"}, now, QueryDefaults{Scope: ScopeRange})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Scope != ScopeRange {
		t.Errorf("expected configured default scope, got %s", q.Scope)
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		raw  RawQuery
	}{
		{"bad start", RawQuery{Start: "01/02/2024"}},
		{"bad end", RawQuery{End: "2024-13-01"}},
		{"bad date", RawQuery{Date: "yesterday"}},
		{"bad granularity", RawQuery{Granularity: "hourly"}},
		{"bad scope", RawQuery{Scope: "weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuery(tt.raw, now, QueryDefaults{Scope: ScopeAllTime}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseQuery_RangeLimit(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)

	_, err := ParseQuery(RawQuery{Start: "0001-01-01", End: "9999-12-31", Granularity: "day"}, now, QueryDefaults{})
	if !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("expected ErrRangeTooLarge, got %v", err)
	}

	limits := QueryDefaults{MaxRangeDays: 31}
	if _, err := ParseQuery(RawQuery{Start: "2024-01-01", End: "2024-01-31"}, now, limits); err != nil {
		t.Errorf("expected a 31-day range to pass, got %v", err)
	}
	if _, err := ParseQuery(RawQuery{Start: "2024-01-01", End: "2024-02-01"}, now, limits); !errors.Is(err, ErrRangeTooLarge) {
		t.Errorf("expected a 32-day range to fail, got %v", err)
	}
}
