package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRangeDays is the window used when a caller gives no range.
	DefaultRangeDays = 30
	// DefaultMaxRangeDays bounds the span a single query may cover.
	DefaultMaxRangeDays = 3660
)

// ErrRangeTooLarge is returned by ParseQuery for a range longer than the
// configured maximum.
var ErrRangeTooLarge = errors.New("date range too large")

// Recorder receives per-computation measurements. *metrics.Registry
// satisfies it.
type Recorder interface {
	ObserveComputation(granularity string, dropped int, d time.Duration)
	FetchFailed(source string)
}

// Query is what the admin dashboard asks for on every range or granularity
// change.
type Query struct {
	Range       DateRange
	Granularity Granularity
	DateFilter  string
	Scope       Scope
}

// LastDays returns the n-day range ending on now's day.
func LastDays(now time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	return DateRange{Start: now.AddDate(0, 0, -(n - 1)), End: now}.Normalize()
}

// RawQuery is a dashboard query as it arrives from a caller, before parsing.
type RawQuery struct {
	Start       string
	End         string
	Granularity string
	Date        string
	Scope       string
}

// QueryDefaults holds the deployment settings ParseQuery falls back on.
type QueryDefaults struct {
	Scope Scope
	// MaxRangeDays caps the inclusive day span; zero means DefaultMaxRangeDays.
	MaxRangeDays int
}

// ParseQuery turns raw parameters into a Query. Dates are inclusive
// YYYY-MM-DD days in UTC; a missing end is now's day and a missing start is
// DefaultRangeDays before the end. An empty scope means defaults.Scope.
func ParseQuery(raw RawQuery, now time.Time, defaults QueryDefaults) (Query, error) {
	var r DateRange
	if raw.End == "" {
		r.End = now.UTC()
	} else {
		t, err := time.ParseInLocation(DateFilterLayout, raw.End, time.UTC)
		if err != nil {
			return Query{}, fmt.Errorf("invalid end date %q: %w", raw.End, err)
		}
		r.End = t
	}
	if raw.Start == "" {
		r.Start = LastDays(r.End, DefaultRangeDays).Start
	} else {
		t, err := time.ParseInLocation(DateFilterLayout, raw.Start, time.UTC)
		if err != nil {
			return Query{}, fmt.Errorf("invalid start date %q: %w", raw.Start, err)
		}
		r.Start = t
	}

	if raw.Date != "" {
		if _, err := time.Parse(DateFilterLayout, raw.Date); err != nil {
			return Query{}, fmt.Errorf("invalid date filter %q: %w", raw.Date, err)
		}
	}

	g, err := ParseGranularity(raw.Granularity)
	if err != nil {
		return Query{}, err
	}

	r = r.Normalize()
	maxDays := defaults.MaxRangeDays
	if maxDays <= 0 {
		maxDays = DefaultMaxRangeDays
	}
	if days := r.Days(); days > maxDays {
		return Query{}, fmt.Errorf("%w: %d days, at most %d allowed", ErrRangeTooLarge, days, maxDays)
	}

	scope := defaults.Scope
	if scope == "" {
		scope = ScopeAllTime
	}
	if raw.Scope != "" {
		if scope, err = ParseScope(raw.Scope); err != nil {
			return Query{}, err
		}
	}

	return Query{Range: r, Granularity: g, DateFilter: raw.Date, Scope: scope}, nil
}

type Service struct {
	repo     Repository
	logger   zerolog.Logger
	recorder Recorder
	timeout  time.Duration
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "analytics").Logger(),
	}
}

// SetRecorder attaches an optional metrics recorder.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetQueryTimeout bounds the combined row fetch. Zero disables the bound.
func (s *Service) SetQueryTimeout(d time.Duration) {
	s.timeout = d
}

// Dashboard fetches a fresh snapshot for q and computes the dashboard.
func (s *Service) Dashboard(ctx context.Context, q Query) (*Dashboard, error) {
	started := time.Now()

	in, err := s.fetch(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).
			Time("start", q.Range.Start).
			Time("end", q.Range.End).
			Msg("analytics fetch failed")
		return nil, err
	}

	d := Compute(*in)

	if s.recorder != nil {
		s.recorder.ObserveComputation(string(d.Granularity), d.Dropped, time.Since(started))
	}
	s.logger.Debug().
		Time("start", d.Range.Start).
		Time("end", d.Range.End).
		Str("granularity", string(d.Granularity)).
		Str("scope", string(d.LeaderboardScope)).
		Int("signups", d.Totals.Signups).
		Int("results", d.Totals.Results).
		Int("records", d.Totals.Records).
		Int("authored", len(in.AuthoredResults)).
		Int("dropped", d.Dropped).
		Dur("took", time.Since(started)).
		Msg("dashboard computed")

	return d, nil
}

// fetch issues the four row queries concurrently. The first failure cancels
// the others and is returned.
func (s *Service) fetch(ctx context.Context, q Query) (*Input, error) {
	r := q.Range.Normalize()
	scope := q.Scope
	if scope == "" {
		scope = ScopeAllTime
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	in := &Input{
		Range:            r,
		Granularity:      q.Granularity,
		DateFilter:       q.DateFilter,
		LeaderboardScope: scope,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.repo.SignupsBetween(ctx, r.Start, r.End)
		if err != nil {
			return s.fetchErr("profiles", err)
		}
		in.Signups = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.ResultsBetween(ctx, r.Start, r.End)
		if err != nil {
			return s.fetchErr("results", err)
		}
		in.Results = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.RecordsBetween(ctx, r.Start, r.End)
		if err != nil {
			return s.fetchErr("medical_records", err)
		}
		in.Records = rows
		return nil
	})
	g.Go(func() error {
		var window *DateRange
		if scope == ScopeRange {
			window = &r
		}
		rows, err := s.repo.AuthoredResults(ctx, window)
		if err != nil {
			return s.fetchErr("authored_results", err)
		}
		in.AuthoredResults = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) fetchErr(source string, err error) error {
	if s.recorder != nil {
		s.recorder.FetchFailed(source)
	}
	return fmt.Errorf("fetch %s: %w", source, err)
}
