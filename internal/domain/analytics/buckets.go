package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Granularity is the width of one histogram bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
	GranularityAuto  Granularity = "auto"
)

// Upper bounds (inclusive, in days) for the auto heuristic.
const (
	autoDayMaxSpan   = 14
	autoWeekMaxSpan  = 120
	autoMonthMaxSpan = 365
)

const (
	dayKeyLayout   = "Mon Jan 02 2006"
	monthKeyLayout = "2006-01"
	dayLabelLayout = "Jan 2"
	monthLabel     = "Jan 2006"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

// ParseGranularity accepts day, week, month, year or auto (case-insensitive).
// An empty string means auto.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityAuto, nil
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear, GranularityAuto:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Normalize snaps Start to the beginning of its day and End to the last
// instant of its day, both in Start's location. A range whose end day
// precedes its start day collapses to the single start day.
func (r DateRange) Normalize() DateRange {
	start := startOfDay(r.Start)
	end := endOfDay(r.End.In(start.Location()))
	if end.Before(start) {
		end = endOfDay(start)
	}
	return DateRange{Start: start, End: end}
}

// Days is the number of calendar days covered, never less than 1.
func (r DateRange) Days() int {
	n := r.Normalize()
	days := daysBetween(n.Start, n.End) + 1
	if days < 1 {
		return 1
	}
	return days
}

// ResolveGranularity turns auto into a concrete granularity from the span of
// the range. Concrete values are returned unchanged.
func ResolveGranularity(r DateRange, g Granularity) Granularity {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return g
	}
	switch span := r.Days(); {
	case span <= autoDayMaxSpan:
		return GranularityDay
	case span <= autoWeekMaxSpan:
		return GranularityWeek
	case span <= autoMonthMaxSpan:
		return GranularityMonth
	default:
		return GranularityYear
	}
}

// Plan is the ordered bucket scaffold for one range and resolved granularity.
type Plan struct {
	Range       DateRange
	Granularity Granularity
	Buckets     []Bucket
}

// PlanBuckets resolves g against r and lays out the buckets. Month and year
// both produce calendar-month buckets keyed YYYY-MM; week buckets are anchored
// on the range start rather than on calendar weeks.
func PlanBuckets(r DateRange, g Granularity) *Plan {
	r = r.Normalize()
	p := &Plan{Range: r, Granularity: ResolveGranularity(r, g)}

	switch p.Granularity {
	case GranularityDay:
		for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
			p.Buckets = append(p.Buckets, Bucket{
				Key:   d.Format(dayKeyLayout),
				Label: d.Format(dayLabelLayout),
				Start: d,
				End:   endOfDay(d),
			})
		}
	case GranularityWeek:
		for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 7) {
			end := d.AddDate(0, 0, 7).Add(-time.Nanosecond)
			if end.After(r.End) {
				end = r.End
			}
			p.Buckets = append(p.Buckets, Bucket{
				Key:   d.Format(dayKeyLayout),
				Label: "Wk " + d.Format(dayLabelLayout),
				Start: d,
				End:   end,
			})
		}
	default:
		for m := startOfMonth(r.Start); !m.After(r.End); m = m.AddDate(0, 1, 0) {
			start := m
			if start.Before(r.Start) {
				start = r.Start
			}
			p.Buckets = append(p.Buckets, Bucket{
				Key:   m.Format(monthKeyLayout),
				Label: m.Format(monthLabel),
				Start: start,
				End:   m.AddDate(0, 1, 0).Add(-time.Nanosecond),
			})
		}
	}
	return p
}

// Key returns the bucket key t falls into under this plan. The key may not
// exist in the plan when t lies outside the range.
func (p *Plan) Key(t time.Time) string {
	t = t.In(p.Range.Start.Location())
	switch p.Granularity {
	case GranularityDay:
		return t.Format(dayKeyLayout)
	case GranularityWeek:
		weeks := floorDiv(daysBetween(p.Range.Start, t), 7)
		return p.Range.Start.AddDate(0, 0, weeks*7).Format(dayKeyLayout)
	default:
		return t.Format(monthKeyLayout)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a's date to b's date, ignoring the
// time of day and DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((ub.Unix() - ua.Unix()) / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
