package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the three event sources merged into the activity feed.
type Kind string

const (
	KindSignup Kind = "signup"
	KindResult Kind = "result"
	KindRecord Kind = "record"
)

// SignupRow is a profile created inside the queried range.
type SignupRow struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	FullName  *string    `db:"full_name" json:"full_name,omitempty"`
	Role      *string    `db:"role" json:"role,omitempty"`
	CreatedAt *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// ResultRow is an uploaded lab or imaging result.
type ResultRow struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	CreatedAt *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// RecordRow is a medical-record note written by a doctor.
type RecordRow struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Diagnosis *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	CreatedAt *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// AuthoredResultRow is a result joined with the doctor who uploaded it.
// AuthorID is nil when the result has no doctor attached.
type AuthoredResultRow struct {
	AuthorID   *uuid.UUID `db:"doctor_id" json:"author_id,omitempty"`
	AuthorName *string    `db:"full_name" json:"author_name,omitempty"`
}

// TimelineEvent is the normalized shape shared by every feed entry.
type TimelineEvent struct {
	ID     string     `json:"id"`
	Kind   Kind       `json:"kind"`
	Title  string     `json:"title"`
	Date   *time.Time `json:"date"`
	Detail string     `json:"detail,omitempty"`
}

// Bucket is one contiguous slice of the charted range.
type Bucket struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SeriesPoint is one bar of the result-upload histogram.
type SeriesPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// LeaderboardRow is the per-doctor result count. Width is Total relative to
// the largest total on the board, in [0, 1].
type LeaderboardRow struct {
	AuthorID   *uuid.UUID `json:"author_id"`
	AuthorName *string    `json:"author_name"`
	Total      int        `json:"total"`
	Width      float64    `json:"width"`
}

// Totals are the headline counters shown above the chart.
type Totals struct {
	Signups int `json:"signups"`
	Results int `json:"results"`
	Records int `json:"records"`
}

// Dashboard is everything the admin analytics view renders for one range.
type Dashboard struct {
	Range            DateRange        `json:"range"`
	Granularity      Granularity      `json:"granularity"`
	Buckets          []Bucket         `json:"buckets"`
	Series           []SeriesPoint    `json:"series"`
	Dropped          int              `json:"dropped"`
	Timeline         []TimelineEvent  `json:"timeline"`
	TimelineTotal    int              `json:"timeline_total"`
	Leaderboard      []LeaderboardRow `json:"leaderboard"`
	LeaderboardScope Scope            `json:"leaderboard_scope"`
	Totals           Totals           `json:"totals"`
}
