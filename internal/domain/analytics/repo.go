package analytics

import (
	"context"
	"time"
)

// Repository reads the raw rows the dashboard is computed from. Bounds are
// inclusive on both ends.
type Repository interface {
	SignupsBetween(ctx context.Context, start, end time.Time) ([]SignupRow, error)
	ResultsBetween(ctx context.Context, start, end time.Time) ([]ResultRow, error)
	RecordsBetween(ctx context.Context, start, end time.Time) ([]RecordRow, error)
	// AuthoredResults returns every result tagged with its doctor. A nil
	// window means all time.
	AuthoredResults(ctx context.Context, window *DateRange) ([]AuthoredResultRow, error)
}
