package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type repoPG struct{ db queryable }

// NewRepoPG returns a Repository backed by the portal Postgres schema.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{db: pool}
}

func (r *repoPG) SignupsBetween(ctx context.Context, start, end time.Time) ([]SignupRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, full_name, role, created_at FROM profiles
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignupRow
	for rows.Next() {
		var s SignupRow
		if err := rows.Scan(&s.ID, &s.FullName, &s.Role, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repoPG) ResultsBetween(ctx context.Context, start, end time.Time) ([]ResultRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, created_at FROM results
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var res ResultRow
		if err := rows.Scan(&res.ID, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *repoPG) RecordsBetween(ctx context.Context, start, end time.Time) ([]RecordRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, diagnosis, created_at FROM medical_records
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var rec RecordRow
		if err := rows.Scan(&rec.ID, &rec.Diagnosis, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const authoredResultsSQL = `
	SELECT r.doctor_id, p.full_name
	FROM results r
	LEFT JOIN profiles p ON p.id = r.doctor_id`

func (r *repoPG) AuthoredResults(ctx context.Context, window *DateRange) ([]AuthoredResultRow, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if window == nil {
		rows, err = r.db.Query(ctx, authoredResultsSQL+` ORDER BY r.created_at`)
	} else {
		w := window.Normalize()
		rows, err = r.db.Query(ctx, authoredResultsSQL+`
			WHERE r.created_at BETWEEN $1 AND $2
			ORDER BY r.created_at`, w.Start, w.End)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuthoredResultRow
	for rows.Next() {
		var a AuthoredResultRow
		if err := rows.Scan(&a.AuthorID, &a.AuthorName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
