package admin

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository answers the time-bucketed questions the per-entity services don't
type Repository interface {
	// DonationsPerDay counts donations created since, keyed by UTC date (2006-01-02)
	DonationsPerDay(ctx context.Context, since time.Time) (map[string]int, error)
	// MatchesPerMonth counts matches created since, keyed by UTC month (2006-01)
	MatchesPerMonth(ctx context.Context, since time.Time) (map[string]int, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type bucketRow struct {
	Bucket string `db:"bucket"`
	Count  int    `db:"count"`
}

func (r *postgresRepository) histogram(ctx context.Context, query string, since time.Time) (map[string]int, error) {
	var rows []bucketRow
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Bucket] = row.Count
	}
	return counts, nil
}

func (r *postgresRepository) DonationsPerDay(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.histogram(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS bucket, COUNT(*) AS count
		FROM donations
		WHERE created_at >= $1
		GROUP BY bucket`, since)
}

func (r *postgresRepository) MatchesPerMonth(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.histogram(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS bucket, COUNT(*) AS count
		FROM matches
		WHERE created_at >= $1
		GROUP BY bucket`, since)
}
