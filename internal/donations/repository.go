package donations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, d *Donation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Donation, error)
	List(ctx context.Context, filter Filter) ([]Donation, error)
	// UpdateStatus moves a donation from one status to another and reports
	// whether a row was changed. A false result means the status moved underneath.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to, reason string, at time.Time) (bool, error)
	DeleteInStatus(ctx context.Context, id uuid.UUID, statuses []string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	GetMatchSummary(ctx context.Context, donationID uuid.UUID) (*MatchSummary, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const selectDonation = `
	SELECT d.*, u.name AS donor_name, u.email AS donor_email
	FROM donations d
	JOIN users u ON u.id = d.donor_id`

func (r *postgresRepository) Create(ctx context.Context, d *Donation) error {
	query := `
		INSERT INTO donations (
			id, donor_id, item_name, quantity, category, condition,
			description, status, created_at, updated_at
		) VALUES (
			:id, :donor_id, :item_name, :quantity, :category, :condition,
			:description, :status, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, d)
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	var d Donation
	err := r.db.GetContext(ctx, &d, selectDonation+" WHERE d.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &d, err
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Donation, error) {
	query := selectDonation + " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filter.DonorID != nil {
		query += fmt.Sprintf(" AND d.donor_id = $%d", argCount)
		args = append(args, *filter.DonorID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND d.status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(` AND (d.item_name ILIKE $%d OR d.category ILIKE $%d
			OR u.name ILIKE $%d OR u.email ILIKE $%d)`, argCount, argCount, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}

	query += " ORDER BY d.created_at DESC"

	donations := []Donation{}
	err := r.db.SelectContext(ctx, &donations, query, args...)
	return donations, err
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to, reason string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE donations SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		to, reason, at, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *postgresRepository) DeleteInStatus(ctx context.Context, id uuid.UUID, statuses []string) (bool, error) {
	query, args, err := sqlx.In("DELETE FROM donations WHERE id = ? AND status IN (?)", id, statuses)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *postgresRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM donations GROUP BY status"); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *postgresRepository) GetMatchSummary(ctx context.Context, donationID uuid.UUID) (*MatchSummary, error) {
	var m MatchSummary
	err := r.db.GetContext(ctx, &m, `
		SELECT m.id, m.status, m.request_id, u.name AS receiver_name,
			m.execution_requested, m.executed_at, m.completed_at, m.created_at
		FROM matches m
		JOIN users u ON u.id = m.receiver_id
		WHERE m.donation_id = $1`, donationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
