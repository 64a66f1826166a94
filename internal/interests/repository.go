package interests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"givehub/portal-backend/pkg/apperr"
)

type Repository interface {
	Create(ctx context.Context, i *Interest) error
	GetByID(ctx context.Context, id uuid.UUID) (*Interest, error)
	List(ctx context.Context, filter Filter) ([]Interest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error)
	DeleteInStatus(ctx context.Context, id uuid.UUID, status string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const selectInterest = `
	SELECT i.*,
		d.name AS donor_name, d.email AS donor_email,
		r.item_name, r.category, r.status AS request_status, r.receiver_id,
		r.quantity AS request_quantity, rc.name AS receiver_name
	FROM interests i
	JOIN users d ON d.id = i.donor_id
	JOIN requests r ON r.id = i.request_id
	JOIN users rc ON rc.id = r.receiver_id`

func (r *postgresRepository) Create(ctx context.Context, i *Interest) error {
	query := `
		INSERT INTO interests (id, request_id, donor_id, quantity, message, status, created_at, updated_at)
		VALUES (:id, :request_id, :donor_id, :quantity, :message, :status, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, i)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("you already expressed interest in this request: %w", apperr.ErrConflict)
	}
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Interest, error) {
	var i Interest
	err := r.db.GetContext(ctx, &i, selectInterest+" WHERE i.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &i, err
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Interest, error) {
	query := selectInterest + " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filter.DonorID != nil {
		query += fmt.Sprintf(" AND i.donor_id = $%d", argCount)
		args = append(args, *filter.DonorID)
		argCount++
	}
	if filter.RequestID != nil {
		query += fmt.Sprintf(" AND i.request_id = $%d", argCount)
		args = append(args, *filter.RequestID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND i.status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(` AND (r.item_name ILIKE $%d OR r.category ILIKE $%d
			OR d.name ILIKE $%d OR d.email ILIKE $%d OR rc.name ILIKE $%d)`,
			argCount, argCount, argCount, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}

	query += " ORDER BY i.created_at DESC"

	list := []Interest{}
	err := r.db.SelectContext(ctx, &list, query, args...)
	return list, err
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE interests SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
			AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.interest_id = interests.id)`,
		to, at, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *postgresRepository) DeleteInStatus(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM interests WHERE id = $1 AND status = $2", id, status)
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
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM interests GROUP BY status"); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
