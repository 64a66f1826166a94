package requests

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, filter Filter) ([]Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to, reason string, at time.Time) (bool, error)
	DeleteInStatus(ctx context.Context, id uuid.UUID, statuses []string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountInterests(ctx context.Context, requestID uuid.UUID) (int, error)
	GetMatchSummary(ctx context.Context, requestID uuid.UUID) (*MatchSummary, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const selectRequest = `
	SELECT r.*, u.name AS receiver_name, u.email AS receiver_email
	FROM requests r
	JOIN users u ON u.id = r.receiver_id`

func (r *postgresRepository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO requests (
			id, receiver_id, item_name, quantity, category, description,
			urgency, status, created_at, updated_at
		) VALUES (
			:id, :receiver_id, :item_name, :quantity, :category, :description,
			:urgency, :status, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, req)
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, selectRequest+" WHERE r.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &req, err
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Request, error) {
	query := selectRequest + " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filter.ReceiverID != nil {
		query += fmt.Sprintf(" AND r.receiver_id = $%d", argCount)
		args = append(args, *filter.ReceiverID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND r.status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND r.category ILIKE $%d", argCount)
		args = append(args, filter.Category)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(` AND (r.item_name ILIKE $%d OR r.category ILIKE $%d
			OR u.name ILIKE $%d OR u.email ILIKE $%d)`, argCount, argCount, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}

	query += ` ORDER BY CASE r.urgency WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, r.created_at DESC`

	list := []Request{}
	err := r.db.SelectContext(ctx, &list, query, args...)
	return list, err
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to, reason string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requests SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		to, reason, at, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *postgresRepository) DeleteInStatus(ctx context.Context, id uuid.UUID, statuses []string) (bool, error) {
	query, args, err := sqlx.In("DELETE FROM requests WHERE id = ? AND status IN (?)", id, statuses)
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
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM requests GROUP BY status"); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *postgresRepository) CountInterests(ctx context.Context, requestID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM interests WHERE request_id = $1 AND status <> 'rejected'", requestID)
	return n, err
}

func (r *postgresRepository) GetMatchSummary(ctx context.Context, requestID uuid.UUID) (*MatchSummary, error) {
	var m MatchSummary
	err := r.db.GetContext(ctx, &m, `
		SELECT m.id, m.match_type, m.status, u.name AS donor_name,
			m.execution_requested, m.executed_at, m.completed_at, m.created_at
		FROM matches m
		JOIN users u ON u.id = m.donor_id
		WHERE m.request_id = $1`, requestID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
