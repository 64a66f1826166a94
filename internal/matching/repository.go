package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"givehub/portal-backend/internal/database"
	"givehub/portal-backend/pkg/apperr"
)

type Table string

const (
	TableDonations Table = "donations"
	TableRequests  Table = "requests"
)

// TxRepository is the set of row-locking operations available inside InTx
type TxRepository interface {
	LockListing(ctx context.Context, table Table, id uuid.UUID) (*Listing, error)
	LockInterest(ctx context.Context, id uuid.UUID) (*LockedInterest, error)
	LockMatch(ctx context.Context, id uuid.UUID) (*Match, error)
	InsertMatch(ctx context.Context, m *Match) error
	UpdateMatch(ctx context.Context, m *Match, fromStatus string) error
	SetListingStatus(ctx context.Context, table Table, id uuid.UUID, from, to string, at time.Time) error
	SetInterestStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error
	// CloseOpenInterests rejects the pending and approved interests on a request,
	// except keep, and returns the donors whose interest was closed
	CloseOpenInterests(ctx context.Context, requestID uuid.UUID, keep *uuid.UUID, at time.Time) ([]uuid.UUID, error)
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx TxRepository) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*Match, error)
	List(ctx context.Context, filter Filter) ([]Match, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const selectMatch = `
	SELECT m.*,
		d.name AS donor_name, d.email AS donor_email,
		rc.name AS receiver_name, rc.email AS receiver_email,
		r.category
	FROM matches m
	JOIN users d ON d.id = m.donor_id
	JOIN users rc ON rc.id = m.receiver_id
	JOIN requests r ON r.id = m.request_id`

func (r *postgresRepository) InTx(ctx context.Context, fn func(tx TxRepository) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Match, error) {
	var m Match
	err := r.db.GetContext(ctx, &m, selectMatch+" WHERE m.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &m, err
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Match, error) {
	query := selectMatch + " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filter.DonorID != nil {
		query += fmt.Sprintf(" AND m.donor_id = $%d", argCount)
		args = append(args, *filter.DonorID)
		argCount++
	}
	if filter.ReceiverID != nil {
		query += fmt.Sprintf(" AND m.receiver_id = $%d", argCount)
		args = append(args, *filter.ReceiverID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND m.status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(` AND (m.item_name ILIKE $%d OR r.category ILIKE $%d
			OR d.name ILIKE $%d OR d.email ILIKE $%d OR rc.name ILIKE $%d OR rc.email ILIKE $%d)`,
			argCount, argCount, argCount, argCount, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}

	query += " ORDER BY m.created_at DESC"

	list := []Match{}
	err := r.db.SelectContext(ctx, &list, query, args...)
	return list, err
}

func (r *postgresRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM matches GROUP BY status"); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type txRepository struct {
	tx *sqlx.Tx
}

func (t *txRepository) LockListing(ctx context.Context, table Table, id uuid.UUID) (*Listing, error) {
	owner := "donor_id"
	if table == TableRequests {
		owner = "receiver_id"
	}

	var l Listing
	query := fmt.Sprintf(
		"SELECT id, %s AS owner_id, item_name, quantity, status FROM %s WHERE id = $1 FOR UPDATE",
		owner, table)
	err := t.tx.GetContext(ctx, &l, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", table, id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *txRepository) LockInterest(ctx context.Context, id uuid.UUID) (*LockedInterest, error) {
	var i LockedInterest
	err := t.tx.GetContext(ctx, &i,
		"SELECT id, request_id, donor_id, quantity, status FROM interests WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("interest %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (t *txRepository) LockMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	var m Match
	err := t.tx.GetContext(ctx, &m, "SELECT * FROM matches WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *txRepository) InsertMatch(ctx context.Context, m *Match) error {
	query := `
		INSERT INTO matches (
			id, match_type, donation_id, interest_id, request_id, donor_id, receiver_id,
			item_name, quantity, status, execution_requested, created_at, updated_at
		) VALUES (
			:id, :match_type, :donation_id, :interest_id, :request_id, :donor_id, :receiver_id,
			:item_name, :quantity, :status, :execution_requested, :created_at, :updated_at
		)`
	_, err := t.tx.NamedExecContext(ctx, query, m)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("listing is already matched: %w", apperr.ErrConflict)
	}
	return err
}

func (t *txRepository) UpdateMatch(ctx context.Context, m *Match, fromStatus string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE matches SET
			status = $1, execution_requested = $2, execution_requested_by = $3,
			execution_requested_at = $4, executed_at = $5, completed_at = $6, updated_at = $7
		WHERE id = $8 AND status = $9`,
		m.Status, m.ExecutionRequested, m.ExecutionRequestedBy,
		m.ExecutionRequestedAt, m.ExecutedAt, m.CompletedAt, m.UpdatedAt,
		m.ID, fromStatus)
	return expectOneRow(res, err, "match")
}

func (t *txRepository) SetListingStatus(ctx context.Context, table Table, id uuid.UUID, from, to string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4", table),
		to, at, id, from)
	return expectOneRow(res, err, string(table))
}

func (t *txRepository) SetInterestStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE interests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		to, at, id, from)
	return expectOneRow(res, err, "interest")
}

func (t *txRepository) CloseOpenInterests(ctx context.Context, requestID uuid.UUID, keep *uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	donors := []uuid.UUID{}
	err := t.tx.SelectContext(ctx, &donors, `
		UPDATE interests SET status = 'rejected', updated_at = $1
		WHERE request_id = $2 AND status IN ('pending', 'approved')
			AND ($3::uuid IS NULL OR id <> $3)
		RETURNING donor_id`,
		at, requestID, keep)
	return donors, err
}

func expectOneRow(res sql.Result, err error, entity string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%s changed status concurrently: %w", entity, apperr.ErrConflict)
	}
	return nil
}
