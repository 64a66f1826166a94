package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"givehub/portal-backend/pkg/apperr"
)

type Repository interface {
	Create(ctx context.Context, c *Certificate) error
	GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error)
	GetByMatchID(ctx context.Context, matchID uuid.UUID) (*Certificate, error)
	GetByNumber(ctx context.Context, number string) (*Certificate, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]Certificate, error)
	Count(ctx context.Context) (int, error)

	GetSource(ctx context.Context, matchID uuid.UUID) (*Source, error)
	// ListMissing returns completed matches that have no certificate yet
	ListMissing(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, c *Certificate) error {
	query := `
		INSERT INTO certificates (
			id, match_id, donor_id, certificate_number, recipient_name, item_name,
			quantity, issue_date, verification_code, storage_key, created_at
		) VALUES (
			:id, :match_id, :donor_id, :certificate_number, :recipient_name, :item_name,
			:quantity, :issue_date, :verification_code, :storage_key, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, c)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("certificate already issued: %w", apperr.ErrConflict)
	}
	return err
}

func (r *postgresRepository) get(ctx context.Context, where string, arg interface{}) (*Certificate, error) {
	var c Certificate
	err := r.db.GetContext(ctx, &c, "SELECT * FROM certificates WHERE "+where, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *postgresRepository) GetByMatchID(ctx context.Context, matchID uuid.UUID) (*Certificate, error) {
	return r.get(ctx, "match_id = $1", matchID)
}

func (r *postgresRepository) GetByNumber(ctx context.Context, number string) (*Certificate, error) {
	return r.get(ctx, "certificate_number = $1", number)
}

func (r *postgresRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]Certificate, error) {
	list := []Certificate{}
	err := r.db.SelectContext(ctx, &list,
		"SELECT * FROM certificates WHERE donor_id = $1 ORDER BY issue_date DESC", donorID)
	return list, err
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM certificates")
	return n, err
}

func (r *postgresRepository) GetSource(ctx context.Context, matchID uuid.UUID) (*Source, error) {
	var s Source
	err := r.db.GetContext(ctx, &s, `
		SELECT m.id AS match_id, m.status, m.donor_id, m.item_name, m.quantity, m.completed_at,
			d.name AS donor_name, d.organization_name AS donor_org,
			rc.name AS receiver_name, rc.organization_name AS receiver_org
		FROM matches m
		JOIN users d ON d.id = m.donor_id
		JOIN users rc ON rc.id = m.receiver_id
		WHERE m.id = $1`, matchID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepository) ListMissing(ctx context.Context, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT m.id FROM matches m
		LEFT JOIN certificates c ON c.match_id = m.id
		WHERE m.status = 'completed' AND c.id IS NULL
		ORDER BY m.completed_at
		LIMIT $1`, limit)
	return ids, err
}
