package auth

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
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	CountUsersByRole(ctx context.Context) (map[Role]int, error)

	RevokeToken(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, name, email, password_hash, role, donor_type, receiver_type,
			organization_name, phone, address, created_at, updated_at
		) VALUES (
			:id, :name, :email, :password_hash, :role, :donor_type, :receiver_type,
			:organization_name, :phone, :address, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, user)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	}
	return err
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE LOWER(email) = LOWER($1)", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) UpdateUser(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET
			name = :name,
			password_hash = :password_hash,
			organization_name = :organization_name,
			phone = :phone,
			address = :address,
			updated_at = :updated_at
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *postgresRepository) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	users := []User{}
	query := "SELECT * FROM users WHERE 1=1"
	var args []interface{}
	argCount := 1

	if filter.Role != nil {
		query += fmt.Sprintf(" AND role = $%d", argCount)
		args = append(args, *filter.Role)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR organization_name ILIKE $%d)", argCount, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}
	query += " ORDER BY created_at DESC"

	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

func (r *postgresRepository) CountUsersByRole(ctx context.Context) (map[Role]int, error) {
	var rows []struct {
		Role  Role `db:"role"`
		Count int  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT role, COUNT(*) AS count FROM users GROUP BY role"); err != nil {
		return nil, err
	}
	counts := map[Role]int{RoleDonor: 0, RoleReceiver: 0, RoleAdmin: 0}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (r *postgresRepository) RevokeToken(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, user_id, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING`, jti, userID, expiresAt)
	return err
}

func (r *postgresRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.db.GetContext(ctx, &revoked, "SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)", jti)
	return revoked, err
}

func (r *postgresRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < $1", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
