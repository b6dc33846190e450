package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindActiveByLogin(ctx context.Context, login string) (*User, error)
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	FindActiveByResetToken(ctx context.Context, token string) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
	SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error
	ResetPassword(ctx context.Context, userID int64, passwordHash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: db}
}

const userColumns = `id, username, email, phone, password_hash, role, reset_token, reset_token_expires, is_active, created_at, updated_at`

// FindActiveByLogin fetches an active user by username or email.
func (r *PGRepository) FindActiveByLogin(ctx context.Context, login string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE (username = $1 OR email = $1) AND is_active`
	return r.scanUser(r.db.QueryRow(ctx, query, login))
}

// FindActiveByEmail fetches an active user by email.
func (r *PGRepository) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

// FindActiveByResetToken fetches an active user holding the reset token.
// Expiry is checked by the service, not here.
func (r *PGRepository) FindActiveByResetToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND is_active`
	return r.scanUser(r.db.QueryRow(ctx, query, token))
}

// Create inserts a new user record.
func (r *PGRepository) Create(ctx context.Context, user User) (*User, error) {
	query := `INSERT INTO users (username, email, phone, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query, user.Username, user.Email, user.Phone, user.PasswordHash, user.Role, now).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.Conflict("Username or email already in use")
		}
		return nil, err
	}
	user.IsActive = true
	return &user, nil
}

// SetResetToken stores a password reset token with its expiry.
func (r *PGRepository) SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	query := `UPDATE users SET reset_token = $1, reset_token_expires = $2, updated_at = $3 WHERE id = $4`
	tag, err := r.db.Exec(ctx, query, token, expires.UTC(), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ResetPassword replaces the password hash and clears the reset token.
func (r *PGRepository) ResetPassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, reset_token = NULL, reset_token_expires = NULL, updated_at = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.ResetToken, &u.ResetTokenExpires, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
