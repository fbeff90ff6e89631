package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avenirhq/auth-service/internal/domain"
	apperrors "github.com/avenirhq/auth-service/pkg/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository using
// PostgreSQL. Rows are keyed by the token's jti; a row's existence is the
// single source of truth for whether the token can still be redeemed.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create inserts a refresh token record.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO refresh_tokens (id, user_id, username, session_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Username,
		t.SessionID,
		t.ExpiresAt,
		t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("refresh token", "id", t.ID)
		}
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetByID retrieves a refresh token record by jti.
func (r *RefreshTokenRepository) GetByID(ctx context.Context, id string) (*domain.RefreshToken, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, username, session_id, expires_at, created_at
		FROM refresh_tokens
		WHERE id = $1`

	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.UserID,
		&t.Username,
		&t.SessionID,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &t, nil
}

// Delete removes the record, revoking the token. It reports whether a record
// was deleted so callers can distinguish revocation from a no-op.
func (r *RefreshTokenRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ct, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}
