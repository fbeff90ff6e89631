package repository

import (
	"context"

	"github.com/avenirhq/auth-service/internal/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error

	// List returns a page of users plus the total count.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)

	// UpdateLastLogin stamps the user's last successful login time.
	UpdateLastLogin(ctx context.Context, id string) error
}

// SessionRepository defines persistence operations for login sessions.
type SessionRepository interface {
	// Create inserts a new session into the store.
	Create(ctx context.Context, session *domain.Session) error

	// Deactivate marks the session inactive. Deactivating an unknown
	// session is not an error; the caller only needs it gone.
	Deactivate(ctx context.Context, id string) error
}

// RefreshTokenRepository defines persistence operations for the refresh
// token ledger. A token is redeemable exactly while its record exists.
type RefreshTokenRepository interface {
	// Create inserts a refresh token record keyed by jti.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByID retrieves a refresh token record by jti.
	GetByID(ctx context.Context, id string) (*domain.RefreshToken, error)

	// Delete removes the record, revoking the token. It reports whether
	// a record was actually deleted.
	Delete(ctx context.Context, id string) (bool, error)
}
