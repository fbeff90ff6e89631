package domain

import (
	"time"
)

// Session records one authenticated login generation. A fresh session is
// created on login and on every refresh; the superseded session is marked
// inactive rather than deleted so the history remains auditable.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	AccessJTI  string    `json:"access_jti"`
	RefreshJTI string    `json:"refresh_jti"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RefreshToken is the server-side record of an outstanding refresh token,
// keyed by the token's jti. Presence of the record is what makes the token
// redeemable; deleting it is revocation.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
