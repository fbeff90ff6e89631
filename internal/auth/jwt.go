package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type markers embedded in the "type" claim. Verification checks the
// marker so an access token can never be redeemed as a refresh token and
// vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the claim set for both access and refresh tokens.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies JWTs with a shared HMAC secret.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec creates a codec. algorithm must be one of HS256, HS384, HS512.
func NewCodec(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm: %q", algorithm)
	}
	return &Codec{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// Issue signs a token of the given type for the user. Each token carries a
// fresh jti so the server can track and revoke it individually. It returns
// the signed token, its jti, and its expiry.
func (c *Codec) Issue(userID, username, role, sessionID, tokenType string) (string, string, time.Time, error) {
	if tokenType != TokenTypeAccess && tokenType != TokenTypeRefresh {
		return "", "", time.Time{}, fmt.Errorf("unknown token type: %q", tokenType)
	}

	ttl := c.accessTTL
	if tokenType == TokenTypeRefresh {
		ttl = c.refreshTTL
	}

	now := time.Now().UTC()
	jti := uuid.New().String()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		Username:  username,
		Role:      role,
		SessionID: sessionID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "auth-service",
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return signed, jti, expiresAt, nil
}

// Verify parses the token, checks the signature and expiry, and ensures the
// token is of the wanted type. Expired and malformed tokens map to sentinel
// errors so callers can produce uniform responses without leaking the cause.
func (c *Codec) Verify(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
