package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avenirhq/auth-service/internal/auth"
	"github.com/avenirhq/auth-service/internal/domain"
	"github.com/avenirhq/auth-service/internal/repository"
	apperrors "github.com/avenirhq/auth-service/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// EventPublisher is the audit event surface the auth service needs.
// *event.Producer satisfies it.
type EventPublisher interface {
	PublishUserLoggedIn(ctx context.Context, user *domain.User, sessionID string) error
	PublishTokenRefreshed(ctx context.Context, userID, oldSessionID, newSessionID string) error
	PublishTokenRevoked(ctx context.Context, userID, sessionID string) error
	PublishUserCreated(ctx context.Context, user *domain.User) error
	PublishUserDeactivated(ctx context.Context, userID string) error
}

// AuthService implements login, token rotation, and revocation.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   repository.RefreshTokenRepository
	codec    *auth.Codec
	events   EventPublisher
	logger   *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens repository.RefreshTokenRepository,
	codec *auth.Codec,
	events EventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		codec:    codec,
		events:   events,
		logger:   logger,
	}
}

// Authenticate checks the credentials and returns the user. Unknown usernames
// and wrong passwords produce the same error so callers cannot enumerate
// accounts.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.InvalidInput("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("get user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	return user, nil
}

// Login authenticates the user and issues a fresh token pair with its own
// session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *domain.TokenPair, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	pair, sessionID, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishUserLoggedIn(ctx, user, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish logged_in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("session_id", sessionID),
	)

	return user, pair, nil
}

// IssueTokenPair mints an access and refresh token sharing a new session id,
// records the session, and records the refresh token under its jti so it can
// be redeemed exactly once. It returns the pair and the session id.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, string, error) {
	sessionID := uuid.New().String()

	accessToken, accessJTI, _, err := s.codec.Issue(user.ID, user.Username, user.Role, sessionID, auth.TokenTypeAccess)
	if err != nil {
		return nil, "", fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, refreshJTI, refreshExpiry, err := s.codec.Issue(user.ID, user.Username, user.Role, sessionID, auth.TokenTypeRefresh)
	if err != nil {
		return nil, "", fmt.Errorf("issue refresh token: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:         sessionID,
		UserID:     user.ID,
		Username:   user.Username,
		AccessJTI:  accessJTI,
		RefreshJTI: refreshJTI,
		IsActive:   true,
		CreatedAt:  now,
		ExpiresAt:  refreshExpiry,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", apperrors.Unavailable("session store unavailable", err)
	}

	record := &domain.RefreshToken{
		ID:        refreshJTI,
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: sessionID,
		ExpiresAt: refreshExpiry,
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, "", apperrors.Unavailable("token store unavailable", err)
	}

	pair := &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
	}
	return pair, sessionID, nil
}

// VerifyAccessToken validates an access token and loads its subject. The
// caller decides whether an inactive account is acceptable; the default
// middleware rejects it.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.Claims, error) {
	claims, err := s.codec.Verify(tokenString, auth.TokenTypeAccess)
	if err != nil {
		s.logger.DebugContext(ctx, "access token rejected", slog.String("reason", err.Error()))
		return nil, nil, apperrors.Unauthorized("could not validate credentials")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("could not validate credentials")
		}
		return nil, nil, fmt.Errorf("get user for token: %w", err)
	}

	return user, claims, nil
}

// Refresh redeems a refresh token for a new pair. The old token's ledger
// record is deleted first, so a token can only ever be redeemed once; the
// superseded session is deactivated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.codec.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh token rejected", slog.String("reason", err.Error()))
		return nil, apperrors.Unauthorized("refresh token invalid or expired")
	}

	record, err := s.tokens.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("refresh token invalid or revoked")
		}
		return nil, apperrors.Unavailable("token store unavailable", err)
	}

	// Consume the record before issuing anything. If two requests race on
	// the same token, only the one that wins the delete proceeds.
	deleted, err := s.tokens.Delete(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Unavailable("token store unavailable", err)
	}
	if !deleted {
		return nil, apperrors.Unauthorized("refresh token invalid or revoked")
	}

	if err := s.sessions.Deactivate(ctx, record.SessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to deactivate superseded session",
			slog.String("session_id", record.SessionID),
			slog.String("error", err.Error()),
		)
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("refresh token invalid or revoked")
		}
		return nil, fmt.Errorf("get user for refresh: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	pair, sessionID, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishTokenRefreshed(ctx, user.ID, record.SessionID, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish token_refreshed event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
		slog.String("old_session_id", record.SessionID),
		slog.String("session_id", sessionID),
	)

	return pair, nil
}

// Revoke invalidates a refresh token and its session. Revoking a token whose
// record is already gone is reported as invalid input so clients learn the
// logout did nothing.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.codec.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		s.logger.DebugContext(ctx, "revoke rejected", slog.String("reason", err.Error()))
		return apperrors.Unauthorized("refresh token invalid or expired")
	}

	deleted, err := s.tokens.Delete(ctx, claims.ID)
	if err != nil {
		return apperrors.Unavailable("token store unavailable", err)
	}
	if !deleted {
		return apperrors.InvalidInput("refresh token not found or already revoked")
	}

	if claims.SessionID != "" {
		if err := s.sessions.Deactivate(ctx, claims.SessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to deactivate session on logout",
				slog.String("session_id", claims.SessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.events.PublishTokenRevoked(ctx, claims.Subject, claims.SessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish token_revoked event",
			slog.String("user_id", claims.Subject),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "refresh token revoked",
		slog.String("user_id", claims.Subject),
		slog.String("session_id", claims.SessionID),
	)

	return nil
}
