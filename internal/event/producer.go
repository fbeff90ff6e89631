package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avenirhq/auth-service/internal/domain"
	pkgkafka "github.com/avenirhq/auth-service/pkg/kafka"
)

// Kafka topics for auth audit events.
const (
	TopicUserLoggedIn    = "avenir.auth.logged_in"
	TopicTokenRefreshed  = "avenir.auth.token_refreshed"
	TopicTokenRevoked    = "avenir.auth.token_revoked"
	TopicUserCreated     = "avenir.auth.user_created"
	TopicUserDeactivated = "avenir.auth.user_deactivated"
)

// Source identifier for events originating from this service.
const SourceAuthService = "auth-service"

// LoggedInData is the payload for a logged_in event.
type LoggedInData struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

// TokenRefreshedData is the payload for a token_refreshed event.
type TokenRefreshedData struct {
	UserID       string `json:"user_id"`
	OldSessionID string `json:"old_session_id"`
	NewSessionID string `json:"new_session_id"`
}

// TokenRevokedData is the payload for a token_revoked event.
type TokenRevokedData struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// UserCreatedData is the payload for a user_created event.
type UserCreatedData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserDeactivatedData is the payload for a user_deactivated event.
type UserDeactivatedData struct {
	UserID string `json:"user_id"`
}

// Producer publishes auth audit events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserLoggedIn publishes a logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User, sessionID string) error {
	data := LoggedInData{
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: sessionID,
	}
	return p.publish(ctx, TopicUserLoggedIn, user.ID, data)
}

// PublishTokenRefreshed publishes a token_refreshed event.
func (p *Producer) PublishTokenRefreshed(ctx context.Context, userID, oldSessionID, newSessionID string) error {
	data := TokenRefreshedData{
		UserID:       userID,
		OldSessionID: oldSessionID,
		NewSessionID: newSessionID,
	}
	return p.publish(ctx, TopicTokenRefreshed, userID, data)
}

// PublishTokenRevoked publishes a token_revoked event.
func (p *Producer) PublishTokenRevoked(ctx context.Context, userID, sessionID string) error {
	data := TokenRevokedData{
		UserID:    userID,
		SessionID: sessionID,
	}
	return p.publish(ctx, TopicTokenRevoked, userID, data)
}

// PublishUserCreated publishes a user_created event.
func (p *Producer) PublishUserCreated(ctx context.Context, user *domain.User) error {
	data := UserCreatedData{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	return p.publish(ctx, TopicUserCreated, user.ID, data)
}

// PublishUserDeactivated publishes a user_deactivated event.
func (p *Producer) PublishUserDeactivated(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserDeactivated, userID, UserDeactivatedData{UserID: userID})
}

func (p *Producer) publish(ctx context.Context, topic, subjectID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, subjectID, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published audit event",
		slog.String("topic", topic),
		slog.String("subject_id", subjectID),
	)

	return nil
}
