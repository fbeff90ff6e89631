package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avenirhq/auth-service/internal/domain"
	"github.com/avenirhq/auth-service/internal/repository"
	apperrors "github.com/avenirhq/auth-service/pkg/errors"
	"github.com/avenirhq/auth-service/pkg/pagination"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// AdminService implements user account management.
type AdminService struct {
	users  repository.UserRepository
	events EventPublisher
	logger *slog.Logger
}

// NewAdminService creates the admin service.
func NewAdminService(users repository.UserRepository, events EventPublisher, logger *slog.Logger) *AdminService {
	return &AdminService{
		users:  users,
		events: events,
		logger: logger,
	}
}

// CreateUserInput holds the parameters for creating a user account.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	Role        string
	Permissions []string
}

// UpdateUserInput holds the parameters for updating a user account. Nil
// fields are left unchanged.
type UpdateUserInput struct {
	Email       *string
	Password    *string
	FullName    *string
	Role        *string
	Permissions *[]string
}

// CreateUser creates a new account with a hashed password.
func (s *AdminService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if !domain.IsValidRole(input.Role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role: %q", input.Role))
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		FullName:     input.FullName,
		Role:         input.Role,
		Permissions:  input.Permissions,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Permissions == nil {
		user.Permissions = []string{}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserCreated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user_created event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	)

	return user, nil
}

// GetUser retrieves a user by id.
func (s *AdminService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of user accounts.
func (s *AdminService) ListUsers(ctx context.Context, params pagination.Params) (pagination.Result[domain.User], error) {
	users, total, err := s.users.List(ctx, params.PerPage, params.Offset)
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(users, total, params), nil
}

// UpdateUser applies the non-nil fields of input to the user.
func (s *AdminService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		if !domain.IsValidRole(*input.Role) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role: %q", *input.Role))
		}
		user.Role = *input.Role
	}
	if input.Permissions != nil {
		user.Permissions = *input.Permissions
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated", slog.String("user_id", user.ID))

	return user, nil
}

// SetActivation activates or deactivates an account. Deactivation does not
// revoke outstanding tokens directly; verification rejects inactive accounts,
// and the next refresh attempt fails the same way.
func (s *AdminService) SetActivation(ctx context.Context, id string, active bool) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsActive == active {
		return user, nil
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user activation: %w", err)
	}

	if !active {
		if err := s.events.PublishUserDeactivated(ctx, user.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user_deactivated event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "user activation changed",
		slog.String("user_id", user.ID),
		slog.Bool("is_active", active),
	)

	return user, nil
}

// DeleteUser removes an account permanently.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))

	return nil
}

// validatePassword enforces the password policy: minimum length plus at
// least one upper case letter, one lower case letter, and one digit.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain upper case, lower case, and digit characters")
	}

	return nil
}
