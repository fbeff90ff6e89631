package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avenirhq/auth-service/internal/domain"
	"github.com/avenirhq/auth-service/internal/service"
	"github.com/avenirhq/auth-service/pkg/pagination"
	"github.com/avenirhq/auth-service/pkg/validator"
)

// AdminService is the account management surface the admin handlers need.
type AdminService interface {
	CreateUser(ctx context.Context, input service.CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, params pagination.Params) (pagination.Result[domain.User], error)
	UpdateUser(ctx context.Context, id string, input service.UpdateUserInput) (*domain.User, error)
	SetActivation(ctx context.Context, id string, active bool) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AdminHandler handles the admin user management endpoints.
type AdminHandler struct {
	service AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates the admin HTTP handler.
func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// CreateUserRequest is the JSON request body for creating a user.
type CreateUserRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=64"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	FullName    string   `json:"full_name" validate:"max=200"`
	Role        string   `json:"role" validate:"required"`
	Permissions []string `json:"permissions"`
}

// UpdateUserRequest is the JSON request body for updating a user. Omitted
// fields are left unchanged.
type UpdateUserRequest struct {
	Email       *string   `json:"email" validate:"omitempty,email"`
	Password    *string   `json:"password" validate:"omitempty,min=8"`
	FullName    *string   `json:"full_name" validate:"omitempty,max=200"`
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions"`
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), service.CreateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	result, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetUser handles GET /api/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, service.UpdateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ActivateUser handles POST /api/admin/users/{id}/activate.
func (h *AdminHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActivation(w, r, true)
}

// DeactivateUser handles POST /api/admin/users/{id}/deactivate.
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActivation(w, r, false)
}

func (h *AdminHandler) setActivation(w http.ResponseWriter, r *http.Request, active bool) {
	id := chi.URLParam(r, "id")

	user, err := h.service.SetActivation(r.Context(), id, active)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
