package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avenirhq/auth-service/internal/domain"
	"github.com/avenirhq/auth-service/internal/service"
	apperrors "github.com/avenirhq/auth-service/pkg/errors"
	"github.com/avenirhq/auth-service/pkg/health"
	"github.com/avenirhq/auth-service/pkg/pagination"
)

// stubAdminService records the last call and returns canned results.
type stubAdminService struct {
	user *domain.User
	err  error

	deletedID string
}

func (s *stubAdminService) CreateUser(_ context.Context, _ service.CreateUserInput) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubAdminService) GetUser(_ context.Context, _ string) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubAdminService) ListUsers(_ context.Context, params pagination.Params) (pagination.Result[domain.User], error) {
	if s.err != nil {
		return pagination.Result[domain.User]{}, s.err
	}
	return pagination.NewResult([]domain.User{*s.user}, 1, params), nil
}

func (s *stubAdminService) UpdateUser(_ context.Context, _ string, _ service.UpdateUserInput) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubAdminService) SetActivation(_ context.Context, _ string, active bool) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u := *s.user
	u.IsActive = active
	return &u, nil
}

func (s *stubAdminService) DeleteUser(_ context.Context, id string) error {
	s.deletedID = id
	return s.err
}

func newTestRouter(authSvc AuthService, adminSvc AdminService) http.Handler {
	return NewRouter(authSvc, adminSvc, health.NewHandler(), testLogger(), RouterConfig{
		ServiceName:    "auth",
		AllowedOrigins: []string{"*"},
	})
}

func adminAuthService() *stubAuthService {
	return &stubAuthService{
		user: &domain.User{ID: "admin-1", Username: "root", Role: domain.RoleAdmin, IsActive: true},
		pair: samplePair(),
	}
}

func TestAdminRoutes_RequireAdminScope(t *testing.T) {
	// Authenticated as a regular user without the admin scope.
	authSvc := &stubAuthService{
		user: &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleUser, IsActive: true},
	}
	router := newTestRouter(authSvc, &stubAdminService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminRoutes_RequireAuthentication(t *testing.T) {
	router := newTestRouter(adminAuthService(), &stubAdminService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminListUsers_Success(t *testing.T) {
	adminSvc := &stubAdminService{user: &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleUser}}
	router := newTestRouter(adminAuthService(), adminSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/?page=1&per_page=10", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["total_count"])
	assert.Len(t, body["data"], 1)
}

func TestAdminCreateUser_Success(t *testing.T) {
	adminSvc := &stubAdminService{user: &domain.User{ID: "u-2", Username: "bob", Role: domain.RoleUser, IsActive: true}}
	router := newTestRouter(adminAuthService(), adminSvc)

	payload := `{"username":"bob","email":"bob@example.com","password":"Sup3rsecret","role":"user"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "bob")
}

func TestAdminCreateUser_ValidationFailure(t *testing.T) {
	router := newTestRouter(adminAuthService(), &stubAdminService{})

	payload := `{"username":"x","email":"not-an-email","password":"short","role":"user"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
}

func TestAdminGetUser_NotFound(t *testing.T) {
	adminSvc := &stubAdminService{err: apperrors.NotFound("user", "ghost")}
	router := newTestRouter(adminAuthService(), adminSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/ghost", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminDeactivateUser(t *testing.T) {
	adminSvc := &stubAdminService{user: &domain.User{ID: "u-1", Username: "alice", IsActive: true}}
	router := newTestRouter(adminAuthService(), adminSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/u-1/deactivate", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["is_active"])
}

func TestAdminDeleteUser_Success(t *testing.T) {
	adminSvc := &stubAdminService{user: &domain.User{ID: "u-1"}}
	router := newTestRouter(adminAuthService(), adminSvc)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/u-1", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-1", adminSvc.deletedID)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(adminAuthService(), &stubAdminService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
