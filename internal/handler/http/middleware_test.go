package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avenirhq/auth-service/internal/auth"
	"github.com/avenirhq/auth-service/internal/domain"
	apperrors "github.com/avenirhq/auth-service/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubVerifier returns a fixed user for the token "good" and rejects
// everything else.
type stubVerifier struct {
	user *domain.User
}

func (s *stubVerifier) VerifyAccessToken(_ context.Context, token string) (*domain.User, *auth.Claims, error) {
	if token != "good" || s.user == nil {
		return nil, nil, apperrors.Unauthorized("could not validate credentials")
	}
	return s.user, &auth.Claims{SessionID: "sess-1"}, nil
}

func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(user.Username))
	})
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	handler := RequireAuth(&stubVerifier{}, testLogger())(echoUserHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	handler := RequireAuth(&stubVerifier{}, testLogger())(echoUserHandler())

	for _, header := range []string{"good", "Basic good", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{user: &domain.User{ID: "u-1", Username: "alice", IsActive: true}}
	handler := RequireAuth(verifier, testLogger())(echoUserHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
}

func TestRequireAuth_ValidToken(t *testing.T) {
	verifier := &stubVerifier{user: &domain.User{ID: "u-1", Username: "alice", IsActive: true}}
	handler := RequireAuth(verifier, testLogger())(echoUserHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", rr.Body.String())
}

func TestRequireAuth_InactiveAccount(t *testing.T) {
	verifier := &stubVerifier{user: &domain.User{ID: "u-1", Username: "alice", IsActive: false}}
	handler := RequireAuth(verifier, testLogger())(echoUserHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "inactive")
}

func withUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestRequireScopes_RoleSatisfiesScope(t *testing.T) {
	user := &domain.User{ID: "u-1", Role: domain.RoleAdmin, IsActive: true}
	handler := withUser(user)(RequireScopes(domain.RoleAdmin)(okHandler()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireScopes_PermissionSatisfiesScope(t *testing.T) {
	user := &domain.User{ID: "u-1", Role: domain.RoleUser, Permissions: []string{"reports:read"}, IsActive: true}
	handler := withUser(user)(RequireScopes("reports:read")(okHandler()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireScopes_InsufficientScope(t *testing.T) {
	user := &domain.User{ID: "u-1", Role: domain.RoleUser, IsActive: true}
	handler := withUser(user)(RequireScopes(domain.RoleAdmin)(okHandler()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "insufficient permissions")
}

func TestRequireScopes_AllScopesRequired(t *testing.T) {
	user := &domain.User{ID: "u-1", Role: domain.RoleUser, Permissions: []string{"reports:read"}, IsActive: true}
	handler := withUser(user)(RequireScopes("reports:read", "reports:write")(okHandler()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireScopes_NoUserInContext(t *testing.T) {
	handler := RequireScopes(domain.RoleAdmin)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestContentTypeJSON_RejectsOtherTypes(t *testing.T) {
	handler := ContentTypeJSON(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "text/plain")
	req.ContentLength = 10
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestContentTypeJSON_AllowsJSONAndEmptyBody(t *testing.T) {
	handler := ContentTypeJSON(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.ContentLength = 10
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
