package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avenirhq/auth-service/internal/domain"
	"github.com/avenirhq/auth-service/pkg/health"
	"github.com/avenirhq/auth-service/pkg/middleware"
)

// RouterConfig bundles the cross-cutting settings the router needs.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	authService AuthService,
	adminService AdminService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)

	// Auth endpoints. Login takes form-encoded credentials, so
	// ContentTypeJSON guards only the JSON-bodied routes. Logout revokes a
	// refresh token and demands a valid access token. The rate limit keeps
	// credential stuffing and refresh floods in check.
	r.Route("/api/auth", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}

		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(authService, logger))
			r.Get("/me", authHandler.Me)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/logout", authHandler.Logout)
			})
		})
	})

	// Admin user management, restricted to the admin scope.
	adminHandler := NewAdminHandler(adminService, logger)
	r.Route("/api/admin/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequireAuth(authService, logger))
		r.Use(RequireScopes(domain.RoleAdmin))

		r.Get("/", adminHandler.ListUsers)
		r.Post("/", adminHandler.CreateUser)
		r.Get("/{id}", adminHandler.GetUser)
		r.Put("/{id}", adminHandler.UpdateUser)
		r.Post("/{id}/activate", adminHandler.ActivateUser)
		r.Post("/{id}/deactivate", adminHandler.DeactivateUser)
		r.Delete("/{id}", adminHandler.DeleteUser)
	})

	return r
}
