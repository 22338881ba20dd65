package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/service"
	"github.com/lucadeg/Esame-de-gregorio/pkg/health"
	"github.com/lucadeg/Esame-de-gregorio/pkg/middleware"
)

// RouterConfig carries the knobs the router needs beyond its handlers.
type RouterConfig struct {
	CORS          CORSConfig
	AuthRateRPS   int
	AuthRateBurst int
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	authService *service.AuthService,
	courseService *service.CourseService,
	enrollmentService *service.EnrollmentService,
	subscriptionService *service.SubscriptionService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that resolves the bearer token to a live identity.
	tokenValidator := func(ctx context.Context, token string) (*middleware.Claims, error) {
		user, err := authService.ValidateAccessToken(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}, nil
	}

	authHandler := NewAuthHandler(authService, logger)
	userHandler := NewUserHandler(authService, logger)
	courseHandler := NewCourseHandler(courseService, logger)
	enrollmentHandler := NewEnrollmentHandler(enrollmentService, logger)
	subscriptionHandler := NewSubscriptionHandler(subscriptionService, logger)

	// Auth endpoints (public, rate limited)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateRPS, cfg.AuthRateBurst, logger))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Post("/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Put("/password", authHandler.ChangePassword)
		})
	})

	// Course catalog: browsing is public, management is restricted.
	r.Route("/api/v1/courses", func(r chi.Router) {
		r.Get("/", courseHandler.List)
		r.Get("/upcoming", courseHandler.ListUpcoming)
		r.Get("/{id}", courseHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole(domain.RoleInstructor, domain.RoleAdmin))

			r.Post("/", courseHandler.Create)
			r.Put("/{id}", courseHandler.Update)
			r.Delete("/{id}", courseHandler.Delete)
		})
	})

	// Enrollment endpoints (auth required)
	r.Route("/api/v1/enrollments", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Post("/", enrollmentHandler.Create)
		r.Get("/", enrollmentHandler.List)
		r.Get("/{id}", enrollmentHandler.Get)
		r.Delete("/{id}", enrollmentHandler.Delete)
	})

	// Subscription tier catalog (public)
	r.Get("/api/v1/subscriptions/tiers", subscriptionHandler.Tiers)

	// Profile and subscription endpoints (auth required)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", userHandler.GetProfile)
		r.Put("/me", userHandler.UpdateProfile)
		r.Get("/me/subscription", subscriptionHandler.Get)
		r.Put("/me/subscription", subscriptionHandler.Change)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/", userHandler.ListUsers)
		})
	})

	return r
}
