package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/travel-agency/api"
	"github.com/frahmantamala/travel-agency/internal/auth"
	"github.com/frahmantamala/travel-agency/internal/colab"
	"github.com/frahmantamala/travel-agency/internal/dossier"
	"github.com/frahmantamala/travel-agency/internal/metrics"
	"github.com/frahmantamala/travel-agency/internal/profile"
	"github.com/frahmantamala/travel-agency/internal/transport/middleware"
	"github.com/frahmantamala/travel-agency/internal/transport/swagger"
	"github.com/frahmantamala/travel-agency/internal/user"
)

// Handlers groups everything the router mounts. A nil handler leaves its
// routes out.
type Handlers struct {
	Health  *HealthHandler
	Auth    *auth.Handler
	User    *user.Handler
	Profile *profile.Handler
	Dossier *dossier.Handler
	Colab   *colab.Handler
}

type Options struct {
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts Options) {
	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.MetricsEnabled {
		router.Use(middleware.Metrics)
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, metrics.Handler())
	}

	// Serve the OpenAPI document at root (outside API prefix)
	router.Method(http.MethodGet, "/openapi.yml", api.Handler())
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	// Mount API under /api/v1 to match the OpenAPI server URL
	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.With(h.Auth.AuthMiddleware).Get("/me", h.Auth.Me)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.With(middleware.RequirePermissions(auth.PermissionViewDossiers)).Get("/users", h.User.ListUsers)
				pr.With(middleware.RequirePermissions(auth.PermissionAdmin)).Post("/users", h.User.CreateUser)
			}

			pr.Group(func(vr chi.Router) {
				vr.Use(middleware.RequirePermissions(auth.PermissionViewDossiers, auth.PermissionManageColabs))

				if h.Profile != nil {
					vr.Get("/profiles", h.Profile.ListProfiles)
					vr.Get("/modules", h.Profile.ListModules)
				}
				if h.Dossier != nil {
					vr.Get("/suggestions", h.Dossier.Suggest)
					vr.Get("/dossiers", h.Dossier.ListDossiers)
					vr.Get("/dossiers/{id}", h.Dossier.GetDossier)
				}
				if h.Colab != nil {
					vr.Get("/dossiers/{id}/colabs", h.Colab.GetSession)
					vr.Post("/dossiers/{id}/colabs/plan", h.Colab.Plan)
				}
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(middleware.RequirePermissions(auth.PermissionManageColabs))

				if h.Dossier != nil {
					mr.Post("/dossiers", h.Dossier.CreateDossier)
					mr.Post("/dossiers/{id}/assignments", h.Dossier.CreateAssignment)
					mr.Patch("/dossiers/{id}/assignments/{moduleId}", h.Dossier.ReplaceAssignment)
				}
				if h.Colab != nil {
					mr.Put("/dossiers/{id}/colabs", h.Colab.Apply)
				}
			})
		})
	})
}
