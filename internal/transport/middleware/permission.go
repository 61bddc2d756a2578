package middleware

import (
	"net/http"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/auth"
	"github.com/frahmantamala/travel-agency/internal/transport"
	"github.com/frahmantamala/travel-agency/pkg/logger"
)

// RequirePermissions lets the request through if the authenticated user holds
// any of permissions. Admins always pass.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				base.HandleServiceError(w, internal.NewUnauthorizedError("Authentication required", internal.ErrCodeInvalidToken))
				return
			}

			if !user.HasAnyPermission(permissions...) {
				logger.From(r.Context()).Warn("access denied: user lacks required permissions",
					"user_id", user.ID,
					"required_permissions", permissions,
					"user_permissions", user.Permissions)
				base.HandleServiceError(w, internal.ErrInsufficientRights)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
