package middleware

import (
	"net/http"

	"github.com/trailquest/trailquest-backend/api/responses"
	"github.com/trailquest/trailquest-backend/pkg/config"
	"github.com/trailquest/trailquest-backend/pkg/enums"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
)

// RestrictTo limits a route to the given roles. It must be composed after
// Protect: the decision is based solely on the identity the access gate put
// into the request context.
func RestrictTo(cfg *config.Config, logg *logger.Logger, roles ...enums.Role) func(http.Handler) http.Handler {
	allowed := make(map[enums.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				responses.WriteError(r.Context(), cfg.App, logg, w, r,
					pkgerrors.New(pkgerrors.CodeUnauthenticated, "You are not logged in! Please login to access this route"))
				return
			}
			if _, ok := allowed[role]; !ok {
				responses.WriteError(r.Context(), cfg.App, logg, w, r,
					pkgerrors.New(pkgerrors.CodeForbidden, "You do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
