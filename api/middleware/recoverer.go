package middleware

import (
	"fmt"
	"net/http"

	"github.com/trailquest/trailquest-backend/api/responses"
	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
)

// Recoverer turns panics into non-operational internal errors routed through
// the error normalizer.
func Recoverer(cfg *config.Config, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					ctx := r.Context()
					if logg != nil {
						ctx = logg.WithField(ctx, "panic", rec)
						logg.Error(ctx, "panic.recovered", err)
					}
					responses.WriteError(ctx, cfg.App, logg, w, r, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
