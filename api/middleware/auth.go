package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailquest/trailquest-backend/api/responses"
	pkgAuth "github.com/trailquest/trailquest-backend/pkg/auth"
	"github.com/trailquest/trailquest-backend/pkg/config"
	"github.com/trailquest/trailquest-backend/pkg/db/models"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
)

// UserFinder resolves a token subject to a live credential record.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Protect is the access gate: bearer extraction, signature/expiry check, user
// existence, and password-rotation invalidation, in that order. On success it
// seeds the request context with the admitted identity; that context value is
// the sole mechanism by which "current user" is established downstream.
func Protect(cfg *config.Config, users UserFinder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				reject(w, r, cfg, logg, "You are not logged in! Please login to access this route")
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg.JWT, token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) && claims != nil && claims.ExpiresAt != nil {
					responses.WriteError(r.Context(), cfg.App, logg, w, r, pkgerrors.TokenExpired(claims.ExpiresAt.Time))
					return
				}
				responses.WriteError(r.Context(), cfg.App, logg, w, r, err)
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				responses.WriteError(r.Context(), cfg.App, logg, w, r,
					pkgerrors.Wrap(pkgerrors.CodeUnauthenticated, err, "Invalid token. Please Login again"))
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					reject(w, r, cfg, logg, "The user belonging to this token no longer exist.")
					return
				}
				responses.WriteError(r.Context(), cfg.App, logg, w, r,
					pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user"))
				return
			}
			if user == nil || !user.Active {
				reject(w, r, cfg, logg, "The user belonging to this token no longer exist.")
				return
			}

			if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
				reject(w, r, cfg, logg, "User recently changed password! Please login again")
				return
			}

			ctx := WithUser(r.Context(), user.ID, user.Role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id": user.ID.String(),
					"role":    string(user.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}

func reject(w http.ResponseWriter, r *http.Request, cfg *config.Config, logg *logger.Logger, message string) {
	responses.WriteError(r.Context(), cfg.App, logg, w, r, pkgerrors.New(pkgerrors.CodeUnauthenticated, message))
}
