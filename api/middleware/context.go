package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/trailquest/trailquest-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "role"
)

// WithUser seeds the context with the admitted user's identity. The access
// gate is the only production caller; tests use it to fake admission.
func WithUser(ctx context.Context, userID uuid.UUID, role enums.Role) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}

// UserIDFromContext returns the admitted user id, or uuid.Nil when the access
// gate has not run.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// RoleFromContext returns the admitted user's role, or the empty role.
func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}
