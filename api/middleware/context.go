package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/fornihq/forni-backend/internal/authz"
	"github.com/fornihq/forni-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

// UserIDFromContext returns the authenticated user id or an empty string.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the authenticated role or an empty string.
func RoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithUserID is a test helper to seed an authenticated context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole is a test helper to seed the actor role.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxRole, role)
}

// ActorFromContext rebuilds the authz actor seeded by the auth middleware.
// The second return is false when the context carries no valid identity.
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return authz.Actor{}, false
	}
	return authz.Actor{
		UserID: userID,
		Role:   enums.UserRole(RoleFromContext(ctx)),
	}, true
}
