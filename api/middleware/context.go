package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketloop/storefront-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

// Identity is the resolved caller, attached by Auth and read explicitly by
// handlers. No handler reads a shared mutable field.
type Identity struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	userID, ok := ctx.Value(ctxUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return Identity{}, false
	}
	role, _ := ctx.Value(ctxRole).(enums.UserRole)
	return Identity{UserID: userID, Role: role}, true
}

// WithIdentity injects the caller's identity into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	return context.WithValue(ctx, ctxRole, id.Role)
}
