package services

import (
	"context"

	"livepoll/internal/domain/user"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

type ctxKey string

var userIDKey ctxKey = "user_id"
var sessionIDKey ctxKey = "session_id"
var roleKey ctxKey = "role"

// WithIdentity installs the resolved caller identity on the context. The role
// comes straight from the access token claims and is trusted as issued.
func WithIdentity(ctx context.Context, userID, sessionID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	ctx = context.WithValue(ctx, roleKey, role)
	return ctx
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(sessionIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	sessionID, ok := value.(uuid.UUID)
	return sessionID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(roleKey)
	if value == nil {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

// requireUser is the first check of every store operation: no resolvable
// identity fails before any data access happens.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, poll_errors.ErrUnauthorized
	}
	return userID, nil
}

// isAdmin reports whether the caller's role claim is admin.
func isAdmin(ctx context.Context) bool {
	role, ok := RoleFromContext(ctx)
	return ok && role == user.RoleAdmin
}
