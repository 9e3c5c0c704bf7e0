// Package auth carries the authenticated learner identity through a request.
package auth

import (
	"context"
	"strings"

	"github.com/abhisek/fintutor/internal/apperr"
)

// userIDContextKey is the context key for authenticated user identity.
type userIDContextKey struct{}

// WithUserID stores a user identifier in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user identifier stored in context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userIDContextKey{}).(string)
	return value
}

// RequireUser returns the caller's user id, or an UNAUTHENTICATED error
// when the context carries none.
func RequireUser(ctx context.Context) (string, error) {
	userID := strings.TrimSpace(UserIDFromContext(ctx))
	if userID == "" {
		return "", apperr.Unauthenticated()
	}
	return userID, nil
}
