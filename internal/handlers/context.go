package handlers

import "context"

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stores the authenticated user id in the request context.
// Used by the auth middleware and by tests.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the authenticated user id set by the auth middleware.
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}
