package store

import (
	"context"
	"strings"
)

const actingUserContextKeyConstant = identityContextKey("actingUserID")

type identityContextKey string

// WithActingUserID attaches the acting user id to the provided context.
func WithActingUserID(parentContext context.Context, userID string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, actingUserContextKeyConstant, strings.TrimSpace(userID))
}

// ActingUserID extracts the acting user id, reporting false when absent or blank.
func ActingUserID(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	userID, available := executionContext.Value(actingUserContextKeyConstant).(string)
	if !available || len(userID) == 0 {
		return "", false
	}
	return userID, true
}
