package auth

import "context"

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	UserIINKey   contextKey = "user_iin"
)

// UserIDFromContext retrieves the authenticated subject id from context.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// RolesFromContext retrieves the authenticated subject's roles from context.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// IINFromContext retrieves the subject's national identifier from context.
func IINFromContext(ctx context.Context) string {
	iin, _ := ctx.Value(UserIINKey).(string)
	return iin
}
