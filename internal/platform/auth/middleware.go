package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims carried by tokens issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	IIN         string   `json:"iin"`
	ClientRoles []string `json:"client_roles"`
}

// PermissionChecker asks the external authorization service whether the
// subject may perform the given action. Implemented by the authsvc client.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, subject, method, path string) (bool, error)
}

// Middleware parses the bearer token with the shared secret, loads claims
// into the request context, and defers the allow/deny decision to the
// authorization service.
func Middleware(secret string, checker PermissionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if checker != nil {
				allowed, err := checker.CheckPermission(c.Request().Context(),
					claims.Subject, c.Request().Method, c.Path())
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "authorization service unavailable")
				}
				if !allowed {
					return echo.NewHTTPError(http.StatusForbidden, "access denied")
				}
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRolesKey, claims.ClientRoles)
			ctx = context.WithValue(ctx, UserIINKey, claims.IIN)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// DevMiddleware grants every request an admin identity. Development only.
func DevMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, "dev-user")
			ctx = context.WithValue(ctx, UserRolesKey, []string{"admin"})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
