package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It must run after
// JWTAuth.  A request without an identity gets 401; an authenticated user
// with the wrong role gets 403 and the handler never runs.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := CurrentRole(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, unauthenticated)
			}
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden."})
			}
			return next(c)
		}
	}
}
