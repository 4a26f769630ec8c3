package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// TokenChecker reports the owner of a still-active token id.  It is
// implemented by repository.TokenRepo.
type TokenChecker interface {
	Active(ctx context.Context, tokenID string) (uint64, error)
}

// unauthenticated is the body of every 401 produced by the auth layer.
var unauthenticated = echo.Map{"message": "Unauthenticated."}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the identity into the request context.  A token is accepted only
// when its signature verifies and its jti is still active in the token
// store, so logout and password changes take effect immediately.  Handlers
// read the identity via UserID, CurrentRole and TokenID.
func JWTAuth(secret string, tokens TokenChecker, logger hclog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header should start with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, unauthenticated)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, unauthenticated)
			}
			uid, _ := claims.UserID()
			role, err := model.ParseRole(claims.Role)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, unauthenticated)
			}

			// The signature alone is not enough: the token must not have been
			// revoked.
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			owner, err := tokens.Active(ctx, claims.ID)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					logger.Error("token lookup failed", "error", err)
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server Error."})
				}
				return c.JSON(http.StatusUnauthorized, unauthenticated)
			}
			if owner != uid {
				return c.JSON(http.StatusUnauthorized, unauthenticated)
			}

			c.Set(ctxUserID, uid)
			c.Set(ctxRole, role)
			c.Set(ctxTokenID, claims.ID)
			return next(c)
		}
	}
}
