package middleware

// identity.go defines the context keys JWTAuth fills in and the accessors
// handlers and other middleware use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const (
	ctxUserID  = "user_id"
	ctxRole    = "role"
	ctxTokenID = "token_id"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// CurrentRole returns the authenticated user's role.
func CurrentRole(c echo.Context) (model.Role, bool) {
	r, ok := c.Get(ctxRole).(model.Role)
	return r, ok
}

// TokenID returns the jti of the token used for this request.
func TokenID(c echo.Context) (string, bool) {
	t, ok := c.Get(ctxTokenID).(string)
	return t, ok && t != ""
}

// userKey identifies the caller for rate limiting.  It returns "anon" when
// no user is authenticated.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
