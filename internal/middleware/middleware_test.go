package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

const secret = "test-secret"

type fakeTokens struct {
	owners map[string]uint64
	err    error
}

func (f fakeTokens) Active(_ context.Context, id string) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if uid, ok := f.owners[id]; ok {
		return uid, nil
	}
	return 0, repository.ErrNotFound
}

func run(t *testing.T, mw []echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 7, "user", 60)
	require.NoError(t, err)
	active := fakeTokens{owners: map[string]uint64{tok.ID: 7}}
	logger := hclog.NewNullLogger()

	t.Run("valid", func(t *testing.T) {
		rec, c := run(t, []echo.MiddlewareFunc{JWTAuth(secret, active, logger)}, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		uid, ok := UserID(c)
		assert.True(t, ok)
		assert.Equal(t, uint64(7), uid)
		role, _ := CurrentRole(c)
		assert.Equal(t, model.RoleUser, role)
		jti, _ := TokenID(c)
		assert.Equal(t, tok.ID, jti)
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth(secret, active, logger)}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Unauthenticated."}`, rec.Body.String())
	})

	t.Run("revoked", func(t *testing.T) {
		rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth(secret, fakeTokens{}, logger)}, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong owner", func(t *testing.T) {
		other := fakeTokens{owners: map[string]uint64{tok.ID: 8}}
		rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth(secret, other, logger)}, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth("other", active, logger)}, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth(secret, fakeTokens{err: errors.New("down")}, logger)}, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	userTok, err := utils.NewAccessToken(secret, 7, "user", 60)
	require.NoError(t, err)
	adminTok, err := utils.NewAccessToken(secret, 1, "admin", 60)
	require.NoError(t, err)
	tokens := fakeTokens{owners: map[string]uint64{userTok.ID: 7, adminTok.ID: 1}}
	chain := []echo.MiddlewareFunc{JWTAuth(secret, tokens, hclog.NewNullLogger()), RequireRole(model.RoleAdmin)}

	rec, _ := run(t, chain, "Bearer "+userTok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden."}`, rec.Body.String())

	rec, _ = run(t, chain, "Bearer "+adminTok.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// without JWTAuth there is no identity at all
	rec, _ = run(t, []echo.MiddlewareFunc{RequireRole(model.RoleAdmin)}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/reviews", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/reviews")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /reviews", buildRateKey(cfg, c))

	c.Set(ctxUserID, uint64(9))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, hclog.NewNullLogger())
	rec, _ := run(t, []echo.MiddlewareFunc{mw}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
