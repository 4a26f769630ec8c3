package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

const secret = "router-secret"

type tokens map[string]uint64

func (t tokens) Active(_ context.Context, id string) (uint64, error) {
	if uid, ok := t[id]; ok {
		return uid, nil
	}
	return 0, repository.ErrNotFound
}

func newServer(t *testing.T) (*echo.Echo, sqlmock.Sqlmock, tokens) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := hclog.NewNullLogger()
	genres := handler.NewReferenceHandler(repository.NewReferenceRepo(db, model.GenreKind), logger)

	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)

	active := tokens{}
	Register(e, Table(Handlers{Genres: genres}), Guards{JWTSecret: secret, Tokens: active, Log: logger})
	return e, mock, active
}

func bearer(t *testing.T, active tokens, uid uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role.String(), 60)
	require.NoError(t, err)
	active[tok.ID] = uid
	return "Bearer " + tok.Token
}

func TestNonAdminCannotDeleteGenre(t *testing.T) {
	e, mock, active := newServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/genres/3", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, active, 5, model.RoleUser))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden."}`, rec.Body.String())
	// The handler never ran, so the genre was not touched.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeletesGenre(t *testing.T) {
	e, mock, active := newServer(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM genres WHERE id = ?")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/genres/3", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, active, 1, model.RoleAdmin))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Genre deleted successfully."}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteWithoutTokenIsUnauthenticated(t *testing.T) {
	e, _, _ := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/genres", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, rec.Body.String())
}

func TestTable(t *testing.T) {
	routes := Table(Handlers{})

	seen := map[string]bool{}
	access := map[string]Access{}
	for _, r := range routes {
		key := r.Method + " " + r.Path
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
		access[key] = r.Access
	}

	cases := map[string]Access{
		"GET /movies":                Public,
		"GET /movies/popular":        Public,
		"GET /movies/:id/reviews":    Public,
		"POST /movies":               Admin,
		"DELETE /movies/:id":         Admin,
		"GET /genres":                Public,
		"PUT /actors/:id":            Admin,
		"GET /movie-casts":           Admin,
		"GET /reviews":               Auth,
		"GET /reviews/my-reviews":    Auth,
		"DELETE /reviews/:id":        Auth,
		"POST /logout":               Auth,
		"POST /register":             Public,
		"PUT /change-password":       Auth,
		"DELETE /directors/:id":      Admin,
		"GET /movies/:id/statistics": Public,
	}
	for key, want := range cases {
		got, ok := access[key]
		if assert.True(t, ok, "missing route %s", key) {
			assert.Equal(t, want, got, key)
		}
	}
}
