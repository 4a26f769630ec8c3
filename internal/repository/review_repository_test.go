package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/model"
)

var reviewRowColumns = []string{"id", "user_id", "movie_id", "rating", "comment", "created_at", "updated_at"}

func newReviewMock(t *testing.T) (*ReviewRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReviewRepo(db), mock
}

func TestReviewCreateDuplicate(t *testing.T) {
	repo, mock := newReviewMock(t)
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(1, 2, 5, sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'reviews_user_movie_unique'"})

	err := repo.Create(context.Background(), &model.Review{UserID: 1, MovieID: 2, Rating: 5})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreate(t *testing.T) {
	repo, mock := newReviewMock(t)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(1, 2, 4, "solid").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("FROM reviews rv WHERE rv.id = ").WithArgs(11).
		WillReturnRows(sqlmock.NewRows(reviewRowColumns).AddRow(11, 1, 2, 4, "solid", now, now))

	rv := &model.Review{UserID: 1, MovieID: 2, Rating: 4, Comment: sql.NullString{String: "solid", Valid: true}}
	require.NoError(t, repo.Create(context.Background(), rv))
	assert.Equal(t, uint64(11), rv.ID)
	assert.Equal(t, "solid", rv.Comment.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewListByUserWithMovie(t *testing.T) {
	repo, mock := newReviewMock(t)
	now := time.Now().UTC()
	release := time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews rv WHERE 1=1 AND rv.user_id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN movies m ON m.id = rv.movie_id WHERE 1=1 AND rv.user_id = ? ORDER BY rv.id LIMIT ? OFFSET ?")).
		WithArgs(7, 15, 0).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, reviewRowColumns...), "mid", "title", "release_date")).
			AddRow(3, 7, 10, 5, nil, now, now, 10, "The Matrix", release))

	got, total, err := repo.List(context.Background(), ReviewQuery{UserID: 7, WithMovie: true}, model.Pagination{Page: 1, PerPage: 15})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Movie)
	assert.Equal(t, "The Matrix", got[0].Movie.Title)
	assert.False(t, got[0].Comment.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDeleteMissing(t *testing.T) {
	repo, mock := newReviewMock(t)
	mock.ExpectExec("DELETE FROM reviews").WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrNotFound)
}

func TestRatingsForMovie(t *testing.T) {
	repo, mock := newReviewMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT rating, created_at FROM reviews WHERE movie_id = ").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "created_at"}).AddRow(5, now).AddRow(3, now.Add(-time.Hour)))

	pts, err := repo.RatingsForMovie(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []model.RatingPoint{{Rating: 5, CreatedAt: now}, {Rating: 3, CreatedAt: now.Add(-time.Hour)}}, pts)
}

func TestHasReviewed(t *testing.T) {
	repo, mock := newReviewMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? AND movie_id = ? AND id <> ?")).WithArgs(1, 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	ok, err := repo.HasReviewed(context.Background(), 1, 2, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}
