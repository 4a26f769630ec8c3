package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/model"
)

var movieRowColumns = []string{"id", "title", "release_date", "director_id", "synopsis", "duration", "poster_path", "created_at", "updated_at"}

func newMock(t *testing.T) (*MovieRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMovieRepo(db), mock
}

func ptr(v uint64) *uint64 { return &v }

func TestMovieFilterWhere(t *testing.T) {
	cond, args := MovieFilter{}.where()
	assert.Equal(t, "1=1", cond)
	assert.Empty(t, args)

	day := time.Date(2010, 7, 16, 0, 0, 0, 0, time.UTC)
	cond, args = MovieFilter{Title: "  In%ception ", ReleaseDate: &day, DirectorID: ptr(3), ActorID: ptr(4), GenreID: ptr(5)}.where()
	assert.Equal(t,
		"LOWER(m.title) LIKE ? AND DATE(m.release_date) = ? AND m.director_id = ? AND "+
			"EXISTS (SELECT 1 FROM movie_cast mc WHERE mc.movie_id = m.id AND mc.actor_id = ?) AND "+
			"EXISTS (SELECT 1 FROM movie_genre mg WHERE mg.movie_id = m.id AND mg.genre_id = ?)", cond)
	assert.Equal(t, []any{`%in\%ception%`, "2010-07-16", uint64(3), uint64(4), uint64(5)}, args)
}

func TestMovieFilterIsEmpty(t *testing.T) {
	assert.True(t, MovieFilter{Title: "   "}.IsEmpty())
	assert.False(t, MovieFilter{GenreID: ptr(1)}.IsEmpty())
}

func TestMovieSearch(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies m WHERE LOWER(m.title) LIKE ? AND m.director_id = ?")).
		WithArgs("%matrix%", 2).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(16))
	mock.ExpectQuery(regexp.QuoteMeta("FROM movies m WHERE LOWER(m.title) LIKE ? AND m.director_id = ? ORDER BY m.id ASC LIMIT ? OFFSET ?")).
		WithArgs("%matrix%", 2, 15, 15).
		WillReturnRows(sqlmock.NewRows(movieRowColumns).
			AddRow(16, "The Matrix Revisited", now, 2, nil, 120, nil, now, now))

	movies, total, err := repo.Search(context.Background(), MovieFilter{Title: "Matrix", DirectorID: ptr(2)}, model.Pagination{Page: 2, PerPage: 15})
	require.NoError(t, err)
	assert.EqualValues(t, 16, total)
	require.Len(t, movies, 1)
	assert.Equal(t, "The Matrix Revisited", movies[0].Title)
	assert.True(t, movies[0].DirectorID.Valid)
	assert.False(t, movies[0].Synopsis.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoviePopular(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	cols := append(append([]string{}, movieRowColumns...), "reviews_count", "average_rating")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY reviews_count DESC, average_rating DESC, m.id ASC")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "Heat", now, nil, "crime", 170, nil, now, now, 3, 4.5).
			AddRow(1, "Alien", now, nil, nil, 117, nil, now, now, 0, 0.0))

	got, err := repo.Popular(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(7), got[0].ID)
	assert.Equal(t, model.RatingSummary{Count: 3, AverageRating: 4.5}, got[0].Summary)
	assert.Equal(t, model.RatingSummary{}, got[1].Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM movies m WHERE m.id = ").WithArgs(9).WillReturnRows(sqlmock.NewRows(movieRowColumns))

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMovieCreateLinksGenres(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	release := time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO movies").
		WithArgs("The Matrix", "1999-03-31", sqlmock.AnyArg(), sqlmock.AnyArg(), 136, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO movie_genre").WithArgs(10, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movie_genre").WithArgs(10, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM movies m WHERE m.id = ").WithArgs(10).
		WillReturnRows(sqlmock.NewRows(movieRowColumns).AddRow(10, "The Matrix", release, nil, nil, 136, nil, now, now))

	m := &model.Movie{Title: "The Matrix", ReleaseDate: release, Duration: 136}
	require.NoError(t, repo.Create(context.Background(), m, []uint64{1, 2, 1}))
	assert.Equal(t, uint64(10), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieUpdateMissingRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE movies").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Movie{ID: 4, Title: "x", Duration: 1}, nil, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRelations(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("JOIN directors d").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"mid", "id", "name", "created_at", "updated_at"}).AddRow(1, 5, "Nolan", now, now))
	mock.ExpectQuery("JOIN actors a").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id", "id", "name", "character_name"}).
			AddRow(2, 8, "Keanu Reeves", "Neo"))
	mock.ExpectQuery("FROM reviews rv WHERE rv.movie_id IN").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "movie_id", "rating", "comment", "created_at", "updated_at"}).
			AddRow(3, 4, 1, 5, "great", now, now))

	rel, err := repo.LoadRelations(context.Background(), []uint64{1, 2}, model.Includes{Director: true, Cast: true, Reviews: true})
	require.NoError(t, err)

	require.NotNil(t, rel[1].Director)
	assert.Equal(t, "Nolan", rel[1].Director.Name)
	assert.Nil(t, rel[2].Director)
	assert.Empty(t, rel[1].Cast)
	assert.NotNil(t, rel[1].Cast)
	assert.Equal(t, []model.CastMember{{ActorID: 8, Name: "Keanu Reeves", CharacterName: "Neo"}}, rel[2].Cast)
	require.Len(t, rel[1].Reviews, 1)
	assert.Equal(t, 5, rel[1].Reviews[0].Rating)
	assert.Nil(t, rel[1].Genres)
	assert.NoError(t, mock.ExpectationsWereMet())
}
