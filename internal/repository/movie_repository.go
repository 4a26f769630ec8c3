// Package repository contains data access logic separated from HTTP handlers.
// This file holds the Movie CRUD queries and the batched relation loaders used
// by the `include` query parameter.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const movieColumns = "m.id, m.title, m.release_date, m.director_id, m.synopsis, m.duration, m.poster_path, m.created_at, m.updated_at"

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner, m *model.Movie) error {
	return s.Scan(&m.ID, &m.Title, &m.ReleaseDate, &m.DirectorID, &m.Synopsis, &m.Duration, &m.PosterPath, &m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches a movie or ErrNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	if err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies m WHERE m.id = ?", id), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Exists reports whether the movie id is present.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	n, err := count(ctx, r.db, "SELECT COUNT(*) FROM movies WHERE id = ?", id)
	return n > 0, err
}

// Create inserts the movie and its genre links in one transaction.  On
// success m is replaced by the stored row so callers see generated fields.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie, genreIDs []uint64) error {
	var id int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO movies (title, release_date, director_id, synopsis, duration, poster_path) VALUES (?, ?, ?, ?, ?, ?)",
			m.Title, m.ReleaseDate.Format(model.DateLayout), m.DirectorID, m.Synopsis, m.Duration, m.PosterPath)
		if err != nil {
			return fmt.Errorf("insert movie: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertGenreLinks(ctx, tx, uint64(id), genreIDs)
	})
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// Update overwrites every editable column.  When syncGenres is true the
// movie's genre links are replaced by genreIDs.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie, genreIDs []uint64, syncGenres bool) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE movies
			 SET title = ?, release_date = ?, director_id = ?, synopsis = ?, duration = ?, poster_path = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			m.Title, m.ReleaseDate.Format(model.DateLayout), m.DirectorID, m.Synopsis, m.Duration, m.PosterPath, m.ID)
		if err != nil {
			return fmt.Errorf("update movie: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		if !syncGenres {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genre WHERE movie_id = ?", m.ID); err != nil {
			return err
		}
		return insertGenreLinks(ctx, tx, m.ID, genreIDs)
	})
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

func insertGenreLinks(ctx context.Context, tx *sql.Tx, movieID uint64, genreIDs []uint64) error {
	seen := make(map[uint64]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		if _, err := tx.ExecContext(ctx, "INSERT INTO movie_genre (movie_id, genre_id) VALUES (?, ?)", movieID, gid); err != nil {
			return fmt.Errorf("link genre %d: %w", gid, err)
		}
	}
	return nil
}

// Delete removes the movie; cast rows, genre links and reviews cascade.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// LoadRelations eagerly loads the requested relations for every given movie
// with one query per relation.  The result has an entry for each movie id.
func (r *MovieRepo) LoadRelations(ctx context.Context, movieIDs []uint64, inc model.Includes) (map[uint64]*model.MovieRelations, error) {
	out := make(map[uint64]*model.MovieRelations, len(movieIDs))
	for _, id := range movieIDs {
		rel := &model.MovieRelations{}
		if inc.Cast {
			rel.Cast = []model.CastMember{}
		}
		if inc.Genres {
			rel.Genres = []model.Reference{}
		}
		if inc.Reviews {
			rel.Reviews = []model.Review{}
		}
		out[id] = rel
	}
	if len(movieIDs) == 0 || !inc.Any() {
		return out, nil
	}
	in := placeholders(len(movieIDs))
	args := uintArgs(movieIDs)

	if inc.Director {
		if err := r.loadDirectors(ctx, in, args, out); err != nil {
			return nil, fmt.Errorf("load directors: %w", err)
		}
	}
	if inc.Cast {
		if err := r.loadCast(ctx, in, args, out); err != nil {
			return nil, fmt.Errorf("load cast: %w", err)
		}
	}
	if inc.Genres {
		if err := r.loadGenres(ctx, in, args, out); err != nil {
			return nil, fmt.Errorf("load genres: %w", err)
		}
	}
	if inc.Reviews {
		if err := r.loadReviews(ctx, in, args, out); err != nil {
			return nil, fmt.Errorf("load reviews: %w", err)
		}
	}
	return out, nil
}

func (r *MovieRepo) loadDirectors(ctx context.Context, in string, args []any, out map[uint64]*model.MovieRelations) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT m.id, d.id, d.name, d.created_at, d.updated_at FROM movies m JOIN directors d ON d.id = m.director_id WHERE m.id IN ("+in+")",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			movieID uint64
			d       model.Reference
		)
		if err := rows.Scan(&movieID, &d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return err
		}
		if rel, ok := out[movieID]; ok {
			rel.Director = &d
		}
	}
	return rows.Err()
}

func (r *MovieRepo) loadCast(ctx context.Context, in string, args []any, out map[uint64]*model.MovieRelations) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT mc.movie_id, a.id, a.name, mc.character_name FROM movie_cast mc JOIN actors a ON a.id = mc.actor_id WHERE mc.movie_id IN ("+in+") ORDER BY mc.id",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			movieID uint64
			cm      model.CastMember
		)
		if err := rows.Scan(&movieID, &cm.ActorID, &cm.Name, &cm.CharacterName); err != nil {
			return err
		}
		if rel, ok := out[movieID]; ok {
			rel.Cast = append(rel.Cast, cm)
		}
	}
	return rows.Err()
}

func (r *MovieRepo) loadGenres(ctx context.Context, in string, args []any, out map[uint64]*model.MovieRelations) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT mg.movie_id, g.id, g.name, g.created_at, g.updated_at FROM movie_genre mg JOIN genres g ON g.id = mg.genre_id WHERE mg.movie_id IN ("+in+") ORDER BY g.id",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			movieID uint64
			g       model.Reference
		)
		if err := rows.Scan(&movieID, &g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return err
		}
		if rel, ok := out[movieID]; ok {
			rel.Genres = append(rel.Genres, g)
		}
	}
	return rows.Err()
}

func (r *MovieRepo) loadReviews(ctx context.Context, in string, args []any, out map[uint64]*model.MovieRelations) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews rv WHERE rv.movie_id IN ("+in+") ORDER BY rv.id",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv); err != nil {
			return err
		}
		if rel, ok := out[rv.MovieID]; ok {
			rel.Reviews = append(rel.Reviews, rv)
		}
	}
	return rows.Err()
}
