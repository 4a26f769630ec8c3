package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// MovieFilter holds the optional search criteria.  Zero values mean "not
// supplied" and contribute no condition; supplied criteria are ANDed.
type MovieFilter struct {
	Title       string     // case-insensitive substring of the title
	ReleaseDate *time.Time // exact calendar date
	DirectorID  *uint64
	ActorID     *uint64 // movie has a cast row for this actor
	GenreID     *uint64 // movie is linked to this genre
}

// IsEmpty reports whether no criterion is set.
func (f MovieFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Title) == "" && f.ReleaseDate == nil && f.DirectorID == nil && f.ActorID == nil && f.GenreID == nil
}

// where renders the filter as a SQL condition over alias m plus its
// arguments.  An empty filter yields "1=1".
func (f MovieFilter) where() (string, []any) {
	where := []string{}
	args := []any{}

	if title := strings.TrimSpace(f.Title); title != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(title))+"%")
	}
	if f.ReleaseDate != nil {
		where = append(where, "DATE(m.release_date) = ?")
		args = append(args, f.ReleaseDate.Format(model.DateLayout))
	}
	if f.DirectorID != nil {
		where = append(where, "m.director_id = ?")
		args = append(args, *f.DirectorID)
	}
	if f.ActorID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM movie_cast mc WHERE mc.movie_id = m.id AND mc.actor_id = ?)")
		args = append(args, *f.ActorID)
	}
	if f.GenreID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM movie_genre mg WHERE mg.movie_id = m.id AND mg.genre_id = ?)")
		args = append(args, *f.GenreID)
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// Search returns one page of movies matching the filter, ordered by id, and
// the total number of matches.
func (r *MovieRepo) Search(ctx context.Context, f MovieFilter, p model.Pagination) ([]model.Movie, int64, error) {
	cond, args := f.where()

	total, err := count(ctx, r.db, "SELECT COUNT(*) FROM movies m WHERE "+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + movieColumns + " FROM movies m WHERE " + cond + " ORDER BY m.id ASC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), p.PerPage, p.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0, p.PerPage)
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// List is the unfiltered listing; it is Search with an empty filter.
func (r *MovieRepo) List(ctx context.Context, p model.Pagination) ([]model.Movie, int64, error) {
	return r.Search(ctx, MovieFilter{}, p)
}
