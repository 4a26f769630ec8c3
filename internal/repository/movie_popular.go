package repository

import (
	"context"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// Popular ranks movies by review count, then by average rating, and returns
// the first limit entries.  Movies without reviews rank with count 0 and
// average 0; remaining ties fall back to ascending id.
func (r *MovieRepo) Popular(ctx context.Context, limit int) ([]model.PopularMovie, error) {
	const q = `SELECT ` + movieColumns + `,
			COUNT(rv.id) AS reviews_count,
			COALESCE(AVG(rv.rating), 0) AS average_rating
		FROM movies m
		LEFT JOIN reviews rv ON rv.movie_id = m.id
		GROUP BY m.id
		ORDER BY reviews_count DESC, average_rating DESC, m.id ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PopularMovie, 0, limit)
	for rows.Next() {
		var pm model.PopularMovie
		m := &pm.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.ReleaseDate, &m.DirectorID, &m.Synopsis, &m.Duration, &m.PosterPath, &m.CreatedAt, &m.UpdatedAt,
			&pm.Summary.Count, &pm.Summary.AverageRating); err != nil {
			return nil, err
		}
		out = append(out, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
