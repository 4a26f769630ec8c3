package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const reviewColumns = "rv.id, rv.user_id, rv.movie_id, rv.rating, rv.comment, rv.created_at, rv.updated_at"

// ReviewRepo handles the `reviews` table.  The (user_id, movie_id) unique
// key is the single source of truth for the one-review-per-movie rule.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func scanReview(s rowScanner, rv *model.Review) error {
	return s.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
}

// ReviewQuery narrows a review listing.  Zero ids mean "any".
type ReviewQuery struct {
	UserID    uint64
	MovieID   uint64
	WithMovie bool // attach the compact movie to every review
}

// List returns one page of reviews ordered by id and the total count.
func (r *ReviewRepo) List(ctx context.Context, q ReviewQuery, p model.Pagination) ([]model.Review, int64, error) {
	where := "1=1"
	args := []any{}
	if q.UserID != 0 {
		where += " AND rv.user_id = ?"
		args = append(args, q.UserID)
	}
	if q.MovieID != 0 {
		where += " AND rv.movie_id = ?"
		args = append(args, q.MovieID)
	}

	total, err := count(ctx, r.db, "SELECT COUNT(*) FROM reviews rv WHERE "+where, args...)
	if err != nil {
		return nil, 0, err
	}

	cols := reviewColumns
	from := "reviews rv"
	if q.WithMovie {
		cols += ", m.id, m.title, m.release_date"
		from += " JOIN movies m ON m.id = rv.movie_id"
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+cols+" FROM "+from+" WHERE "+where+" ORDER BY rv.id LIMIT ? OFFSET ?",
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Review, 0, p.PerPage)
	for rows.Next() {
		var rv model.Review
		dest := []any{&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt}
		if q.WithMovie {
			rv.Movie = &model.MovieBrief{}
			dest = append(dest, &rv.Movie.ID, &rv.Movie.Title, &rv.Movie.ReleaseDate)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches one review or ErrNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	var rv model.Review
	if err := scanReview(r.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews rv WHERE rv.id = ?", id), &rv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// HasReviewed reports whether the user already has a review for the movie
// other than exceptID.  It gives handlers a friendly validation message; the
// unique key still decides races.
func (r *ReviewRepo) HasReviewed(ctx context.Context, userID, movieID, exceptID uint64) (bool, error) {
	n, err := count(ctx, r.db,
		"SELECT COUNT(*) FROM reviews WHERE user_id = ? AND movie_id = ? AND id <> ?", userID, movieID, exceptID)
	return n > 0, err
}

// Create inserts the review and reloads it.  A second review by the same user
// for the same movie fails with ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (user_id, movie_id, rating, comment) VALUES (?, ?, ?, ?)",
		rv.UserID, rv.MovieID, rv.Rating, rv.Comment)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rv = *stored
	return nil
}

// Update overwrites movie, rating and comment of an existing review.
func (r *ReviewRepo) Update(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reviews SET movie_id = ?, rating = ?, comment = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		rv.MovieID, rv.Rating, rv.Comment, rv.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("update review: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, rv.ID)
	if err != nil {
		return err
	}
	*rv = *stored
	return nil
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// RatingsForMovie returns the rating and creation time of every review of
// the movie, the input of model.ComputeStatistics.
func (r *ReviewRepo) RatingsForMovie(ctx context.Context, movieID uint64) ([]model.RatingPoint, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT rating, created_at FROM reviews WHERE movie_id = ?", movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RatingPoint
	for rows.Next() {
		var p model.RatingPoint
		if err := rows.Scan(&p.Rating, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
