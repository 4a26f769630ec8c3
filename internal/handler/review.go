package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

const (
	reviewLabel     = "Review"
	duplicateReview = "You have already reviewed this movie."
)

// ReviewHandler serves review listings and the owner-only mutations.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Movies  *repository.MovieRepo
	Log     hclog.Logger
}

func NewReviewHandler(reviews *repository.ReviewRepo, movies *repository.MovieRepo, logger hclog.Logger) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Movies: movies, Log: logger.Named("reviews")}
}

type reviewReq struct {
	MovieID *uint64 `json:"movie_id" form:"movie_id" validate:"required"`
	Rating  *int    `json:"rating" form:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" form:"comment" validate:"omitnil,max=1000"`
}

func (r reviewReq) comment() sql.NullString {
	if r.Comment == nil || strings.TrimSpace(*r.Comment) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *r.Comment, Valid: true}
}

func (h *ReviewHandler) list(c echo.Context, q repository.ReviewQuery) error {
	p := model.ParsePagination(c.QueryParam("page"), c.QueryParam("per_page"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Reviews.List(ctx, q, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{Data: reviewResources(rows), Meta: model.NewPageMeta(p, total, len(rows))})
}

// Index lists all reviews.
func (h *ReviewHandler) Index(c echo.Context) error {
	return h.list(c, repository.ReviewQuery{})
}

// MyReviews lists the caller's reviews; include=movie attaches the movie.
func (h *ReviewHandler) MyReviews(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	inc := model.ParseIncludes(c.QueryParam("include"))
	return h.list(c, repository.ReviewQuery{UserID: uid, WithMovie: inc.Movie})
}

// ByMovie lists the reviews of one movie.
func (h *ReviewHandler) ByMovie(c echo.Context) error {
	movieID, err := pathID(c, "id", movieLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Movies.Exists(ctx, movieID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(movieLabel)
	}
	return h.list(c, repository.ReviewQuery{MovieID: movieID})
}

// Show returns one review.
func (h *ReviewHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id", reviewLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rv, err := h.find(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, single(newReviewResource(rv)))
}

// Store creates the caller's review of a movie.  A second review of the same
// movie is a validation error.
func (h *ReviewHandler) Store(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	var req reviewReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.checkMovie(ctx, uid, 0, &req, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	rv := &model.Review{UserID: uid, MovieID: *req.MovieID, Rating: *req.Rating, Comment: req.comment()}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return invalid("movie_id", duplicateReview)
		}
		return err
	}
	return c.JSON(http.StatusCreated, single(newReviewResource(rv)))
}

// Update lets the author rewrite their review.
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id", reviewLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rv, err := h.find(ctx, id)
	if err != nil {
		return err
	}
	if err := ensureOwner(c, rv, "You do not have permission to edit this review."); err != nil {
		return err
	}

	var req reviewReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}
	if err := h.checkMovie(ctx, rv.UserID, rv.ID, &req, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	rv.MovieID, rv.Rating, rv.Comment = *req.MovieID, *req.Rating, req.comment()
	if err := h.Reviews.Update(ctx, rv); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateReview):
			return invalid("movie_id", duplicateReview)
		case errors.Is(err, repository.ErrNotFound):
			return notFound(reviewLabel)
		}
		return err
	}
	return c.JSON(http.StatusOK, single(newReviewResource(rv)))
}

// Destroy lets the author delete their review.
func (h *ReviewHandler) Destroy(c echo.Context) error {
	id, err := pathID(c, "id", reviewLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rv, err := h.find(ctx, id)
	if err != nil {
		return err
	}
	if err := ensureOwner(c, rv, "You do not have permission to delete this review."); err != nil {
		return err
	}
	if err := h.Reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(reviewLabel)
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review deleted successfully."})
}

func (h *ReviewHandler) find(ctx context.Context, id uint64) (*model.Review, error) {
	rv, err := h.Reviews.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(reviewLabel)
	}
	return rv, err
}

// checkMovie adds the movie existence and one-review-per-movie checks.
func (h *ReviewHandler) checkMovie(ctx context.Context, userID, exceptID uint64, req *reviewReq, ve *ValidationError) error {
	if req.MovieID == nil {
		return nil
	}
	ok, err := h.Movies.Exists(ctx, *req.MovieID)
	if err != nil {
		return err
	}
	if !ok {
		ve.Add("movie_id", "The selected movie id is invalid.")
		return nil
	}
	dup, err := h.Reviews.HasReviewed(ctx, userID, *req.MovieID, exceptID)
	if err != nil {
		return err
	}
	if dup {
		ve.Add("movie_id", duplicateReview)
	}
	return nil
}

// ensureOwner rejects callers other than the review's author with 403.
func ensureOwner(c echo.Context, rv *model.Review, msg string) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	if rv.UserID != uid {
		return forbidden(msg)
	}
	return nil
}
