package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
)

const (
	movieLabel     = "Movie"
	posterTooLarge = "The poster field must not be greater than 2048 kilobytes."
)

// MovieHandler serves the catalog: listing, search, popularity, statistics
// and the admin mutations including poster upload.
type MovieHandler struct {
	Movies    *repository.MovieRepo
	Reviews   *repository.ReviewRepo
	Directors *repository.ReferenceRepo
	Genres    *repository.ReferenceRepo
	Posters   *storage.PosterStore
	Log       hclog.Logger

	// now is the statistics clock.
	now func() time.Time
}

func NewMovieHandler(movies *repository.MovieRepo, reviews *repository.ReviewRepo, directors, genres *repository.ReferenceRepo, posters *storage.PosterStore, logger hclog.Logger) *MovieHandler {
	return &MovieHandler{
		Movies:    movies,
		Reviews:   reviews,
		Directors: directors,
		Genres:    genres,
		Posters:   posters,
		Log:       logger.Named("movies"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type movieReq struct {
	Title       string   `json:"title" form:"title" validate:"required,max=255"`
	ReleaseDate string   `json:"release_date" form:"release_date" validate:"required,datetime=2006-01-02"`
	DirectorID  *uint64  `json:"director_id" form:"director_id" validate:"required"`
	Synopsis    *string  `json:"synopsis" form:"synopsis"`
	Duration    *int     `json:"duration" form:"duration" validate:"required,min=1"`
	GenreIDs    []uint64 `json:"genre_ids" form:"genre_ids"`
}

// render turns movies plus their loaded relations into resources.
func (h *MovieHandler) render(ctx context.Context, movies []model.Movie, inc model.Includes, summarize bool) ([]echo.Map, error) {
	var rels map[uint64]*model.MovieRelations
	if inc.Any() {
		ids := make([]uint64, len(movies))
		for i := range movies {
			ids[i] = movies[i].ID
		}
		var err error
		if rels, err = h.Movies.LoadRelations(ctx, ids, inc); err != nil {
			return nil, err
		}
	}
	out := make([]echo.Map, 0, len(movies))
	for i := range movies {
		out = append(out, movieResource(&movies[i], rels[movies[i].ID], inc, h.Posters.URL, summarize))
	}
	return out, nil
}

func (h *MovieHandler) page(c echo.Context, f repository.MovieFilter) error {
	p := model.ParsePagination(c.QueryParam("page"), c.QueryParam("per_page"))
	inc := model.ParseIncludes(c.QueryParam("include"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	movies, total, err := h.Movies.Search(ctx, f, p)
	if err != nil {
		return err
	}
	data, err := h.render(ctx, movies, inc, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{Data: data, Meta: model.NewPageMeta(p, total, len(movies))})
}

// Index lists one page of movies.
func (h *MovieHandler) Index(c echo.Context) error {
	return h.page(c, repository.MovieFilter{})
}

// Search filters movies by any combination of title, release date,
// director, actor and genre.  Without criteria it equals Index.
func (h *MovieHandler) Search(c echo.Context) error {
	f, err := parseMovieFilter(c)
	if err != nil {
		return err
	}
	return h.page(c, f)
}

// parseMovieFilter reads the search criteria.  Empty values are ignored;
// malformed ids and dates are validation errors.
func parseMovieFilter(c echo.Context) (repository.MovieFilter, error) {
	ve := &ValidationError{}
	f := repository.MovieFilter{Title: strings.TrimSpace(c.QueryParam("title"))}

	if raw := strings.TrimSpace(c.QueryParam("release_date")); raw != "" {
		d, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			ve.Add("release_date", "The release date field must be a valid date.")
		} else {
			f.ReleaseDate = &d
		}
	}
	for _, q := range []struct {
		name string
		dst  **uint64
	}{
		{"director_id", &f.DirectorID},
		{"actor_id", &f.ActorID},
		{"genre_id", &f.GenreID},
	} {
		raw := strings.TrimSpace(c.QueryParam(q.name))
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ve.Add(q.name, fmt.Sprintf("The %s field must be an integer.", displayName(q.name)))
			continue
		}
		*q.dst = &id
	}
	if !ve.Empty() {
		return f, ve
	}
	return f, nil
}

// popularItem is one entry of the ranking: the movie resource plus its
// review summary.
func (h *MovieHandler) popularItem(pm *model.PopularMovie, rel *model.MovieRelations, inc model.Includes) echo.Map {
	out := movieResource(&pm.Movie, rel, inc, h.Posters.URL, false)
	out["reviews_summary"] = echo.Map{
		"count":          pm.Summary.Count,
		"average_rating": pm.Summary.AverageRating,
	}
	return out
}

// Popular ranks movies by review count then average rating.
func (h *MovieHandler) Popular(c echo.Context) error {
	limit := model.ParsePopularLimit(c.QueryParam("limit"))
	inc := model.ParseIncludes(c.QueryParam("include"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	ranked, err := h.Movies.Popular(ctx, limit)
	if err != nil {
		return err
	}
	var rels map[uint64]*model.MovieRelations
	if inc.Any() {
		ids := make([]uint64, len(ranked))
		for i := range ranked {
			ids[i] = ranked[i].ID
		}
		if rels, err = h.Movies.LoadRelations(ctx, ids, inc); err != nil {
			return err
		}
	}
	out := make([]echo.Map, 0, len(ranked))
	for i := range ranked {
		out = append(out, h.popularItem(&ranked[i], rels[ranked[i].ID], inc))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MovieHandler) find(ctx context.Context, c echo.Context) (*model.Movie, error) {
	id, err := pathID(c, "id", movieLabel)
	if err != nil {
		return nil, err
	}
	m, err := h.Movies.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(movieLabel)
	}
	return m, err
}

// Show returns one movie with the requested relations.
func (h *MovieHandler) Show(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.find(ctx, c)
	if err != nil {
		return err
	}
	data, err := h.render(ctx, []model.Movie{*m}, model.ParseIncludes(c.QueryParam("include")), true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, single(data[0]))
}

// Statistics aggregates the movie's reviews.
func (h *MovieHandler) Statistics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.find(ctx, c)
	if err != nil {
		return err
	}
	points, err := h.Reviews.RatingsForMovie(ctx, m.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newStatisticsResource(m, model.ComputeStatistics(points, h.now())))
}

// Store creates a movie.  The body may be JSON or multipart; a multipart
// "poster" file is stored and linked.
func (h *MovieHandler) Store(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m := &model.Movie{}
	req, err := h.readMovie(ctx, c, m)
	if err != nil {
		return err
	}
	newPoster, err := h.savePoster(c)
	if err != nil {
		return err
	}
	if newPoster != "" {
		m.PosterPath = sql.NullString{String: newPoster, Valid: true}
	}

	if err := h.Movies.Create(ctx, m, req.GenreIDs); err != nil {
		h.removePoster(newPoster)
		return err
	}
	h.Log.Info("movie created", "id", m.ID)
	return h.respondMovie(ctx, c, http.StatusCreated, m)
}

// Update replaces the movie's fields.  A new poster replaces the old file
// after the row is updated; genre links are replaced only when genre_ids is
// sent.
func (h *MovieHandler) Update(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.find(ctx, c)
	if err != nil {
		return err
	}
	oldPoster := m.PosterPath

	req, err := h.readMovie(ctx, c, m)
	if err != nil {
		return err
	}
	newPoster, err := h.savePoster(c)
	if err != nil {
		return err
	}
	if newPoster != "" {
		m.PosterPath = sql.NullString{String: newPoster, Valid: true}
	}

	if err := h.Movies.Update(ctx, m, req.GenreIDs, req.GenreIDs != nil); err != nil {
		h.removePoster(newPoster)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(movieLabel)
		}
		return err
	}
	if newPoster != "" && oldPoster.Valid {
		h.removePoster(oldPoster.String)
	}
	return h.respondMovie(ctx, c, http.StatusOK, m)
}

// Destroy deletes the movie and its poster file.  Cast rows, genre links and
// reviews cascade.
func (h *MovieHandler) Destroy(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.find(ctx, c)
	if err != nil {
		return err
	}
	if err := h.Movies.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(movieLabel)
		}
		return err
	}
	if m.PosterPath.Valid {
		h.removePoster(m.PosterPath.String)
	}
	h.Log.Info("movie deleted", "id", m.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie deleted successfully."})
}

// readMovie binds and validates the body and copies it onto m.
func (h *MovieHandler) readMovie(ctx context.Context, c echo.Context, m *model.Movie) (*movieReq, error) {
	var req movieReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return nil, err
	}
	if req.DirectorID != nil {
		ok, err := h.Directors.Exists(ctx, *req.DirectorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			ve.Add("director_id", "The selected director id is invalid.")
		}
	}
	if len(req.GenreIDs) > 0 {
		missing, err := h.Genres.MissingIDs(ctx, req.GenreIDs)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			ve.Add("genre_ids", "The selected genre ids is invalid.")
		}
	}
	if !ve.Empty() {
		return nil, ve
	}

	release, _ := time.Parse(model.DateLayout, req.ReleaseDate)
	m.Title = strings.TrimSpace(req.Title)
	m.ReleaseDate = release
	m.DirectorID = sql.NullInt64{Int64: int64(*req.DirectorID), Valid: true}
	m.Synopsis = sql.NullString{}
	if req.Synopsis != nil {
		m.Synopsis = sql.NullString{String: *req.Synopsis, Valid: true}
	}
	m.Duration = *req.Duration
	return &req, nil
}

// savePoster stores the multipart "poster" file, if any, and returns its
// relative path.
func (h *MovieHandler) savePoster(c echo.Context) (string, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return "", nil
	}
	fh, err := c.FormFile("poster")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.").SetInternal(err)
	}
	if fh.Size > storage.MaxPosterSize {
		return "", invalid("poster", posterTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	rel, err := h.Posters.Save(f)
	switch {
	case errors.Is(err, storage.ErrPosterTooLarge):
		return "", invalid("poster", posterTooLarge)
	case errors.Is(err, storage.ErrPosterType):
		return "", invalid("poster", "The poster field must be a file of type: jpeg, png, jpg, gif.")
	case err != nil:
		return "", err
	}
	return rel, nil
}

func (h *MovieHandler) removePoster(rel string) {
	if rel == "" {
		return
	}
	if err := h.Posters.Delete(rel); err != nil {
		h.Log.Warn("remove poster", "path", rel, "error", err)
	}
}

func (h *MovieHandler) respondMovie(ctx context.Context, c echo.Context, status int, m *model.Movie) error {
	data, err := h.render(ctx, []model.Movie{*m}, model.Includes{Director: true, Genres: true}, true)
	if err != nil {
		return err
	}
	return c.JSON(status, single(data[0]))
}
