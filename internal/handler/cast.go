package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

const castLabel = "Cast entry"

// CastHandler manages /movie-casts, the actor <-> movie assignments.
type CastHandler struct {
	Cast   *repository.CastRepo
	Movies *repository.MovieRepo
	Actors *repository.ReferenceRepo
	Log    hclog.Logger
}

func NewCastHandler(cast *repository.CastRepo, movies *repository.MovieRepo, actors *repository.ReferenceRepo, logger hclog.Logger) *CastHandler {
	return &CastHandler{Cast: cast, Movies: movies, Actors: actors, Log: logger.Named("cast")}
}

type castReq struct {
	MovieID       *uint64 `json:"movie_id" form:"movie_id" validate:"required"`
	ActorID       *uint64 `json:"actor_id" form:"actor_id" validate:"required"`
	CharacterName string  `json:"character_name" form:"character_name" validate:"required,max=255"`
}

// Index lists one page of cast entries.
func (h *CastHandler) Index(c echo.Context) error {
	p := model.ParsePagination(c.QueryParam("page"), c.QueryParam("per_page"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Cast.List(ctx, p)
	if err != nil {
		return err
	}
	data := make([]castResource, 0, len(rows))
	for i := range rows {
		data = append(data, newCastResource(&rows[i]))
	}
	return c.JSON(http.StatusOK, pageResponse{Data: data, Meta: model.NewPageMeta(p, total, len(rows))})
}

// Show returns one cast entry.
func (h *CastHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id", castLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	entry, err := h.Cast.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(castLabel)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, single(newCastResource(entry)))
}

// Store assigns an actor to a movie.
func (h *CastHandler) Store(c echo.Context) error {
	var req castReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.checkRefs(ctx, &req, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	entry := &model.CastEntry{MovieID: *req.MovieID, ActorID: *req.ActorID, CharacterName: req.CharacterName}
	if err := h.Cast.Create(ctx, entry); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, single(newCastResource(entry)))
}

// Update replaces every field of a cast entry.
func (h *CastHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id", castLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Cast.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(castLabel)
		}
		return err
	}

	var req castReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}
	if err := h.checkRefs(ctx, &req, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	entry := &model.CastEntry{ID: id, MovieID: *req.MovieID, ActorID: *req.ActorID, CharacterName: req.CharacterName}
	if err := h.Cast.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(castLabel)
		}
		return err
	}
	return c.JSON(http.StatusOK, single(newCastResource(entry)))
}

// Destroy removes a cast entry.
func (h *CastHandler) Destroy(c echo.Context) error {
	id, err := pathID(c, "id", castLabel)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cast.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(castLabel)
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": castLabel + " deleted successfully."})
}

// checkRefs adds "exists" failures for the referenced movie and actor.
func (h *CastHandler) checkRefs(ctx context.Context, req *castReq, ve *ValidationError) error {
	if req.MovieID != nil {
		ok, err := h.Movies.Exists(ctx, *req.MovieID)
		if err != nil {
			return err
		}
		if !ok {
			ve.Add("movie_id", "The selected movie id is invalid.")
		}
	}
	if req.ActorID != nil {
		ok, err := h.Actors.Exists(ctx, *req.ActorID)
		if err != nil {
			return err
		}
		if !ok {
			ve.Add("actor_id", "The selected actor id is invalid.")
		}
	}
	return nil
}
