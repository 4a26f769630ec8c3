package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

// ReferenceHandler serves CRUD for one named reference table (directors,
// actors or genres).  The request and response field is the kind's
// NameField, e.g. {"genre_name": "Drama"}.
type ReferenceHandler struct {
	Repo *repository.ReferenceRepo
	Log  hclog.Logger
}

func NewReferenceHandler(repo *repository.ReferenceRepo, logger hclog.Logger) *ReferenceHandler {
	return &ReferenceHandler{Repo: repo, Log: logger.Named(repo.Kind().Table)}
}

// readName extracts and validates the name field.  The field name depends on
// the kind, so the body is bound into a map instead of a tagged struct.
func (h *ReferenceHandler) readName(c echo.Context) (string, *ValidationError, error) {
	kind := h.Repo.Kind()
	body := map[string]any{}
	if err := c.Bind(&body); err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.").SetInternal(err)
	}
	if _, ok := body[kind.NameField]; !ok {
		// form posts do not bind into maps
		if v := c.FormValue(kind.NameField); v != "" {
			body[kind.NameField] = v
		}
	}

	ve := &ValidationError{}
	label := displayName(kind.NameField)
	raw, present := body[kind.NameField]
	name, isString := raw.(string)
	name = strings.TrimSpace(name)
	switch {
	case !present || raw == nil || (isString && name == ""):
		ve.Add(kind.NameField, fmt.Sprintf("The %s field is required.", label))
	case !isString:
		ve.Add(kind.NameField, fmt.Sprintf("The %s field must be a string.", label))
	case utf8.RuneCountInString(name) > model.ReferenceNameMax:
		ve.Add(kind.NameField, fmt.Sprintf("The %s field must not be greater than %d characters.", label, model.ReferenceNameMax))
	}
	return name, ve, nil
}

// Index lists one page of rows.
func (h *ReferenceHandler) Index(c echo.Context) error {
	p := model.ParsePagination(c.QueryParam("page"), c.QueryParam("per_page"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Repo.List(ctx, p)
	if err != nil {
		return err
	}
	data := make([]echo.Map, 0, len(rows))
	for i := range rows {
		data = append(data, referenceResource(h.Repo.Kind(), &rows[i]))
	}
	return c.JSON(http.StatusOK, pageResponse{Data: data, Meta: model.NewPageMeta(p, total, len(rows))})
}

// Show returns one row.
func (h *ReferenceHandler) Show(c echo.Context) error {
	kind := h.Repo.Kind()
	id, err := pathID(c, "id", kind.Label)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ref, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(kind.Label)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, single(referenceResource(kind, ref)))
}

// Store creates a row with a unique name.
func (h *ReferenceHandler) Store(c echo.Context) error {
	return h.save(c, 0)
}

// Update renames a row; the name must stay unique among the other rows.
func (h *ReferenceHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id", h.Repo.Kind().Label)
	if err != nil {
		return err
	}
	return h.save(c, id)
}

func (h *ReferenceHandler) save(c echo.Context, id uint64) error {
	kind := h.Repo.Kind()
	ctx, cancel := reqCtx(c)
	defer cancel()

	if id != 0 {
		ok, err := h.Repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(kind.Label)
		}
	}

	name, ve, err := h.readName(c)
	if err != nil {
		return err
	}
	if ve.Empty() {
		taken, err := h.Repo.NameTaken(ctx, name, id)
		if err != nil {
			return err
		}
		if taken {
			ve.Add(kind.NameField, fmt.Sprintf("The %s has already been taken.", displayName(kind.NameField)))
		}
	}
	if !ve.Empty() {
		return ve
	}

	var ref *model.Reference
	if id == 0 {
		ref, err = h.Repo.Create(ctx, name)
	} else {
		ref, err = h.Repo.Update(ctx, id, name)
	}
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return invalid(kind.NameField, fmt.Sprintf("The %s has already been taken.", displayName(kind.NameField)))
	case errors.Is(err, repository.ErrNotFound):
		return notFound(kind.Label)
	case err != nil:
		return err
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	return c.JSON(status, single(referenceResource(kind, ref)))
}

// Destroy deletes a row.  Movies lose the director, cast rows and genre
// links go with it.
func (h *ReferenceHandler) Destroy(c echo.Context) error {
	kind := h.Repo.Kind()
	id, err := pathID(c, "id", kind.Label)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(kind.Label)
		}
		return err
	}
	h.Log.Info("deleted", "id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": kind.Label + " deleted successfully."})
}
