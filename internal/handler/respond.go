package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
)

// requestTimeout bounds every store round-trip made by a handler.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// ValidationError collects field => messages and renders as a 422.
type ValidationError struct {
	Fields map[string][]string
	order  []string
}

func (e *ValidationError) Error() string { return e.Message() }

// Add appends a message to field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no message was added.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Message is the first message, with a count of the remaining ones.
func (e *ValidationError) Message() string {
	if e.Empty() {
		return "The given data was invalid."
	}
	total := 0
	for _, msgs := range e.Fields {
		total += len(msgs)
	}
	first := e.Fields[e.order[0]][0]
	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return fmt.Sprintf("%s (and 1 more error)", first)
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
}

// invalid is a one-field validation error.
func invalid(field, msg string) error {
	ve := &ValidationError{}
	ve.Add(field, msg)
	return ve
}

func notFound(label string) error {
	return echo.NewHTTPError(http.StatusNotFound, label+" not found.")
}

func forbidden(msg string) error {
	return echo.NewHTTPError(http.StatusForbidden, msg)
}

// bindRequest decodes the request into dst and runs its struct rules.  The
// returned ValidationError is never nil so handlers can append store-backed
// checks before reporting; a non-nil error aborts the request.
func bindRequest(c echo.Context, dst any) (*ValidationError, error) {
	if err := c.Bind(dst); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.").SetInternal(err)
	}
	if err := c.Validate(dst); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		return ve, nil
	}
	return &ValidationError{}, nil
}

// pathID parses the :id route parameter.  A non-numeric id can never match a
// row, so it is reported as not found.
func pathID(c echo.Context, name, label string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound(label)
	}
	return id, nil
}

// NewHTTPErrorHandler renders every error returned by a handler or
// middleware as {"message": ...}.  Validation errors add the field map;
// anything unexpected is logged and hidden behind a generic 500.
func NewHTTPErrorHandler(logger hclog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		body := echo.Map{"message": "Server Error."}

		var (
			ve *ValidationError
			he *echo.HTTPError
		)
		switch {
		case errors.As(err, &ve):
			status = http.StatusUnprocessableEntity
			body = echo.Map{"message": ve.Message(), "errors": ve.Fields}
		case errors.As(err, &he):
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				body["message"] = msg
			} else {
				body["message"] = http.StatusText(he.Code)
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
			}
		default:
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}
