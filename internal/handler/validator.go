package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator.  Failures come
// back as *ValidationError keyed by the request's JSON field names, ready to
// be rendered as a 422.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the validator used by every handler.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

// fieldMessage renders one failed rule as a sentence.
func fieldMessage(fe validator.FieldError) string {
	name := displayName(fe.Field())
	numeric := isNumeric(fe.Kind())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "max", "lte":
		if numeric {
			return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	case "min", "gte":
		if numeric {
			return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", name)
	case "datetime":
		return fmt.Sprintf("The %s field must be a valid date.", name)
	case "dive":
		return fmt.Sprintf("The %s field is invalid.", name)
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// displayName turns "movie_id" into "movie id".
func displayName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
