package server

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/azaliaz/library-management/internal/domain/models"
)

type bookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       string `json:"genre" validate:"required,oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY"`
	Isbn        string `json:"isbn" validate:"required"`
	Description string `json:"description"`
	Copies      *int   `json:"copies" validate:"required,min=0"`
	Available   *bool  `json:"available"`
}

// FieldError is one entry of a validation failure, keyed by the JSON
// field name and carrying the value the client actually sent.
type FieldError struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Value   any    `json:"value"`
}

func newValidator() *validator.Validate {
	valid := validator.New()
	// report fields by their json names, not Go struct names
	valid.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return valid
}

func fieldErrors(verrs validator.ValidationErrors, payload map[string]any) map[string]FieldError {
	errs := make(map[string]FieldError, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		errs[field] = FieldError{
			Message: fieldMessage(fe),
			Kind:    fe.Tag(),
			Path:    field,
			Value:   payload[field],
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("Genre must be one of %s", strings.Join(models.Genres, ", "))
	case "min":
		return "Copies must be a positive number"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
