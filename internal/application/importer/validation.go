package importer

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/alchemorsel/recipebook/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// validationErrors converts validator output into field errors
func validationErrors(err error) errors.ValidationErrors {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ValidationErrors{{Message: err.Error()}}
	}

	out := make(errors.ValidationErrors, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		field := e.Field()

		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", field, e.Param())
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", field, e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		out = append(out, errors.ValidationError{
			Field:   field,
			Value:   e.Value(),
			Tag:     e.Tag(),
			Message: message,
		})
	}
	return out
}
