// Package validation checks request bodies with validator/v10 and reports
// failures as validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New returns a validator that names fields by their JSON tag and knows the
// "provider" tag, which accepts only configured provider names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag.
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.DefaultSourceOrder, fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate checks s and returns a CodeValidation error whose details map
// each failing field to a message.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldName(fe)] = message(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

// fieldName drops the root struct name from the namespace so nested and
// element errors read "ids[2]" rather than "CreateListRequest.ids[2]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lt":  "less than",
	"lte": "less than or equal to",
}

func message(fe validator.FieldError) string {
	tag := fe.Tag()
	if cmp, ok := comparisons[tag]; ok {
		return "must be " + cmp + " " + fe.Param()
	}
	switch tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s %s", fe.Param(), unit(fe))
	case "max":
		return fmt.Sprintf("must not exceed %s %s", fe.Param(), unit(fe))
	case "len":
		return fmt.Sprintf("must be exactly %s %s", fe.Param(), unit(fe))
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "provider":
		return "must be one of: " + strings.Join(domain.DefaultSourceOrder, ", ")
	}
	return "is invalid"
}

// unit names what min/max/len count for the field's kind.
func unit(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	}
	return "characters"
}
