// Package validation wraps a shared validator/v10 instance with the custom
// tags request DTOs use.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"isuku-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)
)

// ErrInvalidRequest is the base error for rejected request bodies.
var ErrInvalidRequest = apperr.Validation("invalid_request", "Validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Struct validates req and converts failures into an apperr validation error
// whose Fields map JSON field names to the failed rule.
func Struct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidRequest.Wrap(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return ErrInvalidRequest.WithFields(fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "clock":
		return "Use the HH:MM 24-hour format."
	case "phone":
		return "Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed."
	case "datetime":
		return "Use the YYYY-MM-DD format."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	case "len":
		return "Must be exactly " + fe.Param() + " characters."
	}
	if fe.Param() != "" {
		return "Failed " + fe.Tag() + "=" + fe.Param() + "."
	}
	return "Failed " + fe.Tag() + "."
}

// IsClock reports whether s is an "HH:MM" time of day.
func IsClock(s string) bool { return clockPattern.MatchString(s) }
