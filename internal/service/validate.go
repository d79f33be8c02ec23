package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/notes-api/internal/apperror"
)

// validate is shared by every service; *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Error messages name fields by their `label` tag ("Full Name"), not
	// the Go identifier.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	return v
}

// validateStruct runs the validator over in and turns the first failure
// into an apperror.ValidationFailed.
//
// Missing fields are reported before malformed ones: a request with a
// too-short name and no email is told "Email is required" first.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("service: validating input: %w", err)
	}

	first := verrs[0]
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			first = fe
			break
		}
	}

	return apperror.ValidationFailed(jsonName(first.StructField()), message(first))
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// jsonName maps a Go field name onto the request's JSON key
// (FullName → fullName).
func jsonName(field string) string {
	if field == "" {
		return ""
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// normalizeEmail is applied before every lookup and insert, so the same
// address always maps to the same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
