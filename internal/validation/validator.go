// Package validation checks form input before anything is sent upstream.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

// Validator wraps go-playground/validator with field names taken from the
// json tags and human readable messages.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator. allowedDomains feeds the "email_domain" tag; an
// empty list accepts every domain.
func New(allowedDomains []string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	domains := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		domains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	_ = v.RegisterValidation("email_domain", func(fl validator.FieldLevel) bool {
		if len(domains) == 0 {
			return true
		}
		_, ok := domains[EmailDomain(fl.Field().String())]
		return ok
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a VALIDATION_FAILED error whose details map
// each offending field to its message.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError(err)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := details[fe.Field()]; seen {
			continue
		}
		details[fe.Field()] = message(fe)
	}
	return apperrors.NewValidationError("validation failed", details)
}

// EmailDomain returns the lower-cased part after the last "@".
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address."
	case "email_domain":
		return "Email domain is not allowed."
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	default:
		return "Invalid value"
	}
}
