// Package validator wraps go-playground/validator for request payloads. Failures are
// reported under the JSON name of the field, so "o:email" rather than Email.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// ValidationError is one failed rule.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders the failure for API clients. The "o:" namespace prefix is dropped
// and underscores read as spaces.
func (e ValidationError) Message() string {
	field := strings.ReplaceAll(strings.TrimPrefix(e.Field, "o:"), "_", " ")
	if field == "" {
		field = "field"
	}
	switch e.Tag {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param)
	case "slug":
		return field + " must be a lowercase identifier"
	}
	if e.Param != "" {
		return fmt.Sprintf("%s failed validation: %s=%s", field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s failed validation: %s", field, e.Tag)
}

// ValidationErrors collects every failed rule of a payload.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(v))
	for i, failure := range v {
		messages[i] = failure.Message()
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct checks s against its validate tags and returns ValidationErrors
// when a rule fails.
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return out
}

// ValidateVar checks a single value against a tag expression.
func ValidateVar(value any, tag string) error {
	return instance().Var(value, tag)
}

// RegisterValidation adds a custom rule.
func RegisterValidation(tag string, fn validator.Func) error {
	return instance().RegisterValidation(tag, fn)
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		// slug: site identifiers in /api/sites/:site
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}
