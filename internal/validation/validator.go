// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package validation wraps go-playground/validator v10 behind a process-wide
// singleton preloaded with the matching domain's custom tags, and translates
// failures into the API error envelope.
//
// Two custom tags are registered on top of the built-in set:
//
//	attribute  member of the closed preference attribute set
//	reaction   positive, neutral, or negative
//
// Handlers call ValidateStruct on a decoded request and convert a non-nil
// result with ToAPIError into a 400 response.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pmahlen/amora/internal/profile"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. The instance caches struct
// metadata and is safe for concurrent use. The custom tags delegate to the
// profile package's parsers so the accepted sets cannot drift from the
// domain types.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		//nolint:errcheck // registration fails only for empty tag names
		validate.RegisterValidation("attribute", func(fl validator.FieldLevel) bool {
			_, err := profile.ParseAttribute(fl.Field().String())
			return err == nil
		})
		//nolint:errcheck // registration fails only for empty tag names
		validate.RegisterValidation("reaction", func(fl validator.FieldLevel) bool {
			_, err := profile.ParseReaction(fl.Field().String())
			return err == nil
		})
	})

	return validate
}

// FieldError is one field's failure with a ready-to-show message.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string { return e.Message }

// RequestValidationError collects every field failure from one request.
type RequestValidationError struct {
	Fields []FieldError
}

// Error joins the per-field messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}

	msgs := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		msgs[i] = f.Message
	}

	return strings.Join(msgs, "; ")
}

// APIError mirrors the api package's error envelope, redeclared here to
// avoid an import cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError renders the failures as a VALIDATION_FAILED envelope error. A
// single failure keeps its message as-is with the offending field in
// Details; multiple failures get a joined message and a fields list.
func (ve *RequestValidationError) ToAPIError() *APIError {
	out := &APIError{Code: "VALIDATION_FAILED", Message: "Validation failed"}

	switch len(ve.Fields) {
	case 0:
	case 1:
		f := ve.Fields[0]
		out.Message = f.Message
		out.Details = map[string]interface{}{"field": f.Field, "tag": f.Tag, "value": f.Value}
	default:
		list := make([]map[string]interface{}, len(ve.Fields))
		msgs := make([]string, len(ve.Fields))
		for i, f := range ve.Fields {
			list[i] = map[string]interface{}{"field": f.Field, "tag": f.Tag, "message": f.Message}
			msgs[i] = f.Field + ": " + f.Message
		}
		out.Message = strings.Join(msgs, "; ")
		out.Details = map[string]interface{}{"fields": list}
	}

	return out
}

// ValidateStruct runs the shared validator over s. A nil return means every
// tag passed.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: nil or non-struct input.
		return &RequestValidationError{Fields: []FieldError{
			{Field: "unknown", Tag: "unknown", Message: err.Error()},
		}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: messageFor(fe),
		}
	}

	return &RequestValidationError{Fields: fields}
}

// messageFor builds the user-facing message for a single tag failure.
func messageFor(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "attribute":
		return field + " must be a known preference attribute"
	case "reaction":
		return field + " must be positive, neutral, or negative"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
