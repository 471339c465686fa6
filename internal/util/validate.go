package util

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation failure for one field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Validator collects ValidationErrors.
type Validator struct {
	errs []error
}

// Check records a ValidationError when ok is false.
func (v *Validator) Check(ok bool, field string, value any, format string, args ...any) {
	if ok {
		return
	}
	v.errs = append(v.errs, &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// NotBlank records an error when value is empty after trimming.
func (v *Validator) NotBlank(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, value, "must not be empty")
}

// OneOf records an error when value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Check(false, field, value, "must be one of %s", strings.Join(allowed, ", "))
}

// Err joins the collected errors, nil when none.
func (v *Validator) Err() error {
	return errors.Join(v.errs...)
}
