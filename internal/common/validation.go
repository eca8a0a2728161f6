package common

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error, wrapping ErrInvalidInput.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case uuid.UUID:
		if v == uuid.Nil {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// Positive requires an int greater than zero.
func Positive(fieldName string, value interface{}) *ValidationError {
	n, ok := value.(int)
	if !ok || n <= 0 {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a positive integer"}
	}
	return nil
}

// MaxLength builds a rule capping a string's rune count.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// OneOf builds a rule accepting only the listed strings.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, _ := value.(string)
		for _, a := range allowed {
			if str == a {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")),
		}
	}
}

// AbsolutePath requires an absolute filesystem path.
func AbsolutePath(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok || !filepath.IsAbs(str) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be an absolute path"}
	}
	return nil
}

func UUID(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}

	if _, err := uuid.Parse(str); err != nil {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be a valid UUID",
		}
	}
	return nil
}

// ParseUUID validates and parses an id argument, classifying failures as invalid input.
func ParseUUID(fieldName, raw string) (uuid.UUID, error) {
	v := NewValidator().Field(fieldName, strings.TrimSpace(raw), Required, UUID)
	if v.HasErrors() {
		return uuid.Nil, v.Error()
	}
	return uuid.MustParse(strings.TrimSpace(raw)), nil
}

// IsInvalidInput reports whether err was produced by validation.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
