// Package schema adapts go-playground/validator struct and variable
// validation into the registry.SchemaFunc the schema protection stage
// consumes (spec §4.H.6).
package schema

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cyreio/cyre-go/internal/registry"
)

// ErrNilPayload is returned when a required struct/var schema receives
// a nil payload.
var ErrNilPayload = errors.New("schema: payload is nil")

// Validator wraps a *validator.Validate instance. The zero value is
// not usable; construct with New.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with validator.New()'s defaults.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// RegisterValidation adds a custom tag, mirroring the teacher's webhook
// validator's "alertname"/"severity"/"confidence" custom tags.
func (s *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return s.v.RegisterValidation(tag, fn)
}

// Struct returns a SchemaFunc that runs validator's struct-tag
// validation against the call payload. The payload must be a struct or
// pointer to struct carrying `validate:"..."` tags.
func (s *Validator) Struct() registry.SchemaFunc {
	return func(payload any) error {
		if payload == nil {
			return ErrNilPayload
		}
		if err := s.v.Struct(payload); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		return nil
	}
}

// Var returns a SchemaFunc that validates a scalar payload against a
// single validator tag expression (e.g. "required,email").
func (s *Validator) Var(tag string) registry.SchemaFunc {
	return func(payload any) error {
		if err := s.v.Var(payload, tag); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		return nil
	}
}

// Func adapts a plain predicate into a SchemaFunc, for channels whose
// validation doesn't fit struct tags.
func Func(fn func(payload any) error) registry.SchemaFunc {
	return registry.SchemaFunc(fn)
}

var defaultValidator = New()

// Default returns the package-level Validator, for registering shared
// custom tags once at program startup.
func Default() *Validator { return defaultValidator }

// Struct validates against the default Validator.
func Struct() registry.SchemaFunc { return defaultValidator.Struct() }

// Var validates against the default Validator.
func Var(tag string) registry.SchemaFunc { return defaultValidator.Var(tag) }
