package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo's Context.Validate
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator creates a validator for `validate` struct tags
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New()}
}

// Validate validates the struct
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validator.Struct(i)
}

// ValidationMessage turns the first validation failure into a client-facing message
func ValidationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Invalid request payload"
	}

	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
