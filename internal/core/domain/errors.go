package domain

import (
	"errors"
	"strings"
)

var (
	ErrEmptyKey     = errors.New("rate limit key is required")
	ErrInvalidRule  = errors.New("rate limit rule must have positive values")
	ErrMailDelivery = errors.New("failed to deliver email")
)

// ValidationError agrega as mensagens de validação de uma submissão.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Details, "; ")
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
