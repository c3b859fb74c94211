package utils

import (
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NormalizeEmail converts email to lowercase for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword checks the registration password pair. Strength is left
// to the client; only a mismatch is rejected.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return NewValidationError("confirmPassword", "Passwords do not match")
	}
	return nil
}
