package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("password reset token is invalid or has expired")
	ErrForbiddenFieldUpdate  = errors.New("forbidden field in profile update")
	ErrUserNotFound          = errors.New("user not found")
)

// FieldValidationError reports a profile field whose value does not fit the user schema.
type FieldValidationError struct {
	Field   string
	Message string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DispatchError wraps the transport error of a reset email that could not be sent.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return "failed to send password reset email: " + e.Err.Error()
}

func (e *DispatchError) Unwrap() error { return e.Err }
