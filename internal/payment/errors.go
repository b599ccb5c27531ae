package payment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImplemented  = errors.New("not implemented")
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// ValidationError reports input fields that were not supplied, or that
// were supplied but could not be interpreted.
type ValidationError struct {
	Missing []string
	Invalid []string
	Err     error
}

func NewValidationError(missing ...string) *ValidationError {
	return &ValidationError{Missing: missing}
}

// NewInvalidFieldError reports field as present but unusable. cause stays
// reachable through errors.Is.
func NewInvalidFieldError(field string, cause error) *ValidationError {
	return &ValidationError{Invalid: []string{field}, Err: cause}
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("invalid fields: %s", strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("required fields are missing! required: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AuthError means the gateway's token exchange did not yield a token.
type AuthError struct {
	Provider    string
	Description string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s check %s configuration", e.Description, e.Provider)
}

// GatewayError means the gateway did not report success for a request.
type GatewayError struct {
	Provider    string
	StatusCode  string
	HTTPStatus  int
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s error [%s]: %s (status: %d)", e.Provider, e.StatusCode, e.Description, e.HTTPStatus)
}

func IsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	ok := errors.As(err, &vErr)
	return vErr, ok
}

func IsAuthError(err error) (*AuthError, bool) {
	var aErr *AuthError
	ok := errors.As(err, &aErr)
	return aErr, ok
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gErr *GatewayError
	ok := errors.As(err, &gErr)
	return gErr, ok
}
