package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth core
var (
	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// Session / refresh token errors. Absent, expired and revoked records all
	// map to the same error.
	ErrSessionNotFound = errors.New("session not found")

	// Authorization errors
	ErrForbidden   = errors.New("forbidden")
	ErrUnknownRole = errors.New("unknown role")

	// OAuth flow errors
	ErrProviderExchange = errors.New("identity provider exchange failed")
	ErrProviderReported = errors.New("identity provider reported an error")
	ErrInvalidGrant     = errors.New("invalid grant")
	ErrStateDecode      = errors.New("invalid state parameter")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user is inactive")
	ErrUserExists   = errors.New("user already exists")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers can import a single errors package
func New(text string) error {
	return errors.New(text)
}

// Join is errors.Join
func Join(errs ...error) error {
	return errors.Join(errs...)
}
