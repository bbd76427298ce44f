// Package common defines the error conditions shared by the store, service
// and handler layers. Callers match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor has no rights over the target.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is a unique-constraint violation.
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated means the identity proof is missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized means the identity is valid but its state is not
	// sufficient, e.g. an unverified email on login.
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrNotParticipant      = fmt.Errorf("%w: not a participant", ErrForbidden)
	ErrGroupDelete         = fmt.Errorf("%w: cannot delete group conversations", ErrForbidden)
	ErrNotAuthor           = fmt.Errorf("%w: you can only delete your own posts", ErrForbidden)
	ErrEmailTaken          = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrUsernameTaken       = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrInvalidToken        = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrRefreshTokenExpired = fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthenticated)
	ErrEmailNotVerified    = fmt.Errorf("%w: email not verified, OTP sent to your email", ErrUnauthorized)
	ErrInvalidOTP          = fmt.Errorf("%w: invalid or expired OTP", ErrInvalidInput)
)
