package auth

import "errors"

var (
	// ErrUserExists is returned by Signup when an active account already
	// uses the email.
	ErrUserExists = errors.New("auth: user already exists")
	// ErrAuthMismatch is returned when the current password does not match.
	ErrAuthMismatch = errors.New("auth: password mismatch")
	// ErrNotFound is returned for unknown user ids.
	ErrNotFound = errors.New("auth: user not found")
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthorized is returned by Verify for missing, expired or forged
	// session tokens.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrInvalidInput is returned when email or password is blank.
	ErrInvalidInput = errors.New("auth: email and password are required")
)
