package claims

import "errors"

var (
	// ErrClaimNotFound is returned for unknown claims and for claims owned
	// by another user.
	ErrClaimNotFound = errors.New("claims: claim not found")
	// ErrFormNotFound is returned when a claim has no form with the key.
	ErrFormNotFound = errors.New("claims: form not found")
	// ErrClaimClosed is returned when responses are saved to, or a letter
	// is sent for, a claim that is no longer incomplete.
	ErrClaimClosed = errors.New("claims: claim is not incomplete")
	// ErrClaimConflict is returned when reopening a claim while the user
	// already has another incomplete claim.
	ErrClaimConflict = errors.New("claims: user already has an incomplete claim")
	// ErrUserNotFound is returned by Submit for unknown users.
	ErrUserNotFound = errors.New("claims: user not found")
)
