package httpapi

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-claimform/internal/auth"
	"github.com/goliatone/go-claimform/internal/claims"
)

// Error codes returned in {"error": code} bodies.
const (
	CodeUserExists      = "USER_EXISTS"
	CodeAuthMismatch    = "AUTH_MISMATCH"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeClaimNotFound   = "CLAIM_NOT_FOUND"
	CodeFormNotFound    = "FORM_NOT_FOUND"
	CodeClaimClosed     = "CLAIM_CLOSED"
	CodeClaimConflict   = "CLAIM_CONFLICT"
	CodeAuthFailed      = "AUTH_FAILED"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidTemplate = "INVALID_TEMPLATE"
	CodeInternal        = "INTERNAL"
)

// StatusError carries the HTTP status and error code for a failure.
type StatusError struct {
	Code   int
	Reason string
	Err    error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e StatusError) Unwrap() error { return e.Err }

// StatusCode defaults to 500 when Code is unset.
func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type errorResponse struct {
	Error string `json:"error"`
}

func badRequest(err error) StatusError {
	return StatusError{Code: http.StatusBadRequest, Reason: CodeInvalidRequest, Err: err}
}

// classify maps service errors onto status codes and error codes.
func classify(err error) StatusError {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return StatusError{Code: http.StatusBadRequest, Reason: CodeUserExists, Err: err}
	case errors.Is(err, auth.ErrAuthMismatch):
		return StatusError{Code: http.StatusBadRequest, Reason: CodeAuthMismatch, Err: err}
	case errors.Is(err, auth.ErrInvalidInput):
		return badRequest(err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return StatusError{Code: http.StatusUnauthorized, Reason: CodeAuthFailed, Err: err}
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, claims.ErrUserNotFound):
		return StatusError{Code: http.StatusNotFound, Reason: CodeUserNotFound, Err: err}
	case errors.Is(err, claims.ErrClaimNotFound):
		return StatusError{Code: http.StatusNotFound, Reason: CodeClaimNotFound, Err: err}
	case errors.Is(err, claims.ErrFormNotFound):
		return StatusError{Code: http.StatusNotFound, Reason: CodeFormNotFound, Err: err}
	case errors.Is(err, claims.ErrClaimClosed):
		return StatusError{Code: http.StatusConflict, Reason: CodeClaimClosed, Err: err}
	case errors.Is(err, claims.ErrClaimConflict):
		return StatusError{Code: http.StatusConflict, Reason: CodeClaimConflict, Err: err}
	default:
		return StatusError{Code: http.StatusInternalServerError, Reason: CodeInternal, Err: err}
	}
}
