package errors

import "errors"

// ErrRequestRejected covers every request-download failure: unknown email,
// name mismatch, and the per-email request window. One error for all three so
// responses cannot be used to probe which emails are registered.
var (
	ErrValidation      = errors.New("missing or malformed input")
	ErrRequestRejected = errors.New("download request could not be processed")
	ErrOtpInvalid      = errors.New("invalid or expired code")
	ErrTokenInvalid    = errors.New("invalid or expired download token")
	ErrRenderFailed    = errors.New("document could not be generated")
)
