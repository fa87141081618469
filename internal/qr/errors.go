package qr

import "errors"

var (
	// ErrInvalidPayload reports a payload that is not valid QR JSON.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrMissingCode reports a payload with no ticket code field.
	ErrMissingCode = errors.New("missing code")
)
