package errors

import "errors"

var (
	ErrInvalidKey   = errors.New("signing key is invalid")
	ErrInvalidInput = errors.New("signature verifier input is invalid")
)
