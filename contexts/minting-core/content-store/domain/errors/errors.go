package errors

import "errors"

var (
	ErrUploadFailed          = errors.New("content upload failed")
	ErrNotFound              = errors.New("content not found")
	ErrInvalidContentID      = errors.New("content identifier is invalid")
	ErrImmutabilityViolation = errors.New("stored content does not match its identifier")
	ErrInvalidInput          = errors.New("content store input is invalid")
)
