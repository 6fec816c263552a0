package errors

import "errors"

var (
	ErrEmptyDocument      = errors.New("document is empty")
	ErrMalformedDocument  = errors.New("document could not be parsed")
	ErrTooManyAttachments = errors.New("document exceeds the attachment limit")
	ErrInvalidInput       = errors.New("document hasher input is invalid")
)
