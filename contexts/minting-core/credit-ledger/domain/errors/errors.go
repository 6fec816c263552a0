package errors

import "errors"

var (
	ErrAlreadyRegistered        = errors.New("identity already has a credit account")
	ErrNotRegistered            = errors.New("identity has no credit account")
	ErrInsufficientCredits      = errors.New("credit balance is insufficient")
	ErrInvalidAmount            = errors.New("credit amount must be positive")
	ErrInvalidInput             = errors.New("credit ledger input is invalid")
	ErrRepositoryInvariantBroke = errors.New("credit ledger repository invariant violated")
)
