package errors

import "errors"

var (
	ErrInvalidInput              = errors.New("authorization request input is invalid")
	ErrRequestNotFound           = errors.New("authorization request not found")
	ErrRequestExpired            = errors.New("authorization request has expired")
	ErrRequestNotInExpectedState = errors.New("authorization request is not in the expected state")
	ErrNotOwner                  = errors.New("caller does not own the authorization request")
	ErrNotOperator               = errors.New("caller is not the minting operator")
	ErrSignatureMismatch         = errors.New("signature does not verify for the request owner")
	ErrInsufficientCredits       = errors.New("owner balance does not cover the request cost")
	ErrRequestIDCollision        = errors.New("authorization request id already exists")
	ErrRepositoryInvariantBroke  = errors.New("authorization registry repository invariant violated")
)
