package errors

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotOperator        = errors.New("caller is not the minting operator")
	ErrMintAlreadyInFlight = errors.New("mint already in flight for this request")
	ErrStorageUnavailable = errors.New("content storage unavailable")
	ErrArtifactNotFound   = errors.New("artifact not found")
)
