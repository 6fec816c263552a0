// Package authorizationregistry contains the mintbox implementation of the
// authorization request state machine at the center of the minting pipeline.
//
// A request moves pending -> authorized -> processed, or out of pending into
// expired/cancelled. Transitions are monotone and serialized through
// compare-and-swap style repository operations; the repository is the single
// source of truth for request state.
package authorizationregistry
