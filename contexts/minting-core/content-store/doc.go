// Package contentstore defines the content-addressable store contract used
// by the minting pipeline and ships the canonical in-process implementation.
//
// Content identifiers are CIDv1 strings (raw multicodec, sha2-256 multihash),
// so identical bytes always resolve to the identical reference.
package contentstore
