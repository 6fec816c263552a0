// Package documenthasher contains the mintbox implementation of the
// document hashing stage of the minting pipeline.
//
// Everything in here is pure: raw message bytes in, parsed document and
// canonical digests out. No I/O happens in this module.
package documenthasher
