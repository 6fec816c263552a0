package ports

import "context"

// StorageReference identifies an uploaded content package. It is opaque and
// immutable: identical content always yields an identical reference.
type StorageReference struct {
	ContentID string
	ByteSize  int64
}

// ContentStore is the minting pipeline's view of content-addressable storage.
//
// Contract:
// - Upload MUST be idempotent: identical bytes yield the same reference and
//   never duplicate storage.
// - Stored objects are immutable.
// - Upload failures are retryable by the caller; the store never substitutes
//   placeholder content.
type ContentStore interface {
	Upload(ctx context.Context, pkg []byte) (StorageReference, error)
	Pin(ctx context.Context, contentID string) error
}
