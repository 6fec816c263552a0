package memory

import (
	"bytes"
	"context"
	"sync"

	"mintbox/contexts/minting-core/content-store/contentid"
	domainerrors "mintbox/contexts/minting-core/content-store/domain/errors"
	"mintbox/contexts/minting-core/content-store/ports"
)

// Store is the in-process content-addressable store.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	pinned  map[string]bool
}

func NewStore() *Store {
	return &Store{
		objects: make(map[string][]byte),
		pinned:  make(map[string]bool),
	}
}

func (s *Store) Upload(_ context.Context, pkg []byte) (ports.StorageReference, error) {
	if len(pkg) == 0 {
		return ports.StorageReference{}, domainerrors.ErrInvalidInput
	}

	id := contentid.ForBytes(pkg)
	if id == "" {
		return ports.StorageReference{}, domainerrors.ErrInvalidContentID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.objects[id]; ok {
		if !bytes.Equal(existing, pkg) {
			return ports.StorageReference{}, domainerrors.ErrImmutabilityViolation
		}
		return ports.StorageReference{ContentID: id, ByteSize: int64(len(existing))}, nil
	}

	stored := append([]byte(nil), pkg...)
	s.objects[id] = stored
	return ports.StorageReference{ContentID: id, ByteSize: int64(len(stored))}, nil
}

func (s *Store) Pin(_ context.Context, contentID string) error {
	if !contentid.Valid(contentID) {
		return domainerrors.ErrInvalidContentID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[contentID]; !ok {
		return domainerrors.ErrNotFound
	}
	s.pinned[contentID] = true
	return nil
}

// Get is a read-side helper for tests and verification tooling.
func (s *Store) Get(_ context.Context, contentID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	object, ok := s.objects[contentID]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return append([]byte(nil), object...), nil
}

// IsPinned reports whether contentID has been pinned against eviction.
func (s *Store) IsPinned(contentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pinned[contentID]
}

// ObjectCount reports how many distinct objects are stored.
func (s *Store) ObjectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
