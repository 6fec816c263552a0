package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "mintbox/contexts/minting-core/minting-orchestrator/domain/errors"
	"mintbox/contexts/minting-core/minting-orchestrator/ports"

	"github.com/google/uuid"
)

// Store is the in-memory artifact repository.
type Store struct {
	mu sync.RWMutex

	parents      map[string]ports.ParentArtifact
	requestIndex map[string]string
	attachments  map[string][]ports.AttachmentArtifact
}

func NewStore() *Store {
	return &Store{
		parents:      make(map[string]ports.ParentArtifact),
		requestIndex: make(map[string]string),
		attachments:  make(map[string][]ports.AttachmentArtifact),
	}
}

func (s *Store) CreateParentArtifact(_ context.Context, artifact ports.ParentArtifact) error {
	if strings.TrimSpace(artifact.ArtifactID) == "" || strings.TrimSpace(artifact.RequestID) == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.parents[artifact.ArtifactID]; exists {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.requestIndex[artifact.RequestID]; exists {
		return domainerrors.ErrInvalidInput
	}
	s.parents[artifact.ArtifactID] = artifact
	s.requestIndex[artifact.RequestID] = artifact.ArtifactID
	return nil
}

func (s *Store) CreateAttachmentArtifact(_ context.Context, artifact ports.AttachmentArtifact) error {
	if strings.TrimSpace(artifact.ArtifactID) == "" || strings.TrimSpace(artifact.RequestID) == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attachments[artifact.RequestID] = append(s.attachments[artifact.RequestID], artifact)
	return nil
}

func (s *Store) GetParentArtifact(_ context.Context, artifactID string) (ports.ParentArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.parents[strings.TrimSpace(artifactID)]
	if !ok {
		return ports.ParentArtifact{}, domainerrors.ErrArtifactNotFound
	}
	return artifact, nil
}

func (s *Store) GetParentArtifactByRequest(_ context.Context, requestID string) (ports.ParentArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifactID, ok := s.requestIndex[strings.TrimSpace(requestID)]
	if !ok {
		return ports.ParentArtifact{}, domainerrors.ErrArtifactNotFound
	}
	return s.parents[artifactID], nil
}

func (s *Store) ListAttachmentArtifacts(_ context.Context, requestID string) ([]ports.AttachmentArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.AttachmentArtifact, len(s.attachments[strings.TrimSpace(requestID)]))
	copy(items, s.attachments[strings.TrimSpace(requestID)])
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index < items[j].Index
	})
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
