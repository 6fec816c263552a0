package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	domainerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	"mintbox/contexts/minting-core/authorization-registry/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

// Store holds requests, signature records, and the outbox behind one mutex so
// TransitionStatus behaves as an atomic compare-and-swap.
type Store struct {
	mu sync.RWMutex

	requests   map[string]entities.Request
	tokenIndex map[string]string
	signatures map[string]ports.SignatureRecord
	outbox     map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		requests:   make(map[string]entities.Request),
		tokenIndex: make(map[string]string),
		signatures: make(map[string]ports.SignatureRecord),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) CreateRequest(_ context.Context, request entities.Request) error {
	if strings.TrimSpace(request.RequestID) == "" || strings.TrimSpace(request.Token) == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.RequestID]; exists {
		return domainerrors.ErrRequestIDCollision
	}
	if _, exists := s.tokenIndex[request.Token]; exists {
		return domainerrors.ErrRequestIDCollision
	}
	s.requests[request.RequestID] = request
	s.tokenIndex[request.Token] = request.RequestID
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID string) (entities.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[strings.TrimSpace(requestID)]
	if !ok {
		return entities.Request{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) GetRequestByToken(_ context.Context, token string) (entities.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requestID, ok := s.tokenIndex[strings.TrimSpace(token)]
	if !ok {
		return entities.Request{}, domainerrors.ErrRequestNotFound
	}
	request, ok := s.requests[requestID]
	if !ok {
		return entities.Request{}, domainerrors.ErrRepositoryInvariantBroke
	}
	return request, nil
}

func (s *Store) ListRequestsByOwner(_ context.Context, ownerIdentity string) ([]entities.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Request, 0)
	for _, request := range s.requests {
		if request.OwnerIdentity == strings.TrimSpace(ownerIdentity) {
			items = append(items, request)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) TransitionStatus(_ context.Context, requestID string, from entities.Status, to entities.Status, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[strings.TrimSpace(requestID)]
	if !ok {
		return domainerrors.ErrRequestNotFound
	}
	if request.Status != from {
		return domainerrors.ErrRequestNotInExpectedState
	}
	request.Status = to
	request.UpdatedAt = now.UTC()
	s.requests[strings.TrimSpace(requestID)] = request
	return nil
}

func (s *Store) ExpirePendingRequests(_ context.Context, requestIDs []string, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := requestIDs
	if len(candidates) == 0 {
		candidates = make([]string, 0, len(s.requests))
		for requestID := range s.requests {
			candidates = append(candidates, requestID)
		}
		sort.Strings(candidates)
	}

	expired := make([]string, 0)
	for _, requestID := range candidates {
		request, ok := s.requests[strings.TrimSpace(requestID)]
		if !ok {
			continue
		}
		if request.Status != entities.StatusPending || !request.ExpiredBy(now) {
			continue
		}
		request.Status = entities.StatusExpired
		request.UpdatedAt = now.UTC()
		s.requests[request.RequestID] = request
		expired = append(expired, request.RequestID)
	}
	return expired, nil
}

func (s *Store) CreateSignatureRecord(_ context.Context, record ports.SignatureRecord) error {
	if strings.TrimSpace(record.RequestID) == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.signatures[record.RequestID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.signatures[record.RequestID] = record
	return nil
}

func (s *Store) GetSignatureRecord(_ context.Context, requestID string) (ports.SignatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.signatures[strings.TrimSpace(requestID)]
	if !ok {
		return ports.SignatureRecord{}, domainerrors.ErrRequestNotFound
	}
	return record, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrRequestNotFound
	}
	ts := sentAt.UTC()
	row.Status = outboxStatusSent
	row.SentAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
