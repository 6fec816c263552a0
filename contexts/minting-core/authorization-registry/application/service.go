package application

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	domainerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	"mintbox/contexts/minting-core/authorization-registry/ports"

	"golang.org/x/crypto/sha3"
)

const (
	// ExpiryWindow is the fixed lifetime of a pending request.
	ExpiryWindow = 24 * time.Hour

	requestIDCreateAttempts = 3
)

const (
	EventRequestCreated    = "minting.request_created"
	EventRequestAuthorized = "minting.request_authorized"
	EventRequestProcessed  = "minting.request_processed"
	EventRequestCancelled  = "minting.request_cancelled"
	EventRequestExpired    = "minting.request_expired"
)

type Service struct {
	Requests   ports.RequestRepository
	Signatures ports.SignatureRecordRepository
	Outbox     ports.OutboxWriter
	Ledger     ports.Ledger
	Verifier   ports.Verifier
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Operator   string
	Logger     *slog.Logger

	// Sequence feeds the request id derivation so two requests created in
	// the same nanosecond still get distinct ids.
	Sequence *atomic.Uint64
}

// Create registers a new pending request. It verifies the owner is registered
// and can afford the fixed cost, but debits nothing; the debit happens at
// Authorize.
func (s Service) Create(ctx context.Context, input ports.CreateRequestInput) (entities.Request, error) {
	owner := strings.TrimSpace(input.OwnerIdentity)
	if owner == "" {
		return entities.Request{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(input.Digest.FullHash) == "" || strings.TrimSpace(input.Digest.BodyHash) == "" {
		return entities.Request{}, domainerrors.ErrInvalidInput
	}

	attachmentCount := len(input.Digest.AttachmentHashes)
	cost := s.Ledger.CostFor(attachmentCount)

	balance, err := s.Ledger.GetBalance(ctx, owner)
	if err != nil {
		return entities.Request{}, err
	}
	if balance < cost {
		return entities.Request{}, domainerrors.ErrInsufficientCredits
	}

	now := s.now()
	var request entities.Request
	for attempt := 0; attempt < requestIDCreateAttempts; attempt++ {
		token, err := s.IDGen.NewID(ctx)
		if err != nil {
			return entities.Request{}, err
		}
		requestID := s.deriveRequestID(owner, input.Digest.FullHash, now)

		request, err = entities.NewRequest(
			requestID,
			strings.TrimSpace(token),
			owner,
			input.Digest,
			attachmentCount,
			cost,
			now,
			now.Add(ExpiryWindow),
		)
		if err != nil {
			return entities.Request{}, err
		}

		err = s.Requests.CreateRequest(ctx, request)
		if err == nil {
			break
		}
		if !errors.Is(err, domainerrors.ErrRequestIDCollision) {
			return entities.Request{}, err
		}
		if attempt == requestIDCreateAttempts-1 {
			// Repeated collisions on a 256-bit id mean the id derivation
			// itself is broken, not bad luck.
			return entities.Request{}, fmt.Errorf("request id collided %d times: %w",
				requestIDCreateAttempts, domainerrors.ErrRepositoryInvariantBroke)
		}
	}

	s.appendLifecycleEvent(ctx, EventRequestCreated, request)
	ResolveLogger(s.Logger).Info("authorization request created",
		"event", "authorization_request_created",
		"module", "minting-core/authorization-registry",
		"layer", "application",
		"request_id", request.RequestID,
		"owner", owner,
		"attachment_count", attachmentCount,
		"credit_cost", cost,
	)
	return request, nil
}

// Authorize verifies the owner's signature over the request id, claims the
// pending -> authorized transition, and debits the fixed cost. Exactly one of
// N concurrent calls can win the transition; the debit happens only on the
// winning path, so at most one debit ever occurs per request.
func (s Service) Authorize(ctx context.Context, caller string, requestID string, signature string) (ports.SignatureRecord, error) {
	caller = strings.TrimSpace(caller)
	requestID = strings.TrimSpace(requestID)
	if caller == "" || requestID == "" || strings.TrimSpace(signature) == "" {
		return ports.SignatureRecord{}, domainerrors.ErrInvalidInput
	}

	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return ports.SignatureRecord{}, err
	}
	if request.OwnerIdentity != caller {
		return ports.SignatureRecord{}, domainerrors.ErrNotOwner
	}
	if request.Status != entities.StatusPending {
		return ports.SignatureRecord{}, domainerrors.ErrRequestNotInExpectedState
	}
	now := s.now()
	if request.ExpiredBy(now) {
		return ports.SignatureRecord{}, domainerrors.ErrRequestExpired
	}

	if !s.Verifier.Verify(requestID, signature, caller) {
		return ports.SignatureRecord{}, domainerrors.ErrSignatureMismatch
	}

	// Claim the transition first: the winner of this compare-and-swap is the
	// only caller allowed to debit.
	if err := s.Requests.TransitionStatus(ctx, requestID, entities.StatusPending, entities.StatusAuthorized, now); err != nil {
		return ports.SignatureRecord{}, err
	}

	if err := s.Ledger.Debit(ctx, caller, request.CreditCost); err != nil {
		// Authorization without a successful debit must not stand. Hand the
		// claim back so the owner can retry after topping up.
		if rollbackErr := s.Requests.TransitionStatus(ctx, requestID, entities.StatusAuthorized, entities.StatusPending, s.now()); rollbackErr != nil {
			ResolveLogger(s.Logger).Error("authorize debit rollback failed",
				"event", "authorization_debit_rollback_failed",
				"module", "minting-core/authorization-registry",
				"layer", "application",
				"request_id", requestID,
				"error", rollbackErr.Error(),
			)
		}
		return ports.SignatureRecord{}, err
	}

	record := ports.SignatureRecord{
		RequestID:      requestID,
		SignerIdentity: caller,
		Signature:      strings.TrimSpace(signature),
		VerifiedAt:     now,
	}
	if err := s.Signatures.CreateSignatureRecord(ctx, record); err != nil {
		return ports.SignatureRecord{}, err
	}

	request.Status = entities.StatusAuthorized
	s.appendLifecycleEvent(ctx, EventRequestAuthorized, request)
	ResolveLogger(s.Logger).Info("authorization request authorized",
		"event", "authorization_request_authorized",
		"module", "minting-core/authorization-registry",
		"layer", "application",
		"request_id", requestID,
		"owner", caller,
		"credit_cost", request.CreditCost,
	)
	return record, nil
}

// Process runs the artifact creation for an authorized request. Only the
// configured minting operator may call it. Parent failure leaves the request
// authorized and retryable; once the parent exists, child failures are
// recorded as sentinels and the request always finishes processed.
func (s Service) Process(ctx context.Context, caller string, requestID string, input ports.ArtifactInput, exec ports.ArtifactExecution) (ports.ProcessingResult, error) {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(caller) != strings.TrimSpace(s.Operator) {
		return ports.ProcessingResult{}, domainerrors.ErrNotOperator
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" || exec == nil {
		return ports.ProcessingResult{}, domainerrors.ErrInvalidInput
	}

	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return ports.ProcessingResult{}, err
	}
	if request.Status != entities.StatusAuthorized {
		return ports.ProcessingResult{}, domainerrors.ErrRequestNotInExpectedState
	}

	result := ports.ProcessingResult{RequestID: requestID}

	parentID, err := exec.CreateParent(ctx, request, input)
	if err != nil {
		// No state change: the request stays authorized so the operator can
		// retry processing later.
		result.Error = err.Error()
		ResolveLogger(s.Logger).Error("parent artifact creation failed",
			"event", "minting_parent_artifact_failed",
			"module", "minting-core/authorization-registry",
			"layer", "application",
			"request_id", requestID,
			"error", err.Error(),
		)
		return result, err
	}
	result.ParentArtifactID = parentID

	// Child creations are independent of each other: each either yields an
	// id or a sentinel, and a failure never aborts the loop or its siblings.
	result.ChildArtifactIDs = make([]string, len(input.Attachments))
	var wg sync.WaitGroup
	for i := range input.Attachments {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			childID, childErr := exec.CreateAttachment(ctx, request, index, input.Attachments[index])
			if childErr != nil {
				ResolveLogger(s.Logger).Warn("attachment artifact creation failed",
					"event", "minting_attachment_artifact_failed",
					"module", "minting-core/authorization-registry",
					"layer", "application",
					"request_id", requestID,
					"attachment_index", index,
					"error", childErr.Error(),
				)
				return
			}
			result.ChildArtifactIDs[index] = childID
		}(i)
	}
	wg.Wait()

	if err := s.Requests.TransitionStatus(ctx, requestID, entities.StatusAuthorized, entities.StatusProcessed, s.now()); err != nil {
		return ports.ProcessingResult{}, err
	}

	result.Success = true
	result.CreditsSpent = request.CreditCost

	request.Status = entities.StatusProcessed
	s.appendLifecycleEvent(ctx, EventRequestProcessed, request)
	ResolveLogger(s.Logger).Info("authorization request processed",
		"event", "authorization_request_processed",
		"module", "minting-core/authorization-registry",
		"layer", "application",
		"request_id", requestID,
		"parent_artifact_id", parentID,
		"attachment_count", len(input.Attachments),
	)
	return result, nil
}

// Cancel withdraws a pending request. Only the owner may cancel, and the
// compare-and-swap guard means a cancel racing an authorize resolves to
// exactly one winner.
func (s Service) Cancel(ctx context.Context, caller string, requestID string) error {
	caller = strings.TrimSpace(caller)
	requestID = strings.TrimSpace(requestID)
	if caller == "" || requestID == "" {
		return domainerrors.ErrInvalidInput
	}

	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.OwnerIdentity != caller {
		return domainerrors.ErrNotOwner
	}
	if request.Status != entities.StatusPending {
		return domainerrors.ErrRequestNotInExpectedState
	}

	if err := s.Requests.TransitionStatus(ctx, requestID, entities.StatusPending, entities.StatusCancelled, s.now()); err != nil {
		return err
	}

	request.Status = entities.StatusCancelled
	s.appendLifecycleEvent(ctx, EventRequestCancelled, request)
	return nil
}

// ExpireSweep transitions pending requests past their expiry. An empty id
// list sweeps everything due. Requests in any other status are never touched,
// even when past expiry.
func (s Service) ExpireSweep(ctx context.Context, requestIDs []string) ([]string, error) {
	now := s.now()
	expired, err := s.Requests.ExpirePendingRequests(ctx, requestIDs, now)
	if err != nil {
		return nil, err
	}

	for _, requestID := range expired {
		request, err := s.Requests.GetRequest(ctx, requestID)
		if err != nil {
			continue
		}
		s.appendLifecycleEvent(ctx, EventRequestExpired, request)
	}
	if len(expired) > 0 {
		ResolveLogger(s.Logger).Info("expiry sweep completed",
			"event", "authorization_expiry_sweep_completed",
			"module", "minting-core/authorization-registry",
			"layer", "application",
			"expired_count", len(expired),
		)
	}
	return expired, nil
}

func (s Service) Get(ctx context.Context, requestID string) (entities.Request, error) {
	if strings.TrimSpace(requestID) == "" {
		return entities.Request{}, domainerrors.ErrInvalidInput
	}
	return s.Requests.GetRequest(ctx, strings.TrimSpace(requestID))
}

func (s Service) GetByToken(ctx context.Context, token string) (entities.Request, error) {
	if strings.TrimSpace(token) == "" {
		return entities.Request{}, domainerrors.ErrInvalidInput
	}
	return s.Requests.GetRequestByToken(ctx, strings.TrimSpace(token))
}

func (s Service) ListByOwner(ctx context.Context, ownerIdentity string) ([]entities.Request, error) {
	if strings.TrimSpace(ownerIdentity) == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return s.Requests.ListRequestsByOwner(ctx, strings.TrimSpace(ownerIdentity))
}

// IsValid reports whether the request exists, has not been expired or
// cancelled, and is still inside its expiry window.
func (s Service) IsValid(ctx context.Context, requestID string) (bool, error) {
	request, err := s.Requests.GetRequest(ctx, strings.TrimSpace(requestID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrRequestNotFound) {
			return false, nil
		}
		return false, err
	}
	if request.Status == entities.StatusExpired || request.Status == entities.StatusCancelled {
		return false, nil
	}
	return !request.ExpiredBy(s.now()), nil
}

func (s Service) deriveRequestID(owner string, fullHash string, createdAt time.Time) string {
	sequence := uint64(0)
	if s.Sequence != nil {
		sequence = s.Sequence.Add(1)
	}
	material := owner + "|" + fullHash + "|" +
		strconv.FormatInt(createdAt.UnixNano(), 10) + "|" +
		strconv.FormatUint(sequence, 10)
	sum := sha3.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

func (s Service) appendLifecycleEvent(ctx context.Context, eventType string, request entities.Request) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"request_id":       request.RequestID,
		"owner":            request.OwnerIdentity,
		"status":           string(request.Status),
		"attachment_count": request.AttachmentCount,
		"credit_cost":      request.CreditCost,
		"expires_at":       request.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "authorization-registry",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "request_id",
		PartitionKey:     request.RequestID,
		Data:             data,
	}); err != nil {
		ResolveLogger(s.Logger).Warn("lifecycle event append failed",
			"event", "authorization_outbox_append_failed",
			"module", "minting-core/authorization-registry",
			"layer", "application",
			"request_id", request.RequestID,
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
