package ports

import (
	"context"
	"time"

	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	"mintbox/internal/shared/events"
)

// CreateRequestInput carries everything fixed at request creation time.
type CreateRequestInput struct {
	OwnerIdentity string
	Digest        entities.DocumentDigest
}

// RequestRepository owns request persistence and the atomic transition
// primitive that serializes conflicting lifecycle operations.
type RequestRepository interface {
	// CreateRequest fails with ErrRequestIDCollision when the id already
	// exists; it must never overwrite.
	CreateRequest(ctx context.Context, request entities.Request) error
	GetRequest(ctx context.Context, requestID string) (entities.Request, error)
	GetRequestByToken(ctx context.Context, token string) (entities.Request, error)
	ListRequestsByOwner(ctx context.Context, ownerIdentity string) ([]entities.Request, error)
	// TransitionStatus applies from -> to only if the stored status still
	// equals from. A lost race yields ErrRequestNotInExpectedState.
	TransitionStatus(ctx context.Context, requestID string, from entities.Status, to entities.Status, now time.Time) error
	// ExpirePendingRequests transitions pending requests whose expiry has
	// passed and returns the ids it moved. An empty requestIDs slice sweeps
	// every due request. Non-pending requests are never touched.
	ExpirePendingRequests(ctx context.Context, requestIDs []string, now time.Time) ([]string, error)
}

// SignatureRecord is written exactly once, on successful authorization.
type SignatureRecord struct {
	RequestID      string
	SignerIdentity string
	Signature      string
	VerifiedAt     time.Time
}

type SignatureRecordRepository interface {
	CreateSignatureRecord(ctx context.Context, record SignatureRecord) error
	GetSignatureRecord(ctx context.Context, requestID string) (SignatureRecord, error)
}

// Ledger is the registry's view of the credit ledger.
type Ledger interface {
	GetBalance(ctx context.Context, identity string) (uint64, error)
	Debit(ctx context.Context, identity string, amount uint64) error
	CostFor(attachmentCount int) uint64
}

// Verifier checks an ownership signature over a request id.
type Verifier interface {
	Verify(requestID string, signature string, claimedSigner string) bool
}

// AttachmentInput describes one child artifact to create.
type AttachmentInput struct {
	Filename    string
	ContentType string
	Size        int64
	ContentHash string
}

// ArtifactInput is the material the orchestrator hands to Process.
type ArtifactInput struct {
	ContentID   string
	ByteSize    int64
	Attachments []AttachmentInput
}

// ArtifactExecution performs the actual artifact creation during Process.
// The registry drives the state machine; the orchestrator supplies this with
// the real store calls behind it.
type ArtifactExecution interface {
	CreateParent(ctx context.Context, request entities.Request, input ArtifactInput) (string, error)
	CreateAttachment(ctx context.Context, request entities.Request, index int, attachment AttachmentInput) (string, error)
}

// ProcessingResult reports one processing attempt. ChildArtifactIDs keeps an
// entry per attachment; a failed child is recorded as an empty-string
// sentinel and never disturbs its siblings.
type ProcessingResult struct {
	Success          bool
	RequestID        string
	ParentArtifactID string
	ChildArtifactIDs []string
	CreditsSpent     uint64
	Error            string
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical envelope shape.
type EventEnvelope = events.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
