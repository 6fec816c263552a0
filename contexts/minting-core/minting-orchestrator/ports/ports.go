package ports

import (
	"context"
	"time"
)

// Attachment describes one child artifact to mint.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	ContentHash string
}

// ProcessInput is the storage material handed to the registry once the
// content package has been uploaded.
type ProcessInput struct {
	ContentID   string
	ByteSize    int64
	Attachments []Attachment
}

// ProcessOutcome mirrors the registry's processing result. ChildArtifactIDs
// keeps one entry per attachment; a failed child is an empty-string sentinel.
type ProcessOutcome struct {
	Success          bool
	RequestID        string
	ParentArtifactID string
	ChildArtifactIDs []string
	CreditsSpent     uint64
	Error            string
}

// ArtifactExecution creates the actual artifact records while the registry
// drives its state machine.
type ArtifactExecution interface {
	CreateParent(ctx context.Context, requestID string, owner string, input ProcessInput) (string, error)
	CreateAttachment(ctx context.Context, requestID string, index int, attachment Attachment) (string, error)
}

// ProcessDriver is the orchestrator's view of the authorization registry:
// it owns the authorized -> processed transition and calls back into the
// supplied execution for artifact creation.
type ProcessDriver interface {
	Process(ctx context.Context, caller string, requestID string, input ProcessInput, exec ArtifactExecution) (ProcessOutcome, error)
}

// ContentUploader is the orchestrator's view of the content store. Transient
// storage failures must be reported with ErrStorageUnavailable in the chain;
// any other error is treated as permanent and never retried.
type ContentUploader interface {
	Upload(ctx context.Context, pkg []byte) (contentID string, byteSize int64, err error)
	Pin(ctx context.Context, contentID string) error
}

// ParentArtifact is the minted record for the document itself.
type ParentArtifact struct {
	ArtifactID      string
	RequestID       string
	OwnerIdentity   string
	ContentID       string
	ByteSize        int64
	AttachmentCount int
	CreatedAt       time.Time
}

// AttachmentArtifact is one minted child record, ordered by Index under its
// request.
type AttachmentArtifact struct {
	ArtifactID  string
	RequestID   string
	Index       int
	Filename    string
	ContentType string
	Size        int64
	ContentHash string
	CreatedAt   time.Time
}

type ArtifactRepository interface {
	CreateParentArtifact(ctx context.Context, artifact ParentArtifact) error
	CreateAttachmentArtifact(ctx context.Context, artifact AttachmentArtifact) error
	GetParentArtifact(ctx context.Context, artifactID string) (ParentArtifact, error)
	GetParentArtifactByRequest(ctx context.Context, requestID string) (ParentArtifact, error)
	ListAttachmentArtifacts(ctx context.Context, requestID string) ([]AttachmentArtifact, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
