package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainerrors "mintbox/contexts/minting-core/minting-orchestrator/domain/errors"
	"mintbox/contexts/minting-core/minting-orchestrator/ports"
)

const (
	uploadAttempts    = 3
	uploadBackoffBase = 100 * time.Millisecond
)

// InFlightGuard admits at most one mint per request id at a time.
type InFlightGuard struct {
	mu     sync.Mutex
	active map[string]bool
}

func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{active: make(map[string]bool)}
}

func (g *InFlightGuard) acquire(requestID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[requestID] {
		return false
	}
	g.active[requestID] = true
	return true
}

func (g *InFlightGuard) release(requestID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, requestID)
}

type Service struct {
	Artifacts ports.ArtifactRepository
	Content   ports.ContentUploader
	Registry  ports.ProcessDriver
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Operator  string
	Logger    *slog.Logger
	InFlight  *InFlightGuard
}

// Mint uploads the content package and drives the registry through
// processing. The request must already be authorized; the registry enforces
// that and every other state rule.
func (s Service) Mint(ctx context.Context, caller string, requestID string, pkg []byte, attachments []ports.Attachment) (ports.ProcessOutcome, error) {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(caller) != strings.TrimSpace(s.Operator) {
		return ports.ProcessOutcome{}, domainerrors.ErrNotOperator
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" || len(pkg) == 0 {
		return ports.ProcessOutcome{}, domainerrors.ErrInvalidInput
	}

	if s.InFlight != nil {
		if !s.InFlight.acquire(requestID) {
			return ports.ProcessOutcome{}, domainerrors.ErrMintAlreadyInFlight
		}
		defer s.InFlight.release(requestID)
	}

	contentID, byteSize, err := s.uploadWithBackoff(ctx, requestID, pkg)
	if err != nil {
		return ports.ProcessOutcome{}, err
	}
	if err := s.Content.Pin(ctx, contentID); err != nil {
		// Pinning is recoverable out of band; the upload already succeeded.
		resolveLogger(s.Logger).Warn("content pin failed",
			"event", "minting_content_pin_failed",
			"module", "minting-core/minting-orchestrator",
			"layer", "application",
			"request_id", requestID,
			"content_id", contentID,
			"error", err.Error(),
		)
	}

	input := ports.ProcessInput{
		ContentID:   contentID,
		ByteSize:    byteSize,
		Attachments: attachments,
	}
	outcome, err := s.Registry.Process(ctx, caller, requestID, input, s)
	if err != nil {
		return outcome, err
	}

	resolveLogger(s.Logger).Info("mint completed",
		"event", "minting_completed",
		"module", "minting-core/minting-orchestrator",
		"layer", "application",
		"request_id", requestID,
		"content_id", contentID,
		"parent_artifact_id", outcome.ParentArtifactID,
		"attachment_count", len(attachments),
		"credits_spent", outcome.CreditsSpent,
	)
	return outcome, nil
}

func (s Service) uploadWithBackoff(ctx context.Context, requestID string, pkg []byte) (string, int64, error) {
	var lastErr error
	for attempt := 0; attempt < uploadAttempts; attempt++ {
		if attempt > 0 {
			delay := uploadBackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		contentID, byteSize, err := s.Content.Upload(ctx, pkg)
		if err == nil {
			return contentID, byteSize, nil
		}
		lastErr = err
		if !errors.Is(err, domainerrors.ErrStorageUnavailable) {
			// Permanent failures are never retried.
			return "", 0, err
		}
		resolveLogger(s.Logger).Warn("content upload attempt failed",
			"event", "minting_upload_retry",
			"module", "minting-core/minting-orchestrator",
			"layer", "application",
			"request_id", requestID,
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}
	return "", 0, lastErr
}

// CreateParent satisfies ports.ArtifactExecution. The registry calls it once
// it has decided the request may be processed.
func (s Service) CreateParent(ctx context.Context, requestID string, owner string, input ports.ProcessInput) (string, error) {
	artifactID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	artifact := ports.ParentArtifact{
		ArtifactID:      strings.TrimSpace(artifactID),
		RequestID:       requestID,
		OwnerIdentity:   owner,
		ContentID:       input.ContentID,
		ByteSize:        input.ByteSize,
		AttachmentCount: len(input.Attachments),
		CreatedAt:       s.now(),
	}
	if err := s.Artifacts.CreateParentArtifact(ctx, artifact); err != nil {
		return "", err
	}
	return artifact.ArtifactID, nil
}

// CreateAttachment satisfies ports.ArtifactExecution.
func (s Service) CreateAttachment(ctx context.Context, requestID string, index int, attachment ports.Attachment) (string, error) {
	artifactID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	artifact := ports.AttachmentArtifact{
		ArtifactID:  strings.TrimSpace(artifactID),
		RequestID:   requestID,
		Index:       index,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
		ContentHash: attachment.ContentHash,
		CreatedAt:   s.now(),
	}
	if err := s.Artifacts.CreateAttachmentArtifact(ctx, artifact); err != nil {
		return "", err
	}
	return artifact.ArtifactID, nil
}

func (s Service) GetParentArtifact(ctx context.Context, artifactID string) (ports.ParentArtifact, error) {
	if strings.TrimSpace(artifactID) == "" {
		return ports.ParentArtifact{}, domainerrors.ErrInvalidInput
	}
	return s.Artifacts.GetParentArtifact(ctx, strings.TrimSpace(artifactID))
}

func (s Service) ListMintedArtifacts(ctx context.Context, requestID string) (ports.ParentArtifact, []ports.AttachmentArtifact, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ports.ParentArtifact{}, nil, domainerrors.ErrInvalidInput
	}
	parent, err := s.Artifacts.GetParentArtifactByRequest(ctx, requestID)
	if err != nil {
		return ports.ParentArtifact{}, nil, err
	}
	children, err := s.Artifacts.ListAttachmentArtifacts(ctx, requestID)
	if err != nil {
		return ports.ParentArtifact{}, nil, err
	}
	return parent, children, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
