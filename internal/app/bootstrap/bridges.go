package bootstrap

import (
	"context"
	"errors"
	"fmt"

	registryapp "mintbox/contexts/minting-core/authorization-registry/application"
	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	registryports "mintbox/contexts/minting-core/authorization-registry/ports"
	contenterrors "mintbox/contexts/minting-core/content-store/domain/errors"
	contentports "mintbox/contexts/minting-core/content-store/ports"
	orchestratorerrors "mintbox/contexts/minting-core/minting-orchestrator/domain/errors"
	orchestratorports "mintbox/contexts/minting-core/minting-orchestrator/ports"
)

// ContentUploaderBridge adapts the content store to the orchestrator's
// uploader port, translating transient upload failures into the
// orchestrator's retryable error class.
type ContentUploaderBridge struct {
	Store contentports.ContentStore
}

func (b ContentUploaderBridge) Upload(ctx context.Context, pkg []byte) (string, int64, error) {
	ref, err := b.Store.Upload(ctx, pkg)
	if err != nil {
		if errors.Is(err, contenterrors.ErrUploadFailed) {
			return "", 0, fmt.Errorf("%v: %w", err, orchestratorerrors.ErrStorageUnavailable)
		}
		return "", 0, err
	}
	return ref.ContentID, ref.ByteSize, nil
}

func (b ContentUploaderBridge) Pin(ctx context.Context, contentID string) error {
	return b.Store.Pin(ctx, contentID)
}

// RegistryDriverBridge adapts the registry's processing operation to the
// orchestrator's driver port, converting artifact inputs and callbacks
// between the two modules' types.
type RegistryDriverBridge struct {
	Service registryapp.Service
}

func (b RegistryDriverBridge) Process(
	ctx context.Context,
	caller string,
	requestID string,
	input orchestratorports.ProcessInput,
	exec orchestratorports.ArtifactExecution,
) (orchestratorports.ProcessOutcome, error) {
	registryInput := registryports.ArtifactInput{
		ContentID:   input.ContentID,
		ByteSize:    input.ByteSize,
		Attachments: make([]registryports.AttachmentInput, 0, len(input.Attachments)),
	}
	for _, attachment := range input.Attachments {
		registryInput.Attachments = append(registryInput.Attachments, registryports.AttachmentInput{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			ContentHash: attachment.ContentHash,
		})
	}

	result, err := b.Service.Process(ctx, caller, requestID, registryInput, executionBridge{
		exec:  exec,
		input: input,
	})
	outcome := orchestratorports.ProcessOutcome{
		Success:          result.Success,
		RequestID:        result.RequestID,
		ParentArtifactID: result.ParentArtifactID,
		ChildArtifactIDs: result.ChildArtifactIDs,
		CreditsSpent:     result.CreditsSpent,
		Error:            result.Error,
	}
	return outcome, err
}

type executionBridge struct {
	exec  orchestratorports.ArtifactExecution
	input orchestratorports.ProcessInput
}

func (b executionBridge) CreateParent(ctx context.Context, request entities.Request, _ registryports.ArtifactInput) (string, error) {
	return b.exec.CreateParent(ctx, request.RequestID, request.OwnerIdentity, b.input)
}

func (b executionBridge) CreateAttachment(ctx context.Context, request entities.Request, index int, attachment registryports.AttachmentInput) (string, error) {
	return b.exec.CreateAttachment(ctx, request.RequestID, index, orchestratorports.Attachment{
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
		ContentHash: attachment.ContentHash,
	})
}
