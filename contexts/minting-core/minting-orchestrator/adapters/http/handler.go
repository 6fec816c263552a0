package httpadapter

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"mintbox/contexts/minting-core/minting-orchestrator/application"
	domainerrors "mintbox/contexts/minting-core/minting-orchestrator/domain/errors"
	"mintbox/contexts/minting-core/minting-orchestrator/ports"
	httptransport "mintbox/contexts/minting-core/minting-orchestrator/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) MintHandler(ctx context.Context, requestID string, req httptransport.MintRequest) (httptransport.MintResponse, error) {
	pkg, err := base64.StdEncoding.DecodeString(req.ContentPackage)
	if err != nil {
		return httptransport.MintResponse{}, domainerrors.ErrInvalidInput
	}

	attachments := make([]ports.Attachment, 0, len(req.Attachments))
	for _, attachment := range req.Attachments {
		attachments = append(attachments, ports.Attachment{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			ContentHash: attachment.ContentHash,
		})
	}

	outcome, err := h.Service.Mint(ctx, req.Caller, requestID, pkg, attachments)
	if err != nil {
		return httptransport.MintResponse{}, err
	}

	resp := httptransport.MintResponse{Status: "success"}
	resp.Data.RequestID = outcome.RequestID
	resp.Data.ParentArtifactID = outcome.ParentArtifactID
	resp.Data.ChildArtifactIDs = outcome.ChildArtifactIDs
	resp.Data.CreditsSpent = outcome.CreditsSpent
	return resp, nil
}

func (h Handler) GetArtifactsHandler(ctx context.Context, requestID string) (httptransport.ArtifactsResponse, error) {
	parent, children, err := h.Service.ListMintedArtifacts(ctx, requestID)
	if err != nil {
		return httptransport.ArtifactsResponse{}, err
	}

	resp := httptransport.ArtifactsResponse{Status: "success"}
	resp.Data.Parent.ArtifactID = parent.ArtifactID
	resp.Data.Parent.RequestID = parent.RequestID
	resp.Data.Parent.OwnerIdentity = parent.OwnerIdentity
	resp.Data.Parent.ContentID = parent.ContentID
	resp.Data.Parent.ByteSize = parent.ByteSize
	resp.Data.Parent.AttachmentCount = parent.AttachmentCount
	resp.Data.Parent.CreatedAt = parent.CreatedAt.UTC().Format(time.RFC3339)
	resp.Data.Attachments = make([]struct {
		ArtifactID  string `json:"artifact_id"`
		Index       int    `json:"index"`
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
		ContentHash string `json:"content_hash"`
	}, 0, len(children))
	for _, child := range children {
		resp.Data.Attachments = append(resp.Data.Attachments, struct {
			ArtifactID  string `json:"artifact_id"`
			Index       int    `json:"index"`
			Filename    string `json:"filename"`
			ContentType string `json:"content_type"`
			Size        int64  `json:"size"`
			ContentHash string `json:"content_hash"`
		}{
			ArtifactID:  child.ArtifactID,
			Index:       child.Index,
			Filename:    child.Filename,
			ContentType: child.ContentType,
			Size:        child.Size,
			ContentHash: child.ContentHash,
		})
	}
	return resp, nil
}
