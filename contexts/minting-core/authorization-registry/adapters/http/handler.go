package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mintbox/contexts/minting-core/authorization-registry/application"
	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	domainerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	"mintbox/contexts/minting-core/authorization-registry/ports"
	httptransport "mintbox/contexts/minting-core/authorization-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateRequestHandler(ctx context.Context, req httptransport.CreateRequestRequest) (httptransport.RequestResponse, error) {
	if strings.TrimSpace(req.OwnerIdentity) == "" {
		return httptransport.RequestResponse{}, domainerrors.ErrInvalidInput
	}

	request, err := h.Service.Create(ctx, ports.CreateRequestInput{
		OwnerIdentity: req.OwnerIdentity,
		Digest: entities.DocumentDigest{
			BodyHash:         req.BodyHash,
			FullHash:         req.FullHash,
			HeaderSetHash:    req.HeaderSetHash,
			AttachmentHashes: req.AttachmentHashes,
		},
	})
	if err != nil {
		return httptransport.RequestResponse{}, err
	}
	return httptransport.RequestResponse{Status: "success", Data: toRequestDTO(request)}, nil
}

func (h Handler) AuthorizeHandler(ctx context.Context, requestID string, req httptransport.AuthorizeRequest) (httptransport.AuthorizeResponse, error) {
	record, err := h.Service.Authorize(ctx, req.Caller, requestID, req.Signature)
	if err != nil {
		return httptransport.AuthorizeResponse{}, err
	}

	resp := httptransport.AuthorizeResponse{Status: "success"}
	resp.Data.RequestID = record.RequestID
	resp.Data.SignerIdentity = record.SignerIdentity
	resp.Data.VerifiedAt = record.VerifiedAt.UTC().Format(time.RFC3339)
	return resp, nil
}

func (h Handler) CancelHandler(ctx context.Context, requestID string, req httptransport.CancelRequest) (httptransport.CancelResponse, error) {
	if err := h.Service.Cancel(ctx, req.Caller, requestID); err != nil {
		return httptransport.CancelResponse{}, err
	}
	return httptransport.CancelResponse{Status: "success"}, nil
}

func (h Handler) GetRequestHandler(ctx context.Context, requestID string) (httptransport.RequestResponse, error) {
	request, err := h.Service.Get(ctx, requestID)
	if err != nil {
		return httptransport.RequestResponse{}, err
	}
	return httptransport.RequestResponse{Status: "success", Data: toRequestDTO(request)}, nil
}

func (h Handler) ListRequestsHandler(ctx context.Context, ownerIdentity string) (httptransport.RequestListResponse, error) {
	items, err := h.Service.ListByOwner(ctx, ownerIdentity)
	if err != nil {
		return httptransport.RequestListResponse{}, err
	}

	resp := httptransport.RequestListResponse{
		Status: "success",
		Data:   make([]httptransport.RequestDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toRequestDTO(item))
	}
	return resp, nil
}

func (h Handler) ValidityHandler(ctx context.Context, requestID string) (httptransport.ValidityResponse, error) {
	valid, err := h.Service.IsValid(ctx, requestID)
	if err != nil {
		return httptransport.ValidityResponse{}, err
	}

	resp := httptransport.ValidityResponse{Status: "success"}
	resp.Data.RequestID = strings.TrimSpace(requestID)
	resp.Data.Valid = valid
	return resp, nil
}

func toRequestDTO(request entities.Request) httptransport.RequestDTO {
	return httptransport.RequestDTO{
		RequestID:        request.RequestID,
		Token:            request.Token,
		OwnerIdentity:    request.OwnerIdentity,
		BodyHash:         request.Digest.BodyHash,
		FullHash:         request.Digest.FullHash,
		HeaderSetHash:    request.Digest.HeaderSetHash,
		AttachmentHashes: request.Digest.AttachmentHashes,
		AttachmentCount:  request.AttachmentCount,
		CreditCost:       request.CreditCost,
		Status:           string(request.Status),
		CreatedAt:        request.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:        request.ExpiresAt.UTC().Format(time.RFC3339),
		UpdatedAt:        request.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
