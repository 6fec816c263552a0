package httpadapter

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"mintbox/contexts/minting-core/document-hasher/application"
	domainerrors "mintbox/contexts/minting-core/document-hasher/domain/errors"
	httptransport "mintbox/contexts/minting-core/document-hasher/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// DigestDocumentHandler parses a base64-encoded raw message, computes its
// digest, and returns the assembled content package ready for upload.
func (h Handler) DigestDocumentHandler(_ context.Context, req httptransport.DigestDocumentRequest) (httptransport.DigestDocumentResponse, error) {
	raw, err := base64.StdEncoding.DecodeString(req.RawMessage)
	if err != nil {
		return httptransport.DigestDocumentResponse{}, domainerrors.ErrInvalidInput
	}

	doc, digest, err := h.Service.DigestDocument(raw)
	if err != nil {
		return httptransport.DigestDocumentResponse{}, err
	}
	pkgBytes, _, err := h.Service.BuildPackage(raw, doc, digest, nil, time.Now().UTC())
	if err != nil {
		return httptransport.DigestDocumentResponse{}, err
	}

	resp := httptransport.DigestDocumentResponse{Status: "success"}
	resp.Data.MessageID = doc.MessageID
	resp.Data.From = doc.From
	resp.Data.Subject = doc.Subject
	resp.Data.BodyHash = digest.BodyHash
	resp.Data.FullHash = digest.FullHash
	resp.Data.HeaderSetHash = digest.HeaderSetHash
	resp.Data.AttachmentHashes = digest.AttachmentHashes
	resp.Data.Attachments = make([]httptransport.AttachmentDTO, 0, len(doc.Attachments))
	for i, attachment := range doc.Attachments {
		resp.Data.Attachments = append(resp.Data.Attachments, httptransport.AttachmentDTO{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			ContentHash: digest.AttachmentHashes[i],
		})
	}
	resp.Data.ContentPackage = base64.StdEncoding.EncodeToString(pkgBytes)
	return resp, nil
}
