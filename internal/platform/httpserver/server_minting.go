package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	registryerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	registryhttp "mintbox/contexts/minting-core/authorization-registry/transport/http"
	ledgererrors "mintbox/contexts/minting-core/credit-ledger/domain/errors"
	hashererrors "mintbox/contexts/minting-core/document-hasher/domain/errors"
	hasherhttp "mintbox/contexts/minting-core/document-hasher/transport/http"
)

func (s *Server) handleDigestDocument(w http.ResponseWriter, r *http.Request) {
	var req hasherhttp.DigestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeHasherError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.hasher.Handler.DigestDocumentHandler(r.Context(), req)
	if err != nil {
		writeHasherDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CreateRequestHandler(r.Context(), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		writeRegistryError(w, http.StatusBadRequest, "missing_owner", "owner query parameter is required")
		return
	}

	resp, err := s.registry.Handler.ListRequestsHandler(r.Context(), owner)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.GetRequestHandler(r.Context(), r.PathValue("request_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestValidity(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.ValidityHandler(r.Context(), r.PathValue("request_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthorizeRequest(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.AuthorizeHandler(r.Context(), r.PathValue("request_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CancelHandler(r.Context(), r.PathValue("request_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeHasherDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hashererrors.ErrEmptyDocument):
		writeHasherError(w, http.StatusBadRequest, "empty_document", err.Error())
	case errors.Is(err, hashererrors.ErrMalformedDocument):
		writeHasherError(w, http.StatusUnprocessableEntity, "malformed_document", err.Error())
	case errors.Is(err, hashererrors.ErrTooManyAttachments):
		writeHasherError(w, http.StatusUnprocessableEntity, "too_many_attachments", err.Error())
	case errors.Is(err, hashererrors.ErrInvalidInput):
		writeHasherError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeHasherError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrRequestNotFound):
		writeRegistryError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrRequestExpired):
		writeRegistryError(w, http.StatusGone, "request_expired", err.Error())
	case errors.Is(err, registryerrors.ErrRequestNotInExpectedState):
		writeRegistryError(w, http.StatusConflict, "request_state_conflict", err.Error())
	case errors.Is(err, registryerrors.ErrNotOwner):
		writeRegistryError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, registryerrors.ErrNotOperator):
		writeRegistryError(w, http.StatusForbidden, "not_operator", err.Error())
	case errors.Is(err, registryerrors.ErrSignatureMismatch):
		writeRegistryError(w, http.StatusUnauthorized, "signature_mismatch", err.Error())
	case errors.Is(err, registryerrors.ErrInsufficientCredits),
		errors.Is(err, ledgererrors.ErrInsufficientCredits):
		writeRegistryError(w, http.StatusPaymentRequired, "insufficient_credits", err.Error())
	case errors.Is(err, ledgererrors.ErrNotRegistered):
		writeRegistryError(w, http.StatusNotFound, "owner_not_registered", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidInput):
		writeRegistryError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeHasherError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, hasherhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
