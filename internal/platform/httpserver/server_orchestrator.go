package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	registryerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	orchestratorerrors "mintbox/contexts/minting-core/minting-orchestrator/domain/errors"
	orchestratorhttp "mintbox/contexts/minting-core/minting-orchestrator/transport/http"
)

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrchestratorError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orchestrator.Handler.MintHandler(r.Context(), r.PathValue("request_id"), req)
	if err != nil {
		writeOrchestratorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetArtifacts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orchestrator.Handler.GetArtifactsHandler(r.Context(), r.PathValue("request_id"))
	if err != nil {
		writeOrchestratorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeOrchestratorDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestratorerrors.ErrNotOperator),
		errors.Is(err, registryerrors.ErrNotOperator):
		writeOrchestratorError(w, http.StatusForbidden, "not_operator", err.Error())
	case errors.Is(err, orchestratorerrors.ErrMintAlreadyInFlight):
		writeOrchestratorError(w, http.StatusConflict, "mint_in_flight", err.Error())
	case errors.Is(err, orchestratorerrors.ErrStorageUnavailable):
		writeOrchestratorError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	case errors.Is(err, orchestratorerrors.ErrArtifactNotFound):
		writeOrchestratorError(w, http.StatusNotFound, "artifact_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrRequestNotFound):
		writeOrchestratorError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrRequestNotInExpectedState):
		writeOrchestratorError(w, http.StatusConflict, "request_state_conflict", err.Error())
	case errors.Is(err, orchestratorerrors.ErrInvalidInput):
		writeOrchestratorError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeOrchestratorError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOrchestratorError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, orchestratorhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
