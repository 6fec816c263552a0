package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	ledgererrors "mintbox/contexts/minting-core/credit-ledger/domain/errors"
	ledgerhttp "mintbox/contexts/minting-core/credit-ledger/transport/http"
)

func (s *Server) handleRegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.RegisterAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.RegisterAccountHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetBalanceHandler(r.Context(), r.PathValue("identity"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.DepositHandler(r.Context(), r.PathValue("identity"), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	attachmentCount := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("attachment_count")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_attachment_count", "attachment_count must be an integer")
			return
		}
		attachmentCount = parsed
	}

	resp, err := s.ledger.Handler.CostHandler(r.Context(), attachmentCount)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrAlreadyRegistered):
		writeLedgerError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, ledgererrors.ErrNotRegistered):
		writeLedgerError(w, http.StatusNotFound, "not_registered", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientCredits):
		writeLedgerError(w, http.StatusPaymentRequired, "insufficient_credits", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAmount),
		errors.Is(err, ledgererrors.ErrInvalidInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
