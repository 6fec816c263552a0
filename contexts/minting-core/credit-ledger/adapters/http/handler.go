package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"mintbox/contexts/minting-core/credit-ledger/application"
	domainerrors "mintbox/contexts/minting-core/credit-ledger/domain/errors"
	httptransport "mintbox/contexts/minting-core/credit-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterAccountHandler(ctx context.Context, req httptransport.RegisterAccountRequest) (httptransport.RegisterAccountResponse, error) {
	accountID, err := h.Service.Register(ctx, req.Identity, req.Metadata)
	if err != nil {
		return httptransport.RegisterAccountResponse{}, err
	}

	resp := httptransport.RegisterAccountResponse{Status: "success"}
	resp.Data.AccountID = accountID
	resp.Data.Identity = strings.TrimSpace(req.Identity)
	return resp, nil
}

func (h Handler) GetBalanceHandler(ctx context.Context, identity string) (httptransport.BalanceResponse, error) {
	balance, err := h.Service.GetBalance(ctx, identity)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}

	resp := httptransport.BalanceResponse{Status: "success"}
	resp.Data.Identity = strings.TrimSpace(identity)
	resp.Data.Balance = balance
	return resp, nil
}

func (h Handler) DepositHandler(ctx context.Context, identity string, req httptransport.DepositRequest) (httptransport.DepositResponse, error) {
	if err := h.Service.Deposit(ctx, identity, req.Amount); err != nil {
		return httptransport.DepositResponse{}, err
	}
	balance, err := h.Service.GetBalance(ctx, identity)
	if err != nil {
		return httptransport.DepositResponse{}, err
	}

	resp := httptransport.DepositResponse{Status: "success"}
	resp.Data.Identity = strings.TrimSpace(identity)
	resp.Data.Balance = balance
	return resp, nil
}

func (h Handler) CostHandler(_ context.Context, attachmentCount int) (httptransport.CostResponse, error) {
	if attachmentCount < 0 {
		return httptransport.CostResponse{}, domainerrors.ErrInvalidInput
	}

	resp := httptransport.CostResponse{Status: "success"}
	resp.Data.AttachmentCount = attachmentCount
	resp.Data.CreditCost = application.CostFor(attachmentCount)
	return resp, nil
}
