package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "mintbox/contexts/minting-core/credit-ledger/domain/errors"
	"mintbox/contexts/minting-core/credit-ledger/ports"
)

// Cost constants for one minting operation. CostFor is evaluated once at
// request creation and the result is stored on the request, never recomputed.
const (
	CostBase          uint64 = 3
	CostPerAttachment uint64 = 2
	CostProcessingFee uint64 = 1
)

// CostFor returns the credit cost of minting a document with
// attachmentCount attachments.
func CostFor(attachmentCount int) uint64 {
	if attachmentCount < 0 {
		attachmentCount = 0
	}
	return CostBase + CostPerAttachment*uint64(attachmentCount) + CostProcessingFee
}

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// CostFor exposes the cost rule to collaborating modules.
func (Service) CostFor(attachmentCount int) uint64 {
	return CostFor(attachmentCount)
}

// Register creates the credit account for identity. Registration is
// idempotent-reject: a second attempt for an already registered identity
// fails with ErrAlreadyRegistered.
func (s Service) Register(ctx context.Context, identity string, metadata map[string]string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", domainerrors.ErrInvalidInput
	}

	accountID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	now := s.now()

	if err := s.Repo.CreateAccount(ctx, ports.Account{
		AccountID: strings.TrimSpace(accountID),
		Identity:  identity,
		Balance:   0,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return "", err
	}

	resolveLogger(s.Logger).Info("credit account registered",
		"event", "credit_account_registered",
		"module", "minting-core/credit-ledger",
		"layer", "application",
		"account_id", strings.TrimSpace(accountID),
		"identity", identity,
	)
	return strings.TrimSpace(accountID), nil
}

func (s Service) GetBalance(ctx context.Context, identity string) (uint64, error) {
	if strings.TrimSpace(identity) == "" {
		return 0, domainerrors.ErrInvalidInput
	}
	account, err := s.Repo.GetAccountByIdentity(ctx, strings.TrimSpace(identity))
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Deposit adds credits to a registered identity.
func (s Service) Deposit(ctx context.Context, identity string, amount uint64) error {
	if strings.TrimSpace(identity) == "" {
		return domainerrors.ErrInvalidInput
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	return s.Repo.AddBalance(ctx, strings.TrimSpace(identity), amount, s.now())
}

// Debit subtracts credits as one atomic step. The repository guarantees no
// partial debit: either the full amount comes off or the balance is untouched
// and ErrInsufficientCredits is returned.
func (s Service) Debit(ctx context.Context, identity string, amount uint64) error {
	if strings.TrimSpace(identity) == "" {
		return domainerrors.ErrInvalidInput
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	if err := s.Repo.DebitBalance(ctx, strings.TrimSpace(identity), amount, s.now()); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("credits debited",
		"event", "credits_debited",
		"module", "minting-core/credit-ledger",
		"layer", "application",
		"identity", strings.TrimSpace(identity),
		"amount", amount,
	)
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
