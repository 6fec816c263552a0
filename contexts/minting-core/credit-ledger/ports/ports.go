package ports

import (
	"context"
	"time"
)

// Account is one identity's prepaid credit account.
type Account struct {
	AccountID string
	Identity  string
	Balance   uint64
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository owns account persistence.
//
// CreateAccount must be check-then-create atomic: a concurrent second
// registration for the same identity fails with ErrAlreadyRegistered rather
// than racing. DebitBalance must subtract atomically and fail with
// ErrInsufficientCredits when the balance would go negative.
type Repository interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccountByIdentity(ctx context.Context, identity string) (Account, error)
	AddBalance(ctx context.Context, identity string, amount uint64, now time.Time) error
	DebitBalance(ctx context.Context, identity string, amount uint64, now time.Time) error
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts account identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
