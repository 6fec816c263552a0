package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainerrors "mintbox/contexts/minting-core/credit-ledger/domain/errors"
	"mintbox/contexts/minting-core/credit-ledger/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[string]ports.Account
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]ports.Account),
	}
}

func (s *Store) CreateAccount(_ context.Context, account ports.Account) error {
	identity := strings.TrimSpace(account.Identity)
	if identity == "" || strings.TrimSpace(account.AccountID) == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[identity]; exists {
		return domainerrors.ErrAlreadyRegistered
	}
	s.accounts[identity] = account
	return nil
}

func (s *Store) GetAccountByIdentity(_ context.Context, identity string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.TrimSpace(identity)]
	if !ok {
		return ports.Account{}, domainerrors.ErrNotRegistered
	}
	return account, nil
}

func (s *Store) AddBalance(_ context.Context, identity string, amount uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.TrimSpace(identity)]
	if !ok {
		return domainerrors.ErrNotRegistered
	}
	account.Balance += amount
	account.UpdatedAt = now.UTC()
	s.accounts[strings.TrimSpace(identity)] = account
	return nil
}

func (s *Store) DebitBalance(_ context.Context, identity string, amount uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.TrimSpace(identity)]
	if !ok {
		return domainerrors.ErrNotRegistered
	}
	if account.Balance < amount {
		return domainerrors.ErrInsufficientCredits
	}
	account.Balance -= amount
	account.UpdatedAt = now.UTC()
	s.accounts[strings.TrimSpace(identity)] = account
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
