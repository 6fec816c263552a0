package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "mintbox/contexts/minting-core/credit-ledger/domain/errors"
	"mintbox/contexts/minting-core/credit-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateAccount(ctx context.Context, account ports.Account) error {
	row, err := accountModelFromPort(account)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *Repository) GetAccountByIdentity(ctx context.Context, identity string) (ports.Account, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("identity = ?", strings.TrimSpace(identity)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Account{}, domainerrors.ErrNotRegistered
		}
		return ports.Account{}, err
	}
	return row.toPort()
}

func (r *Repository) AddBalance(ctx context.Context, identity string, amount uint64, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("identity = ?", strings.TrimSpace(identity)).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotRegistered
	}
	return nil
}

// DebitBalance subtracts in a single guarded UPDATE so the debit is atomic:
// zero rows affected on an existing account means the balance was short.
func (r *Repository) DebitBalance(ctx context.Context, identity string, amount uint64, now time.Time) error {
	identity = strings.TrimSpace(identity)
	result := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("identity = ? AND balance >= ?", identity, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&accountModel{}).
			Where("identity = ?", identity).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrNotRegistered
		}
		return domainerrors.ErrInsufficientCredits
	}
	return nil
}

type accountModel struct {
	AccountID string    `gorm:"column:account_id;primaryKey"`
	Identity  string    `gorm:"column:identity;uniqueIndex:credit_accounts_unique_identity"`
	Balance   uint64    `gorm:"column:balance"`
	Metadata  []byte    `gorm:"column:metadata"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string {
	return "credit_accounts"
}

func accountModelFromPort(account ports.Account) (accountModel, error) {
	metadata, err := json.Marshal(account.Metadata)
	if err != nil {
		return accountModel{}, err
	}
	return accountModel{
		AccountID: strings.TrimSpace(account.AccountID),
		Identity:  strings.TrimSpace(account.Identity),
		Balance:   account.Balance,
		Metadata:  metadata,
		CreatedAt: account.CreatedAt.UTC(),
		UpdatedAt: account.UpdatedAt.UTC(),
	}, nil
}

func (m accountModel) toPort() (ports.Account, error) {
	account := ports.Account{
		AccountID: m.AccountID,
		Identity:  m.Identity,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &account.Metadata); err != nil {
			return ports.Account{}, err
		}
	}
	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
