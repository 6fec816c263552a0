package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	domainerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	"mintbox/contexts/minting-core/authorization-registry/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
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

func (r *Repository) CreateRequest(ctx context.Context, request entities.Request) error {
	row, err := requestModelFromEntity(request)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Both the id primary key and the token unique index funnel into
			// the same collision signal; the service retries with fresh ids.
			return domainerrors.ErrRequestIDCollision
		}
		return err
	}
	return nil
}

func (r *Repository) GetRequest(ctx context.Context, requestID string) (entities.Request, error) {
	var row requestModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Request{}, domainerrors.ErrRequestNotFound
		}
		return entities.Request{}, err
	}
	return row.toEntity()
}

func (r *Repository) GetRequestByToken(ctx context.Context, token string) (entities.Request, error) {
	var row requestModel
	err := r.db.WithContext(ctx).
		Where("token = ?", strings.TrimSpace(token)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Request{}, domainerrors.ErrRequestNotFound
		}
		return entities.Request{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListRequestsByOwner(ctx context.Context, ownerIdentity string) ([]entities.Request, error) {
	var rows []requestModel
	if err := r.db.WithContext(ctx).
		Where("owner_identity = ?", strings.TrimSpace(ownerIdentity)).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Request, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// TransitionStatus is the compare-and-swap primitive: the guarded UPDATE only
// moves the row while its status still equals from, so exactly one of any set
// of racing transitions wins.
func (r *Repository) TransitionStatus(ctx context.Context, requestID string, from entities.Status, to entities.Status, now time.Time) error {
	requestID = strings.TrimSpace(requestID)
	result := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("request_id = ? AND status = ?", requestID, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&requestModel{}).
			Where("request_id = ?", requestID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrRequestNotFound
		}
		return domainerrors.ErrRequestNotInExpectedState
	}
	return nil
}

func (r *Repository) ExpirePendingRequests(ctx context.Context, requestIDs []string, now time.Time) ([]string, error) {
	expired := make([]string, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&requestModel{}).
			Where("status = ? AND expires_at < ?", string(entities.StatusPending), now.UTC())
		if len(requestIDs) > 0 {
			trimmed := make([]string, 0, len(requestIDs))
			for _, requestID := range requestIDs {
				trimmed = append(trimmed, strings.TrimSpace(requestID))
			}
			query = query.Where("request_id IN ?", trimmed)
		}

		if err := query.Pluck("request_id", &expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		return tx.Model(&requestModel{}).
			Where("request_id IN ? AND status = ?", expired, string(entities.StatusPending)).
			Updates(map[string]any{
				"status":     string(entities.StatusExpired),
				"updated_at": now.UTC(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *Repository) CreateSignatureRecord(ctx context.Context, record ports.SignatureRecord) error {
	row := signatureModel{
		RequestID:      strings.TrimSpace(record.RequestID),
		SignerIdentity: record.SignerIdentity,
		Signature:      record.Signature,
		VerifiedAt:     record.VerifiedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) GetSignatureRecord(ctx context.Context, requestID string) (ports.SignatureRecord, error) {
	var row signatureModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SignatureRecord{}, domainerrors.ErrRequestNotFound
		}
		return ports.SignatureRecord{}, err
	}
	return ports.SignatureRecord{
		RequestID:      row.RequestID,
		SignerIdentity: row.SignerIdentity,
		Signature:      row.Signature,
		VerifiedAt:     row.VerifiedAt,
	}, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRequestNotFound
	}
	return nil
}

type requestModel struct {
	RequestID        string    `gorm:"column:request_id;primaryKey"`
	Token            string    `gorm:"column:token;uniqueIndex:authorization_requests_unique_token"`
	OwnerIdentity    string    `gorm:"column:owner_identity;index"`
	BodyHash         string    `gorm:"column:body_hash"`
	FullHash         string    `gorm:"column:full_hash"`
	HeaderSetHash    string    `gorm:"column:header_set_hash"`
	AttachmentHashes []byte    `gorm:"column:attachment_hashes"`
	AttachmentCount  int       `gorm:"column:attachment_count"`
	CreditCost       uint64    `gorm:"column:credit_cost"`
	Status           string    `gorm:"column:status;index"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	ExpiresAt        time.Time `gorm:"column:expires_at;index"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (requestModel) TableName() string {
	return "authorization_requests"
}

func requestModelFromEntity(request entities.Request) (requestModel, error) {
	hashes, err := json.Marshal(request.Digest.AttachmentHashes)
	if err != nil {
		return requestModel{}, err
	}
	return requestModel{
		RequestID:        request.RequestID,
		Token:            request.Token,
		OwnerIdentity:    request.OwnerIdentity,
		BodyHash:         request.Digest.BodyHash,
		FullHash:         request.Digest.FullHash,
		HeaderSetHash:    request.Digest.HeaderSetHash,
		AttachmentHashes: hashes,
		AttachmentCount:  request.AttachmentCount,
		CreditCost:       request.CreditCost,
		Status:           string(request.Status),
		CreatedAt:        request.CreatedAt.UTC(),
		ExpiresAt:        request.ExpiresAt.UTC(),
		UpdatedAt:        request.UpdatedAt.UTC(),
	}, nil
}

func (m requestModel) toEntity() (entities.Request, error) {
	var hashes []string
	if len(m.AttachmentHashes) > 0 {
		if err := json.Unmarshal(m.AttachmentHashes, &hashes); err != nil {
			return entities.Request{}, err
		}
	}
	return entities.Request{
		RequestID:     m.RequestID,
		Token:         m.Token,
		OwnerIdentity: m.OwnerIdentity,
		Digest: entities.DocumentDigest{
			BodyHash:         m.BodyHash,
			FullHash:         m.FullHash,
			HeaderSetHash:    m.HeaderSetHash,
			AttachmentHashes: hashes,
		},
		AttachmentCount: m.AttachmentCount,
		CreditCost:      m.CreditCost,
		Status:          entities.Status(m.Status),
		CreatedAt:       m.CreatedAt,
		ExpiresAt:       m.ExpiresAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

type signatureModel struct {
	RequestID      string    `gorm:"column:request_id;primaryKey"`
	SignerIdentity string    `gorm:"column:signer_identity"`
	Signature      string    `gorm:"column:signature"`
	VerifiedAt     time.Time `gorm:"column:verified_at"`
}

func (signatureModel) TableName() string {
	return "signature_records"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "minting_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
