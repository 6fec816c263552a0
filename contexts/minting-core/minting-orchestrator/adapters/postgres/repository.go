package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "mintbox/contexts/minting-core/minting-orchestrator/domain/errors"
	"mintbox/contexts/minting-core/minting-orchestrator/ports"

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

func (r *Repository) CreateParentArtifact(ctx context.Context, artifact ports.ParentArtifact) error {
	row := parentArtifactModel{
		ArtifactID:      artifact.ArtifactID,
		RequestID:       artifact.RequestID,
		OwnerIdentity:   artifact.OwnerIdentity,
		ContentID:       artifact.ContentID,
		ByteSize:        artifact.ByteSize,
		AttachmentCount: artifact.AttachmentCount,
		CreatedAt:       artifact.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *Repository) CreateAttachmentArtifact(ctx context.Context, artifact ports.AttachmentArtifact) error {
	row := attachmentArtifactModel{
		ArtifactID:  artifact.ArtifactID,
		RequestID:   artifact.RequestID,
		Index:       artifact.Index,
		Filename:    artifact.Filename,
		ContentType: artifact.ContentType,
		Size:        artifact.Size,
		ContentHash: artifact.ContentHash,
		CreatedAt:   artifact.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetParentArtifact(ctx context.Context, artifactID string) (ports.ParentArtifact, error) {
	var row parentArtifactModel
	err := r.db.WithContext(ctx).
		Where("artifact_id = ?", strings.TrimSpace(artifactID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ParentArtifact{}, domainerrors.ErrArtifactNotFound
		}
		return ports.ParentArtifact{}, err
	}
	return row.toPort(), nil
}

func (r *Repository) GetParentArtifactByRequest(ctx context.Context, requestID string) (ports.ParentArtifact, error) {
	var row parentArtifactModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ParentArtifact{}, domainerrors.ErrArtifactNotFound
		}
		return ports.ParentArtifact{}, err
	}
	return row.toPort(), nil
}

func (r *Repository) ListAttachmentArtifacts(ctx context.Context, requestID string) ([]ports.AttachmentArtifact, error) {
	var rows []attachmentArtifactModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		Order("attachment_index ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.AttachmentArtifact, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AttachmentArtifact{
			ArtifactID:  row.ArtifactID,
			RequestID:   row.RequestID,
			Index:       row.Index,
			Filename:    row.Filename,
			ContentType: row.ContentType,
			Size:        row.Size,
			ContentHash: row.ContentHash,
			CreatedAt:   row.CreatedAt,
		})
	}
	return items, nil
}

type parentArtifactModel struct {
	ArtifactID      string    `gorm:"column:artifact_id;primaryKey"`
	RequestID       string    `gorm:"column:request_id;uniqueIndex:parent_artifacts_unique_request"`
	OwnerIdentity   string    `gorm:"column:owner_identity;index"`
	ContentID       string    `gorm:"column:content_id"`
	ByteSize        int64     `gorm:"column:byte_size"`
	AttachmentCount int       `gorm:"column:attachment_count"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (parentArtifactModel) TableName() string {
	return "parent_artifacts"
}

func (m parentArtifactModel) toPort() ports.ParentArtifact {
	return ports.ParentArtifact{
		ArtifactID:      m.ArtifactID,
		RequestID:       m.RequestID,
		OwnerIdentity:   m.OwnerIdentity,
		ContentID:       m.ContentID,
		ByteSize:        m.ByteSize,
		AttachmentCount: m.AttachmentCount,
		CreatedAt:       m.CreatedAt,
	}
}

type attachmentArtifactModel struct {
	ArtifactID  string    `gorm:"column:artifact_id;primaryKey"`
	RequestID   string    `gorm:"column:request_id;index"`
	Index       int       `gorm:"column:attachment_index"`
	Filename    string    `gorm:"column:filename"`
	ContentType string    `gorm:"column:content_type"`
	Size        int64     `gorm:"column:size"`
	ContentHash string    `gorm:"column:content_hash"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (attachmentArtifactModel) TableName() string {
	return "attachment_artifacts"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
