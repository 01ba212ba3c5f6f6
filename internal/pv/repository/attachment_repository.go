package repository

import (
	"context"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// AttachmentRepository attachment repository
type AttachmentRepository struct {
	crud[entity.Attachment]
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{crud: crud[entity.Attachment]{db: db}, db: db}
}

func (r *AttachmentRepository) ListByOwner(ctx context.Context, ownerType, ownerID string) ([]entity.Attachment, error) {
	var items []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
