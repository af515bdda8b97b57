package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, document *model.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *DocumentRepository) Save(ctx context.Context, document *model.Document) error {
	return r.db.WithContext(ctx).Save(document).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var document model.Document
	if err := r.db.WithContext(ctx).First(&document, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerType model.DocumentOwnerType, ownerID uuid.UUID) ([]model.Document, error) {
	var documents []model.Document
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at ASC").
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

// FindByOwnerAndNumber возвращает все строки владельца с данным номером.
// При соблюдении инварианта уникальности их ноль или одна; больше одной —
// дефект данных, который обязан увидеть вызывающий.
func (r *DocumentRepository) FindByOwnerAndNumber(ctx context.Context, ownerType model.DocumentOwnerType, ownerID uuid.UUID, number string) ([]model.Document, error) {
	var documents []model.Document
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND number = ?", ownerType, ownerID, number).
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *DocumentRepository) SetStatus(ctx context.Context, ids []uuid.UUID, status model.UploadStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id IN ?", ids).
		Update("upload_status", status).Error
}

func (r *DocumentRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Document{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DocumentRepository) DeleteByOwner(ctx context.Context, ownerType model.DocumentOwnerType, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Delete(&model.Document{}).Error
}
