package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/model"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, application *model.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, application *model.Application) error {
	return r.db.WithContext(ctx).Save(application).Error
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var application model.Application
	if err := r.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *ApplicationRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.Application, error) {
	var applications []model.Application
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *ApplicationRepository) List(ctx context.Context) ([]model.Application, error) {
	var applications []model.Application
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}
	return applications, nil
}

// DeleteCascade удаляет заявку вместе с её документами и отвязывает вагоны
// (application_id → NULL) в одной транзакции. Резерв объёма освобождается
// сам собой: леджер всегда считает занятое по живым заявкам.
func (r *ApplicationRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("owner_type = ? AND owner_id = ?", model.OwnerApplication, id).
			Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&model.Wagon{}).
			Where("application_id = ?", id).
			Update("application_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Application{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
