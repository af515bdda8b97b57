package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/model"
)

type WagonRepository struct {
	db *gorm.DB
}

func NewWagonRepository(db *gorm.DB) *WagonRepository {
	return &WagonRepository{db: db}
}

func (r *WagonRepository) Create(ctx context.Context, wagon *model.Wagon) error {
	return r.db.WithContext(ctx).Create(wagon).Error
}

func (r *WagonRepository) Save(ctx context.Context, wagon *model.Wagon) error {
	return r.db.WithContext(ctx).Save(wagon).Error
}

func (r *WagonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Wagon, error) {
	var wagon model.Wagon
	if err := r.db.WithContext(ctx).First(&wagon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wagon, nil
}

func (r *WagonRepository) List(ctx context.Context) ([]model.Wagon, error) {
	var wagons []model.Wagon
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&wagons).Error
	if err != nil {
		return nil, err
	}
	return wagons, nil
}

func (r *WagonRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WagonStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Wagon{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *WagonRepository) UpdateDeparture(ctx context.Context, id uuid.UUID, date time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Wagon{}).
		Where("id = ?", id).
		Update("date_of_departure", date)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *WagonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Wagon{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
