package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contract авторизует отгрузку культуры до totalVolume тонн.
type Contract struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Number      string          `gorm:"size:64;not null" json:"number"`
	TotalVolume decimal.Decimal `gorm:"type:DECIMAL(18,3);not null" json:"total_volume"`
	Currency    string          `gorm:"size:8;not null" json:"currency"`
	Crop        string          `gorm:"size:64" json:"crop"`
	Elevator    string          `gorm:"size:128" json:"elevator"`
	Station     string          `gorm:"size:128" json:"station"`
	Sender      string          `gorm:"size:128" json:"sender"`
	Receiver    string          `gorm:"size:128" json:"receiver"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Applications []Application `gorm:"foreignKey:ContractID" json:"applications,omitempty"`
}

func (c *Contract) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
