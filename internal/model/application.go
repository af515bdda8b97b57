package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Application резервирует часть объёма контракта по согласованной цене.
// Currency снимается с контракта при создании и дальше не меняется.
// TotalAmount — производная величина volume × pricePerTon, пересчитывается
// при каждой записи.
type Application struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"contract_id"`
	Name        string          `gorm:"size:128" json:"name"`
	Volume      decimal.Decimal `gorm:"type:DECIMAL(18,3);not null" json:"volume"`
	PricePerTon decimal.Decimal `gorm:"type:DECIMAL(18,2);not null" json:"price_per_ton"`
	Currency    string          `gorm:"size:8;not null" json:"currency"`
	Culture     string          `gorm:"size:64" json:"culture"`
	TotalAmount decimal.Decimal `gorm:"type:DECIMAL(18,2);not null" json:"total_amount"`
	Comment     string          `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (a *Application) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
