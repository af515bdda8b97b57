package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WagonStatus string

const (
	WagonStatusAtElevator WagonStatus = "at_elevator"
	WagonStatusInTransit  WagonStatus = "in_transit"
	WagonStatusShipped    WagonStatus = "shipped"
)

// Wagon — физическая единица отгрузки по заявке. ApplicationID может быть
// пустым: такой вагон попадает в группу "без заявки". Capacity — вес по
// документам (кг), RealWeight — фактический вес после взвешивания.
type Wagon struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID   *uuid.UUID  `gorm:"type:uuid;index" json:"application_id,omitempty"`
	Number          string      `gorm:"size:32;not null" json:"number"`
	Capacity        int64       `gorm:"not null" json:"capacity"`
	RealWeight      *int64      `json:"real_weight,omitempty"`
	Owner           string      `gorm:"size:128" json:"owner"`
	Status          WagonStatus `gorm:"size:16;not null;default:at_elevator" json:"status"`
	DateOfDeparture *time.Time  `json:"date_of_departure,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (w *Wagon) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
