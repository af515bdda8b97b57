package model

import (
	"time"

	"github.com/google/uuid"
)

// FulfillmentGroup — вагоны одной заявки со сводными весами.
// ApplicationID == nil и Unresolved == false — вагоны без заявки;
// Unresolved == true — вагоны с неразрешимой ссылкой на заявку.
type FulfillmentGroup struct {
	ApplicationID         *uuid.UUID
	ApplicationName       string
	Unresolved            bool
	Wagons                []Wagon
	WagonCount            int
	TotalCapacity         int64
	TotalRealWeight       int64
	UtilizationPercentage float64
}

type FulfillmentReport struct {
	GeneratedAt     time.Time
	TotalWagons     int
	TotalCapacity   int64
	TotalRealWeight int64
	Groups          []FulfillmentGroup
}

// WagonManifest — данные для печатной формы сопроводительной ведомости.
type WagonManifest struct {
	Wagon       Wagon
	Application *Application
	Contract    *Contract
	Documents   []Document
}
