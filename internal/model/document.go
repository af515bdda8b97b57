package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentOwnerType string

const (
	OwnerContract    DocumentOwnerType = "contract"
	OwnerApplication DocumentOwnerType = "application"
	OwnerWagon       DocumentOwnerType = "wagon"
)

func ParseOwnerType(raw string) (DocumentOwnerType, bool) {
	switch DocumentOwnerType(raw) {
	case OwnerContract, OwnerApplication, OwnerWagon:
		return DocumentOwnerType(raw), true
	default:
		return "", false
	}
}

type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadUploaded  UploadStatus = "uploaded"
	UploadFailed    UploadStatus = "failed"
)

// Document — приложенный файл с метаданными. Number — естественный ключ,
// уникальный в пределах владельца: по нему выполняется удаление.
// CorrelationID выдаётся при создании строки и возвращается сервером в
// дескрипторе загрузки, чтобы сопоставление не зависело от порядка.
type Document struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerType     DocumentOwnerType `gorm:"size:16;not null;uniqueIndex:uq_document_owner_number" json:"owner_type"`
	OwnerID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uq_document_owner_number" json:"owner_id"`
	Name          string            `gorm:"size:128;not null" json:"name"`
	Number        string            `gorm:"size:64;not null;uniqueIndex:uq_document_owner_number" json:"number"`
	Date          time.Time         `json:"date"`
	Location      string            `gorm:"size:512" json:"location,omitempty"`
	FileID        *uuid.UUID        `gorm:"type:uuid" json:"file_id,omitempty"`
	UploadStatus  UploadStatus      `gorm:"size:16;not null;default:pending" json:"upload_status"`
	CorrelationID uuid.UUID         `gorm:"type:uuid;not null" json:"correlation_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CorrelationID == uuid.Nil {
		d.CorrelationID = uuid.New()
	}
	return nil
}

// HasAttachment сообщает, есть ли у строки файл: либо ещё не выгруженный
// (FileID), либо уже сохранённый на сервере (Location).
func (d Document) HasAttachment() bool {
	return d.FileID != nil || d.Location != ""
}
