package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aslanbek/grainflow/internal/document"
	"github.com/aslanbek/grainflow/internal/fulfillment"
	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/repository"
)

// WagonService отслеживает физический статус вагона, расхождение весов и
// сводную статистику исполнения по заявкам.
type WagonService struct {
	wagons       *repository.WagonRepository
	applications *repository.ApplicationRepository
	contracts    *repository.ContractRepository
	docRepo      *repository.DocumentRepository
	documents    *DocumentService
	files        FileStore
	log          zerolog.Logger
}

func NewWagonService(
	wagons *repository.WagonRepository,
	applications *repository.ApplicationRepository,
	contracts *repository.ContractRepository,
	docRepo *repository.DocumentRepository,
	documents *DocumentService,
	files FileStore,
	log zerolog.Logger,
) *WagonService {
	return &WagonService{
		wagons:       wagons,
		applications: applications,
		contracts:    contracts,
		docRepo:      docRepo,
		documents:    documents,
		files:        files,
		log:          log,
	}
}

type WagonInput struct {
	ApplicationID   *uuid.UUID
	Number          string
	Capacity        int64
	RealWeight      *int64
	Owner           string
	Status          model.WagonStatus
	DateOfDeparture *time.Time
	Principal       model.Principal
}

type CreateWagonInput struct {
	WagonInput
	Documents []UploadEntry
}

// Create создаёт вагон и, если пакет не пуст, загружает его документы.
// Ссылка на заявку оптимистична: несуществующий application_id не ошибка,
// такой вагон попадёт в синтетическую группу отчёта.
func (s *WagonService) Create(ctx context.Context, input CreateWagonInput) (*model.Wagon, []document.Descriptor, error) {
	if !input.Principal.IsAdmin() {
		return nil, nil, ErrPermissionDenied
	}
	if err := validateWagonInput(&input.WagonInput); err != nil {
		return nil, nil, err
	}

	wagon := model.Wagon{
		ApplicationID:   input.ApplicationID,
		Number:          input.Number,
		Capacity:        input.Capacity,
		RealWeight:      input.RealWeight,
		Owner:           input.Owner,
		Status:          input.Status,
		DateOfDeparture: input.DateOfDeparture,
	}
	if err := s.wagons.Create(ctx, &wagon); err != nil {
		return nil, nil, err
	}

	if len(input.Documents) == 0 {
		return &wagon, nil, nil
	}

	// Неудачная загрузка не откатывает вагон: строки документов остаются
	// в failed и повторяемы, файлы можно дослать.
	descriptors, err := s.documents.UploadBatch(ctx, UploadBatchInput{
		Owner:     Owner{Type: model.OwnerWagon, ID: wagon.ID},
		Entries:   input.Documents,
		Principal: input.Principal,
	})
	if err != nil {
		return &wagon, nil, err
	}

	updated, err := s.wagons.GetByID(ctx, wagon.ID)
	if err != nil {
		return &wagon, descriptors, nil
	}
	return updated, descriptors, nil
}

func (s *WagonService) Update(ctx context.Context, id uuid.UUID, input WagonInput) (*model.Wagon, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := validateWagonInput(&input); err != nil {
		return nil, err
	}

	wagon, err := s.wagons.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if input.Status != wagon.Status && !fulfillment.CanTransition(wagon.Status, input.Status) {
		return nil, fmt.Errorf("%w: transition %s -> %s is not allowed", ErrInvalidInput, wagon.Status, input.Status)
	}

	wagon.ApplicationID = input.ApplicationID
	wagon.Number = input.Number
	wagon.Capacity = input.Capacity
	wagon.RealWeight = input.RealWeight
	wagon.Owner = input.Owner
	wagon.Status = input.Status
	wagon.DateOfDeparture = input.DateOfDeparture

	if err := s.wagons.Save(ctx, wagon); err != nil {
		return nil, err
	}
	return wagon, nil
}

func (s *WagonService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WagonStatus, principal model.Principal) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if !fulfillment.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	wagon, err := s.wagons.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if !fulfillment.CanTransition(wagon.Status, status) {
		return fmt.Errorf("%w: transition %s -> %s is not allowed", ErrInvalidInput, wagon.Status, status)
	}
	return s.wagons.UpdateStatus(ctx, id, status)
}

// RecordDeparture фиксирует дату отправки. Статус не меняет.
func (s *WagonService) RecordDeparture(ctx context.Context, id uuid.UUID, date time.Time, principal model.Principal) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return mapNotFound(s.wagons.UpdateDeparture(ctx, id, date))
}

func (s *WagonService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}

	docs, err := s.docRepo.ListByOwner(ctx, model.OwnerWagon, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.DeleteByOwner(ctx, model.OwnerWagon, id); err != nil {
		return err
	}
	if err := s.wagons.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	removeStoredFiles(s.files, docs, s.log)
	return nil
}

func (s *WagonService) Get(ctx context.Context, id uuid.UUID) (*model.Wagon, error) {
	wagon, err := s.wagons.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return wagon, nil
}

// Summary — сводка исполнения: вагоны, сгруппированные по заявкам, с
// суммарными весами и процентом загрузки.
func (s *WagonService) Summary(ctx context.Context) (*model.FulfillmentReport, error) {
	wagons, err := s.wagons.List(ctx)
	if err != nil {
		return nil, err
	}
	applications, err := s.applications.List(ctx)
	if err != nil {
		return nil, err
	}
	report := fulfillment.BuildReport(wagons, applications)
	report.GeneratedAt = time.Now().UTC()
	return &report, nil
}

// Manifest собирает данные сопроводительной ведомости вагона. Битая
// ссылка на заявку деградирует до пустых полей, а не до ошибки.
func (s *WagonService) Manifest(ctx context.Context, id uuid.UUID) (*model.WagonManifest, error) {
	wagon, err := s.wagons.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	docs, err := s.docRepo.ListByOwner(ctx, model.OwnerWagon, id)
	if err != nil {
		return nil, err
	}

	manifest := model.WagonManifest{Wagon: *wagon, Documents: docs}
	if wagon.ApplicationID != nil {
		if application, err := s.applications.GetByID(ctx, *wagon.ApplicationID); err == nil {
			manifest.Application = application
			if contract, err := s.contracts.GetByID(ctx, application.ContractID); err == nil {
				contract.Applications = nil
				manifest.Contract = contract
			}
		}
	}
	return &manifest, nil
}

func validateWagonInput(input *WagonInput) error {
	if input.Number == "" {
		return fmt.Errorf("%w: wagon number is required", ErrInvalidInput)
	}
	if input.Capacity < 0 {
		return fmt.Errorf("%w: capacity must be non-negative", ErrInvalidInput)
	}
	if input.RealWeight != nil && *input.RealWeight < 0 {
		return fmt.Errorf("%w: real_weight must be non-negative", ErrInvalidInput)
	}
	if input.Status == "" {
		input.Status = model.WagonStatusAtElevator
	}
	if !fulfillment.ValidStatus(input.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	return nil
}
