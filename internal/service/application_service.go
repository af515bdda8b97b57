package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aslanbek/grainflow/internal/ledger"
	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/repository"
)

// ApplicationService владеет производной суммой заявки и согласует
// выделение объёма с леджером до записи. Проверка и запись выполняются под
// блокировкой контракта, чтобы два конкурентных запроса не прошли по
// одному устаревшему остатку.
type ApplicationService struct {
	applications *repository.ApplicationRepository
	contracts    *repository.ContractRepository
	documents    *repository.DocumentRepository
	files        FileStore
	locks        *ContractLocks
	log          zerolog.Logger
}

func NewApplicationService(
	applications *repository.ApplicationRepository,
	contracts *repository.ContractRepository,
	documents *repository.DocumentRepository,
	files FileStore,
	locks *ContractLocks,
	log zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		contracts:    contracts,
		documents:    documents,
		files:        files,
		locks:        locks,
		log:          log,
	}
}

type CreateApplicationInput struct {
	ContractID  uuid.UUID
	Name        string
	Volume      decimal.Decimal
	PricePerTon decimal.Decimal
	Culture     string
	Comment     string
	Principal   model.Principal
}

type UpdateApplicationInput struct {
	Name        string
	Volume      decimal.Decimal
	PricePerTon decimal.Decimal
	Culture     string
	Comment     string
	Principal   model.Principal
}

func (s *ApplicationService) Create(ctx context.Context, input CreateApplicationInput) (*model.Application, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.ContractID == uuid.Nil {
		return nil, fmt.Errorf("%w: contract_id is required", ErrInvalidInput)
	}
	if err := validateApplicationValues(input.Volume, input.PricePerTon); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(input.ContractID)
	defer unlock()

	contract, err := s.contracts.GetByID(ctx, input.ContractID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	siblings, err := s.applications.ListByContract(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ValidateAllocation(input.Volume, contract.TotalVolume, siblings, nil); err != nil {
		return nil, err
	}

	application := model.Application{
		ContractID:  input.ContractID,
		Name:        input.Name,
		Volume:      input.Volume,
		PricePerTon: input.PricePerTon,
		Currency:    contract.Currency,
		Culture:     input.Culture,
		TotalAmount: input.Volume.Mul(input.PricePerTon),
		Comment:     input.Comment,
	}
	if err := s.applications.Create(ctx, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

// Update заново валидирует резерв; собственный текущий объём заявки
// добавляется к допустимому максимуму, поэтому неизменённое значение
// проходит всегда. Валюта остаётся снимком контракта на момент создания.
func (s *ApplicationService) Update(ctx context.Context, id uuid.UUID, input UpdateApplicationInput) (*model.Application, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := validateApplicationValues(input.Volume, input.PricePerTon); err != nil {
		return nil, err
	}

	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	unlock := s.locks.Acquire(application.ContractID)
	defer unlock()

	contract, err := s.contracts.GetByID(ctx, application.ContractID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	siblings, err := s.applications.ListByContract(ctx, application.ContractID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ValidateAllocation(input.Volume, contract.TotalVolume, siblings, application); err != nil {
		return nil, err
	}

	application.Name = input.Name
	application.Volume = input.Volume
	application.PricePerTon = input.PricePerTon
	application.Culture = input.Culture
	application.Comment = input.Comment
	application.TotalAmount = input.Volume.Mul(input.PricePerTon)

	if err := s.applications.Save(ctx, application); err != nil {
		return nil, err
	}
	return application, nil
}

// Delete удаляет заявку, её документы и отвязывает вагоны. Объём
// возвращается в свободный остаток контракта без отдельного шага.
func (s *ApplicationService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}

	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}

	unlock := s.locks.Acquire(application.ContractID)
	defer unlock()

	docs, err := s.documents.ListByOwner(ctx, model.OwnerApplication, id)
	if err != nil {
		return err
	}
	if err := s.applications.DeleteCascade(ctx, id); err != nil {
		return mapNotFound(err)
	}
	removeStoredFiles(s.files, docs, s.log)
	return nil
}

func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return application, nil
}

func validateApplicationValues(volume, pricePerTon decimal.Decimal) error {
	if volume.IsNegative() {
		return fmt.Errorf("%w: volume must be non-negative", ErrInvalidInput)
	}
	if pricePerTon.IsNegative() {
		return fmt.Errorf("%w: price_per_ton must be non-negative", ErrInvalidInput)
	}
	return nil
}
