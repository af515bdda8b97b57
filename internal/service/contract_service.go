package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/ledger"
	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/repository"
)

type ContractService struct {
	contracts    *repository.ContractRepository
	applications *repository.ApplicationRepository
	locks        *ContractLocks
}

func NewContractService(
	contracts *repository.ContractRepository,
	applications *repository.ApplicationRepository,
	locks *ContractLocks,
) *ContractService {
	return &ContractService{
		contracts:    contracts,
		applications: applications,
		locks:        locks,
	}
}

type ContractInput struct {
	Number      string
	TotalVolume decimal.Decimal
	Currency    string
	Crop        string
	Elevator    string
	Station     string
	Sender      string
	Receiver    string
	Principal   model.Principal
}

// ContractView — контракт вместе с производным свободным остатком.
// Остаток не хранится, считается по живому набору заявок.
type ContractView struct {
	Contract        model.Contract
	AvailableVolume decimal.Decimal
}

func (s *ContractService) Create(ctx context.Context, input ContractInput) (*model.Contract, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := validateContractInput(input); err != nil {
		return nil, err
	}

	contract := model.Contract{
		Number:      input.Number,
		TotalVolume: input.TotalVolume,
		Currency:    input.Currency,
		Crop:        input.Crop,
		Elevator:    input.Elevator,
		Station:     input.Station,
		Sender:      input.Sender,
		Receiver:    input.Receiver,
	}
	if err := s.contracts.Create(ctx, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Update правит контракт под его блокировкой: новый totalVolume не может
// опуститься ниже суммы живых заявок, иначе резерв вышел бы за лимит.
func (s *ContractService) Update(ctx context.Context, id uuid.UUID, input ContractInput) (*model.Contract, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := validateContractInput(input); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(id)
	defer unlock()

	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	applications, err := s.applications.ListByContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ledger.ValidateTotalVolume(input.TotalVolume, applications); err != nil {
		return nil, err
	}

	contract.Number = input.Number
	contract.TotalVolume = input.TotalVolume
	contract.Currency = input.Currency
	contract.Crop = input.Crop
	contract.Elevator = input.Elevator
	contract.Station = input.Station
	contract.Sender = input.Sender
	contract.Receiver = input.Receiver
	contract.Applications = nil

	if err := s.contracts.Save(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*ContractView, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	available := ledger.ComputeAvailable(contract.TotalVolume, contract.Applications, uuid.Nil)
	return &ContractView{Contract: *contract, AvailableVolume: available}, nil
}

func (s *ContractService) List(ctx context.Context) ([]model.Contract, error) {
	return s.contracts.List(ctx)
}

// Delete отклоняет удаление, пока на контракт ссылаются заявки.
func (s *ContractService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	count, err := s.contracts.CountApplications(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrContractInUse
	}
	return mapNotFound(s.contracts.Delete(ctx, id))
}

func validateContractInput(input ContractInput) error {
	if input.Number == "" {
		return fmt.Errorf("%w: number is required", ErrInvalidInput)
	}
	if input.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidInput)
	}
	if input.TotalVolume.IsNegative() {
		return fmt.Errorf("%w: total_volume must be non-negative", ErrInvalidInput)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
