package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aslanbek/grainflow/internal/ledger"
	"github.com/aslanbek/grainflow/internal/model"
)

func TestApplicationAllocationBound(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")

	env.createApplication(t, contract.ID, "400", "250")
	env.createApplication(t, contract.ID, "300", "250")

	// Ровно остаток — проходит.
	env.createApplication(t, contract.ID, "300", "250")

	_, err := env.applications.Create(ctx, CreateApplicationInput{
		ContractID:  contract.ID,
		Name:        "сверх лимита",
		Volume:      dec("0.001"),
		PricePerTon: dec("250"),
		Principal:   adminPrincipal(),
	})
	var exceeded *ledger.VolumeExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected VolumeExceededError, got %v", err)
	}
	if !exceeded.MaxAllowed.Equal(dec("0")) {
		t.Fatalf("max allowed = %s, want 0", exceeded.MaxAllowed)
	}
}

func TestApplicationUpdateExcludesOwnVolume(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")

	application := env.createApplication(t, contract.ID, "400", "250")
	env.createApplication(t, contract.ID, "300", "250")

	// Собственные 400 возвращаются в допустимый максимум: рост до 700 валиден.
	updated, err := env.applications.Update(ctx, application.ID, UpdateApplicationInput{
		Name:        application.Name,
		Volume:      dec("700"),
		PricePerTon: dec("250"),
		Principal:   adminPrincipal(),
	})
	if err != nil {
		t.Fatalf("update to 700: %v", err)
	}
	if !updated.Volume.Equal(dec("700")) {
		t.Fatalf("volume = %s", updated.Volume)
	}

	_, err = env.applications.Update(ctx, application.ID, UpdateApplicationInput{
		Name:        application.Name,
		Volume:      dec("700.001"),
		PricePerTon: dec("250"),
		Principal:   adminPrincipal(),
	})
	var exceeded *ledger.VolumeExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected VolumeExceededError, got %v", err)
	}
	if !exceeded.MaxAllowed.Equal(dec("700")) {
		t.Fatalf("max allowed = %s, want 700", exceeded.MaxAllowed)
	}
}

func TestApplicationDerivedTotalAmount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")

	application := env.createApplication(t, contract.ID, "120.5", "245.30")
	if !application.TotalAmount.Equal(dec("29558.665")) {
		t.Fatalf("total amount = %s, want 29558.665", application.TotalAmount)
	}

	// Нулевой объём легален, сумма становится нулём.
	updated, err := env.applications.Update(ctx, application.ID, UpdateApplicationInput{
		Name:        application.Name,
		Volume:      dec("0"),
		PricePerTon: dec("245.30"),
		Principal:   adminPrincipal(),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.TotalAmount.Equal(dec("0")) {
		t.Fatalf("total amount = %s, want 0", updated.TotalAmount)
	}
}

func TestApplicationCurrencySnapshot(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")
	application := env.createApplication(t, contract.ID, "100", "250")

	if application.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", application.Currency)
	}

	// Смена валюты контракта не трогает снимок в заявке.
	if _, err := env.contracts.Update(ctx, contract.ID, ContractInput{
		Number:      contract.Number,
		TotalVolume: contract.TotalVolume,
		Currency:    "KZT",
		Principal:   adminPrincipal(),
	}); err != nil {
		t.Fatalf("update contract: %v", err)
	}

	updated, err := env.applications.Update(ctx, application.ID, UpdateApplicationInput{
		Name:        application.Name,
		Volume:      dec("150"),
		PricePerTon: dec("250"),
		Principal:   adminPrincipal(),
	})
	if err != nil {
		t.Fatalf("update application: %v", err)
	}
	if updated.Currency != "USD" {
		t.Fatalf("currency = %q, snapshot must survive edits", updated.Currency)
	}
}

func TestApplicationDeleteReleasesVolumeAndDetachesWagons(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")
	application := env.createApplication(t, contract.ID, "600", "250")
	wagon := env.createWagon(t, &application.ID, "60123456")

	view, err := env.contracts.Get(ctx, contract.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if !view.AvailableVolume.Equal(dec("400")) {
		t.Fatalf("available = %s, want 400", view.AvailableVolume)
	}

	if err := env.applications.Delete(ctx, application.ID, adminPrincipal()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	view, err = env.contracts.Get(ctx, contract.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if !view.AvailableVolume.Equal(dec("1000")) {
		t.Fatalf("available = %s, volume must return to the contract", view.AvailableVolume)
	}

	survivor, err := env.wagons.Get(ctx, wagon.ID)
	if err != nil {
		t.Fatalf("wagon must survive application deletion: %v", err)
	}
	if survivor.ApplicationID != nil {
		t.Fatalf("wagon still references %s", survivor.ApplicationID)
	}
}

func TestApplicationDeleteRemovesDocuments(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")
	application := env.createApplication(t, contract.ID, "100", "250")

	owner := Owner{Type: model.OwnerApplication, ID: application.ID}
	if _, err := env.documents.AttachPending(ctx, AttachPendingInput{
		Owner:     owner,
		Name:      "спецификация.pdf",
		Number:    "СП-1",
		Principal: adminPrincipal(),
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := env.applications.Delete(ctx, application.ID, adminPrincipal()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	docs, err := env.documentRepo.ListByOwner(ctx, model.OwnerApplication, application.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("documents must be removed with the application, got %d", len(docs))
	}
}

func TestApplicationMutationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")
	application := env.createApplication(t, contract.ID, "100", "250")

	if _, err := env.applications.Create(ctx, CreateApplicationInput{
		ContractID:  contract.ID,
		Volume:      dec("10"),
		PricePerTon: dec("1"),
		Principal:   operatorPrincipal(),
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("create by operator: %v", err)
	}
	if _, err := env.applications.Update(ctx, application.ID, UpdateApplicationInput{
		Volume:      dec("10"),
		PricePerTon: dec("1"),
		Principal:   operatorPrincipal(),
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("update by operator: %v", err)
	}
	if err := env.applications.Delete(ctx, application.ID, operatorPrincipal()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("delete by operator: %v", err)
	}
}

func TestApplicationRejectsNegativeValues(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")

	if _, err := env.applications.Create(ctx, CreateApplicationInput{
		ContractID:  contract.ID,
		Volume:      dec("-1"),
		PricePerTon: dec("250"),
		Principal:   adminPrincipal(),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative volume: %v", err)
	}
	if _, err := env.applications.Create(ctx, CreateApplicationInput{
		ContractID:  contract.ID,
		Volume:      dec("1"),
		PricePerTon: dec("-250"),
		Principal:   adminPrincipal(),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative price: %v", err)
	}
}

func TestContractDeleteBlockedWhileApplicationsExist(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	contract := env.createContract(t, "1000")
	application := env.createApplication(t, contract.ID, "100", "250")

	if err := env.contracts.Delete(ctx, contract.ID, adminPrincipal()); !errors.Is(err, ErrContractInUse) {
		t.Fatalf("expected ErrContractInUse, got %v", err)
	}

	if err := env.applications.Delete(ctx, application.ID, adminPrincipal()); err != nil {
		t.Fatalf("delete application: %v", err)
	}
	if err := env.contracts.Delete(ctx, contract.ID, adminPrincipal()); err != nil {
		t.Fatalf("delete contract: %v", err)
	}
	if _, err := env.contracts.Get(ctx, contract.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
