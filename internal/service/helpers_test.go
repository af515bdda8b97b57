package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/repository"
	"github.com/aslanbek/grainflow/internal/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Contract{}, &model.Application{}, &model.Wagon{}, &model.Document{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// memoryStore — файловое хранилище в памяти для тестов сервисов.
type memoryStore struct {
	files map[uuid.UUID][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[uuid.UUID][]byte)}
}

func (m *memoryStore) Save(r io.Reader) (storage.FileRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.FileRef{}, err
	}
	id := uuid.New()
	m.files[id] = data
	return storage.FileRef{ID: id, Location: "/files/" + id.String(), Size: int64(len(data))}, nil
}

func (m *memoryStore) Open(id uuid.UUID) (io.ReadCloser, error) {
	data, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s not found", id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) Remove(id uuid.UUID) error {
	delete(m.files, id)
	return nil
}

// failingStore отказывает в сохранении после failAfter успешных записей.
type failingStore struct {
	*memoryStore
	failAfter int
	saved     int
}

func (f *failingStore) Save(r io.Reader) (storage.FileRef, error) {
	if f.saved >= f.failAfter {
		return storage.FileRef{}, fmt.Errorf("disk full")
	}
	f.saved++
	return f.memoryStore.Save(r)
}

type testEnv struct {
	db           *gorm.DB
	store        FileStore
	contracts    *ContractService
	applications *ApplicationService
	documents    *DocumentService
	wagons       *WagonService

	contractRepo    *repository.ContractRepository
	applicationRepo *repository.ApplicationRepository
	wagonRepo       *repository.WagonRepository
	documentRepo    *repository.DocumentRepository
}

func newTestEnv(t *testing.T, store FileStore) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	if store == nil {
		store = newMemoryStore()
	}
	log := zerolog.Nop()

	contractRepo := repository.NewContractRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	wagonRepo := repository.NewWagonRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	documents := NewDocumentService(documentRepo, contractRepo, applicationRepo, wagonRepo, store, log)
	locks := NewContractLocks()

	return &testEnv{
		db:              db,
		store:           store,
		contracts:       NewContractService(contractRepo, applicationRepo, locks),
		applications:    NewApplicationService(applicationRepo, contractRepo, documentRepo, store, locks, log),
		documents:       documents,
		wagons:          NewWagonService(wagonRepo, applicationRepo, contractRepo, documentRepo, documents, store, log),
		contractRepo:    contractRepo,
		applicationRepo: applicationRepo,
		wagonRepo:       wagonRepo,
		documentRepo:    documentRepo,
	}
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
}

func operatorPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleOperator}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *testEnv) createContract(t *testing.T, totalVolume string) *model.Contract {
	t.Helper()
	contract, err := e.contracts.Create(context.Background(), ContractInput{
		Number:      "КЗ-" + uuid.NewString()[:8],
		TotalVolume: dec(totalVolume),
		Currency:    "USD",
		Crop:        "пшеница",
		Principal:   adminPrincipal(),
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return contract
}

func (e *testEnv) createApplication(t *testing.T, contractID uuid.UUID, volume, price string) *model.Application {
	t.Helper()
	application, err := e.applications.Create(context.Background(), CreateApplicationInput{
		ContractID:  contractID,
		Name:        "Заявка " + uuid.NewString()[:8],
		Volume:      dec(volume),
		PricePerTon: dec(price),
		Culture:     "пшеница",
		Principal:   adminPrincipal(),
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return application
}

func (e *testEnv) createWagon(t *testing.T, applicationID *uuid.UUID, number string) *model.Wagon {
	t.Helper()
	wagon, _, err := e.wagons.Create(context.Background(), CreateWagonInput{
		WagonInput: WagonInput{
			ApplicationID: applicationID,
			Number:        number,
			Capacity:      63800,
			Owner:         "КТЖ",
			Principal:     adminPrincipal(),
		},
	})
	if err != nil {
		t.Fatalf("create wagon: %v", err)
	}
	return wagon
}
