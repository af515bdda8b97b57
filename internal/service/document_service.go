package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/document"
	"github.com/aslanbek/grainflow/internal/fulfillment"
	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/repository"
	"github.com/aslanbek/grainflow/internal/storage"
)

// FileStore — хранилище байтов документов за пределами БД.
type FileStore interface {
	Save(r io.Reader) (storage.FileRef, error)
	Open(id uuid.UUID) (io.ReadCloser, error)
	Remove(id uuid.UUID) error
}

// DocumentService ведёт жизненный цикл строк документов
// (pending → uploading → uploaded/failed) у любого владельца и
// сопоставляет результаты пакетной загрузки с зафиксированным снимком.
type DocumentService struct {
	documents    *repository.DocumentRepository
	contracts    *repository.ContractRepository
	applications *repository.ApplicationRepository
	wagons       *repository.WagonRepository
	files        FileStore
	log          zerolog.Logger
}

func NewDocumentService(
	documents *repository.DocumentRepository,
	contracts *repository.ContractRepository,
	applications *repository.ApplicationRepository,
	wagons *repository.WagonRepository,
	files FileStore,
	log zerolog.Logger,
) *DocumentService {
	return &DocumentService{
		documents:    documents,
		contracts:    contracts,
		applications: applications,
		wagons:       wagons,
		files:        files,
		log:          log,
	}
}

type Owner struct {
	Type model.DocumentOwnerType
	ID   uuid.UUID
}

type AttachPendingInput struct {
	Owner     Owner
	Name      string
	Number    string
	Date      time.Time
	Principal model.Principal
}

// AttachPending добавляет строку документа без файла. Уникальность номера
// в пределах владельца проверяется здесь, при создании, чтобы удаление по
// номеру никогда не было неоднозначным.
func (s *DocumentService) AttachPending(ctx context.Context, input AttachPendingInput) (*model.Document, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.Number == "" {
		return nil, fmt.Errorf("%w: document number is required", ErrInvalidInput)
	}
	if err := s.ownerExists(ctx, input.Owner); err != nil {
		return nil, err
	}
	if err := s.ensureNumberFree(ctx, input.Owner, input.Number); err != nil {
		return nil, err
	}

	doc := model.Document{
		OwnerType:    input.Owner.Type,
		OwnerID:      input.Owner.ID,
		Name:         input.Name,
		Number:       input.Number,
		Date:         input.Date,
		UploadStatus: model.UploadPending,
	}
	if err := s.documents.Create(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

type UploadEntry struct {
	Name          string
	Number        string
	Date          time.Time
	CorrelationID uuid.UUID
	File          io.Reader
}

type UploadBatchInput struct {
	Owner     Owner
	Entries   []UploadEntry
	Principal model.Principal
}

// UploadBatch сохраняет файлы пакета и возвращает дескрипторы в порядке
// запроса. Снимок строк фиксируется до начала записи: изменения живого
// набора документов во время загрузки не влияют на сопоставление.
// При ошибке все строки пакета переводятся в failed, метаданные и
// возможность повтора сохраняются, частично записанные файлы удаляются.
func (s *DocumentService) UploadBatch(ctx context.Context, input UploadBatchInput) ([]document.Descriptor, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if len(input.Entries) == 0 {
		return nil, fmt.Errorf("%w: empty upload batch", ErrInvalidInput)
	}
	if err := s.ownerExists(ctx, input.Owner); err != nil {
		return nil, err
	}

	snapshot, err := s.resolveRows(ctx, input.Owner, input.Entries)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(snapshot))
	for i := range snapshot {
		ids[i] = snapshot[i].ID
	}
	if err := s.documents.SetStatus(ctx, ids, model.UploadUploading); err != nil {
		return nil, err
	}

	descriptors := make([]document.Descriptor, 0, len(snapshot))
	refs := make(map[uuid.UUID]storage.FileRef, len(snapshot))
	for i, entry := range input.Entries {
		if err := ctx.Err(); err != nil {
			return nil, s.revertBatch(ctx, ids, refs, err)
		}
		ref, err := s.files.Save(entry.File)
		if err != nil {
			return nil, s.revertBatch(ctx, ids, refs, err)
		}
		row := snapshot[i]
		refs[row.CorrelationID] = ref
		descriptors = append(descriptors, document.Descriptor{
			ID:            row.ID,
			Location:      ref.Location,
			CorrelationID: row.CorrelationID,
		})
	}

	matched, err := document.Correlate(snapshot, descriptors)
	if err != nil {
		return nil, s.revertBatch(ctx, ids, refs, err)
	}

	for i := range snapshot {
		desc := matched[snapshot[i].ID]
		ref := refs[snapshot[i].CorrelationID]
		fileID := ref.ID
		snapshot[i].Location = desc.Location
		snapshot[i].FileID = &fileID
		snapshot[i].UploadStatus = model.UploadUploaded
		if err := s.documents.Save(ctx, &snapshot[i]); err != nil {
			return nil, s.revertBatch(ctx, ids, refs, err)
		}
	}

	if input.Owner.Type == model.OwnerWagon {
		if err := s.promoteWagonIfComplete(ctx, input.Owner.ID); err != nil {
			return nil, err
		}
	}
	return descriptors, nil
}

type DeleteDocumentInput struct {
	Owner     Owner
	Number    string
	Principal model.Principal
}

// Delete удаляет документ по естественному ключу — номеру в пределах
// владельца. Больше одного совпадения означает, что инвариант уникальности
// был нарушен при создании: это дефект данных, удаление останавливается.
func (s *DocumentService) Delete(ctx context.Context, input DeleteDocumentInput) error {
	if !input.Principal.IsAdmin() {
		return ErrPermissionDenied
	}

	rows, err := s.documents.FindByOwnerAndNumber(ctx, input.Owner.Type, input.Owner.ID, input.Number)
	if err != nil {
		return err
	}
	switch {
	case len(rows) == 0:
		return ErrNotFound
	case len(rows) > 1:
		s.log.Error().
			Str("owner_type", string(input.Owner.Type)).
			Str("owner_id", input.Owner.ID.String()).
			Str("number", input.Number).
			Int("matches", len(rows)).
			Msg("document number uniqueness violated")
		return ErrAmbiguousDeletion
	}

	row := rows[0]
	if err := s.documents.DeleteByID(ctx, row.ID); err != nil {
		return mapNotFound(err)
	}
	removeStoredFiles(s.files, rows, s.log)

	if input.Owner.Type == model.OwnerWagon {
		return s.promoteWagonIfComplete(ctx, input.Owner.ID)
	}
	return nil
}

type ClearPendingFileInput struct {
	Owner     Owner
	Number    string
	Principal model.Principal
}

// ClearPendingFile сбрасывает ещё не выгруженный файл строки: метаданные
// (имя/номер/дата) остаются редактируемыми, строка возвращается в pending.
// Строки с сохранённым location не трогаются — для них есть Delete.
func (s *DocumentService) ClearPendingFile(ctx context.Context, input ClearPendingFileInput) (*model.Document, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	rows, err := s.documents.FindByOwnerAndNumber(ctx, input.Owner.Type, input.Owner.ID, input.Number)
	if err != nil {
		return nil, err
	}
	switch {
	case len(rows) == 0:
		return nil, ErrNotFound
	case len(rows) > 1:
		s.log.Error().
			Str("owner_type", string(input.Owner.Type)).
			Str("owner_id", input.Owner.ID.String()).
			Str("number", input.Number).
			Msg("document number uniqueness violated")
		return nil, ErrAmbiguousDeletion
	}

	row := rows[0]
	if row.Location != "" {
		return nil, fmt.Errorf("%w: document is already uploaded", ErrInvalidInput)
	}
	if row.FileID != nil {
		if err := s.files.Remove(*row.FileID); err != nil {
			s.log.Warn().Err(err).Str("file_id", row.FileID.String()).Msg("failed to remove stored file")
		}
		row.FileID = nil
	}
	row.UploadStatus = model.UploadPending
	if err := s.documents.Save(ctx, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *DocumentService) ListByOwner(ctx context.Context, owner Owner) ([]model.Document, error) {
	if err := s.ownerExists(ctx, owner); err != nil {
		return nil, err
	}
	return s.documents.ListByOwner(ctx, owner.Type, owner.ID)
}

func (s *DocumentService) OpenFile(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, error) {
	rc, err := s.files.Open(fileID)
	if err != nil {
		return nil, ErrNotFound
	}
	return rc, nil
}

// resolveRows фиксирует снимок строк пакета в порядке записей запроса:
// существующая строка ищется по correlation id, затем по номеру; иначе
// создаётся новая pending-строка с проверкой уникальности номера.
func (s *DocumentService) resolveRows(ctx context.Context, owner Owner, entries []UploadEntry) ([]model.Document, error) {
	existing, err := s.documents.ListByOwner(ctx, owner.Type, owner.ID)
	if err != nil {
		return nil, err
	}
	byCorrelation := make(map[uuid.UUID]model.Document, len(existing))
	byNumber := make(map[string]model.Document, len(existing))
	for _, doc := range existing {
		byCorrelation[doc.CorrelationID] = doc
		byNumber[doc.Number] = doc
	}

	snapshot := make([]model.Document, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		if entry.Number == "" {
			return nil, fmt.Errorf("%w: entry %d: number is required", ErrInvalidInput, i)
		}
		if _, dup := seen[entry.Number]; dup {
			return nil, fmt.Errorf("%w: number %q repeats within the batch", ErrDuplicateDocumentNumber, entry.Number)
		}
		seen[entry.Number] = struct{}{}

		row, found := model.Document{}, false
		if entry.CorrelationID != uuid.Nil {
			row, found = byCorrelation[entry.CorrelationID]
		}
		if !found {
			row, found = byNumber[entry.Number]
		}

		if found {
			if row.UploadStatus == model.UploadUploaded {
				return nil, fmt.Errorf("%w: document %q is already uploaded", ErrInvalidInput, entry.Number)
			}
			if entry.Name != "" {
				row.Name = entry.Name
			}
			if !entry.Date.IsZero() {
				row.Date = entry.Date
			}
			snapshot = append(snapshot, row)
			continue
		}

		doc := model.Document{
			OwnerType:     owner.Type,
			OwnerID:       owner.ID,
			Name:          entry.Name,
			Number:        entry.Number,
			Date:          entry.Date,
			UploadStatus:  model.UploadPending,
			CorrelationID: entry.CorrelationID,
		}
		if err := s.documents.Create(ctx, &doc); err != nil {
			return nil, err
		}
		snapshot = append(snapshot, doc)
	}
	return snapshot, nil
}

// revertBatch переводит строки пакета в failed и убирает частично
// записанные файлы. Откат идёт на неотменяемом контексте: отмена запроса —
// одна из причин самого отката и не должна мешать ему завершиться.
func (s *DocumentService) revertBatch(ctx context.Context, ids []uuid.UUID, refs map[uuid.UUID]storage.FileRef, cause error) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.documents.SetStatus(ctx, ids, model.UploadFailed); err != nil {
		s.log.Error().Err(err).Msg("failed to mark batch as failed")
	}
	for _, ref := range refs {
		if err := s.files.Remove(ref.ID); err != nil {
			s.log.Warn().Err(err).Str("file_id", ref.ID.String()).Msg("failed to remove partial upload")
		}
	}
	return fmt.Errorf("%w: %v", ErrUploadFailed, cause)
}

// promoteWagonIfComplete переводит вагон в shipped, когда каждая строка
// его документов несёт файл либо location. Обратного перевода нет.
func (s *DocumentService) promoteWagonIfComplete(ctx context.Context, wagonID uuid.UUID) error {
	wagon, err := s.wagons.GetByID(ctx, wagonID)
	if err != nil {
		return mapNotFound(err)
	}
	if wagon.Status == model.WagonStatusShipped {
		return nil
	}
	docs, err := s.documents.ListByOwner(ctx, model.OwnerWagon, wagonID)
	if err != nil {
		return err
	}
	if !fulfillment.ShouldAutoPromote(docs) {
		return nil
	}
	s.log.Info().Str("wagon_id", wagonID.String()).Msg("wagon documents complete, promoting to shipped")
	return s.wagons.UpdateStatus(ctx, wagonID, model.WagonStatusShipped)
}

func (s *DocumentService) ensureNumberFree(ctx context.Context, owner Owner, number string) error {
	rows, err := s.documents.FindByOwnerAndNumber(ctx, owner.Type, owner.ID, number)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return ErrDuplicateDocumentNumber
	}
	return nil
}

func (s *DocumentService) ownerExists(ctx context.Context, owner Owner) error {
	var err error
	switch owner.Type {
	case model.OwnerContract:
		_, err = s.contracts.GetByID(ctx, owner.ID)
	case model.OwnerApplication:
		_, err = s.applications.GetByID(ctx, owner.ID)
	case model.OwnerWagon:
		_, err = s.wagons.GetByID(ctx, owner.ID)
	default:
		return fmt.Errorf("%w: unknown owner type %q", ErrInvalidInput, owner.Type)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func removeStoredFiles(files FileStore, docs []model.Document, log zerolog.Logger) {
	for _, doc := range docs {
		if doc.FileID == nil {
			continue
		}
		if err := files.Remove(*doc.FileID); err != nil {
			log.Warn().Err(err).Str("file_id", doc.FileID.String()).Msg("failed to remove stored file")
		}
	}
}
