// Пакет document — протокол пакетной загрузки документов: разбор
// files_info и сопоставление дескрипторов ответа со строками снимка.
package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aslanbek/grainflow/internal/model"
)

// Descriptor — результат сохранения одного файла. CorrelationID повторяет
// идентификатор строки из запроса; Nil допустим только для клиентов,
// не передающих correlation_id, — тогда работает позиционный порядок.
// Поле сериализуется всегда: uuid.UUID — массив, "пустого" значения для
// omitempty у него нет, и нулевой uuid в ответе читается однозначно.
type Descriptor struct {
	ID            uuid.UUID `json:"id"`
	Location      string    `json:"location"`
	CorrelationID uuid.UUID `json:"correlation_id"`
}

// Correlate сопоставляет дескрипторы со строками снимка, зафиксированного
// в момент отправки пакета. Сопоставление идёт по correlation id; если ни
// один дескриптор id не несёт, действует прежний позиционный контракт:
// i-й дескриптор — i-й строке снимка. Количество обязано совпадать.
func Correlate(snapshot []model.Document, descriptors []Descriptor) (map[uuid.UUID]Descriptor, error) {
	if len(snapshot) != len(descriptors) {
		return nil, fmt.Errorf("descriptor count %d does not match snapshot size %d", len(descriptors), len(snapshot))
	}

	matched := make(map[uuid.UUID]Descriptor, len(snapshot))

	if !anyCorrelated(descriptors) {
		for i, doc := range snapshot {
			matched[doc.ID] = descriptors[i]
		}
		return matched, nil
	}

	byCorrelation := make(map[uuid.UUID]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if d.CorrelationID == uuid.Nil {
			return nil, fmt.Errorf("descriptor %s carries no correlation id while the batch uses ids", d.ID)
		}
		if _, dup := byCorrelation[d.CorrelationID]; dup {
			return nil, fmt.Errorf("duplicate correlation id %s in response", d.CorrelationID)
		}
		byCorrelation[d.CorrelationID] = d
	}

	for _, doc := range snapshot {
		d, ok := byCorrelation[doc.CorrelationID]
		if !ok {
			return nil, fmt.Errorf("no descriptor for correlation id %s", doc.CorrelationID)
		}
		matched[doc.ID] = d
	}
	return matched, nil
}

func anyCorrelated(descriptors []Descriptor) bool {
	for _, d := range descriptors {
		if d.CorrelationID != uuid.Nil {
			return true
		}
	}
	return false
}

// FileInfo — элемент массива files_info, позиционно выровненного с files.
type FileInfo struct {
	Name          string `json:"name"`
	Number        string `json:"number"`
	Date          string `json:"date"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func ParseFilesInfo(raw []byte) ([]FileInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var infos []FileInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, fmt.Errorf("invalid files_info: %w", err)
	}
	for i, info := range infos {
		if info.Number == "" {
			return nil, fmt.Errorf("files_info[%d]: number is required", i)
		}
	}
	return infos, nil
}

func (f FileInfo) ParseDate() (time.Time, error) {
	if f.Date == "" {
		return time.Time{}, nil
	}
	layouts := []string{"2006-01-02", time.RFC3339}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, f.Date); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", f.Date)
}

func (f FileInfo) ParseCorrelationID() (uuid.UUID, error) {
	if f.CorrelationID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(f.CorrelationID)
}
