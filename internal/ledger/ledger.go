// Пакет ledger отвечает на один вопрос: сколько объёма контракта ещё
// свободно и можно ли выделить запрошенный объём. Все функции чистые,
// доступный объём всегда пересчитывается от живого набора заявок.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aslanbek/grainflow/internal/model"
)

// VolumeExceededError возвращается, когда запрошенный объём превышает
// доступный остаток контракта. MaxAllowed — максимум, который прошёл бы.
type VolumeExceededError struct {
	MaxAllowed decimal.Decimal
}

func (e *VolumeExceededError) Error() string {
	return fmt.Sprintf("volume exceeds contract limit, max allowed %s", e.MaxAllowed.String())
}

// TotalBelowAllocatedError возвращается при попытке ужать totalVolume
// контракта ниже уже выделенной заявками суммы.
type TotalBelowAllocatedError struct {
	Allocated decimal.Decimal
}

func (e *TotalBelowAllocatedError) Error() string {
	return fmt.Sprintf("total volume is below the allocated %s", e.Allocated.String())
}

// ComputeAvailable возвращает свободный объём контракта: totalVolume минус
// сумма объёмов заявок, кроме заявки excludeID (редактируемой).
// Отрицательный остаток срезается в ноль.
func ComputeAvailable(totalVolume decimal.Decimal, siblings []model.Application, excludeID uuid.UUID) decimal.Decimal {
	used := decimal.Zero
	for _, app := range siblings {
		if excludeID != uuid.Nil && app.ID == excludeID {
			continue
		}
		used = used.Add(app.Volume)
	}
	available := totalVolume.Sub(used)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// ValidateAllocation проверяет, что candidate помещается в остаток контракта.
// Для редактируемой заявки её текущий резерв добавляется обратно, поэтому
// неизменённое значение всегда проходит.
func ValidateAllocation(candidate, totalVolume decimal.Decimal, siblings []model.Application, editing *model.Application) error {
	excludeID := uuid.Nil
	allowance := decimal.Zero
	if editing != nil {
		excludeID = editing.ID
		allowance = editing.Volume
	}
	maxAllowed := ComputeAvailable(totalVolume, siblings, excludeID).Add(allowance)
	if candidate.GreaterThan(maxAllowed) {
		return &VolumeExceededError{MaxAllowed: maxAllowed}
	}
	return nil
}

// ValidateTotalVolume проверяет новый totalVolume контракта против суммы
// живых заявок: ужатие ниже выделенного объёма сломало бы инвариант
// Σ(volume) ≤ totalVolume, поэтому отклоняется.
func ValidateTotalVolume(candidate decimal.Decimal, applications []model.Application) error {
	allocated := decimal.Zero
	for _, app := range applications {
		allocated = allocated.Add(app.Volume)
	}
	if candidate.LessThan(allocated) {
		return &TotalBelowAllocatedError{Allocated: allocated}
	}
	return nil
}
