// Пакет fulfillment — жизненный цикл вагона и сводная статистика
// исполнения по заявкам. Функции чистые, работают над срезами моделей.
package fulfillment

import (
	"github.com/google/uuid"

	"github.com/aslanbek/grainflow/internal/model"
)

// Таблица переходов намеренно разрешает любой переход: операторы
// исправляют ошибки ввода, поэтому движение назад допустимо.
// Ужесточение до at_elevator → in_transit → shipped — правка этой таблицы.
var allowedTransitions = map[model.WagonStatus][]model.WagonStatus{
	model.WagonStatusAtElevator: {model.WagonStatusAtElevator, model.WagonStatusInTransit, model.WagonStatusShipped},
	model.WagonStatusInTransit:  {model.WagonStatusAtElevator, model.WagonStatusInTransit, model.WagonStatusShipped},
	model.WagonStatusShipped:    {model.WagonStatusAtElevator, model.WagonStatusInTransit, model.WagonStatusShipped},
}

func ValidStatus(status model.WagonStatus) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func CanTransition(from, to model.WagonStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Variance — расхождение фактического веса с документальным (кг).
// Без взвешивания расхождение не вычисляется: ok == false, не ноль.
func Variance(w model.Wagon) (int64, bool) {
	if w.RealWeight == nil {
		return 0, false
	}
	return *w.RealWeight - w.Capacity, true
}

// ShouldAutoPromote — вагон считается отгруженным, когда документов
// больше нуля и у каждой строки есть файл либо сохранённый location.
func ShouldAutoPromote(docs []model.Document) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if !d.HasAttachment() {
			return false
		}
	}
	return true
}

// AggregateByApplication группирует вагоны по заявкам. Вагоны без заявки
// собираются в группу "без заявки", вагоны с неразрешимой ссылкой — в
// синтетическую группу Unresolved: битая ссылка деградирует до строки
// отчёта, а не до ошибки.
func AggregateByApplication(wagons []model.Wagon, applications []model.Application) []model.FulfillmentGroup {
	groups := make([]model.FulfillmentGroup, 0, len(applications)+2)
	index := make(map[uuid.UUID]int, len(applications))

	for _, app := range applications {
		appID := app.ID
		name := app.Name
		if name == "" {
			name = app.ID.String()
		}
		groups = append(groups, model.FulfillmentGroup{
			ApplicationID:   &appID,
			ApplicationName: name,
		})
		index[app.ID] = len(groups) - 1
	}

	var ungrouped, unresolved model.FulfillmentGroup
	unresolved.Unresolved = true

	for _, w := range wagons {
		switch {
		case w.ApplicationID == nil:
			addWagon(&ungrouped, w)
		default:
			pos, ok := index[*w.ApplicationID]
			if !ok {
				addWagon(&unresolved, w)
				continue
			}
			addWagon(&groups[pos], w)
		}
	}

	if unresolved.WagonCount > 0 {
		groups = append(groups, unresolved)
	}
	if ungrouped.WagonCount > 0 {
		groups = append(groups, ungrouped)
	}

	for i := range groups {
		groups[i].UtilizationPercentage = utilization(groups[i].TotalRealWeight, groups[i].TotalCapacity)
	}
	return groups
}

// BuildReport собирает сводный отчёт исполнения по всем заявкам.
func BuildReport(wagons []model.Wagon, applications []model.Application) model.FulfillmentReport {
	groups := AggregateByApplication(wagons, applications)
	report := model.FulfillmentReport{Groups: groups}
	for _, g := range groups {
		report.TotalWagons += g.WagonCount
		report.TotalCapacity += g.TotalCapacity
		report.TotalRealWeight += g.TotalRealWeight
	}
	return report
}

func addWagon(group *model.FulfillmentGroup, w model.Wagon) {
	group.Wagons = append(group.Wagons, w)
	group.WagonCount++
	group.TotalCapacity += w.Capacity
	if w.RealWeight != nil {
		group.TotalRealWeight += *w.RealWeight
	}
}

func utilization(realWeight, capacity int64) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(realWeight) / float64(capacity) * 100
}
