package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aslanbek/grainflow/internal/fulfillment"
	"github.com/aslanbek/grainflow/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.FulfillmentReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Сводка"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range report.Groups {
		sheetName := buildSheetName(group, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeDetail(file, sheetName, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.FulfillmentReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Отчет об исполнении заявок")
	set("A2", "Сформирован")
	set("B2", formatDateTime(report.GeneratedAt))
	set("A3", "Всего вагонов")
	set("B3", report.TotalWagons)
	set("A4", "Вес по документам, кг")
	set("B4", report.TotalCapacity)
	set("A5", "Фактический вес, кг")
	set("B5", report.TotalRealWeight)

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Заявка")
	set(fmt.Sprintf("B%d", tableRow), "Вагонов")
	set(fmt.Sprintf("C%d", tableRow), "Вес по документам, кг")
	set(fmt.Sprintf("D%d", tableRow), "Фактический вес, кг")
	set(fmt.Sprintf("E%d", tableRow), "Загрузка, %")

	for i, group := range report.Groups {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), groupLabel(group))
		set(fmt.Sprintf("B%d", row), group.WagonCount)
		set(fmt.Sprintf("C%d", row), group.TotalCapacity)
		set(fmt.Sprintf("D%d", row), group.TotalRealWeight)
		set(fmt.Sprintf("E%d", row), fmt.Sprintf("%.1f", group.UtilizationPercentage))
	}

	_ = file.SetColWidth(sheet, "A", "A", 45)
	_ = file.SetColWidth(sheet, "B", "E", 20)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, group model.FulfillmentGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Заявка")
	set("B1", groupLabel(group))
	set("A2", "Вагонов")
	set("B2", group.WagonCount)
	set("A3", "Загрузка, %")
	set("B3", fmt.Sprintf("%.1f", group.UtilizationPercentage))

	tableRow := 5
	headers := []string{
		"Номер вагона",
		"Собственник",
		"Статус",
		"Вес по документам, кг",
		"Фактический вес, кг",
		"Расхождение, кг",
		"Дата отправки",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, wagon := range group.Wagons {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), wagon.Number)
		set(fmt.Sprintf("B%d", row), wagon.Owner)
		set(fmt.Sprintf("C%d", row), statusLabel(wagon.Status))
		set(fmt.Sprintf("D%d", row), wagon.Capacity)
		set(fmt.Sprintf("E%d", row), formatWeight(wagon.RealWeight))
		set(fmt.Sprintf("F%d", row), formatVariance(wagon))
		set(fmt.Sprintf("G%d", row), formatDatePtr(wagon.DateOfDeparture))
	}

	_ = file.SetColWidth(sheet, "A", "B", 24)
	_ = file.SetColWidth(sheet, "C", "G", 20)
	return nil
}

func groupLabel(group model.FulfillmentGroup) string {
	switch {
	case group.Unresolved:
		return "Неизвестная заявка"
	case group.ApplicationID == nil:
		return "Без заявки"
	default:
		return group.ApplicationName
	}
}

func statusLabel(status model.WagonStatus) string {
	switch status {
	case model.WagonStatusAtElevator:
		return "На элеваторе"
	case model.WagonStatusInTransit:
		return "В пути"
	case model.WagonStatusShipped:
		return "Отгружен"
	default:
		return string(status)
	}
}

func buildSheetName(group model.FulfillmentGroup, used map[string]struct{}) string {
	base := sanitizeSheetName(groupLabel(group))
	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Лист"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Лист"
	}
	return value
}

func formatWeight(value *int64) string {
	if value == nil {
		return "—"
	}
	return fmt.Sprintf("%d", *value)
}

func formatVariance(wagon model.Wagon) string {
	variance, ok := fulfillment.Variance(wagon)
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%+d", variance)
}

func formatDatePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
