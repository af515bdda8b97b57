package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/aslanbek/grainflow/internal/fulfillment"
	"github.com/aslanbek/grainflow/internal/model"
)

// Generator печатает сопроводительную ведомость вагона. Используются
// встроенные шрифты gofpdf, поэтому текст формы латиницей.
type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

func (g *Generator) Generate(manifest model.WagonManifest) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Wagon Dispatch Manifest", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Wagon No. %s", manifest.Wagon.Number), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Wagon", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Owner: %s", safeValue(manifest.Wagon.Owner)),
		fmt.Sprintf("Status: %s", manifest.Wagon.Status),
		fmt.Sprintf("Document weight: %d kg", manifest.Wagon.Capacity),
		fmt.Sprintf("Measured weight: %s", formatWeight(manifest.Wagon.RealWeight)),
		fmt.Sprintf("Weight variance: %s", formatVariance(manifest.Wagon)),
		fmt.Sprintf("Departure date: %s", formatDatePtr(manifest.Wagon.DateOfDeparture)),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	if manifest.Application != nil {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Application", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		appLines := []string{
			fmt.Sprintf("Name: %s", safeValue(manifest.Application.Name)),
			fmt.Sprintf("Culture: %s", safeValue(manifest.Application.Culture)),
			fmt.Sprintf("Volume: %s t", manifest.Application.Volume.String()),
			fmt.Sprintf("Price per ton: %s %s", manifest.Application.PricePerTon.String(), manifest.Application.Currency),
			fmt.Sprintf("Total amount: %s %s", manifest.Application.TotalAmount.String(), manifest.Application.Currency),
		}
		for _, line := range appLines {
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	if manifest.Contract != nil {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Contract", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		contractLines := []string{
			fmt.Sprintf("No. %s", manifest.Contract.Number),
			fmt.Sprintf("Crop: %s", safeValue(manifest.Contract.Crop)),
			fmt.Sprintf("Total volume: %s t", manifest.Contract.TotalVolume.String()),
			fmt.Sprintf("Route: %s -> %s", safeValue(manifest.Contract.Station), safeValue(manifest.Contract.Receiver)),
		}
		for _, line := range contractLines {
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Documents", "", 1, "L", false, 0, "")

	headers := []string{"Name", "Number", "Date", "Status"}
	colWidths := []float64{70, 40, 30, 35}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, doc := range manifest.Documents {
		row := []string{
			doc.Name,
			doc.Number,
			formatDate(doc.Date),
			string(doc.UploadStatus),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}
	if len(manifest.Documents) == 0 {
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 6, "No documents attached.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatWeight(value *int64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%d kg", *value)
}

func formatVariance(wagon model.Wagon) string {
	variance, ok := fulfillment.Variance(wagon)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%+d kg", variance)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}
