package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aslanbek/grainflow/internal/model"
)

type ExcelGenerator interface {
	Generate(report model.FulfillmentReport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(manifest model.WagonManifest) ([]byte, error)
}

// ReportService — печатные и табличные выгрузки поверх сводки исполнения.
type ReportService struct {
	wagons *WagonService
	excel  ExcelGenerator
	pdf    PDFGenerator
}

func NewReportService(wagons *WagonService, excel ExcelGenerator, pdf PDFGenerator) *ReportService {
	return &ReportService{wagons: wagons, excel: excel, pdf: pdf}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ReportService) ExportFulfillment(ctx context.Context) (*ExportResult, error) {
	report, err := s.wagons.Summary(ctx)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("fulfillment-%s.xlsx", report.GeneratedAt.Format("20060102-150405"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

func (s *ReportService) WagonManifestPDF(ctx context.Context, wagonID uuid.UUID) (*ExportResult, error) {
	manifest, err := s.wagons.Manifest(ctx, wagonID)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*manifest)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(manifest.Wagon.Number)
	if name == "" {
		name = manifest.Wagon.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("manifest-%s.pdf", name),
		Content:  content,
	}, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
