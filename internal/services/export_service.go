package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExportHeader is the column layout of the listings spreadsheet
var ExportHeader = []string{
	"ID",
	"Type",
	"Name",
	"Status",
	"Setup Complete",
	"Completion %",
	"Verified",
	"Owner ID",
	"City",
	"District",
	"Created At",
	"Updated At",
}

var exportColumnWidths = []float64{38, 12, 30, 12, 15, 13, 10, 38, 18, 18, 20, 20}

// ExportService renders listings as an xlsx workbook, one sheet per type
type ExportService struct {
	listings ListingStore
}

// NewExportService creates a new export service
func NewExportService(listings ListingStore) *ExportService {
	return &ExportService{listings: listings}
}

// ExportListings returns the workbook bytes. An empty t exports every type.
func (s *ExportService) ExportListings(ctx context.Context, t models.BusinessType, status models.ListingStatus) ([]byte, error) {
	types := models.BusinessTypes
	if t != "" {
		types = []models.BusinessType{t}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, bt := range types {
		summaries, err := s.collect(ctx, bt, status)
		if err != nil {
			return nil, err
		}

		sheet := sheetName(bt)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}

		if err := writeSheet(f, sheet, headerStyle, summaries); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// collect pages through every listing of a type
func (s *ExportService) collect(ctx context.Context, t models.BusinessType, status models.ListingStatus) ([]ListingSummary, error) {
	var summaries []ListingSummary
	filter := database.ListingFilter{Status: status, Page: 1, Limit: database.MaxPageSize}

	for {
		listings, total, err := s.listings.List(ctx, t, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s listings: %w", t, err)
		}
		for _, l := range listings {
			summaries = append(summaries, Summarize(l))
		}
		if len(listings) == 0 || filter.Page*filter.Limit >= total {
			return summaries, nil
		}
		filter.Page++
	}
}

func sheetName(t models.BusinessType) string {
	switch t {
	case models.BusinessTypeHotel:
		return "Hotels"
	case models.BusinessTypeRestaurant:
		return "Restaurants"
	default:
		return "Transport"
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, rows []ListingSummary) error {
	for col, header := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, exportColumnWidths[col]); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range rows {
		values := []interface{}{
			r.ID,
			string(r.BusinessType),
			r.Name,
			string(r.Status),
			yesNo(r.IsSetupComplete),
			r.CompletionPercentage,
			yesNo(r.IsVerified),
			r.Owner,
			r.City,
			r.District,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return nil
}
