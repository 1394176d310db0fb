package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

// BillLister is the read side used by exports.
type BillLister interface {
	List(ctx context.Context, userID string, filter entity.BillFilter) ([]*entity.Bill, error)
}

// Service produces spreadsheet exports of a user's bills.
type Service struct {
	bills  BillLister
	logger *slog.Logger
}

func NewService(bills BillLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{bills: bills, logger: logger}
}

var billHeaders = []string{"Due Date", "Name", "Category", "Amount", "Frequency", "Paid"}

// billRows renders bills in export column order.
func billRows(bills []*entity.Bill) [][]any {
	rows := make([][]any, 0, len(bills))
	for _, b := range bills {
		paid := "No"
		if b.IsPaid {
			paid = "Yes"
		}
		amount, _ := b.Amount.Round(2).Float64()
		rows = append(rows, []any{
			b.DueDate.Format(constants.DateLayout),
			b.Name,
			b.Category,
			amount,
			b.Frequency,
			paid,
		})
	}
	return rows
}

// ExportBillsXLSX returns an XLSX workbook (as bytes) with a bill sheet and a per-category
// summary for the user's bills matching filter.
func (s *Service) ExportBillsXLSX(ctx context.Context, userID string, filter entity.BillFilter) ([]byte, error) {
	start := time.Now()

	list, err := s.bills.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	sheet := constants.BillsSheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range billHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range billRows(list) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	if err := s.writeCategorySheet(f, list); err != nil {
		return nil, err
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // due date
	_ = f.SetColWidth(sheet, "B", "B", 32) // name
	_ = f.SetColWidth(sheet, "C", "C", 18) // category
	_ = f.SetColWidth(sheet, "D", "F", 12)

	if styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, styleID)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(list),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeCategorySheet(f *excelize.File, list []*entity.Bill) error {
	sheet := constants.CategorySheetName
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	totals := map[string]decimal.Decimal{}
	for _, b := range list {
		totals[b.Category] = totals[b.Category].Add(b.Amount)
	}
	cats := make([]string, 0, len(totals))
	for c := range totals {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	_ = f.SetCellValue(sheet, "A1", "Category")
	_ = f.SetCellValue(sheet, "B1", "Total")
	for i, c := range cats {
		row := i + 2
		total, _ := totals[c].Round(2).Float64()
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), total)
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	return nil
}
