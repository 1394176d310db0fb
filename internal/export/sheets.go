package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

// SheetsWriter replaces the contents of a Google Sheets tab with a user's bills.
type SheetsWriter struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

// NewSheetsWriter creates a writer. With no options it authenticates with the service account
// key at credentialsFile.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsFile string, logger *slog.Logger, opts ...option.ClientOption) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts) == 0 {
		if credentialsFile == "" {
			return nil, fmt.Errorf("sheets credentials file is required")
		}
		opts = []option.ClientOption{
			option.WithCredentialsFile(credentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsWriter{service: srv, spreadsheetID: spreadsheetID, sheetName: "Bills", logger: logger}, nil
}

// Write clears the sheet and writes a header row followed by one row per bill.
func (w *SheetsWriter) Write(ctx context.Context, bills []*entity.Bill) (int, error) {
	start := time.Now()

	_, err := w.service.Spreadsheets.Values.Clear(w.spreadsheetID, w.sheetName+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("clear sheet: %w", err)
	}

	header := make([]any, len(billHeaders))
	for i, h := range billHeaders {
		header[i] = h
	}
	values := append([][]any{header}, billRows(bills)...)

	endCol := string(rune('A' + len(billHeaders) - 1))
	rangeStr := fmt.Sprintf("%s!A1:%s%d", w.sheetName, endCol, len(values))
	vr := &sheets.ValueRange{Range: rangeStr, MajorDimension: "ROWS", Values: values}

	resp, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, rangeStr, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("update values: %w", err)
	}

	w.logger.Info("export.sheets.ok",
		"spreadsheet_id", w.spreadsheetID,
		"rows", len(bills),
		"updated_cells", resp.UpdatedCells,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return len(bills), nil
}

// ExportToSheets lists the user's bills and writes them with w.
func (s *Service) ExportToSheets(ctx context.Context, w *SheetsWriter, userID string, filter entity.BillFilter) (int, error) {
	list, err := s.bills.List(ctx, userID, filter)
	if err != nil {
		return 0, fmt.Errorf("query bills: %w", err)
	}
	n, err := w.Write(ctx, list)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden {
		s.logger.Error("export.sheets.forbidden", "hint", "share the spreadsheet with the service account", "error", err)
	}
	return n, err
}
