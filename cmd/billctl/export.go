package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bills to an XLSX file or a Google Sheet",
		RunE:  runExport,
	}
	cmd.Flags().StringP("out", "o", constants.DefaultExportName, "output XLSX path")
	cmd.Flags().Bool("sheets", false, "write to the configured Google Sheet instead of a file")
	addFilterFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, err := userContext(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	svc, store, err := openBills(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	userID := common.UserIDFromContext(ctx)
	exporter := export.NewService(svc, slog.Default())

	if toSheets, _ := cmd.Flags().GetBool("sheets"); toSheets {
		cfg := loadConfig()
		w, err := export.NewSheetsWriter(ctx, cfg.Export.SpreadsheetID, cfg.Export.SheetsCredentialsFile, slog.Default())
		if err != nil {
			return err
		}
		n, err := exporter.ExportToSheets(ctx, w, userID, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bills to spreadsheet %s\n", n, cfg.Export.SpreadsheetID)
		return nil
	}

	data, err := exporter.ExportBillsXLSX(ctx, userID, f)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(data))
	return nil
}
