package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bills-tracker/internal/app"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
	"github.com/joseph-ayodele/bills-tracker/internal/reconcile"
	"github.com/joseph-ayodele/bills-tracker/internal/tui"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Extract bills from pasted text and import the ones you pick",
		Long: `Reads free-form text from a file (or stdin when no file or "-" is given),
asks the configured language model for bills, and opens an interactive list
where every bill starts selected. Use --yes to import everything without the list,
or --dry-run to print the extracted bills as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().BoolP("yes", "y", false, "import every extracted bill without review")
	cmd.Flags().Bool("dry-run", false, "print extracted bills as JSON and exit")
	return cmd
}

func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}

func runImport(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	text, err := readInput(args)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	logger := slog.Default()

	if dryRun {
		completer, err := app.NewCompleter(cmd.Context(), cfg.LLM, logger)
		if err != nil {
			return err
		}
		extractor, err := app.NewExtractor(completer, cfg, logger)
		if err != nil {
			return err
		}
		bills, err := extractor.ExtractBills(cmd.Context(), text)
		if err != nil {
			return err
		}
		if bills == nil {
			bills = []llm.ParsedBill{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"bills": bills})
	}

	ctx, err := userContext(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	session := reconcile.NewSession("cli", common.UserIDFromContext(ctx), time.Now())

	if yes {
		return importAll(ctx, cmd, a, session, text)
	}

	final, err := tea.NewProgram(tui.New(ctx, text, a.Extractor, a.Reconciler, session)).Run()
	if err != nil {
		return fmt.Errorf("run import ui: %w", err)
	}
	m := final.(tui.Model)
	if m.Err() != nil {
		return m.Err()
	}
	return reportFailures(cmd, m.Report())
}

func importAll(ctx context.Context, cmd *cobra.Command, a *app.App, session *reconcile.Session, text string) error {
	out := cmd.OutOrStdout()

	bills, err := a.Extractor.ExtractBills(ctx, text)
	if err != nil {
		return err
	}
	found, err := session.Present(bills)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, "No bills found.")
		return nil
	}

	bar := progressbar.NewOptions(len(bills),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing bills...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	report, err := a.Reconciler.Commit(ctx, session, func(done, _ int, _ llm.ParsedBill, _ error) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Successfully imported %d bills\n", report.SuccessCount)
	return reportFailures(cmd, report)
}

// reportFailures lists per-bill failures and turns them into a non-zero exit.
func reportFailures(cmd *cobra.Command, report *entity.ImportReport) error {
	if report == nil || report.ErrorCount == 0 {
		return nil
	}
	w := cmd.ErrOrStderr()
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  #%d %s: %s\n", f.Index, f.Name, f.Error)
	}
	return fmt.Errorf("%d of %d bills failed to import", report.ErrorCount, report.ErrorCount+report.SuccessCount)
}
