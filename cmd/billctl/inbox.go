package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bills-tracker/internal/app"
	"github.com/joseph-ayodele/bills-tracker/internal/ingest"
)

func inboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox <dir>",
		Short: "Import every bill found in the text files of a directory",
		Long: `Scans a directory for paste files (.txt, .md, .eml), extracts the bills in each
one and imports all of them without review. Files whose content was already imported
in this run are skipped. With --watch the directory stays open and new or changed
files are imported as they appear.`,
		Args: cobra.ExactArgs(1),
		RunE: runInbox,
	}
	cmd.Flags().Bool("watch", false, "keep watching the directory for new files")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before a changed file is imported")
	cmd.Flags().Bool("skip-hidden", true, "skip hidden files and directories")
	cmd.Flags().StringSlice("ext", nil, "accepted file extensions (default txt,md,eml)")
	return cmd
}

func runInbox(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	skipHidden, _ := cmd.Flags().GetBool("skip-hidden")
	exts, _ := cmd.Flags().GetStringSlice("ext")

	ctx, err := userContext(cmd.Context())
	if err != nil {
		return err
	}
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []ingest.Option
	if len(exts) > 0 {
		opts = append(opts, ingest.WithExtensions(exts...))
	}
	im := ingest.NewImporter(a.Extractor, a.Reconciler, logger, opts...)
	out := cmd.OutOrStdout()

	if watch {
		fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", args[0])
		err := im.Watch(ctx, ingest.WatchConfig{
			Roots:       []string{args[0]},
			InitialScan: true,
			Debounce:    debounce,
		}, func(r ingest.FileResult) { printFileResult(out, r) })
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	results, stats, err := im.ImportDirectory(ctx, args[0], skipHidden)
	for _, r := range results {
		printFileResult(out, r)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "scanned=%d matched=%d succeeded=%d deduplicated=%d failed=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d files failed to import", stats.Failed)
	}
	return nil
}

func printFileResult(w io.Writer, r ingest.FileResult) {
	switch {
	case r.Err != "":
		fmt.Fprintf(w, "FAIL %s: %s\n", r.Path, r.Err)
	case r.Deduplicated:
		fmt.Fprintf(w, "SKIP %s (already imported)\n", r.Path)
	case r.Report == nil:
		fmt.Fprintf(w, "NONE %s: no bills found\n", r.Path)
	default:
		fmt.Fprintf(w, "OK   %s: %d imported, %d failed\n", r.Path, r.Report.SuccessCount, r.Report.ErrorCount)
	}
}
