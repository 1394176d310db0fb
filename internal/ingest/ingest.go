// Package ingest imports bills from paste files on disk: one-off directory scans and a
// watched inbox directory.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
	"github.com/joseph-ayodele/bills-tracker/internal/reconcile"
)

// maxFileBytes caps a single paste file.
const maxFileBytes = 1 << 20

// FileResult is the per-file import outcome.
type FileResult struct {
	Path         string
	HashHex      string
	Deduplicated bool
	Candidates   int
	Report       *entity.ImportReport
	Err          string
}

// DirStats summarizes a directory import.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Importer extracts bills from paste files and commits every candidate. Content already
// imported by the same Importer is skipped.
type Importer struct {
	extractor  llm.BillExtractor
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
	exts       map[string]struct{}

	mu   sync.Mutex
	seen map[string]struct{}
}

type Option func(*Importer)

// WithExtensions replaces the accepted file extensions (case-insensitive, dot optional).
func WithExtensions(exts ...string) Option {
	return func(im *Importer) {
		set := make(map[string]struct{}, len(exts))
		for _, e := range exts {
			if e = normalizeExt(e); e != "" {
				set[e] = struct{}{}
			}
		}
		if len(set) > 0 {
			im.exts = set
		}
	}
}

func NewImporter(extractor llm.BillExtractor, reconciler *reconcile.Reconciler, logger *slog.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	im := &Importer{
		extractor:  extractor,
		reconciler: reconciler,
		logger:     logger,
		exts:       map[string]struct{}{"txt": {}, "md": {}, "eml": {}},
		seen:       make(map[string]struct{}),
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Allowed reports whether path has an accepted extension.
func (im *Importer) Allowed(path string) bool {
	_, ok := im.exts[normalizeExt(filepath.Ext(path))]
	return ok
}

// ImportPath reads one paste file, extracts its bills and commits all of them for the user
// in ctx.
func (im *Importer) ImportPath(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Path: path}

	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		return res, &common.AuthRequiredError{}
	}
	if !im.Allowed(path) {
		return res, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(path))
	}

	text, sum, err := readPaste(path)
	if err != nil {
		return res, err
	}
	res.HashHex = sum

	if im.isSeen(sum) {
		res.Deduplicated = true
		im.logger.Info("ingest.file.duplicate", "path", path, "hash", sum[:12])
		return res, nil
	}

	start := time.Now()
	bills, err := im.extractor.ExtractBills(ctx, text)
	if err != nil {
		im.logger.Warn("ingest.file.extract_failed", "path", path, "error", err)
		return res, err
	}
	res.Candidates = len(bills)

	session := reconcile.NewSession(sum[:12], userID, time.Now())
	found, err := session.Present(bills)
	if err != nil {
		return res, err
	}
	if found {
		report, err := im.reconciler.Commit(ctx, session, nil)
		if err != nil {
			return res, err
		}
		res.Report = report
	}
	im.markSeen(sum)

	im.logger.Info("ingest.file.ok",
		"path", path,
		"candidates", res.Candidates,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (im *Importer) isSeen(sum string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	_, ok := im.seen[sum]
	return ok
}

func (im *Importer) markSeen(sum string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.seen[sum] = struct{}{}
}

func readPaste(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("read: %w", err)
	}
	if len(b) > maxFileBytes {
		return "", "", fmt.Errorf("file is larger than %d bytes", maxFileBytes)
	}
	sum := sha256.Sum256(b)
	return string(b), hex.EncodeToString(sum[:]), nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
