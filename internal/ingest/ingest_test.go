package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
	"github.com/joseph-ayodele/bills-tracker/internal/reconcile"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

// lineExtractor turns each "name amount date" line into a bill.
type lineExtractor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *lineExtractor) ExtractBills(_ context.Context, text string) ([]llm.ParsedBill, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []llm.ParsedBill
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		out = append(out, llm.ParsedBill{
			Index: i, Name: parts[0], Amount: 100, DueDate: parts[1],
			Category: "Other", Frequency: "monthly",
		})
	}
	return out, nil
}

func (f *lineExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newImporter(t *testing.T, ex llm.BillExtractor) (*Importer, repository.BillRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore(logger)
	t.Cleanup(func() { _ = store.Close() })
	return NewImporter(ex, reconcile.NewReconciler(store.Bills(), logger), logger), store.Bills()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func userCtx() context.Context {
	return common.WithUserID(context.Background(), "user-1")
}

func TestImportDirectory(t *testing.T) {
	ex := &lineExtractor{}
	im, bills := newImporter(t, ex)

	dir := t.TempDir()
	writeFile(t, dir, "june.txt", "Rent 2025-06-01\nNetflix 2025-06-05\n")
	writeFile(t, dir, "nested/gym.md", "Gym 2025-06-10\n")
	writeFile(t, dir, "copy.txt", "Rent 2025-06-01\nNetflix 2025-06-05\n")
	writeFile(t, dir, "photo.png", "not text")
	writeFile(t, dir, ".hidden/secret.txt", "Secret 2025-06-11\n")
	writeFile(t, dir, "empty.txt", "nothing to see")

	results, stats, err := im.ImportDirectory(userCtx(), dir, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), stats.Scanned)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(4), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)
	assert.Len(t, results, 4)
	assert.Equal(t, 3, ex.Calls())

	got, err := bills.List(context.Background(), "user-1", entity.BillFilter{})
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, b := range got {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"Rent", "Netflix", "Gym"}, names)

	for _, r := range results {
		if strings.HasSuffix(r.Path, "empty.txt") {
			assert.Nil(t, r.Report)
			assert.Zero(t, r.Candidates)
		}
	}
}

func TestImportDirectory_Failures(t *testing.T) {
	im, _ := newImporter(t, &lineExtractor{err: errors.New("Invalid JSON response from AI")})

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Rent 2025-06-01\n")

	results, stats, err := im.ImportDirectory(userCtx(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Failed)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Err, "Invalid JSON")

	// nothing was marked as imported, so a retry extracts again
	ex := &lineExtractor{}
	im.extractor = ex
	_, stats, err = im.ImportDirectory(userCtx(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
	assert.Zero(t, stats.Deduplicated)
	assert.Equal(t, 1, ex.Calls())
}

func TestImportPath_Preconditions(t *testing.T) {
	im, _ := newImporter(t, &lineExtractor{})
	dir := t.TempDir()
	txt := writeFile(t, dir, "a.txt", "Rent 2025-06-01\n")
	png := writeFile(t, dir, "a.png", "x")

	_, err := im.ImportPath(context.Background(), txt)
	var authErr *common.AuthRequiredError
	assert.ErrorAs(t, err, &authErr)

	_, err = im.ImportPath(userCtx(), png)
	assert.ErrorContains(t, err, "unsupported")

	_, err = im.ImportPath(userCtx(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, _, err = im.ImportDirectory(userCtx(), " ", true)
	assert.Error(t, err)
}

func TestWithExtensions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	im := NewImporter(&lineExtractor{}, nil, logger, WithExtensions(".CSV", " log "))

	assert.True(t, im.Allowed("statement.csv"))
	assert.True(t, im.Allowed("bank.LOG"))
	assert.False(t, im.Allowed("notes.txt"))
	assert.False(t, im.Allowed("README"))
}

func TestWatch_ImportsNewFiles(t *testing.T) {
	ex := &lineExtractor{}
	im, bills := newImporter(t, ex)
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "Rent 2025-06-01\n")

	ctx, cancel := context.WithTimeout(userCtx(), 10*time.Second)
	defer cancel()

	results := make(chan FileResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- im.Watch(ctx, WatchConfig{
			Roots:       []string{dir},
			InitialScan: true,
			Debounce:    20 * time.Millisecond,
		}, func(r FileResult) { results <- r })
	}()

	first := <-results
	assert.Empty(t, first.Err)
	assert.True(t, strings.HasSuffix(first.Path, "existing.txt"))

	writeFile(t, dir, "dropped.txt", "Gym 2025-06-10\n")
	select {
	case r := <-results:
		assert.Empty(t, r.Err)
		assert.True(t, strings.HasSuffix(r.Path, "dropped.txt"))
	case <-ctx.Done():
		t.Fatal("watcher did not report the new file")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	got, err := bills.List(context.Background(), "user-1", entity.BillFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStartWatcher_NoRoots(t *testing.T) {
	im, _ := newImporter(t, &lineExtractor{})
	_, _, err := im.StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
