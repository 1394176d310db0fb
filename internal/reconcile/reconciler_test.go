package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/events"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

type fakeCreator struct {
	mu      sync.Mutex
	failOn  string
	created []entity.BillInput
	ctxErrs []error
}

func (f *fakeCreator) Create(ctx context.Context, userID string, in entity.BillInput) (*entity.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if in.Name == f.failOn {
		return nil, errors.New("insert failed")
	}
	f.created = append(f.created, in)
	return &entity.Bill{ID: uuid.New(), UserID: userID, Name: in.Name, Amount: in.Amount, DueDate: in.DueDate}, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userCtx() context.Context {
	return common.WithUserID(context.Background(), "user-1")
}

func TestReconciler_CommitAll(t *testing.T) {
	store := &fakeCreator{}
	pub := &recordingPublisher{}
	r := NewReconciler(store, discardLogger(), WithPublisher(pub))
	s := presented(t)

	var progress []int
	report, err := r.Commit(userCtx(), s, func(done, total int, _ llm.ParsedBill, err error) {
		assert.NoError(t, err)
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.SuccessCount)
	assert.Zero(t, report.ErrorCount)
	assert.Len(t, report.Created, 3)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, constants.ImportCompleted, s.State())

	require.Len(t, store.created, 3)
	assert.Equal(t, "Rent", store.created[0].Name)
	assert.Equal(t, "8500", store.created[0].Amount.String())
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), store.created[0].DueDate)
	assert.False(t, store.created[0].IsPaid)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeBillsImported, pub.events[0].Type)
	var payload importedPayload
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &payload))
	assert.Equal(t, "s1", payload.SessionID)
	assert.Equal(t, 3, payload.SuccessCount)
	assert.Len(t, payload.BillIDs, 3)
}

func TestReconciler_CommitOnlySelected(t *testing.T) {
	store := &fakeCreator{}
	r := NewReconciler(store, discardLogger())
	s := presented(t)
	require.NoError(t, s.SetSelected(1, false))

	report, err := r.Commit(userCtx(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SuccessCount)
	require.Len(t, store.created, 2)
	assert.Equal(t, "Rent", store.created[0].Name)
	assert.Equal(t, "Gym", store.created[1].Name)
}

func TestReconciler_PartialFailure(t *testing.T) {
	store := &fakeCreator{failOn: "Netflix"}
	r := NewReconciler(store, discardLogger())
	s := presented(t)

	report, err := r.Commit(userCtx(), s, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Index)
	assert.Equal(t, "Netflix", report.Failures[0].Name)
	assert.Contains(t, report.Failures[0].Error, "insert failed")

	require.Len(t, store.created, 2)
	assert.Equal(t, "Gym", store.created[1].Name, "later items still run after a failure")
	assert.Equal(t, constants.ImportCompletedWithErrors, s.State())
	assert.Equal(t, report, s.View().Report)
}

func TestReconciler_Preconditions(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		store := &fakeCreator{}
		s := presented(t)
		_, err := NewReconciler(store, discardLogger()).Commit(context.Background(), s, nil)

		var auth *common.AuthRequiredError
		require.ErrorAs(t, err, &auth)
		assert.Equal(t, "You must be logged in to import bills", err.Error())
		assert.Equal(t, constants.ImportAwaitingSelection, s.State())
		assert.Empty(t, store.created)
	})

	t.Run("nothing selected", func(t *testing.T) {
		store := &fakeCreator{}
		s := presented(t)
		require.NoError(t, s.SetAll(false))
		_, err := NewReconciler(store, discardLogger()).Commit(userCtx(), s, nil)

		var none *common.NoSelectionError
		require.ErrorAs(t, err, &none)
		assert.Equal(t, constants.ImportAwaitingSelection, s.State())
		assert.Empty(t, store.created)
	})

	t.Run("other user's session", func(t *testing.T) {
		s := presented(t)
		ctx := common.WithUserID(context.Background(), "user-2")
		_, err := NewReconciler(&fakeCreator{}, discardLogger()).Commit(ctx, s, nil)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("idle session", func(t *testing.T) {
		s := NewSession("s1", "user-1", time.Now())
		_, err := NewReconciler(&fakeCreator{}, discardLogger()).Commit(userCtx(), s, nil)
		assert.ErrorIs(t, err, ErrNotAwaitingSelection)
	})
}

func TestReconciler_CommitIgnoresCancellation(t *testing.T) {
	store := &fakeCreator{}
	r := NewReconciler(store, discardLogger())
	s := presented(t)

	ctx, cancel := context.WithCancel(userCtx())
	cancel()

	report, err := r.Commit(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.SuccessCount)
	for _, e := range store.ctxErrs {
		assert.NoError(t, e)
	}
}

func TestReconciler_InvalidDueDateIsItemFailure(t *testing.T) {
	store := &fakeCreator{}
	r := NewReconciler(store, discardLogger())
	s := NewSession("s1", "user-1", time.Now())
	_, err := s.Present([]llm.ParsedBill{
		{Name: "Water", Amount: 300, DueDate: "soon", Category: "Utilities", Frequency: "monthly"},
		{Name: "Rent", Amount: 8500, DueDate: "2025-06-01", Category: "Housing", Frequency: "monthly"},
	})
	require.NoError(t, err)

	report, err := r.Commit(userCtx(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, "Water", report.Failures[0].Name)
}
