package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/events"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

// BillCreator is the persistence collaborator used during commit.
type BillCreator interface {
	Create(ctx context.Context, userID string, in entity.BillInput) (*entity.Bill, error)
}

// ProgressFunc is called after each candidate is processed. err is nil on success.
type ProgressFunc func(done, total int, candidate llm.ParsedBill, err error)

// Reconciler commits the selected candidates of a Session.
type Reconciler struct {
	store       BillCreator
	publisher   events.Publisher
	logger      *slog.Logger
	itemTimeout time.Duration
}

type Option func(*Reconciler)

// WithPublisher emits a bills.imported event after every commit.
func WithPublisher(p events.Publisher) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithItemTimeout bounds each persistence call.
func WithItemTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.itemTimeout = d
		}
	}
}

func NewReconciler(store BillCreator, logger *slog.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{
		store:       store,
		publisher:   events.Noop{},
		logger:      logger,
		itemTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Commit persists the selected candidates of s for the user in ctx, one at a time in
// presentation order. It fails without changing state when no user is authenticated
// (*common.AuthRequiredError) or nothing is selected (*common.NoSelectionError). Once started
// it runs to completion even if ctx is cancelled; per-item failures are counted, not returned.
func (r *Reconciler) Commit(ctx context.Context, s *Session, progress ProgressFunc) (*entity.ImportReport, error) {
	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		return nil, &common.AuthRequiredError{}
	}
	if s.UserID != "" && s.UserID != userID {
		return nil, common.ErrNotFound
	}

	selected, err := s.beginCommit()
	if err != nil {
		return nil, err
	}

	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	r.logger.Info("reconcile.commit.start", "req_id", rid, "session_id", s.ID, "user_id", userID, "selected", len(selected))

	detached := context.WithoutCancel(ctx)
	report := &entity.ImportReport{Created: make([]*entity.Bill, 0, len(selected))}

	for i, c := range selected {
		bill, err := r.commitOne(detached, userID, c)
		if err != nil {
			report.ErrorCount++
			report.Failures = append(report.Failures, entity.ImportFailure{Index: c.Index, Name: c.Name, Error: err.Error()})
			r.logger.Warn("reconcile.commit.item_failed", "req_id", rid, "session_id", s.ID, "index", c.Index, "name", c.Name, "error", err)
		} else {
			report.SuccessCount++
			report.Created = append(report.Created, bill)
		}
		if progress != nil {
			progress(i+1, len(selected), c, err)
		}
	}

	s.finishCommit(report)

	r.logger.Info("reconcile.commit.done",
		"req_id", rid,
		"session_id", s.ID,
		"success", report.SuccessCount,
		"errors", report.ErrorCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	r.publish(detached, userID, s.ID, report)
	return report, nil
}

func (r *Reconciler) commitOne(ctx context.Context, userID string, c llm.ParsedBill) (*entity.Bill, error) {
	due, err := time.Parse(constants.DateLayout, c.DueDate)
	if err != nil {
		return nil, &common.PersistenceError{Index: c.Index, Name: c.Name, Cause: fmt.Errorf("invalid due date %q: %w", c.DueDate, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.itemTimeout)
	defer cancel()

	bill, err := r.store.Create(ctx, userID, entity.BillInput{
		Name:      c.Name,
		Amount:    decimal.NewFromFloat(c.Amount),
		DueDate:   due,
		Category:  c.Category,
		IsPaid:    false,
		Frequency: c.Frequency,
	})
	if err != nil {
		return nil, &common.PersistenceError{Index: c.Index, Name: c.Name, Cause: err}
	}
	return bill, nil
}

type importedPayload struct {
	SessionID    string   `json:"sessionId"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	BillIDs      []string `json:"billIds"`
}

func (r *Reconciler) publish(ctx context.Context, userID, sessionID string, report *entity.ImportReport) {
	ids := make([]string, 0, len(report.Created))
	for _, b := range report.Created {
		ids = append(ids, b.ID.String())
	}
	e, err := events.New(events.TypeBillsImported, userID, importedPayload{
		SessionID:    sessionID,
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
		BillIDs:      ids,
	})
	if err != nil {
		r.logger.Error("reconcile.event.encode_failed", "session_id", sessionID, "error", err)
		return
	}
	if err := r.publisher.Publish(ctx, e); err != nil {
		r.logger.Warn("reconcile.event.publish_failed", "session_id", sessionID, "error", err)
	}
}
