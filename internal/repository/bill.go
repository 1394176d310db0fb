package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

// BillRepository stores bills per user. Every method is scoped to userID; a bill owned by
// another user is reported as common.ErrNotFound.
type BillRepository interface {
	Create(ctx context.Context, userID string, in entity.BillInput) (*entity.Bill, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*entity.Bill, error)
	List(ctx context.Context, userID string, filter entity.BillFilter) ([]*entity.Bill, error)
	Update(ctx context.Context, userID string, id uuid.UUID, update entity.BillUpdate) (*entity.Bill, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// Store bundles the repositories of one backend.
type Store interface {
	Bills() BillRepository
	Profiles() ProfileRepository
	Ping(ctx context.Context) error
	Close() error
}

func newBill(userID string, in entity.BillInput, now time.Time) *entity.Bill {
	return &entity.Bill{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Amount:    in.Amount,
		DueDate:   dateOnly(in.DueDate),
		Category:  in.Category,
		IsPaid:    in.IsPaid,
		Frequency: in.Frequency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
