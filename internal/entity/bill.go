package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is a persisted bill owned by one user.
type Bill struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"dueDate"`
	Category  string          `json:"category"`
	IsPaid    bool            `json:"isPaid"`
	Frequency string          `json:"frequency"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BillInput carries the fields needed to create a bill.
type BillInput struct {
	Name      string
	Amount    decimal.Decimal
	DueDate   time.Time
	Category  string
	IsPaid    bool
	Frequency string
}

// BillUpdate is a partial update; nil fields are left untouched.
type BillUpdate struct {
	Name      *string
	Amount    *decimal.Decimal
	DueDate   *time.Time
	Category  *string
	IsPaid    *bool
	Frequency *string
}

// Empty reports whether the update changes nothing.
func (u BillUpdate) Empty() bool {
	return u.Name == nil && u.Amount == nil && u.DueDate == nil &&
		u.Category == nil && u.IsPaid == nil && u.Frequency == nil
}

// Apply copies the set fields onto b.
func (u BillUpdate) Apply(b *Bill) {
	if u.Name != nil {
		b.Name = *u.Name
	}
	if u.Amount != nil {
		b.Amount = *u.Amount
	}
	if u.DueDate != nil {
		b.DueDate = *u.DueDate
	}
	if u.Category != nil {
		b.Category = *u.Category
	}
	if u.IsPaid != nil {
		b.IsPaid = *u.IsPaid
	}
	if u.Frequency != nil {
		b.Frequency = *u.Frequency
	}
}

// BillFilter narrows a bill listing. Zero values match everything.
type BillFilter struct {
	IsPaid   *bool
	Category string
	From     time.Time // inclusive
	To       time.Time // exclusive
}

// Matches reports whether b passes the filter.
func (f BillFilter) Matches(b *Bill) bool {
	if f.IsPaid != nil && b.IsPaid != *f.IsPaid {
		return false
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && b.DueDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !b.DueDate.Before(f.To) {
		return false
	}
	return true
}
