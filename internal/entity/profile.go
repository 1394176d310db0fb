package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notifications holds the user's notification preferences.
type Notifications struct {
	DueSoon          bool `json:"dueSoon"`
	PaidConfirmation bool `json:"paidConfirmation"`
	SavingsTips      bool `json:"savingsTips"`
}

// Profile holds a user's budgeting settings.
type Profile struct {
	UserID        string          `json:"userId"`
	Income        decimal.Decimal `json:"income"`
	SavingsGoal   decimal.Decimal `json:"savingsGoal"`
	Currency      string          `json:"currency"`
	Notifications Notifications   `json:"notifications"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DefaultProfile is what a user sees before saving any settings.
func DefaultProfile(userID string) *Profile {
	return &Profile{
		UserID:      userID,
		Income:      decimal.NewFromInt(25000),
		SavingsGoal: decimal.NewFromInt(2500),
		Currency:    "ZAR",
		Notifications: Notifications{
			DueSoon:          true,
			PaidConfirmation: true,
			SavingsTips:      false,
		},
	}
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	Income        *decimal.Decimal `json:"income,omitempty"`
	SavingsGoal   *decimal.Decimal `json:"savingsGoal,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	Notifications *Notifications   `json:"notifications,omitempty"`
}

func (u ProfileUpdate) Apply(p *Profile) {
	if u.Income != nil {
		p.Income = *u.Income
	}
	if u.SavingsGoal != nil {
		p.SavingsGoal = *u.SavingsGoal
	}
	if u.Currency != nil {
		p.Currency = *u.Currency
	}
	if u.Notifications != nil {
		p.Notifications = *u.Notifications
	}
}
