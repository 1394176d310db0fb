package entity

import (
	"github.com/shopspring/decimal"
)

// ImportFailure describes one candidate that could not be committed.
type ImportFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportReport is the outcome of committing a reconciliation session.
type ImportReport struct {
	SuccessCount int             `json:"successCount"`
	ErrorCount   int             `json:"errorCount"`
	Created      []*Bill         `json:"created"`
	Failures     []ImportFailure `json:"failures,omitempty"`
}

// Overview is the dashboard summary.
type Overview struct {
	UpcomingBills   []*Bill         `json:"upcomingBills"`
	NextDue         *Bill           `json:"nextDue,omitempty"`
	TotalUpcoming   decimal.Decimal `json:"totalUpcoming"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	TotalUnpaid     decimal.Decimal `json:"totalUnpaid"` // includes overdue bills
	Income          decimal.Decimal `json:"income"`
	FundsAfterBills decimal.Decimal `json:"fundsAfterBills"`
	SavingsGoal     decimal.Decimal `json:"savingsGoal"`
	SavingsProgress decimal.Decimal `json:"savingsProgress"` // percent, 0..100
	LeftoverFunds   decimal.Decimal `json:"leftoverFunds"`   // income - unpaid - savings goal, may be negative
	Currency        string          `json:"currency"`
}

// MonthlyTotal is the paid spend for one calendar month.
type MonthlyTotal struct {
	Month int             `json:"month"` // 1..12
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// CategoryTotal is the paid spend for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CalendarDay groups the bills due on one date.
type CalendarDay struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Bills []*Bill         `json:"bills"`
	Total decimal.Decimal `json:"total"`
}
