package reports

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

type staticProfile struct {
	income, goal string
}

func (p staticProfile) Get(_ context.Context, userID string) (*entity.Profile, error) {
	prof := entity.DefaultProfile(userID)
	prof.Income = decimal.RequireFromString(p.income)
	prof.SavingsGoal = decimal.RequireFromString(p.goal)
	return prof, nil
}

type seed struct {
	name     string
	amount   string
	due      time.Time
	category string
	paid     bool
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, profile staticProfile, bills ...seed) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemoryStore(logger).Bills()
	for _, b := range bills {
		_, err := repo.Create(context.Background(), "user-1", entity.BillInput{
			Name:      b.name,
			Amount:    decimal.RequireFromString(b.amount),
			DueDate:   b.due,
			Category:  b.category,
			IsPaid:    b.paid,
			Frequency: "monthly",
		})
		require.NoError(t, err)
	}
	clock := func() time.Time { return time.Date(2025, 6, 12, 15, 30, 0, 0, time.UTC) }
	return NewService(repo, profile, logger, WithClock(clock))
}

func TestService_Overview(t *testing.T) {
	svc := newTestService(t, staticProfile{income: "20000", goal: "2500"},
		seed{name: "Rent", amount: "8500", due: day(2025, 6, 1), category: "Housing", paid: true},
		seed{name: "Overdue", amount: "300", due: day(2025, 6, 10), category: "Utilities"},
		seed{name: "Gym", amount: "450", due: day(2025, 6, 20), category: "Subscriptions"},
		seed{name: "Netflix", amount: "199", due: day(2025, 6, 12), category: "Subscriptions"},
		seed{name: "Insurance", amount: "1000", due: day(2025, 7, 1), category: "Insurance"},
	)

	ov, err := svc.Overview(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, ov.UpcomingBills, 3)
	assert.Equal(t, "Netflix", ov.UpcomingBills[0].Name, "due today counts as upcoming")
	assert.Equal(t, "Netflix", ov.NextDue.Name)
	assert.Equal(t, "1649", ov.TotalUpcoming.String())
	assert.Equal(t, "8500", ov.TotalPaid.String())
	assert.Equal(t, "18351", ov.FundsAfterBills.String())
	assert.Equal(t, "91.76", ov.SavingsProgress.StringFixed(2))
	assert.Equal(t, "1949", ov.TotalUnpaid.String(), "overdue bills still count as unpaid")
	assert.Equal(t, "15551", ov.LeftoverFunds.String())
	assert.Equal(t, "ZAR", ov.Currency)
}

func TestService_OverviewClampsProgress(t *testing.T) {
	tests := []struct {
		name   string
		income string
		want   string
	}{
		{name: "bills exceed income", income: "1000", want: "0"},
		{name: "no income", income: "0", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, staticProfile{income: tt.income, goal: "0"},
				seed{name: "Rent", amount: "8500", due: day(2025, 6, 30), category: "Housing"},
			)
			ov, err := svc.Overview(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ov.SavingsProgress.String())
		})
	}
}

func TestService_OverviewLeftoverFundsGoesNegative(t *testing.T) {
	svc := newTestService(t, staticProfile{income: "10000", goal: "2500"},
		seed{name: "Rent", amount: "8500", due: day(2025, 6, 30), category: "Housing"},
		seed{name: "Paid", amount: "5000", due: day(2025, 6, 1), category: "Other", paid: true},
	)
	ov, err := svc.Overview(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "-1000", ov.LeftoverFunds.String())
}

func TestService_OverviewEmpty(t *testing.T) {
	svc := newTestService(t, staticProfile{income: "25000", goal: "2500"})
	ov, err := svc.Overview(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, ov.UpcomingBills)
	assert.Nil(t, ov.NextDue)
	assert.Equal(t, "100", ov.SavingsProgress.String())
	assert.Equal(t, "22500", ov.LeftoverFunds.String())
}

func TestService_Monthly(t *testing.T) {
	svc := newTestService(t, staticProfile{income: "0", goal: "0"},
		seed{name: "Jan Rent", amount: "8500", due: day(2025, 1, 1), category: "Housing", paid: true},
		seed{name: "Jan Gym", amount: "450", due: day(2025, 1, 20), category: "Subscriptions", paid: true},
		seed{name: "Jun Rent", amount: "8500", due: day(2025, 6, 1), category: "Housing", paid: true},
		seed{name: "Unpaid", amount: "100", due: day(2025, 6, 2), category: "Other"},
		seed{name: "Last year", amount: "999", due: day(2024, 12, 31), category: "Other", paid: true},
	)

	months, err := svc.Monthly(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, "Jan", months[0].Label)
	assert.Equal(t, "8950", months[0].Total.String())
	assert.Equal(t, 2, months[0].Count)
	assert.Equal(t, "8500", months[5].Total.String())
	assert.Equal(t, 1, months[5].Count)
	assert.True(t, months[11].Total.IsZero())

	prev, err := svc.Monthly(context.Background(), "user-1", 2024)
	require.NoError(t, err)
	assert.Equal(t, "999", prev[11].Total.String())
}

func TestService_Categories(t *testing.T) {
	svc := newTestService(t, staticProfile{income: "0", goal: "0"},
		seed{name: "Netflix", amount: "199", due: day(2025, 6, 5), category: "Subscriptions", paid: true},
		seed{name: "Gym", amount: "450", due: day(2025, 6, 10), category: "Subscriptions", paid: true},
		seed{name: "Rent", amount: "8500", due: day(2025, 6, 1), category: "Housing", paid: true},
		seed{name: "Water", amount: "300", due: day(2025, 6, 3), category: "Utilities"},
	)

	cats, err := svc.Categories(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Housing", cats[0].Category)
	assert.Equal(t, "Subscriptions", cats[1].Category)
	assert.Equal(t, "649", cats[1].Total.String())
	assert.Equal(t, 2, cats[1].Count)
}

func TestService_Calendar(t *testing.T) {
	svc := newTestService(t, staticProfile{income: "0", goal: "0"},
		seed{name: "Netflix", amount: "199", due: day(2025, 6, 5), category: "Subscriptions"},
		seed{name: "Spotify", amount: "60", due: day(2025, 6, 5), category: "Subscriptions", paid: true},
		seed{name: "Rent", amount: "8500", due: day(2025, 6, 1), category: "Housing"},
		seed{name: "July", amount: "1", due: day(2025, 7, 1), category: "Other"},
	)

	days, err := svc.Calendar(context.Background(), "user-1", day(2025, 6, 17))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-06-01", days[0].Date)
	assert.Equal(t, "2025-06-05", days[1].Date)
	assert.Len(t, days[1].Bills, 2)
	assert.Equal(t, "259", days[1].Total.String())

	current, err := svc.Calendar(context.Background(), "user-1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, current, 2)
}
