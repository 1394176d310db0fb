package reports

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

// ProfileGetter returns a user's profile (or defaults).
type ProfileGetter interface {
	Get(ctx context.Context, userID string) (*entity.Profile, error)
}

// Service computes dashboard, report and calendar views over a user's bills.
type Service struct {
	billRepo repository.BillRepository
	profiles ProfileGetter
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(billRepo repository.BillRepository, profiles ProfileGetter, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{billRepo: billRepo, profiles: profiles, now: time.Now, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

var hundred = decimal.NewFromInt(100)

// Overview summarizes upcoming and paid bills against the user's income and savings goal.
// A bill is upcoming when it is unpaid and due today or later. Leftover funds count every
// unpaid bill, overdue ones included, and set the savings goal aside.
func (s *Service) Overview(ctx context.Context, userID string) (*entity.Overview, error) {
	list, err := s.billRepo.List(ctx, userID, entity.BillFilter{})
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ov := &entity.Overview{
		UpcomingBills: []*entity.Bill{},
		TotalUpcoming: decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalUnpaid:   decimal.Zero,
		Income:        profile.Income,
		SavingsGoal:   profile.SavingsGoal,
		Currency:      profile.Currency,
	}
	for _, b := range list {
		switch {
		case b.IsPaid:
			ov.TotalPaid = ov.TotalPaid.Add(b.Amount)
			continue
		case !b.DueDate.Before(today):
			ov.UpcomingBills = append(ov.UpcomingBills, b)
			ov.TotalUpcoming = ov.TotalUpcoming.Add(b.Amount)
		}
		ov.TotalUnpaid = ov.TotalUnpaid.Add(b.Amount)
	}
	sort.SliceStable(ov.UpcomingBills, func(i, j int) bool {
		return ov.UpcomingBills[i].DueDate.Before(ov.UpcomingBills[j].DueDate)
	})
	if len(ov.UpcomingBills) > 0 {
		ov.NextDue = ov.UpcomingBills[0]
	}

	ov.FundsAfterBills = profile.Income.Sub(ov.TotalUpcoming)
	ov.LeftoverFunds = profile.Income.Sub(ov.TotalUnpaid).Sub(profile.SavingsGoal)
	ov.SavingsProgress = decimal.Zero
	if profile.Income.IsPositive() {
		pct := ov.FundsAfterBills.Div(profile.Income).Mul(hundred)
		ov.SavingsProgress = clamp(pct, decimal.Zero, hundred).Round(2)
	}
	return ov, nil
}

// Monthly returns paid totals for each month of year, January first.
func (s *Service) Monthly(ctx context.Context, userID string, year int) ([]entity.MonthlyTotal, error) {
	if year == 0 {
		year = s.now().Year()
	}
	paid := true
	list, err := s.billRepo.List(ctx, userID, entity.BillFilter{
		IsPaid: &paid,
		From:   time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return nil, err
	}

	out := make([]entity.MonthlyTotal, 12)
	for i := range out {
		m := time.Month(i + 1)
		out[i] = entity.MonthlyTotal{Month: int(m), Label: m.String()[:3], Total: decimal.Zero}
	}
	for _, b := range list {
		idx := int(b.DueDate.Month()) - 1
		out[idx].Total = out[idx].Total.Add(b.Amount)
		out[idx].Count++
	}
	return out, nil
}

// Categories returns paid totals per category, largest first.
func (s *Service) Categories(ctx context.Context, userID string) ([]entity.CategoryTotal, error) {
	paid := true
	list, err := s.billRepo.List(ctx, userID, entity.BillFilter{IsPaid: &paid})
	if err != nil {
		return nil, err
	}

	byCat := make(map[string]*entity.CategoryTotal)
	for _, b := range list {
		ct, ok := byCat[b.Category]
		if !ok {
			ct = &entity.CategoryTotal{Category: b.Category, Total: decimal.Zero}
			byCat[b.Category] = ct
		}
		ct.Total = ct.Total.Add(b.Amount)
		ct.Count++
	}

	out := make([]entity.CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// Calendar groups the bills due in month (any day within it) by due date.
func (s *Service) Calendar(ctx context.Context, userID string, month time.Time) ([]entity.CalendarDay, error) {
	if month.IsZero() {
		month = s.now()
	}
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	list, err := s.billRepo.List(ctx, userID, entity.BillFilter{From: from, To: from.AddDate(0, 1, 0)})
	if err != nil {
		return nil, err
	}

	days := make([]entity.CalendarDay, 0)
	index := make(map[string]int)
	for _, b := range list {
		key := b.DueDate.Format(constants.DateLayout)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, entity.CalendarDay{Date: key, Total: decimal.Zero})
		}
		days[i].Bills = append(days[i].Bills, b)
		days[i].Total = days[i].Total.Add(b.Amount)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
