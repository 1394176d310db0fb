package profiles

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

func newTestService() *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repository.NewMemoryStore(logger).Profiles(), logger)
}

func TestService_GetDefaults(t *testing.T) {
	svc := newTestService()

	p, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultProfile("user-1"), p)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestService_UpdateMergesOntoDefaults(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	income := decimal.RequireFromString("30000")
	currency := " usd "
	p, err := svc.Update(ctx, "user-1", entity.ProfileUpdate{Income: &income, Currency: &currency})
	require.NoError(t, err)
	assert.True(t, income.Equal(p.Income))
	assert.Equal(t, "USD", p.Currency)
	assert.True(t, decimal.NewFromInt(2500).Equal(p.SavingsGoal))

	got, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.Notifications.DueSoon)
}

func TestService_UpdateValidation(t *testing.T) {
	negative := decimal.NewFromInt(-1)
	badCurrency := "rands"
	tests := []struct {
		name  string
		in    entity.ProfileUpdate
		field string
	}{
		{name: "negative income", in: entity.ProfileUpdate{Income: &negative}, field: "income"},
		{name: "negative savings goal", in: entity.ProfileUpdate{SavingsGoal: &negative}, field: "savingsGoal"},
		{name: "bad currency", in: entity.ProfileUpdate{Currency: &badCurrency}, field: "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService().Update(context.Background(), "user-1", tt.in)
			var verrs common.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}
