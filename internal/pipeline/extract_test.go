package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

type stubCompleter struct {
	content string
	err     error
	calls   int
	users   []string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	s.calls++
	s.users = append(s.users, req.User)
	return s.content, s.err
}

func newStage(t *testing.T, c llm.Completer, maxChars int) *ExtractStage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC) }
	requester := llm.NewRequester(c, llm.RequesterConfig{}, logger, llm.WithClock(clock))
	validator, err := llm.NewValidator(nil, common.PolicyDrop, logger)
	require.NoError(t, err)
	return NewExtractStage(logger, Config{MaxInputChars: maxChars}, requester, validator)
}

func TestExtractBills_SingleBill(t *testing.T) {
	sc := &stubCompleter{content: `{"bills":[{"name":"Netflix","amount":199,"dueDate":"2025-06-05","category":"Subscriptions","frequency":"monthly"}]}`}
	stage := newStage(t, sc, 0)

	bills, err := stage.ExtractBills(context.Background(), "Netflix 199 on the 5th")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, llm.ParsedBill{Index: 0, Name: "Netflix", Amount: 199, DueDate: "2025-06-05", Category: "Subscriptions", Frequency: "monthly"}, bills[0])
	assert.Equal(t, []string{"Netflix 199 on the 5th"}, sc.users)
}

func TestExtractBills_InvalidInputMakesNoCall(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "blank", text: "   \n  "},
		{name: "too long", text: "0123456789abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &stubCompleter{content: `{"bills":[]}`}
			stage := newStage(t, sc, 10)

			_, err := stage.ExtractBills(context.Background(), tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Zero(t, sc.calls)
		})
	}
}

func TestExtractBills_NoBillsFound(t *testing.T) {
	stage := newStage(t, &stubCompleter{content: `{"bills":[]}`}, 0)
	bills, err := stage.ExtractBills(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestExtractBills_Failures(t *testing.T) {
	tests := []struct {
		name string
		c    *stubCompleter
	}{
		{name: "upstream", c: &stubCompleter{err: &common.UpstreamError{Status: 500, Body: "boom"}}},
		{name: "empty content", c: &stubCompleter{content: ""}},
		{name: "prose instead of json", c: &stubCompleter{content: "I found two bills: rent and netflix"}},
		{name: "wrong shape", c: &stubCompleter{content: `{"result":[]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := newStage(t, tt.c, 0)
			_, err := stage.ExtractBills(context.Background(), "Rent 8500")
			require.Error(t, err)
			assert.True(t, common.IsExtractionFailure(err))
			assert.Equal(t, 1, tt.c.calls)
		})
	}
}
