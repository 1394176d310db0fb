package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

// Config holds limits for the extraction stage.
type Config struct {
	MaxInputChars int // default 20000
}

// ExtractStage runs normalize → request → validate for one paste.
type ExtractStage struct {
	Logger    *slog.Logger
	Cfg       Config
	Requester *llm.Requester
	Validator *llm.Validator
}

func NewExtractStage(logger *slog.Logger, cfg Config, requester *llm.Requester, validator *llm.Validator) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = llm.DefaultMaxInputChars
	}
	return &ExtractStage{
		Logger:    logger,
		Cfg:       cfg,
		Requester: requester,
		Validator: validator,
	}
}

// ExtractBills implements llm.BillExtractor. Blank input is rejected before any network call.
func (s *ExtractStage) ExtractBills(ctx context.Context, text string) ([]llm.ParsedBill, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	normalized, err := llm.NormalizeInput(text, s.Cfg.MaxInputChars)
	if err != nil {
		s.Logger.Warn("pipeline.extract.invalid_input", "req_id", rid, "error", err)
		return nil, err
	}

	raw, err := s.Requester.Request(ctx, normalized)
	if err != nil {
		return nil, err
	}

	bills, err := s.Validator.ParseBills(raw)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("pipeline.extract.done",
		"req_id", rid,
		"candidates", len(bills),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return bills, nil
}
