package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

const (
	DefaultTemperature float32 = 0.1
	DefaultMaxTokens           = 1024
	DefaultTimeout             = 45 * time.Second
)

// RequesterConfig controls how completion calls are shaped.
type RequesterConfig struct {
	Categories  []string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Requester builds the extraction prompt and performs exactly one completion call.
type Requester struct {
	completer Completer
	cfg       RequesterConfig
	now       func() time.Time
	logger    *slog.Logger
}

type RequesterOption func(*Requester)

// WithClock overrides the clock used for the fallback due date.
func WithClock(now func() time.Time) RequesterOption {
	return func(r *Requester) { r.now = now }
}

func NewRequester(completer Completer, cfg RequesterConfig, logger *slog.Logger, opts ...RequesterOption) *Requester {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	r := &Requester{completer: completer, cfg: cfg, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildRequest constructs the completion request for text. It is deterministic for a fixed clock.
func (r *Requester) BuildRequest(text string) CompletionRequest {
	return CompletionRequest{
		System: BuildSystemPrompt(PromptParams{
			Categories:      r.cfg.Categories,
			FallbackDueDate: LastDayOfMonth(r.now()),
		}),
		User:        BuildUserPrompt(text),
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
		JSONMode:    true,
	}
}

// Request sends text to the completion service and returns its raw content. Failures are not
// retried.
func (r *Requester) Request(ctx context.Context, text string) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	req := r.BuildRequest(text)
	r.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", r.completer.Name(),
		"prompt_version", PromptVersion,
		"temp", req.Temperature,
		"max_tokens", req.MaxTokens,
		"text_len", len(text),
	)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	content, err := r.completer.Complete(ctx, req)
	if err != nil {
		r.logger.Error("llm.extract.error",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}
	if content == "" {
		r.logger.Error("llm.extract.empty", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", &common.EmptyResponseError{}
	}

	r.logger.Info("llm.extract.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
