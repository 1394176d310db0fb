// Package app wires configuration into the services shared by billsd and billctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bills-tracker/internal/async"
	"github.com/joseph-ayodele/bills-tracker/internal/bills"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/events"
	"github.com/joseph-ayodele/bills-tracker/internal/export"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
	"github.com/joseph-ayodele/bills-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/bills-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/bills-tracker/internal/pipeline"
	"github.com/joseph-ayodele/bills-tracker/internal/profiles"
	"github.com/joseph-ayodele/bills-tracker/internal/reconcile"
	"github.com/joseph-ayodele/bills-tracker/internal/reports"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

// App holds the constructed services. Close releases the store and the event publisher.
type App struct {
	Config     *common.Config
	Logger     *slog.Logger
	Store      repository.Store
	Publisher  events.Publisher
	Extractor  *pipeline.ExtractStage
	Bills      *bills.Service
	Profiles   *profiles.Service
	Reports    *reports.Service
	Export     *export.Service
	Reconciler *reconcile.Reconciler
	Sessions   *reconcile.SessionStore
}

// NewCompleter returns the completion client selected by cfg.Provider.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case common.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case common.ProviderOpenAI, "":
		return openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewExtractor builds normalize → request → validate on top of completer.
func NewExtractor(completer llm.Completer, cfg *common.Config, logger *slog.Logger) (*pipeline.ExtractStage, error) {
	categories := cfg.Import.Categories
	requester := llm.NewRequester(completer, llm.RequesterConfig{
		Categories:  categories,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	validator, err := llm.NewValidator(categories, cfg.Import.Policy, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewExtractStage(logger, pipeline.Config{MaxInputChars: cfg.Import.MaxInputChars}, requester, validator), nil
}

// NewPublisher connects to AMQP when configured and fronts it with a publish queue.
// Without AMQP_URL events are discarded.
func NewPublisher(cfg common.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.Noop{}, nil
	}
	amqp, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, logger)
	if err != nil {
		return nil, err
	}
	return async.NewPublishQueue(amqp, logger,
		async.WithWorkers(cfg.Concurrency),
		async.WithQueueSize(cfg.QueueSize),
		async.WithPublishTimeout(10*time.Second),
	), nil
}

// New opens the store and builds every service.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	completer, err := NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	extractor, err := NewExtractor(completer, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}

	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	publisher, err := NewPublisher(cfg.Events, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	billSvc := bills.NewService(store.Bills(), publisher, cfg.Import.Categories, logger)
	profileSvc := profiles.NewService(store.Profiles(), logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Publisher:  publisher,
		Extractor:  extractor,
		Bills:      billSvc,
		Profiles:   profileSvc,
		Reports:    reports.NewService(store.Bills(), profileSvc, logger),
		Export:     export.NewService(billSvc, logger),
		Reconciler: reconcile.NewReconciler(billSvc, logger, reconcile.WithPublisher(publisher)),
		Sessions:   reconcile.NewSessionStore(cfg.Import.SessionTTL, logger),
	}, nil
}

// Close flushes pending events and closes the store.
func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn("app.close.publisher", "error", err)
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("app.close.store", "error", err)
	}
}
