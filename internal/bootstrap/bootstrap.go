package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/askvia/docs-copilot/internal/config"
	"github.com/askvia/docs-copilot/internal/core/ports"
	"github.com/askvia/docs-copilot/internal/core/usecase"
	"github.com/askvia/docs-copilot/internal/infrastructure/events/nats"
	"github.com/askvia/docs-copilot/internal/infrastructure/llm/openaicompat"
	"github.com/askvia/docs-copilot/internal/infrastructure/repository/postgres"
	"github.com/askvia/docs-copilot/internal/infrastructure/resilience"
	"github.com/askvia/docs-copilot/internal/observability/logging"
	"github.com/askvia/docs-copilot/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Retriever ports.Retriever
	Answerer  ports.AnswerService

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("docs-copilot", cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewChunkStore(db, logger)

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	llmClient := openaicompat.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMEmbedModel, cfg.LLMChatModel, cfg.LLMTimeout())
	embedder := openaicompat.NewResilientEmbedder(openaicompat.NewEmbedder(llmClient), executor)
	generator := openaicompat.NewResilientGenerator(openaicompat.NewGenerator(llmClient), executor)

	var events ports.EventPublisher
	var publisher *nats.Publisher
	if cfg.NATSURL != "" {
		publisher, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, logger, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
	}

	retrieveUC := usecase.NewRetrieveUseCase(embedder, store, events, logger, usecase.RetrieveOptions{
		HybridFusion:   cfg.HybridFusion,
		MMRRerank:      cfg.MMRRerank,
		FallbackExpand: cfg.FallbackExpand,
	})
	answerUC := usecase.NewAnswerUseCase(retrieveUC, generator, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewHTTPServerMetrics("docs-copilot"),

		Retriever: retrieveUC,
		Answerer:  answerUC,

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
