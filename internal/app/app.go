package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/handlers"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/services/agent"
	"github.com/ternarybob/responsa/internal/services/embedding"
	"github.com/ternarybob/responsa/internal/services/llm"
	"github.com/ternarybob/responsa/internal/services/retrieval"
	"github.com/ternarybob/responsa/internal/storage/badger"
	"github.com/ternarybob/responsa/internal/storage/qdrant"
)

// App wires the application dependencies together
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	VectorIndex    interfaces.VectorIndex
	ModelCache     *retrieval.ModelCache
	Retriever      interfaces.Retriever

	RouterLLM interfaces.LLMService
	RAGLLM    interfaces.LLMService
	DirectLLM interfaces.LLMService

	Graph *agent.RouterGraph

	// HTTP handlers
	AskHandler     *handlers.AskHandler
	SearchHandler  *handlers.SearchHandler
	HistoryHandler *handlers.HistoryHandler
	StatusHandler  *handlers.StatusHandler
	WSHandler      *handlers.WebSocketHandler

	scheduler *cron.Cron
}

// New initializes the application with all dependencies
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := app.initRetrieval(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize retrieval: %w", err)
	}
	if err := app.initLLM(); err != nil {
		return nil, fmt.Errorf("failed to initialize LLM services: %w", err)
	}
	app.initAgent()
	app.initHandlers()

	if err := app.startScheduler(ctx); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("collection", cfg.Qdrant.Collection).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("reranking", cfg.Retrieval.UseReranking && cfg.Reranker.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager
	return nil
}

func (a *App) initRetrieval(ctx context.Context) error {
	index, err := qdrant.NewClient(&a.Config.Qdrant, a.Config.QdrantTimeout(), a.Logger)
	if err != nil {
		return err
	}
	a.VectorIndex = index

	cfg := a.Config
	logger := a.Logger

	newEmbedder := func(provider, model string) (interfaces.Embedder, error) {
		switch provider {
		case "gemini":
			return embedding.NewGeminiEmbedder(&cfg.Gemini, model, logger)
		default:
			embCfg := cfg.Embeddings
			embCfg.Model = model
			return embedding.NewHTTPEmbedder(&embCfg, cfg.Qdrant.VectorSize, cfg.EmbeddingsTimeout(), logger)
		}
	}
	newReranker := func(model string) (interfaces.Reranker, error) {
		rerankCfg := cfg.Reranker
		rerankCfg.Model = model
		return embedding.NewHTTPReranker(&rerankCfg, cfg.RerankerTimeout(), logger)
	}

	a.ModelCache = retrieval.NewModelCache(newEmbedder, newReranker, logger)

	retriever, err := retrieval.NewAdvancedRetriever(ctx, cfg, index, a.ModelCache, logger)
	if err != nil {
		return err
	}
	a.Retriever = retriever
	return nil
}

func (a *App) initLLM() error {
	factory := llm.NewFactory(a.Config, a.Logger)

	router, err := factory.ServiceForRole("router", a.Config.LLM.Router)
	if err != nil {
		return err
	}
	rag, err := factory.ServiceForRole("rag", a.Config.LLM.RAG)
	if err != nil {
		return err
	}
	direct, err := factory.ServiceForRole("direct", a.Config.LLM.Direct)
	if err != nil {
		return err
	}

	a.RouterLLM = router
	a.RAGLLM = rag
	a.DirectLLM = direct
	return nil
}

func (a *App) initAgent() {
	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)

	var events interfaces.EventPublisher
	if a.Config.WebSocket.Enabled {
		events = a.WSHandler
	}

	a.Graph = agent.NewRouterGraph(
		a.Config,
		a.Retriever,
		a.RouterLLM,
		a.RAGLLM,
		a.DirectLLM,
		events,
		a.Config.Qdrant.Collection,
		a.Logger,
	)
}

func (a *App) initHandlers() {
	history := a.StorageManager.QueryHistoryStorage()

	a.AskHandler = handlers.NewAskHandler(a.Graph, history, a.Logger)
	a.SearchHandler = handlers.NewSearchHandler(a.Retriever, a.Logger)
	a.HistoryHandler = handlers.NewHistoryHandler(history, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.VectorIndex, history, a.Logger)
}

// startScheduler begins the periodic collection stats refresh. An initial
// refresh runs inline so the health endpoint has data from the first
// request.
func (a *App) startScheduler(ctx context.Context) error {
	if err := a.StatusHandler.RefreshStats(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Initial collection stats refresh failed")
	}

	if !a.Config.Scheduler.Enabled {
		a.Logger.Debug().Msg("Scheduler disabled, collection stats will not refresh")
		return nil
	}

	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(a.Config.Scheduler.Schedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), a.Config.QdrantTimeout())
		defer cancel()
		_ = a.StatusHandler.RefreshStats(refreshCtx)
	})
	if err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", a.Config.Scheduler.Schedule, err)
	}

	a.scheduler.Start()
	a.Logger.Info().
		Str("schedule", a.Config.Scheduler.Schedule).
		Msg("Collection stats scheduler started")
	return nil
}

// Close releases application resources in reverse initialization order
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	for _, svc := range []interfaces.LLMService{a.RouterLLM, a.RAGLLM, a.DirectLLM} {
		if svc != nil {
			if err := svc.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
			}
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
			return err
		}
	}

	a.Logger.Debug().Msg("Application closed")
	return nil
}
