package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/handlers"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/services/chat"
	"github.com/ternarybob/parley/internal/services/conversation"
	"github.com/ternarybob/parley/internal/services/documents"
	"github.com/ternarybob/parley/internal/services/functions"
	"github.com/ternarybob/parley/internal/services/llm"
	"github.com/ternarybob/parley/internal/services/metrics"
	"github.com/ternarybob/parley/internal/services/personas"
	"github.com/ternarybob/parley/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Document services
	DocumentStore *documents.Store
	Ingester      *documents.Ingester

	// Persona and function registries
	PersonaRegistry  *personas.Registry
	FunctionRegistry *functions.Registry

	// LLM providers
	LLMFactory *llm.Factory

	// Conversation sessions
	Sessions *conversation.Manager

	// Metrics
	MetricsTracker *metrics.Tracker

	// Query pipeline
	QueryService interfaces.QueryService

	// HTTP handlers
	QueryHandler    *handlers.QueryHandler
	DocumentHandler *handlers.DocumentHandler
	FunctionHandler *handlers.FunctionHandler
	HealthHandler   *handlers.HealthHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	a.Logger.Info().
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage initialized")

	return nil
}

// initServices wires the query pipeline: documents, personas, functions,
// LLM providers, sessions, metrics, and the executor
func (a *App) initServices() error {
	// Document retrieval and corpus ingestion
	a.DocumentStore = documents.NewStore(a.StorageManager.DocumentStorage(), a.Logger)
	a.Ingester = documents.NewIngester(&a.Config.Corpus, a.StorageManager.DocumentStorage(), a.Logger)

	if a.Config.Corpus.Dir != "" {
		count, err := a.Ingester.IngestDir()
		if err != nil {
			return fmt.Errorf("corpus ingestion failed: %w", err)
		}
		a.Logger.Info().
			Int("documents", count).
			Str("dir", a.Config.Corpus.Dir).
			Msg("Corpus ingested")
	}

	// Personas, with optional YAML overrides
	a.PersonaRegistry = personas.NewRegistry(a.Config.Claude.Model, a.Config.Gemini.Model, a.Logger)
	if a.Config.Personas.DefinitionsFile != "" {
		if err := a.PersonaRegistry.LoadDefinitions(a.Config.Personas.DefinitionsFile); err != nil {
			return fmt.Errorf("failed to load persona definitions: %w", err)
		}
	}

	// Inline function registry
	a.FunctionRegistry = functions.NewRegistry(a.Logger)

	// LLM provider factory (Claude and Gemini)
	a.LLMFactory = llm.NewFactory(a.Config, a.Logger)

	// Conversation sessions, persisted only when configured
	var conversationStorage interfaces.ConversationStorage
	if a.Config.Conversation.Persist {
		conversationStorage = a.StorageManager.ConversationStorage()
	}
	a.Sessions = conversation.NewManager(conversationStorage, a.Logger)

	// Metrics tracking with retention sweep
	a.MetricsTracker = metrics.NewTracker(&a.Config.Metrics, a.StorageManager.MetricsStorage(), a.Logger)
	if err := a.MetricsTracker.StartRetentionSweep(); err != nil {
		return fmt.Errorf("failed to start metrics retention sweep: %w", err)
	}

	// Query pipeline
	router := chat.NewRouter(&a.Config.Routing, a.PersonaRegistry, a.LLMFactory, a.Logger)
	assembler := chat.NewContextAssembler(&a.Config.Retrieval, a.Config.Conversation.HistoryWindow, a.DocumentStore, a.PersonaRegistry, a.Logger)
	post := chat.NewPostProcessor(a.FunctionRegistry, rand.New(rand.NewSource(time.Now().UnixNano())), a.Logger)

	a.QueryService = chat.NewExecutor(
		a.Config,
		a.PersonaRegistry,
		router,
		assembler,
		post,
		a.LLMFactory,
		a.Sessions,
		a.MetricsTracker,
		a.Logger,
	)

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.QueryHandler = handlers.NewQueryHandler(a.QueryService, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.StorageManager.DocumentStorage(), a.Ingester, a.Logger)
	a.FunctionHandler = handlers.NewFunctionHandler(a.FunctionRegistry, a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.QueryService, a.Logger)
}

// Close shuts down application components in reverse dependency order
func (a *App) Close() error {
	if a.MetricsTracker != nil {
		a.MetricsTracker.Stop()
	}

	if a.LLMFactory != nil {
		if err := a.LLMFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM providers")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
