package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/common"
	"github.com/ternarybob/jiralocal/internal/handlers"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/services/connections"
	"github.com/ternarybob/jiralocal/internal/services/credentials"
	"github.com/ternarybob/jiralocal/internal/services/demo"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
	"github.com/ternarybob/jiralocal/internal/services/relay"
	"github.com/ternarybob/jiralocal/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage layer
	StorageManager interfaces.StorageManager

	// Services
	Codec             interfaces.CredentialCodec
	ConnectionService interfaces.ConnectionService
	RelayService      interfaces.RelayService
	MockStore         *mockjira.Store
	DemoService       *demo.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	MockJiraHandler   *handlers.MockJiraHandler
	RelayHandler      *handlers.RelayHandler
	ConnectionHandler *handlers.ConnectionHandler
	TestHandler       *handlers.TestHandler
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
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if cfg.Demo.Enabled {
		connection, err := app.DemoService.Initialize(context.Background())
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize demo data: %w", err)
		}
		logger.Info().
			Str("connection_id", connection.ID).
			Int("issues", app.MockStore.Count()).
			Msg("Demo connection ready")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Bool("demo_enabled", cfg.Demo.Enabled).
		Bool("test_harness", cfg.IsTest()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices builds the services in dependency order: codec, connections, relay, mock, demo
func (a *App) initServices() error {
	masterKey, err := common.LoadMasterKey(a.Config.Security)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	codec, err := credentials.NewCodec(masterKey)
	if err != nil {
		return fmt.Errorf("failed to create credential codec: %w", err)
	}
	a.Codec = codec

	a.ConnectionService = connections.NewService(
		a.StorageManager.ConnectionStorage(),
		a.Codec,
		a.Logger,
	)

	a.RelayService = relay.NewService(a.Codec, a.Config.Relay.TimeoutDuration(), a.Logger)

	a.MockStore = mockjira.NewStore(mockjira.Config{
		ProjectKey: a.Config.Mock.ProjectKey,
		BaseURL:    a.Config.Mock.BaseURL,
	}, a.Logger)

	a.DemoService = demo.NewService(
		a.MockStore,
		a.StorageManager.ConnectionStorage(),
		a.Codec,
		a.Logger,
	)

	a.Logger.Debug().
		Dur("relay_timeout", a.Config.Relay.TimeoutDuration()).
		Float64("relay_requests_per_second", a.Config.Relay.RequestsPerSecond).
		Str("mock_project_key", a.MockStore.ProjectKey()).
		Msg("Services initialized")
	return nil
}

// initHandlers creates the HTTP handlers; relay-facing handlers share one rate limiter
func (a *App) initHandlers() {
	limiter := handlers.NewConnectionLimiter(a.Config.Relay.RequestsPerSecond, a.Config.Relay.Burst)

	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.MockJiraHandler = handlers.NewMockJiraHandler(a.MockStore, a.Logger)
	a.RelayHandler = handlers.NewRelayHandler(a.ConnectionService, a.RelayService, limiter, a.Logger)
	a.ConnectionHandler = handlers.NewConnectionHandler(a.ConnectionService, a.RelayService, a.MockStore, limiter, a.Logger)
	a.TestHandler = handlers.NewTestHandler(a.MockStore, a.DemoService, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.StorageManager = nil
		a.Logger.Info().Msg("Storage closed")
	}
	return nil
}
