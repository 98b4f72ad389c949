// Package wire provides dependency injection for the exchange application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/exchange/internal/adapters/agent"
	"github.com/example/exchange/internal/adapters/sqlite"
	"github.com/example/exchange/internal/app"
	"github.com/example/exchange/internal/config"
	"github.com/example/exchange/internal/db"
	"github.com/example/exchange/internal/logging"
	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/ports/secondary"
)

var (
	cfg                *config.Config
	logger             *zap.Logger
	runs               *app.RunManager
	workflowService    primary.WorkflowService
	marketplaceService primary.MarketplaceService
	directoryService   primary.DirectoryService
	once               sync.Once

	// Verbose is set by the root command before any service is built.
	Verbose bool
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the shared process logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// WorkflowService returns the singleton WorkflowService instance.
func WorkflowService() primary.WorkflowService {
	once.Do(initServices)
	return workflowService
}

// MarketplaceService returns the singleton MarketplaceService instance.
func MarketplaceService() primary.MarketplaceService {
	once.Do(initServices)
	return marketplaceService
}

// DirectoryService returns the singleton DirectoryService instance.
func DirectoryService() primary.DirectoryService {
	once.Do(initServices)
	return directoryService
}

// Drain blocks until background collaborator runs have finished. Called on
// process exit so a dispatched run is not abandoned mid-write. A no-op when
// no service was ever built.
func Drain() {
	if runs != nil {
		runs.Wait()
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg = config.LoadOrDefault("")
	logger = logging.New(Verbose)

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) - sqlite adapters with injected DB
	workflowRepo := sqlite.NewWorkflowRepository(database)
	stepRepo := sqlite.NewStepRepository(database)
	eventRepo := sqlite.NewEventRepository(database)
	messageRepo := sqlite.NewMessageRepository(database)
	approvalRepo := sqlite.NewApprovalRepository(database)
	requestRepo := sqlite.NewRequestRepository(database)
	volunteerRepo := sqlite.NewVolunteerRepository(database)
	userRepo := sqlite.NewUserRepository(database)

	// Collaborator adapter: real gateway when configured, mock otherwise
	var research secondary.ResearchCollaborator
	var generation secondary.GenerationCollaborator
	if cfg.Gateway.URL != "" {
		gateway := agent.NewGateway(agent.GatewayConfig{
			BaseURL: cfg.Gateway.URL,
			Token:   cfg.Gateway.Token,
			Timeout: time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
		}, logger)
		research, generation = gateway, gateway
	} else {
		mock := agent.NewMockCollaborator()
		research, generation = mock, mock
	}

	runs = app.NewRunManager(logger)

	// Services (primary ports implementation)
	workflowService = app.NewWorkflowService(
		workflowRepo, stepRepo, eventRepo, messageRepo, approvalRepo,
		requestRepo, userRepo, research, generation, runs, logger)
	marketplaceService = app.NewMarketplaceService(
		requestRepo, volunteerRepo, userRepo, workflowRepo, stepRepo,
		messageRepo, approvalRepo, eventRepo, runs, logger)
	directoryService = app.NewDirectoryService(userRepo)
}
