package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/browser"
	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/engine"
	"github.com/linkforge/linkforge/internal/handlers"
	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/scheduler"
	"github.com/linkforge/linkforge/internal/services/events"
	"github.com/linkforge/linkforge/internal/services/llm"
	"github.com/linkforge/linkforge/internal/services/mail"
	"github.com/linkforge/linkforge/internal/services/report"
	"github.com/linkforge/linkforge/internal/storage/badger"
	"github.com/linkforge/linkforge/internal/strategies"
)

// App holds all application components and dependencies.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager   interfaces.StorageManager
	EventService     interfaces.EventService
	ContentGenerator interfaces.ContentGenerator

	QueueManager *scheduler.QueueManager
	PoolManager  *browser.Manager
	MailChecker  *mail.Checker

	CampaignHandler *handlers.CampaignHandler
	PoolHandler     *handlers.PoolHandler
	APIHandler      *handlers.APIHandler
	WSHandler       *handlers.WebSocketHandler
}

// New wires the application graph. Nothing is started; call Start.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    config,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	storageManager, err := badger.NewManager(&config.Storage.Badger, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	a.EventService = events.NewHub(logger)

	generator, err := llm.NewContentGenerator(ctx, config, logger)
	if err != nil {
		storageManager.Close()
		cancel()
		return nil, fmt.Errorf("initialize content generator: %w", err)
	}
	a.ContentGenerator = generator

	strategyFactory := strategies.NewFactory(strategies.Deps{
		Jobs:      storageManager.JobStorage(),
		Content:   generator,
		Events:    a.EventService,
		Discovery: strategies.NewTargetDiscovery(config.GitHub.Token),
		Logger:    logger,
	})

	a.QueueManager = scheduler.NewQueueManager(
		config.Scheduler,
		storageManager.CampaignStorage(),
		storageManager.JobStorage(),
		storageManager.AuditStorage(),
		strategyFactory,
		a.EventService,
		logger,
	)
	reportGenerator := report.NewGenerator(config.Reports.Dir, storageManager.JobStorage(), logger)
	a.QueueManager.SetReportGenerator(reportGenerator)

	commentEngine := engine.NewCommentEngine(generator, storageManager.AccountStorage(), logger)
	a.PoolManager = browser.NewManager(config.Pool, storageManager.JobStorage(), commentEngine, a.EventService, logger)

	a.MailChecker = mail.NewChecker(config.Mail, storageManager.AccountStorage(), logger)

	a.CampaignHandler = handlers.NewCampaignHandler(a.QueueManager, storageManager.CampaignStorage(), storageManager.AuditStorage(), logger)
	a.CampaignHandler.SetReportGenerator(reportGenerator)
	a.PoolHandler = handlers.NewPoolHandler(a.PoolManager, logger)
	a.APIHandler = handlers.NewAPIHandler(storageManager.CampaignStorage(), logger)
	a.WSHandler = handlers.NewWebSocketHandler(ctx, a.EventService, logger)

	return a, nil
}

// Start brings the background services up: the queue manager, the pool
// monitor, the mail checker and the seed loader.
func (a *App) Start() error {
	if err := a.QueueManager.Start(a.ctx); err != nil {
		return fmt.Errorf("start queue manager: %w", err)
	}

	a.PoolManager.StartMonitor(a.ctx)
	a.MailChecker.Start(a.ctx)

	if dir := a.Config.Campaigns.DefinitionsDir; dir != "" {
		if err := a.QueueManager.EnqueueSeeds(a.ctx, dir); err != nil {
			a.Logger.Warn().Err(err).Str("dir", dir).Msg("Failed to load campaign seed definitions")
		}
	}

	return nil
}

// Shutdown stops services in reverse dependency order and closes storage.
func (a *App) Shutdown(ctx context.Context) {
	a.Logger.Info().Msg("Shutting down application")

	a.MailChecker.Stop()
	a.QueueManager.Stop(ctx)
	a.PoolManager.CloseAll()
	a.cancelCtx()

	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Storage close failed")
	}
}
