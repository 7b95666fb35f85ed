package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ondapiu/ticketdesk/internal/api/http"
	"github.com/ondapiu/ticketdesk/internal/api/http/handlers"
	"github.com/ondapiu/ticketdesk/internal/auth"
	"github.com/ondapiu/ticketdesk/internal/config"
	"github.com/ondapiu/ticketdesk/internal/events"
	"github.com/ondapiu/ticketdesk/internal/export"
	"github.com/ondapiu/ticketdesk/internal/observability"
	"github.com/ondapiu/ticketdesk/internal/persistence"
	"github.com/ondapiu/ticketdesk/internal/repository"
	"github.com/ondapiu/ticketdesk/internal/service"
	"github.com/ondapiu/ticketdesk/internal/uploads"
	"github.com/ondapiu/ticketdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())
	revocations := auth.NewRevocations(redis.Client)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	fileStore, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal("failed to prepare uploads dir", zap.Error(err))
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Store:       store,
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	workflowService := service.NewWorkflowService(cfg.Workflow, service.WorkflowDependencies{
		Store:      store,
		Dispatcher: dispatcher,
	})
	exportService := service.NewExportService(service.ExportDependencies{
		Store:    store,
		Exporter: export.NewExporter(logger),
		Metrics:  metrics,
	})

	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	if err := authService.EnsureAdmin(ctx); err != nil {
		logger.Fatal("failed to ensure bootstrap admin", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users(), revocations)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(workflowService, exportService, fileStore),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
