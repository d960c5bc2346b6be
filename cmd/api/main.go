package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/pqrsd-service/internal/api/http"
	"github.com/spec-kit/pqrsd-service/internal/api/http/handlers"
	"github.com/spec-kit/pqrsd-service/internal/auth"
	"github.com/spec-kit/pqrsd-service/internal/config"
	"github.com/spec-kit/pqrsd-service/internal/events"
	"github.com/spec-kit/pqrsd-service/internal/observability"
	"github.com/spec-kit/pqrsd-service/internal/persistence"
	"github.com/spec-kit/pqrsd-service/internal/repository"
	"github.com/spec-kit/pqrsd-service/internal/service"
	"github.com/spec-kit/pqrsd-service/internal/worker"
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

	pool := pg.PoolHandle()
	caseRepo := repository.NewCaseRepository(pool)
	historyRepo := repository.NewStatusHistoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	sequenceRepo := repository.NewSequenceRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:       caseRepo,
		HistoryRepo:    historyRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		DepartmentRepo: departmentRepo,
		UserRepo:       userRepo,
		Sequencer:      sequenceRepo,
		ObjectStore:    service.NewLoggingObjectStore(logger),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	metricsService := service.NewMetricsService(service.MetricsDependencies{
		AnalyticsRepo: analyticsRepo,
		Cache:         redis.Handle(),
		CacheTTL:      cfg.Scheduler.MetricsCacheTTL(),
		Logger:        logger,
	})
	departmentService := service.NewDepartmentService(departmentRepo)
	authService := service.NewAuthService(*cfg, userRepo)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	sweeper := worker.NewDeadlineSweeper(caseRepo, notifications, logger,
		cfg.Scheduler.SweepInterval(), cfg.Scheduler.ReminderWindow(), nil)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Cases:          handlers.NewCasesHandler(caseService),
		CaseAdmin:      handlers.NewCaseAdminHandler(caseService),
		Departments:    handlers.NewDepartmentsHandler(departmentService),
		Analytics:      handlers.NewAnalyticsHandler(metricsService),
		Auth:           handlers.NewAuthHandler(authService),
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
