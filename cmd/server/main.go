package main

import (
	"context"
	"log"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskdeck/backend/api/handler"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/internal/config"
	"github.com/taskdeck/backend/internal/infrastructure/deadletter"
	"github.com/taskdeck/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskdeck/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskdeck/backend/internal/infrastructure/redis"
	"github.com/taskdeck/backend/internal/middleware"
	"github.com/taskdeck/backend/internal/notifier"
	"github.com/taskdeck/backend/internal/router"
	"github.com/taskdeck/backend/internal/services"
	"github.com/taskdeck/backend/internal/services/lifecycle"
	"github.com/taskdeck/backend/pkg/httpcontext"
	"github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/repository/postgres"
	redisRepo "github.com/taskdeck/backend/repository/redis"
	"github.com/taskdeck/backend/usecase"
	reminderUC "github.com/taskdeck/backend/usecase/reminder"
	workitemUC "github.com/taskdeck/backend/usecase/workitem"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	var (
		claims      repository.ClaimStore
		redisClient *redislib.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		claims = redisRepo.NewClaimStore(redisClient, cfg.Scheduler.ClaimTTL)
	}

	journal, err := deadletter.Open(cfg.DeadLetter.Path)
	if err != nil {
		zapLogger.Fatal("failed to open dead letter journal", zap.Error(err))
	}
	manager.Register("dead_letter", func(ctx context.Context) error {
		return journal.Close()
	})

	mon := monitor.New(pool, redisClient, journal, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	workItemRepo := postgres.NewWorkItemRepository(pool)
	reminderRepo := postgres.NewReminderRepository(pool)

	stats := services.NewStats()
	dispatcher := services.NewDispatcher(
		workItemRepo,
		reminderRepo,
		notifier.NewLogNotifier(zapLogger),
		claims,
		stats,
		zapLogger,
		services.DispatcherConfig{
			MaxAttempts: cfg.Scheduler.MaxAttempts,
			Backoff:     cfg.Scheduler.Backoff,
			ClaimTTL:    cfg.Scheduler.ClaimTTL,
		},
	)

	scheduler := services.NewScheduler(
		reminderRepo,
		dispatcher,
		stats,
		zapLogger,
		services.SchedulerConfig{
			Interval:  cfg.Scheduler.DueCheckInterval,
			BatchSize: cfg.Scheduler.BatchSize,
			Workers:   cfg.Scheduler.Workers,
			QueueSize: cfg.Scheduler.QueueSize,
		},
	)
	scheduler.Start(appCtx)
	manager.Register("scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	recovery := services.NewRecovery(
		reminderRepo,
		scheduler,
		journal,
		stats,
		zapLogger,
		services.RecoveryConfig{
			Interval:          cfg.Recovery.Interval,
			Grace:             cfg.Recovery.Grace,
			UpperBound:        cfg.Recovery.UpperBound,
			RetentionInterval: cfg.Recovery.RetentionInterval,
			RetentionWindow:   cfg.Recovery.RetentionWindow,
			RetentionBatch:    cfg.Recovery.RetentionBatch,
		},
	)
	recovery.Start()
	manager.Register("recovery", func(ctx context.Context) error {
		recovery.Stop(ctx)
		return nil
	})

	events := usecase.NewEventDispatcher()
	events.Register("workitem.state_changed", func(ctx context.Context, event domain.Event) {
		if changed, ok := event.(domain.StateChanged); ok {
			zapLogger.Debug("state change committed",
				zap.String("work_item_id", changed.WorkItemID),
				zap.String("from", string(changed.From)),
				zap.String("to", string(changed.To)))
		}
	})

	workItemUseCase := workitemUC.New(workItemRepo, reminderRepo, events, zapLogger)
	reminderUseCase := reminderUC.New(workItemRepo, reminderRepo, dispatcher, events, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		WorkItem: apiHandler.NewWorkItemHandler(workItemUseCase, ctxAdapter, zapLogger),
		Reminder: apiHandler.NewReminderHandler(reminderUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, stats, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.TenantAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
