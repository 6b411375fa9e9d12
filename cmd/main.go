package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/config"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/handler"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/health"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/counter"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/deliveryrecorder"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/presenter"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/repository"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/middleware"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/delivery"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/reconcile"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/reminder"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/schedule"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/upcoming"
)

// Version is set via ldflags at build time
var Version = "dev"

const (
	serviceModule = logging.Module("reminder-scheduler")
	grpcService   = "reminder-scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The logger exists before the config is read; its level follows the config.
	logLevel := new(slog.LevelVar)

	obs, err := initObservability(ctx, logLevel)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	logLevel.Set(cfg.Server.Level())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	reminderMetrics, err := metrics.NewReminderMetrics()
	if err != nil {
		slog.Error("failed to initialize reminder metrics", slog.String("error", err.Error()))
		return 1
	}

	deps := map[string]health.Pinger{}

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = connectRedis(ctx, &cfg.Redis)
		if err != nil {
			return 1
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
		}()
		deps["redis"] = health.RedisPinger(redisClient)
	}

	configRepo, storeCleanup, err := initStore(cfg, redisClient, deps)
	if err != nil {
		slog.Error("failed to initialize config store", slog.String("error", err.Error()))
		return 1
	}
	defer storeCleanup()

	timers, localTimers, timerCleanup, err := initTimerService(ctx, cfg, redisClient)
	if err != nil {
		slog.Error("failed to initialize timer service", slog.String("error", err.Error()))
		return 1
	}
	if timerCleanup != nil {
		defer func() {
			if err := timerCleanup(); err != nil {
				slog.Error("timer service cleanup error", slog.String("error", err.Error()))
			}
		}()
	}
	timers = timer.WithTimeout(timers, cfg.Timer.CallTimeout)

	recorder, err := deliveryrecorder.NewRecorder(ctx, &deliveryrecorder.Config{
		Disabled:          cfg.Recorder.Disabled,
		InfluxDBURL:       cfg.Recorder.InfluxDBURL,
		InfluxDBToken:     cfg.Recorder.InfluxDBToken,
		InfluxDBOrg:       cfg.Recorder.InfluxDBOrg,
		InfluxDBBucket:    cfg.Recorder.InfluxDBBucket,
		BigQueryProjectID: cfg.Recorder.BigQueryProjectID,
		BigQueryDataset:   cfg.Recorder.BigQueryDataset,
		BigQueryTable:     cfg.Recorder.BigQueryTable,
	})
	if err != nil {
		slog.Error("failed to initialize delivery recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close delivery recorder", slog.String("error", err.Error()))
		}
	}()

	loc, err := cfg.Schedule.Location()
	if err != nil {
		slog.Error("invalid default time zone", slog.String("error", err.Error()))
		return 1
	}

	calculator := schedule.NewCalculator(loc)
	limiter := rate.NewLimiter(rate.Limit(cfg.Schedule.RescheduleRatePerSecond), cfg.Schedule.RescheduleRatePerSecond)

	coordinator := scheduler.NewService(configRepo, timers, calculator, limiter, reminderMetrics)
	feed := upcoming.NewService(configRepo, calculator, reminderMetrics)
	reminders := reminder.NewService(configRepo, coordinator, cfg.Schedule.DefaultTimeZone)

	presenters := []domain.Presenter{presenter.NewLogPresenter()}
	var telegram *presenter.TelegramPresenter
	if cfg.Telegram.Enabled() {
		telegram, err = presenter.NewTelegramPresenter(presenter.TelegramConfig{
			Token:       cfg.Telegram.BotToken,
			ChatID:      cfg.Telegram.ChatID,
			PollTimeout: cfg.Telegram.PollTimeout,
		})
		if err != nil {
			slog.Error("failed to initialize telegram presenter", slog.String("error", err.Error()))
			return 1
		}
		presenters = append(presenters, telegram)
	}

	deliveries := delivery.NewService(
		configRepo,
		timers,
		coordinator,
		presenter.Multi(presenters...),
		counter.NewClient(cfg.Counter.ServiceURL),
		recorder,
		reminderMetrics,
		cfg.Schedule.DefaultSnoozeMinutes,
	)

	if localTimers != nil {
		localTimers.OnFire(func(ctx context.Context, payload timer.Payload) {
			ctx = logging.WithModule(ctx, logging.Module("timer"))
			if _, err := deliveries.HandleFire(ctx, payload); err != nil {
				slog.ErrorContext(ctx, "local timer delivery failed",
					slog.String("event", "timer.local.deliver.fail"),
					slog.Int64("item_id", payload.ItemID),
					slog.String("error", err.Error()),
				)
			}
		})
	}

	if telegram != nil {
		telegram.OnAction(deliveries.HandleAction)
		telegram.Start()
		defer telegram.Stop()
	}

	reconciler, err := reconcile.NewService(coordinator, cfg.Schedule.ReconcileCron, loc)
	if err != nil {
		slog.Error("failed to initialize reconcile", slog.String("error", err.Error()))
		return 1
	}

	// Setup router with observability middleware
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready", "/api/v1/reminders/changes"},
		Module:      serviceModule,
		TracerName:  "github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	// Health check endpoints
	healthChecker := health.NewChecker(Version, deps)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	// API routes
	v1 := r.Group("/api/v1")
	handler.NewReminderHandler(
		reminders,
		feed,
		coordinator,
		deliveries,
		configRepo,
		handler.UpcomingLimits{
			Default: cfg.Schedule.UpcomingDefaultLimit,
			Max:     cfg.Schedule.UpcomingMaxLimit,
		},
	).Register(v1)
	handler.NewDeliveryHandler(deliveries).Register(v1)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: health.Mount(r, health.NewGRPCChecker(healthChecker, grpcService)),
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("store", cfg.Store.Driver),
			slog.String("timer_backend", cfg.Timer.Backend),
			slog.Bool("telegram", telegram != nil),
		)
		serverErr <- srv.ListenAndServe()
	}()

	// Timers of a previous process may be gone; rebuild them before the
	// periodic pass takes over.
	go reconciler.RunOnce(ctx)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

func connectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	if err := redisotel.InstrumentTracing(client); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		_ = client.Close()
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(client); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		_ = client.Close()
		return nil, err
	}

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		_ = client.Close()
		return nil, err
	}

	slog.Info("redis connected",
		slog.String("addr", cfg.Addr),
	)
	return client, nil
}

func initStore(cfg *config.Config, redisClient *redis.Client, deps map[string]health.Pinger) (domain.ConfigRepository, func(), error) {
	if cfg.Store.Driver == config.StoreDriverSQLite {
		repo, err := repository.NewSQLiteConfigRepository(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		deps["sqlite"] = repo

		slog.Info("config store initialized",
			slog.String("type", "sqlite"),
			slog.String("path", cfg.Store.SQLitePath),
		)
		return repo, func() {
			if err := repo.Close(); err != nil {
				slog.Warn("failed to close sqlite store", slog.String("error", err.Error()))
			}
		}, nil
	}

	slog.Info("config store initialized", slog.String("type", "redis"))
	return repository.NewRedisConfigRepository(redisClient), func() {}, nil
}
