//go:build !gcloud

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/config"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
)

// initTimerService returns the configured backend. The in-process backend is
// also returned on its own so that its firings can be routed and it can be
// stopped on shutdown.
func initTimerService(_ context.Context, cfg *config.Config, redisClient *redis.Client) (timer.Service, *timer.LocalService, func() error, error) {
	if cfg.Timer.Backend != config.TimerBackendTasks {
		local := timer.NewLocalService()
		slog.Info("timer service initialized",
			slog.String("event", "timer.init"),
			slog.String("backend", config.TimerBackendLocal),
		)
		return local, local, func() error { local.Stop(); return nil }, nil
	}

	queue := timer.NewPrimindTasksClient(
		cfg.Timer.PrimindTasksURL,
		cfg.Timer.QueueName,
		cfg.Timer.CallbackURL,
		cfg.Timer.MaxRetries,
	)

	slog.Info("timer service initialized",
		slog.String("event", "timer.init"),
		slog.String("backend", config.TimerBackendTasks),
		slog.String("url", cfg.Timer.PrimindTasksURL),
		slog.String("queue", cfg.Timer.QueueName),
	)

	return timer.NewQueueService(queue, timer.NewRedisRegistry(redisClient)), nil, nil, nil
}

func detectRuntime() runtimeIdentity {
	return runtimeIdentity{
		service: os.Getenv("SERVICE_NAME"),
		env:     logging.EnvDev,
	}
}
