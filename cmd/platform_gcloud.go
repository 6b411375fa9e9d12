//go:build gcloud

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

// initTimerService always uses Cloud Tasks, with generations tracked in Redis.
func initTimerService(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (timer.Service, *timer.LocalService, func() error, error) {
	tc := cfg.Timer
	queue, err := timer.NewCloudTasksClient(ctx, timer.CloudTasksConfig{
		ProjectID:             tc.GCloudProjectID,
		LocationID:            tc.GCloudLocationID,
		QueueID:               tc.GCloudQueueID,
		TargetURL:             tc.CallbackURL,
		InvokerServiceAccount: tc.GCloudInvokerAccount,
		MaxRetries:            tc.MaxRetries,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	slog.Info("timer service initialized",
		slog.String("event", "timer.init"),
		slog.String("backend", "cloud_tasks"),
		slog.String("queue", tc.GCloudProjectID+"/"+tc.GCloudLocationID+"/"+tc.GCloudQueueID),
		slog.Bool("oidc", tc.GCloudInvokerAccount != ""),
	)

	return timer.NewQueueService(queue, timer.NewRedisRegistry(redisClient)), nil, queue.Close, nil
}

func detectRuntime() runtimeIdentity {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GCLOUD_PROJECT_ID")
	}
	return runtimeIdentity{
		service:   os.Getenv("K_SERVICE"),
		revision:  os.Getenv("K_REVISION"),
		projectID: projectID,
		env:       logging.EnvProd,
	}
}
