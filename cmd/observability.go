package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
)

// runtimeIdentity describes where the process runs, as seen by logs and traces.
type runtimeIdentity struct {
	service   string
	revision  string
	projectID string
	env       logging.Environment
}

func initObservability(ctx context.Context, logLevel slog.Leveler) (*observability.Resources, error) {
	id := detectRuntime()
	if e := os.Getenv("ENV"); e != "" {
		id.env = logging.Environment(e)
	}
	if id.service == "" {
		id.service = string(serviceModule)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     id.service,
			Version:  Version,
			Revision: id.revision,
		},
		Environment:   id.env,
		GCPProjectID:  id.projectID,
		SamplingRate:  1.0,
		DefaultModule: serviceModule,
		LogLevel:      logLevel,
	})
}
