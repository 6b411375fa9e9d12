//go:build gcloud

package deliveryrecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt  time.Time `bigquery:"recorded_at"`
	ItemID      int64     `bigquery:"item_id"`
	Kind        string    `bigquery:"kind"`
	Outcome     string    `bigquery:"outcome"`
	ScheduledAt time.Time `bigquery:"scheduled_at"`
	DeliveredAt time.Time `bigquery:"delivered_at"`
	LatenessMs  int64     `bigquery:"lateness_ms"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.DeliveryRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "delivery result recording disabled",
			slog.String("event", "recorder.disabled"),
		)
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, delivery result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, delivery result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	inserter := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter()

	slog.InfoContext(ctx, "delivery result recorder initialized",
		slog.String("event", "recorder.init"),
		slog.String("backend", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: inserter,
	}, nil
}

func (r *bigQueryRecorder) RecordDelivery(ctx context.Context, record domain.DeliveryRecord) error {
	row := &bigQueryRecord{
		RecordedAt:  time.Now(),
		ItemID:      record.ItemID,
		Kind:        record.Kind,
		Outcome:     string(record.Outcome),
		ScheduledAt: record.ScheduledAt,
		DeliveredAt: record.DeliveredAt,
		LatenessMs:  record.Lateness().Milliseconds(),
	}

	if err := r.inserter.Put(ctx, row); err != nil {
		slog.WarnContext(ctx, "failed to insert delivery result to BigQuery",
			slog.String("event", "recorder.write.fail"),
			slog.String("error", err.Error()),
			slog.Int64("item_id", record.ItemID),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
