//go:build !gcloud

package deliveryrecorder

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

const measurement = "reminder_delivery"

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.DeliveryRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "delivery result recording disabled",
			slog.String("event", "recorder.disabled"),
		)
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, delivery result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "delivery result recorder initialized",
		slog.String("event", "recorder.init"),
		slog.String("backend", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
		bucket:   cfg.InfluxDBBucket,
	}, nil
}

func (r *influxDBRecorder) RecordDelivery(ctx context.Context, record domain.DeliveryRecord) error {
	if err := r.writeAPI.WritePoint(ctx, newPoint(record)); err != nil {
		slog.WarnContext(ctx, "failed to write delivery result to InfluxDB",
			slog.String("event", "recorder.write.fail"),
			slog.String("error", err.Error()),
			slog.Int64("item_id", record.ItemID),
			slog.String("outcome", string(record.Outcome)),
		)
	}
	return nil
}

func newPoint(record domain.DeliveryRecord) *write.Point {
	deliveredAt := record.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now()
	}

	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"item_id": strconv.FormatInt(record.ItemID, 10),
			"kind":    record.Kind,
			"outcome": string(record.Outcome),
		},
		map[string]any{
			"lateness_ms":    record.Lateness().Milliseconds(),
			"scheduled_unix": record.ScheduledAt.Unix(),
		},
		deliveredAt,
	)
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
