package deliveryrecorder

import (
	"context"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.DeliveryRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordDelivery(_ context.Context, _ domain.DeliveryRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
