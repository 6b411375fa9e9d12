package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=config_repository.go -destination=config_repository_mock.go -package=domain

type ChangeKind string

const (
	ChangeUpserted    ChangeKind = "upserted"
	ChangeDisabled    ChangeKind = "disabled"
	ChangeDeleted     ChangeKind = "deleted"
	ChangeDisabledAll ChangeKind = "disabled_all"
)

// ConfigChange notifies watchers that the stored config of an item changed.
// ItemID is zero for ChangeDisabledAll.
type ConfigChange struct {
	ItemID int64      `json:"item_id"`
	Kind   ChangeKind `json:"kind"`
	At     time.Time  `json:"at"`
}

type ConfigRepository interface {
	Get(ctx context.Context, itemID int64) (*ReminderConfig, error)
	GetAll(ctx context.Context) ([]*ReminderConfig, error)
	GetEnabled(ctx context.Context) ([]*ReminderConfig, error)
	Upsert(ctx context.Context, cfg *ReminderConfig) error
	Disable(ctx context.Context, itemID int64) error
	DisableAll(ctx context.Context) error
	Delete(ctx context.Context, itemID int64) error
	// Watch streams changes until ctx is done. The channel is closed afterwards.
	Watch(ctx context.Context) (<-chan ConfigChange, error)
}
