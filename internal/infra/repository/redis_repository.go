package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

const (
	configKeyPrefix = "reminder:config:"
	enabledSetKey   = "reminder:enabled"
	idsSetKey       = "reminder:ids"
	changesChannel  = "reminder:changes"

	maxWatchRetries = 5
)

type redisConfigRepository struct {
	client *redis.Client
	now    func() time.Time
}

var _ domain.ConfigRepository = (*redisConfigRepository)(nil)

func NewRedisConfigRepository(client *redis.Client) domain.ConfigRepository {
	return &redisConfigRepository{
		client: client,
		now:    time.Now,
	}
}

func configKey(itemID int64) string {
	return configKeyPrefix + strconv.FormatInt(itemID, 10)
}

func (r *redisConfigRepository) Get(ctx context.Context, itemID int64) (*domain.ReminderConfig, error) {
	data, err := r.client.Get(ctx, configKey(itemID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, err
	}

	return unmarshalConfig(data)
}

func (r *redisConfigRepository) GetAll(ctx context.Context) ([]*domain.ReminderConfig, error) {
	return r.loadSet(ctx, idsSetKey)
}

func (r *redisConfigRepository) GetEnabled(ctx context.Context) ([]*domain.ReminderConfig, error) {
	configs, err := r.loadSet(ctx, enabledSetKey)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(configs, func(cfg *domain.ReminderConfig) bool {
		return !cfg.Enabled
	}), nil
}

// loadSet reads the configs whose ids are members of setKey, ordered by id.
func (r *redisConfigRepository) loadSet(ctx context.Context, setKey string) ([]*domain.ReminderConfig, error) {
	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed item id",
				slog.String("set", setKey),
				slog.String("member", m),
			)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	if len(ids) == 0 {
		return []*domain.ReminderConfig{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = configKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	configs := make([]*domain.ReminderConfig, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		cfg, err := unmarshalConfig([]byte(s))
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable reminder config",
				slog.Int64("item_id", ids[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func (r *redisConfigRepository) Upsert(ctx context.Context, cfg *domain.ReminderConfig) error {
	if cfg == nil {
		return ErrNilConfig
	}

	now := r.now()
	data, err := marshalConfig(cfg, now)
	if err != nil {
		return err
	}

	member := strconv.FormatInt(cfg.ItemID, 10)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, configKey(cfg.ItemID), data, 0)
	pipe.SAdd(ctx, idsSetKey, member)
	if cfg.Enabled {
		pipe.SAdd(ctx, enabledSetKey, member)
	} else {
		pipe.SRem(ctx, enabledSetKey, member)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	r.publish(ctx, domain.ConfigChange{ItemID: cfg.ItemID, Kind: domain.ChangeUpserted, At: now})
	return nil
}

func (r *redisConfigRepository) Disable(ctx context.Context, itemID int64) error {
	if err := r.disable(ctx, itemID); err != nil {
		return err
	}

	r.publish(ctx, domain.ConfigChange{ItemID: itemID, Kind: domain.ChangeDisabled, At: r.now()})
	return nil
}

// disable clears the enabled flag under WATCH so a concurrent upsert of the
// same item is never overwritten with stale fields.
func (r *redisConfigRepository) disable(ctx context.Context, itemID int64) error {
	key := configKey(itemID)
	member := strconv.FormatInt(itemID, 10)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrConfigNotFound
			}
			return err
		}

		cfg, err := unmarshalConfig(data)
		if err != nil {
			return err
		}
		cfg.Enabled = false

		updated, err := marshalConfig(cfg, r.now())
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			pipe.SRem(ctx, enabledSetKey, member)
			return nil
		})
		return err
	}

	for range maxWatchRetries {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("disable item %d: %w", itemID, redis.TxFailedErr)
}

func (r *redisConfigRepository) DisableAll(ctx context.Context) error {
	members, err := r.client.SMembers(ctx, enabledSetKey).Result()
	if err != nil {
		return err
	}

	var errs []error
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			r.client.SRem(ctx, enabledSetKey, m)
			continue
		}
		if err := r.disable(ctx, id); err != nil && !errors.Is(err, domain.ErrConfigNotFound) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	r.publish(ctx, domain.ConfigChange{Kind: domain.ChangeDisabledAll, At: r.now()})
	return nil
}

func (r *redisConfigRepository) Delete(ctx context.Context, itemID int64) error {
	member := strconv.FormatInt(itemID, 10)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, configKey(itemID))
	pipe.SRem(ctx, idsSetKey, member)
	pipe.SRem(ctx, enabledSetKey, member)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	r.publish(ctx, domain.ConfigChange{ItemID: itemID, Kind: domain.ChangeDeleted, At: r.now()})
	return nil
}

// Watch subscribes to the change channel shared by every process using the
// same Redis.
func (r *redisConfigRepository) Watch(ctx context.Context) (<-chan domain.ConfigChange, error) {
	pubsub := r.client.Subscribe(ctx, changesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan domain.ConfigChange, watchBufferSize)
	msgs := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change domain.ConfigChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					slog.WarnContext(ctx, "skipping undecodable config change",
						slog.String("event", "reminder.watch.decode.fail"),
						slog.String("error", err.Error()),
					)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *redisConfigRepository) publish(ctx context.Context, change domain.ConfigChange) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, changesChannel, data).Err(); err != nil {
		slog.WarnContext(ctx, "failed to publish config change",
			slog.String("event", "reminder.change.publish.fail"),
			slog.Int64("item_id", change.ItemID),
			slog.String("error", err.Error()),
		)
	}
}
