package timer

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	generationKeyPrefix = "reminder:timer:"

	// generationGrace keeps an entry alive after its scheduled time so a
	// delayed delivery can still be claimed.
	generationGrace = 24 * time.Hour
)

var releaseScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "token") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRegistry struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{
		client: client,
		now:    time.Now,
	}
}

func (r *RedisRegistry) Current(ctx context.Context, name string) (*Generation, error) {
	values, err := r.client.HGetAll(ctx, generationKeyPrefix+name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	gen := &Generation{
		Token:    values["token"],
		TaskName: values["task_name"],
	}
	if raw := values["scheduled_at"]; raw != "" {
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			gen.ScheduledAt = at
		}
	}

	return gen, nil
}

func (r *RedisRegistry) Set(ctx context.Context, name string, gen *Generation) error {
	key := generationKeyPrefix + name

	ttl := gen.ScheduledAt.Sub(r.now()) + generationGrace
	if ttl < generationGrace {
		ttl = generationGrace
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"token", gen.Token,
		"task_name", gen.TaskName,
		"scheduled_at", gen.ScheduledAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) Release(ctx context.Context, name, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, r.client, []string{generationKeyPrefix + name}, token).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRegistry) Remove(ctx context.Context, name string) error {
	return r.client.Del(ctx, generationKeyPrefix+name).Err()
}
