package repository

import (
	"context"
	"testing"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/testutil"
)

func TestRedisConfigRepository(t *testing.T) {
	client := testutil.RedisClient(t)

	exerciseRepository(t, NewRedisConfigRepository(client))
}

func TestRedisConfigRepository_SkipsUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	client := testutil.RedisClient(t)

	repo := NewRedisConfigRepository(client)
	if err := repo.Upsert(ctx, sampleConfig(1, true)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := client.Set(ctx, "reminder:config:2", "{broken", 0).Err(); err != nil {
		t.Fatalf("failed to set up test data: %v", err)
	}
	if err := client.SAdd(ctx, "reminder:enabled", "2").Err(); err != nil {
		t.Fatalf("failed to set up test data: %v", err)
	}

	configs, err := repo.GetEnabled(ctx)
	if err != nil {
		t.Fatalf("GetEnabled() error = %v", err)
	}
	assertIDs(t, "GetEnabled", configs, []int64{1})
}
