package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	redismodule "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:8-alpine"

// RedisClient starts a throwaway Redis container and returns a client bound
// to it. The test is skipped in short mode or when no container runtime is
// available. Client and container are released through t.Cleanup.
func RedisClient(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// testcontainers panics when no docker daemon can be reached.
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("redis container unavailable: %v", r)
		}
	}()

	container, err := redismodule.Run(ctx, redisImage)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Skipf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close redis client: %v", err)
		}
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}

	return client
}

// SQLitePath returns a database file path inside a per-test temp directory.
func SQLitePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "reminders.db")
}
