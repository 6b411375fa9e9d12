package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 5 * time.Second

type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Report is the readiness body: the aggregate status plus one entry per
// dependency.
type Report struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisPinger checks a Redis connection.
func RedisPinger(client *redis.Client) Pinger {
	return PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// Checker pings the store and queue dependencies of the scheduler.
type Checker struct {
	deps    map[string]Pinger
	version string
}

func NewChecker(version string, deps map[string]Pinger) *Checker {
	return &Checker{
		deps:    deps,
		version: version,
	}
}

// Check pings every dependency concurrently under a shared deadline. Any
// failure makes the report unhealthy.
func (c *Checker) Check(ctx context.Context) *Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(c.deps))
		g       errgroup.Group
	)
	for name, dep := range c.deps {
		g.Go(func() error {
			res := ping(ctx, dep)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  results,
	}
	for _, res := range results {
		if res.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

func ping(ctx context.Context, dep Pinger) CheckResult {
	start := time.Now()
	if err := dep.Ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
}

// LiveHandler answers as long as the process serves HTTP.
func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadyHandler reports 503 while any dependency is unreachable.
func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		report := c.Check(ctx.Request.Context())
		if report.Status != StatusHealthy {
			ctx.JSON(http.StatusServiceUnavailable, report)
			return
		}
		ctx.JSON(http.StatusOK, report)
	}
}
