//go:build !gcloud

package timer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	primindRequestTimeout = 30 * time.Second
	primindInitialBackoff = 100 * time.Millisecond
	primindMaxBackoff     = 2 * time.Second
)

// PrimindTasksClient is a TaskQueue backed by the self-hosted queue that
// speaks the Cloud Tasks REST shape.
type PrimindTasksClient struct {
	queueURL    string
	callbackURL string
	httpClient  *http.Client
	maxTries    uint
}

func NewPrimindTasksClient(baseURL, queueName, callbackURL string, maxRetries int) *PrimindTasksClient {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	queueURL := baseURL + "/tasks"
	if queueName != "" && queueName != "default" {
		queueURL += "/" + queueName
	}
	return &PrimindTasksClient{
		queueURL:    queueURL,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: primindRequestTimeout},
		maxTries:    uint(maxRetries),
	}
}

func (c *PrimindTasksClient) CreateTask(ctx context.Context, task *Task) (*TaskResponse, error) {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timer payload: %w", err)
	}

	req := PrimindTaskRequest{
		Task: PrimindTask{
			Name: task.ID,
			HTTPRequest: PrimindHTTPRequest{
				URL:     c.callbackURL,
				Body:    base64.StdEncoding.EncodeToString(payload),
				Headers: map[string]string{"Content-Type": "application/json"},
			},
		},
	}
	if !task.ScheduleAt.IsZero() {
		req.Task.ScheduleTime = task.ScheduleAt.UTC().Format(time.RFC3339Nano)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task request: %w", err)
	}

	created, err := retry(ctx, c, "create", func() (*PrimindTaskResponse, error) {
		return c.postTask(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	resp := &TaskResponse{Name: created.Name}
	if resp.Name == "" {
		resp.Name = task.ID
	}
	resp.ScheduleTime, _ = time.Parse(time.RFC3339, created.ScheduleTime)
	resp.CreateTime, _ = time.Parse(time.RFC3339, created.CreateTime)

	slog.DebugContext(ctx, "primind task created",
		slog.String("event", "timer.primind.create"),
		slog.String("task_name", resp.Name),
		slog.Int64("item_id", task.Payload.ItemID),
	)
	return resp, nil
}

// DeleteTask removes a pending task. A task the queue no longer knows is
// reported as success.
func (c *PrimindTasksClient) DeleteTask(ctx context.Context, taskName string) error {
	target := c.queueURL + "/" + path.Base(taskName)
	_, err := retry(ctx, c, "delete", func() (struct{}, error) {
		return struct{}{}, c.deleteTask(ctx, target)
	})
	return err
}

func (c *PrimindTasksClient) postTask(ctx context.Context, body []byte) (*PrimindTaskResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queueURL, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp.StatusCode)
	}

	var created PrimindTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return &created, nil
}

func (c *PrimindTasksClient) deleteTask(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return statusError(resp.StatusCode)
	}
}

// statusError marks client errors as permanent; only 5xx and 429 are retried.
func statusError(code int) error {
	err := fmt.Errorf("unexpected status code: %d", code)
	if code < 500 && code != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}

func retry[T any](ctx context.Context, c *PrimindTasksClient, op string, fn backoff.Operation[T]) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = primindInitialBackoff
	policy.MaxInterval = primindMaxBackoff

	result, err := backoff.Retry(ctx, fn,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.DebugContext(ctx, "retrying primind tasks call",
				slog.String("event", "timer.primind.retry"),
				slog.String("op", op),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}),
	)
	if err != nil {
		slog.WarnContext(ctx, "primind tasks call failed",
			slog.String("event", "timer.primind."+op+".fail"),
			slog.String("error", err.Error()),
		)
		return result, fmt.Errorf("failed to %s task: %w", op, err)
	}
	return result, nil
}
