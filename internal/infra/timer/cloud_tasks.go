//go:build gcloud

package timer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	cloudTasksInitialBackoff = 100 * time.Millisecond
	cloudTasksMaxBackoff     = 2 * time.Second
	// Delivery re-arms the next timer before answering, so give it headroom.
	cloudTasksDispatchDeadline = 60 * time.Second
)

type CloudTasksConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	TargetURL  string
	// InvokerServiceAccount signs an OIDC token for the callback when set.
	InvokerServiceAccount string
	MaxRetries            int
}

// CloudTasksClient is a TaskQueue backed by a Cloud Tasks HTTP queue.
type CloudTasksClient struct {
	client    *cloudtasks.Client
	queuePath string
	targetURL string
	invoker   string
	callOpts  []gax.CallOption
}

func NewCloudTasksClient(ctx context.Context, cfg CloudTasksConfig) (*CloudTasksClient, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	return &CloudTasksClient{
		client:    client,
		queuePath: fmt.Sprintf("projects/%s/locations/%s/queues/%s", cfg.ProjectID, cfg.LocationID, cfg.QueueID),
		targetURL: cfg.TargetURL,
		invoker:   cfg.InvokerServiceAccount,
		callOpts:  []gax.CallOption{retryOption(cfg.MaxRetries)},
	}, nil
}

// retryOption retries transient gRPC failures with exponential backoff, giving
// up after maxRetries attempts.
func retryOption(maxRetries int) gax.CallOption {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return gax.WithRetry(func() gax.Retryer {
		return &boundedRetryer{
			inner: gax.OnCodes([]codes.Code{codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted}, gax.Backoff{
				Initial:    cloudTasksInitialBackoff,
				Max:        cloudTasksMaxBackoff,
				Multiplier: 2,
			}),
			remaining: maxRetries - 1,
		}
	})
}

type boundedRetryer struct {
	inner     gax.Retryer
	remaining int
}

func (r *boundedRetryer) Retry(err error) (time.Duration, bool) {
	if r.remaining <= 0 {
		return 0, false
	}
	r.remaining--
	return r.inner.Retry(err)
}

func (c *CloudTasksClient) CreateTask(ctx context.Context, task *Task) (*TaskResponse, error) {
	body, err := json.Marshal(task.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timer payload: %w", err)
	}

	httpReq := &taskspb.HttpRequest{
		HttpMethod: taskspb.HttpMethod_POST,
		Url:        c.targetURL,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
	if c.invoker != "" {
		httpReq.AuthorizationHeader = &taskspb.HttpRequest_OidcToken{
			OidcToken: &taskspb.OidcToken{ServiceAccountEmail: c.invoker},
		}
	}

	name := c.queuePath + "/tasks/" + task.ID
	req := &taskspb.CreateTaskRequest{
		Parent: c.queuePath,
		Task: &taskspb.Task{
			Name:             name,
			MessageType:      &taskspb.Task_HttpRequest{HttpRequest: httpReq},
			ScheduleTime:     timestamppb.New(task.ScheduleAt),
			DispatchDeadline: durationpb.New(cloudTasksDispatchDeadline),
		},
	}

	created, err := c.client.CreateTask(ctx, req, c.callOpts...)
	if status.Code(err) == codes.AlreadyExists {
		// A retried call whose first attempt landed.
		return &TaskResponse{Name: name, ScheduleTime: task.ScheduleAt}, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to create cloud task",
			slog.String("event", "timer.cloudtasks.create.fail"),
			slog.Int64("item_id", task.Payload.ItemID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create cloud task: %w", err)
	}

	slog.DebugContext(ctx, "cloud task created",
		slog.String("event", "timer.cloudtasks.create"),
		slog.String("task_name", created.GetName()),
		slog.Int64("item_id", task.Payload.ItemID),
	)

	return &TaskResponse{
		Name:         created.GetName(),
		ScheduleTime: created.GetScheduleTime().AsTime(),
		CreateTime:   created.GetCreateTime().AsTime(),
	}, nil
}

// DeleteTask removes a pending task. Tasks already dispatched or deleted are
// reported as success.
func (c *CloudTasksClient) DeleteTask(ctx context.Context, taskName string) error {
	err := c.client.DeleteTask(ctx, &taskspb.DeleteTaskRequest{Name: taskName}, c.callOpts...)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to delete cloud task",
			slog.String("event", "timer.cloudtasks.delete.fail"),
			slog.String("task_name", taskName),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete cloud task: %w", err)
	}
	return nil
}

func (c *CloudTasksClient) Close() error {
	return c.client.Close()
}
