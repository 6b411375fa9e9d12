package timer

import (
	"context"
	"time"
)

//go:generate mockgen -source=task_queue.go -destination=task_queue_mock.go -package=timer

// Task is a delayed HTTP callback registered with a remote queue.
type Task struct {
	ID         string
	ScheduleAt time.Time
	Payload    Payload
}

type TaskResponse struct {
	Name         string
	ScheduleTime time.Time
	CreateTime   time.Time
}

// TaskQueue is a remote queue that posts a task payload to the delivery
// endpoint at the scheduled time.
type TaskQueue interface {
	CreateTask(ctx context.Context, task *Task) (*TaskResponse, error)
	DeleteTask(ctx context.Context, taskName string) error
}

// Generation is the remote task currently backing a timer name.
type Generation struct {
	Token       string
	TaskName    string
	ScheduledAt time.Time
}

// Registry tracks the current generation per timer name. Remote queues keep
// deleted task names reserved for a while, so every install creates a fresh
// task and the registry decides which one is live.
type Registry interface {
	Current(ctx context.Context, name string) (*Generation, error)
	Set(ctx context.Context, name string, gen *Generation) error
	// Release deletes the entry for name only if its token matches.
	Release(ctx context.Context, name, token string) (bool, error)
	Remove(ctx context.Context, name string) error
}
