//go:build !gcloud

package timer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPrimindTasksClientCreateTask(t *testing.T) {
	scheduleAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks/reminders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req PrimindTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Task.Name != "reminder_notification_1-tok" {
			t.Errorf("task name: got %q", req.Task.Name)
		}
		if req.Task.HTTPRequest.URL != "http://scheduler/api/v1/reminders/fire" {
			t.Errorf("callback url: got %q", req.Task.HTTPRequest.URL)
		}

		raw, err := base64.StdEncoding.DecodeString(req.Task.HTTPRequest.Body)
		if err != nil {
			t.Fatalf("body is not base64: %v", err)
		}
		var payload Payload
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("body is not a payload: %v", err)
		}
		if payload.ItemID != 1 || payload.Token != "tok" {
			t.Errorf("payload: got %+v", payload)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{
			Name:         "queues/reminders/tasks/reminder_notification_1-tok",
			ScheduleTime: req.Task.ScheduleTime,
		})
	}))
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "reminders", "http://scheduler/api/v1/reminders/fire", 1)
	resp, err := client.CreateTask(context.Background(), &Task{
		ID:         "reminder_notification_1-tok",
		ScheduleAt: scheduleAt,
		Payload:    Payload{ItemID: 1, Kind: FireScheduled, ScheduledAt: scheduleAt, Token: "tok"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != "queues/reminders/tasks/reminder_notification_1-tok" {
		t.Errorf("name: got %q", resp.Name)
	}
	if !resp.ScheduleTime.Equal(scheduleAt) {
		t.Errorf("schedule time: got %v, want %v", resp.ScheduleTime, scheduleAt)
	}
}

func TestPrimindTasksClientRetriesCreate(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{Name: "tasks/x"})
	}))
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "default", "", 3)
	resp, err := client.CreateTask(context.Background(), &Task{ID: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != "tasks/x" {
		t.Errorf("name: got %q", resp.Name)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls: got %d, want 2", got)
	}
}

func TestPrimindTasksClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "default", "", 3)
	if _, err := client.CreateTask(context.Background(), &Task{ID: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls: got %d, want 1", got)
	}
}

func TestPrimindTasksClientDeleteTask(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "already gone", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/tasks/abc" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewPrimindTasksClient(server.URL, "default", "", 1)
			err := client.DeleteTask(context.Background(), "queues/default/tasks/abc")
			if (err != nil) != tt.wantErr {
				t.Errorf("error: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
