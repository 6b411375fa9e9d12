package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
)

func dailyRequest(start time.Time) map[string]any {
	return map[string]any{
		"enabled":       true,
		"title":         "Stretch",
		"body":          "Stand up",
		"schedule_kind": "repeating",
		"start_at":      start.Format(time.RFC3339),
		"time_zone":     "UTC",
		"repeat_kind":   "daily",
		"actions": []map[string]any{
			{"label": "Done", "kind": "mark_done"},
			{"label": "Later", "kind": "snooze", "payload": "15"},
		},
	}
}

func TestReminderHandler_PutGetList(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)

	w := env.do(t, http.MethodPut, "/api/v1/reminders/7", dailyRequest(start))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status: got %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	if !env.timers.Pending(timer.Name(7)) {
		t.Errorf("timer for item 7 not installed")
	}

	w = env.do(t, http.MethodGet, "/api/v1/reminders/7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status: got %d, want %d", w.Code, http.StatusOK)
	}
	got := decode[reminderResponse](t, w)
	if got.Title != "Stretch" || got.RepeatKind != domain.RepeatDaily || !got.StartAt.Equal(start) {
		t.Errorf("GET body: got %+v", got)
	}
	if len(got.Actions) != 2 || got.Actions[1].Payload != "15" {
		t.Errorf("actions: got %+v", got.Actions)
	}

	w = env.do(t, http.MethodGet, "/api/v1/reminders", nil)
	list := decode[struct {
		Reminders []reminderResponse `json:"reminders"`
	}](t, w)
	if len(list.Reminders) != 1 || list.Reminders[0].ItemID != 7 {
		t.Errorf("list: got %+v", list.Reminders)
	}
}

func TestReminderHandler_PutValidation(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{name: "bad item id", path: "/api/v1/reminders/abc", body: dailyRequest(start)},
		{name: "zero item id", path: "/api/v1/reminders/0", body: dailyRequest(start)},
		{
			name: "missing title",
			path: "/api/v1/reminders/1",
			body: func() map[string]any { b := dailyRequest(start); delete(b, "title"); return b }(),
		},
		{
			name: "missing start",
			path: "/api/v1/reminders/1",
			body: func() map[string]any { b := dailyRequest(start); delete(b, "start_at"); return b }(),
		},
		{
			name: "interval without minutes",
			path: "/api/v1/reminders/1",
			body: func() map[string]any { b := dailyRequest(start); b["repeat_kind"] = "interval"; return b }(),
		},
		{
			name: "unknown zone",
			path: "/api/v1/reminders/1",
			body: func() map[string]any { b := dailyRequest(start); b["time_zone"] = "Mars/Olympus"; return b }(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, http.StatusBadRequest, w.Body.String())
			}
			if resp := decode[errorResponse](t, w); resp.Error != "validation_error" {
				t.Errorf("error type: got %q, want %q", resp.Error, "validation_error")
			}
		})
	}

	if env.timers.Len() != 0 {
		t.Errorf("timers after rejected input: got %d, want 0", env.timers.Len())
	}
}

func TestReminderHandler_GetMissing(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/reminders/404", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestReminderHandler_EnableDisableDelete(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/reminders/3/enable", map[string]any{"item_title": "Water"})
	if w.Code != http.StatusOK {
		t.Fatalf("enable status: got %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	got := decode[reminderResponse](t, w)
	if !got.Enabled || got.Title != "Water" || got.ScheduleKind != domain.ScheduleOneTime {
		t.Errorf("enabled config: got %+v", got)
	}
	if !env.timers.Pending(timer.Name(3)) {
		t.Errorf("timer for item 3 not installed")
	}

	w = env.do(t, http.MethodPost, "/api/v1/reminders/3/disable", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("disable status: got %d, want %d", w.Code, http.StatusNoContent)
	}
	if env.timers.Pending(timer.Name(3)) {
		t.Errorf("timer for item 3 still pending after disable")
	}

	w = env.do(t, http.MethodDelete, "/api/v1/reminders/3", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want %d", w.Code, http.StatusNoContent)
	}
	w = env.do(t, http.MethodDelete, "/api/v1/reminders/3", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("repeated delete status: got %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestReminderHandler_EnableWithoutTitle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/reminders/3/enable", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d (%s)", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestReminderHandler_DisableAll(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().Add(time.Hour)

	for _, id := range []int{1, 2} {
		if w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/reminders/%d", id), dailyRequest(start)); w.Code != http.StatusOK {
			t.Fatalf("PUT %d status: got %d", id, w.Code)
		}
	}

	w := env.do(t, http.MethodPost, "/api/v1/reminders/disable-all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	if got := decode[map[string]int](t, w)["disabled"]; got != 2 {
		t.Errorf("disabled: got %d, want 2", got)
	}
	if env.timers.Len() != 0 {
		t.Errorf("timers: got %d, want 0", env.timers.Len())
	}
}

func TestReminderHandler_Upcoming(t *testing.T) {
	env := newTestEnv(t)
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	first := dailyRequest(from.Add(9 * time.Hour))
	second := dailyRequest(from.Add(10 * time.Hour))
	second["title"] = "Read"
	env.do(t, http.MethodPut, "/api/v1/reminders/1", first)
	env.do(t, http.MethodPut, "/api/v1/reminders/2", second)

	type feed struct {
		Occurrences []occurrenceResponse `json:"occurrences"`
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{name: "merged", query: "limit=3", wantIDs: []int64{1, 2, 1}},
		{name: "filtered", query: "limit=2&item_id=2", wantIDs: []int64{2, 2}},
		{name: "comma list", query: "limit=2&item_id=1,2", wantIDs: []int64{1, 2}},
		{name: "zero limit", query: "limit=0", wantIDs: []int64{}},
		{name: "clamped to max", query: "limit=1000&item_id=1", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/v1/reminders/upcoming?from=" + from.Format(time.RFC3339) + "&" + tt.query
			w := env.do(t, http.MethodGet, path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
			}
			got := decode[feed](t, w).Occurrences

			if tt.wantIDs == nil {
				if len(got) != 50 {
					t.Errorf("len: got %d, want 50", len(got))
				}
				return
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len: got %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ItemID != id {
					t.Errorf("occurrence %d item: got %d, want %d", i, got[i].ItemID, id)
				}
			}
			if len(got) > 0 && !got[0].ScheduledAt.Equal(from.Add(9*time.Hour)) && tt.name == "merged" {
				t.Errorf("first occurrence: got %v, want %v", got[0].ScheduledAt, from.Add(9*time.Hour))
			}
		})
	}
}

func TestReminderHandler_UpcomingInvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, query := range []string{"limit=-1", "limit=x", "from=yesterday", "item_id=0"} {
		w := env.do(t, http.MethodGet, "/api/v1/reminders/upcoming?"+query, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s status: got %d, want %d", query, w.Code, http.StatusBadRequest)
		}
	}
}

func TestReminderHandler_SnoozeAndActions(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPut, "/api/v1/reminders/5", dailyRequest(time.Now().Add(5*time.Hour)))

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "snooze", path: "/api/v1/reminders/5/snooze", body: map[string]any{"minutes": 5}, want: http.StatusAccepted},
		{name: "snooze zero minutes", path: "/api/v1/reminders/5/snooze", body: map[string]any{"minutes": 0}, want: http.StatusBadRequest},
		{name: "snooze action", path: "/api/v1/reminders/5/actions", body: map[string]any{"kind": "snooze", "payload": "abc"}, want: http.StatusAccepted},
		{name: "open item", path: "/api/v1/reminders/5/actions", body: map[string]any{"kind": "open_item"}, want: http.StatusAccepted},
		{name: "mark done without counter service", path: "/api/v1/reminders/5/actions", body: map[string]any{"kind": "mark_done"}, want: http.StatusAccepted},
		{name: "unknown action", path: "/api/v1/reminders/5/actions", body: map[string]any{"kind": "archive"}, want: http.StatusBadRequest},
		{name: "missing kind", path: "/api/v1/reminders/5/actions", body: map[string]any{}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if !env.timers.Pending(timer.Name(5)) || env.timers.Len() != 1 {
		t.Errorf("timers: got %d, want exactly the one for item 5", env.timers.Len())
	}
}

func TestReminderHandler_RescheduleAll(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPut, "/api/v1/reminders/1", dailyRequest(time.Now().Add(time.Hour)))
	if err := env.timers.Cancel(context.Background(), timer.Name(1)); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/v1/reminders/reschedule-all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	got := decode[scheduler.RescheduleResult](t, w)
	if got.Total != 1 || got.Scheduled != 1 || got.Failed != 0 {
		t.Errorf("result: got %+v, want {1 1 0}", got)
	}
	if !env.timers.Pending(timer.Name(1)) {
		t.Errorf("timer for item 1 not reinstalled")
	}
}

func TestReminderHandler_TimerTimeoutMapsTo503(t *testing.T) {
	ctrl := gomock.NewController(t)
	coordinator := scheduler.NewMockCoordinator(ctrl)
	coordinator.EXPECT().
		ScheduleSnooze(gomock.Any(), int64(9), 10).
		Return(fmt.Errorf("install timer for item 9: %w", timer.ErrTimeout))
	coordinator.EXPECT().
		RescheduleAll(gomock.Any()).
		Return(scheduler.RescheduleResult{Total: 2, Scheduled: 1, Failed: 1}, fmt.Errorf("item 2: %w", timer.ErrTimeout))

	r := gin.New()
	NewReminderHandler(nil, nil, coordinator, nil, nil, UpcomingLimits{Default: 1, Max: 1}).Register(r.Group("/api/v1"))

	w := serve(t, r, http.MethodPost, "/api/v1/reminders/9/snooze", map[string]any{"minutes": 10})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("snooze status: got %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	w = serve(t, r, http.MethodPost, "/api/v1/reminders/reschedule-all", nil)
	if w.Code != http.StatusOK {
		t.Errorf("partial reschedule status: got %d, want %d", w.Code, http.StatusOK)
	}
	if got := decode[scheduler.RescheduleResult](t, w); got.Failed != 1 {
		t.Errorf("failed: got %d, want 1", got.Failed)
	}
}

type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

type fakeWatcher struct {
	changes []domain.ConfigChange
}

func (f *fakeWatcher) Watch(context.Context) (<-chan domain.ConfigChange, error) {
	ch := make(chan domain.ConfigChange, len(f.changes))
	for _, c := range f.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestReminderHandler_StreamChanges(t *testing.T) {
	watcher := &fakeWatcher{changes: []domain.ConfigChange{
		{ItemID: 1, Kind: domain.ChangeUpserted, At: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Kind: domain.ChangeDisabledAll, At: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)},
	}}

	r := gin.New()
	NewReminderHandler(nil, nil, nil, nil, watcher, UpcomingLimits{}).Register(r.Group("/api/v1"))

	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reminders/changes", nil))

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type: got %q, want text/event-stream", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"event:upserted", `"item_id":1`, "event:disabled_all"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream body missing %q: %s", want, body)
		}
	}
}
