package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/counter"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/deliveryrecorder"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/presenter"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/repository"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/delivery"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/reminder"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/schedule"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/upcoming"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	repo   *repository.SQLiteConfigRepository
	timers *timer.LocalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := repository.NewSQLiteConfigRepository(testutil.SQLitePath(t))
	if err != nil {
		t.Fatalf("NewSQLiteConfigRepository() error = %v", err)
	}
	timers := timer.NewLocalService()
	t.Cleanup(func() {
		timers.Stop()
		_ = repo.Close()
	})

	calculator := schedule.NewCalculator(time.UTC)
	coordinator := scheduler.NewService(repo, timers, calculator, nil, nil)
	reminders := reminder.NewService(repo, coordinator, "UTC")
	feed := upcoming.NewService(repo, calculator, nil)
	deliveries := delivery.NewService(
		repo,
		timers,
		coordinator,
		presenter.NewLogPresenter(),
		counter.NewClient(""),
		deliveryrecorder.NewNoopRecorder(),
		nil,
		delivery.DefaultSnoozeMinutes,
	)

	r := gin.New()
	v1 := r.Group("/api/v1")
	NewReminderHandler(reminders, feed, coordinator, deliveries, repo, UpcomingLimits{Default: 20, Max: 50}).Register(v1)
	NewDeliveryHandler(deliveries).Register(v1)

	return &testEnv{router: r, repo: repo, timers: timers}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, e.router, method, path, body)
}

func serve(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}
