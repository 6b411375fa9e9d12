package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/reminder"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/upcoming"
)

// ActionHandler runs an action chosen on a delivered reminder.
type ActionHandler interface {
	HandleAction(ctx context.Context, itemID int64, kind domain.ActionKind, payload string) error
}

// ChangeWatcher streams config changes until ctx is done.
type ChangeWatcher interface {
	Watch(ctx context.Context) (<-chan domain.ConfigChange, error)
}

type UpcomingLimits struct {
	Default int
	Max     int
}

type ReminderHandler struct {
	reminders   *reminder.Service
	feed        *upcoming.Service
	coordinator scheduler.Coordinator
	actions     ActionHandler
	watcher     ChangeWatcher
	limits      UpcomingLimits
}

func NewReminderHandler(
	reminders *reminder.Service,
	feed *upcoming.Service,
	coordinator scheduler.Coordinator,
	actions ActionHandler,
	watcher ChangeWatcher,
	limits UpcomingLimits,
) *ReminderHandler {
	return &ReminderHandler{
		reminders:   reminders,
		feed:        feed,
		coordinator: coordinator,
		actions:     actions,
		watcher:     watcher,
		limits:      limits,
	}
}

func (h *ReminderHandler) Register(rg *gin.RouterGroup) {
	r := rg.Group("/reminders")
	r.GET("", h.List)
	r.GET("/upcoming", h.Upcoming)
	r.GET("/changes", h.StreamChanges)
	r.POST("/disable-all", h.DisableAll)
	r.POST("/reschedule-all", h.RescheduleAll)
	r.GET("/:item_id", h.Get)
	r.PUT("/:item_id", h.Put)
	r.DELETE("/:item_id", h.Delete)
	r.POST("/:item_id/enable", h.Enable)
	r.POST("/:item_id/disable", h.Disable)
	r.POST("/:item_id/snooze", h.Snooze)
	r.POST("/:item_id/actions", h.Action)
}

func (h *ReminderHandler) List(c *gin.Context) {
	configs, err := h.reminders.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]reminderResponse, 0, len(configs))
	for _, cfg := range configs {
		resp = append(resp, newReminderResponse(cfg))
	}
	c.JSON(http.StatusOK, gin.H{"reminders": resp})
}

func (h *ReminderHandler) Get(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	cfg, err := h.reminders.Get(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReminderResponse(cfg))
}

func (h *ReminderHandler) Put(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.StartAt.IsZero() {
		respondValidationError(c, errors.New("start_at is required"))
		return
	}

	cfg := req.toDomain(itemID)
	if err := h.reminders.Upsert(c.Request.Context(), cfg); err != nil {
		respondServiceError(c, err)
		return
	}

	slog.InfoContext(c.Request.Context(), "reminder config saved",
		slog.String("event", "reminder.upsert"),
		slog.Int64("item_id", itemID),
		slog.Bool("enabled", cfg.Enabled),
	)
	c.JSON(http.StatusOK, newReminderResponse(cfg))
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := h.reminders.Delete(c.Request.Context(), itemID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReminderHandler) Enable(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondValidationError(c, err)
		return
	}

	cfg, err := h.reminders.SetEnabled(c.Request.Context(), itemID, req.ItemTitle, true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReminderResponse(cfg))
}

func (h *ReminderHandler) Disable(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := h.reminders.Disable(c.Request.Context(), itemID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReminderHandler) DisableAll(c *gin.Context) {
	count, err := h.reminders.DisableAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled": count})
}

func (h *ReminderHandler) Snooze(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.coordinator.ScheduleSnooze(c.Request.Context(), itemID, req.Minutes); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *ReminderHandler) Action(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.actions.HandleAction(c.Request.Context(), itemID, req.Kind, req.Payload); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *ReminderHandler) Upcoming(c *gin.Context) {
	limit := h.limits.Default
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondValidationError(c, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = min(parsed, h.limits.Max)
	}

	from := time.Now()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondValidationError(c, errors.New("invalid from time format, expected RFC3339"))
			return
		}
		from = parsed
	}

	ids, err := parseItemIDs(c.QueryArray("item_id"))
	if err != nil {
		respondValidationError(c, err)
		return
	}

	occurrences, err := h.feed.GetUpcoming(c.Request.Context(), limit, from, upcoming.NewItemFilter(ids...))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]occurrenceResponse, 0, len(occurrences))
	for _, o := range occurrences {
		resp = append(resp, occurrenceResponse{
			ItemID:      o.ItemID,
			ScheduledAt: o.ScheduledAt,
			Title:       o.Title,
			Body:        o.Body,
		})
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": resp})
}

// parseItemIDs accepts repeated item_id parameters as well as comma separated lists.
func parseItemIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: %q", errInvalidItemID, part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// StreamChanges forwards config change notifications as server-sent events
// until the client goes away.
func (h *ReminderHandler) StreamChanges(c *gin.Context) {
	ctx := c.Request.Context()

	changes, err := h.watcher.Watch(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent(string(change.Kind), change)
			return true
		}
	})
}

func (h *ReminderHandler) RescheduleAll(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.coordinator.RescheduleAll(ctx)
	if err != nil {
		if result.Failed == 0 {
			respondServiceError(c, err)
			return
		}
		slog.WarnContext(ctx, "reschedule-all finished with failures",
			slog.String("event", "reminder.reschedule_all.partial"),
			slog.Int("failed", result.Failed),
			slog.String("error", err.Error()),
		)
	}
	c.JSON(http.StatusOK, result)
}
