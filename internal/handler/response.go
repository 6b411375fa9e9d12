package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/counter"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/reminder"
)

var errInvalidItemID = errors.New("item_id must be a positive integer")

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, errorResponse{
		Error:   errType,
		Message: message,
	})
}

func respondValidationError(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "request validation failed",
		slog.String("error", err.Error()),
		slog.String("path", c.Request.URL.Path),
	)
	respondError(c, http.StatusBadRequest, "validation_error", err.Error())
}

// respondServiceError maps service errors onto HTTP statuses. Timer backend
// timeouts are reported as 503 because a retry, or the next reconcile, can
// succeed.
func respondServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, reminder.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidSnoozeMinutes),
		errors.Is(err, domain.ErrUnknownAction):
		respondValidationError(c, err)
	case errors.Is(err, domain.ErrConfigNotFound):
		respondError(c, http.StatusNotFound, "not_found", "reminder config not found")
	case errors.Is(err, counter.ErrItemNotFound):
		respondError(c, http.StatusNotFound, "not_found", "item not found")
	case timer.IsRetryable(err):
		slog.WarnContext(ctx, "timer backend unavailable",
			slog.String("event", "http.timer.unavailable"),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusServiceUnavailable, "timer_unavailable", "timer backend did not respond in time")
	default:
		slog.ErrorContext(ctx, "request processing failed",
			slog.String("event", "http.processing.fail"),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to process request")
	}
}

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || id <= 0 {
		respondValidationError(c, errInvalidItemID)
		return 0, false
	}
	return id, true
}
