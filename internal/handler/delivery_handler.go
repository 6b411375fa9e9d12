package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
)

// FireHandler delivers one timer firing.
type FireHandler interface {
	HandleFire(ctx context.Context, payload timer.Payload) (domain.DeliveryOutcome, error)
}

// DeliveryHandler is the task queue callback target.
type DeliveryHandler struct {
	fire FireHandler
}

func NewDeliveryHandler(fire FireHandler) *DeliveryHandler {
	return &DeliveryHandler{
		fire: fire,
	}
}

func (h *DeliveryHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/reminders/fire", h.HandleFire)
}

// HandleFire answers 2xx once the firing has been presented or dropped, so the
// queue does not deliver it twice. A failed re-arm is logged and left to the
// reconcile pass. Failures that happen before the generation token is claimed
// (config read, claim itself) return 5xx and the queue retries.
func (h *DeliveryHandler) HandleFire(c *gin.Context) {
	ctx := c.Request.Context()

	var payload timer.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondValidationError(c, err)
		return
	}
	if payload.ItemID <= 0 {
		respondValidationError(c, errInvalidItemID)
		return
	}

	outcome, err := h.fire.HandleFire(ctx, payload)
	if err != nil && outcome == "" {
		respondServiceError(c, err)
		return
	}

	resp := deliveryResponse{Outcome: outcome}
	if err != nil {
		resp.RearmFailed = true
		slog.ErrorContext(ctx, "reminder delivered but next occurrence not armed",
			slog.String("event", "reminder.delivery.rearm.fail"),
			slog.Int64("item_id", payload.ItemID),
			slog.String("error", err.Error()),
		)
	}
	c.JSON(http.StatusOK, resp)
}
