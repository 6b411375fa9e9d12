package counter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/tracing"
)

var ErrItemNotFound = errors.New("counter item not found")

const requestTimeout = 10 * time.Second

func plainHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the counter service at baseURL. An empty
// baseURL yields a client whose calls only log.
func NewClient(baseURL string) Repository {
	if baseURL == "" {
		return noopClient{}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: newHTTPClient(baseURL),
	}
}

func (c *Client) ResetCount(ctx context.Context, itemID int64) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}

	u = u.JoinPath("api", "v1", "items", strconv.FormatInt(itemID, 10), "reset")

	ctx, span := tracing.StartExternalAPISpan(ctx, "reset_count", u.String())
	defer span.End()

	slog.DebugContext(ctx, "resetting counter",
		slog.Int64("item_id", itemID),
		slog.String("url", u.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	requestID := logging.ValidateAndExtractRequestID(logging.RequestIDFromContext(ctx))
	req.Header.Set(logging.RequestIDHeader, requestID)
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send reset request",
			slog.Int64("item_id", itemID),
			slog.String("url", u.String()),
			slog.String("error", err.Error()),
		)
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
	case http.StatusNotFound:
		tracing.RecordError(span, ErrItemNotFound)
		return fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	default:
		slog.ErrorContext(ctx, "unexpected status code when resetting counter",
			slog.Int64("item_id", itemID),
			slog.String("url", u.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		tracing.RecordError(span, err)
		return err
	}

	slog.InfoContext(ctx, "counter reset",
		slog.String("event", "counter.reset"),
		slog.Int64("item_id", itemID),
	)

	tracing.RecordError(span, nil)
	return nil
}

type noopClient struct{}

func (noopClient) ResetCount(ctx context.Context, itemID int64) error {
	slog.WarnContext(ctx, "counter service not configured, reset skipped",
		slog.String("event", "counter.reset.skip"),
		slog.Int64("item_id", itemID),
	)
	return nil
}
