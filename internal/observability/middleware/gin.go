package middleware

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/tracing"
)

const defaultTracerName = "github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/middleware"

type GinConfig struct {
	SkipPaths   []string
	Module      logging.Module
	TracerName  string
	HTTPMetrics *metrics.HTTPMetrics
}

// Gin attaches a request id, a server span and an access log line to every request.
func Gin(cfg GinConfig) gin.HandlerFunc {
	tracerName := cfg.TracerName
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	tracer := otel.Tracer(tracerName)

	return func(c *gin.Context) {
		start := time.Now()

		requestID := logging.ValidateAndExtractRequestID(c.GetHeader(logging.RequestIDHeader))
		c.Header(logging.RequestIDHeader, requestID)

		ctx := tracing.ExtractFromHTTPRequest(c.Request.Context(), c.Request)
		ctx = logging.WithRequestID(ctx, requestID)
		if cfg.Module != "" {
			ctx = logging.WithModule(ctx, cfg.Module)
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("request_id", requestID),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)

		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}

		cfg.HTTPMetrics.RecordRequest(ctx, c.Request.Method, route, status, elapsed)

		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			return
		}

		attrs := []any{
			slog.String("event", "http.request"),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request completed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request completed", attrs...)
		default:
			slog.InfoContext(ctx, "request completed", attrs...)
		}
	}
}
