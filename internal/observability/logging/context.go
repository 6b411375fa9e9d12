package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	moduleKey
)

// RequestIDHeader carries the request id between services.
const RequestIDHeader = "x-request-id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ValidateAndExtractRequestID returns requestID when it is a UUID and a new
// UUID otherwise.
func ValidateAndExtractRequestID(requestID string) string {
	if requestID != "" {
		if _, err := uuid.Parse(requestID); err == nil {
			return requestID
		}
	}
	return uuid.NewString()
}

func WithModule(ctx context.Context, module Module) context.Context {
	return context.WithValue(ctx, moduleKey, module)
}

func ModuleFromContext(ctx context.Context) Module {
	if v, ok := ctx.Value(moduleKey).(Module); ok {
		return v
	}
	return ""
}
