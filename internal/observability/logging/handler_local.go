//go:build !gcloud

package logging

import (
	"context"
	"log/slog"
)

// gcpTraceAttrs adds nothing outside Google Cloud; trace_id and span_id are
// attached by the context handler already.
func gcpTraceAttrs(_ context.Context, _ string) []slog.Attr {
	return nil
}
