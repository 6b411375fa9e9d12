//go:build gcloud

package counter

import (
	"context"
	"log/slog"
	"net/http"

	"google.golang.org/api/idtoken"
)

// newHTTPClient signs requests with an ID token for the counter service
// audience. Without credentials it degrades to unauthenticated calls.
func newHTTPClient(audience string) *http.Client {
	authed, err := idtoken.NewClient(context.Background(), audience)
	if err != nil {
		slog.Warn("counter requests will be unauthenticated",
			slog.String("event", "counter.auth.fallback"),
			slog.String("error", err.Error()),
		)
		return plainHTTPClient()
	}
	authed.Timeout = requestTimeout
	return authed
}
