package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGin_RequestID(t *testing.T) {
	const valid = "0b4f4f43-4a0c-4a53-9d0d-6a3f1c0a2b1e"

	tests := []struct {
		name       string
		header     string
		wantEcho   bool
		wantHeader bool
	}{
		{name: "valid request id is propagated", header: valid, wantEcho: true, wantHeader: true},
		{name: "missing request id is generated", header: "", wantHeader: true},
		{name: "invalid request id is replaced", header: "not-a-uuid", wantHeader: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string

			r := gin.New()
			r.Use(Gin(GinConfig{Module: logging.Module("test")}))
			r.GET("/ping", func(c *gin.Context) {
				seen = logging.RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(logging.RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(logging.RequestIDHeader)
			if tt.wantHeader && got == "" {
				t.Fatalf("response request id header missing")
			}
			if tt.wantEcho && got != tt.header {
				t.Errorf("request id: got %q, want %q", got, tt.header)
			}
			if !tt.wantEcho && got == tt.header {
				t.Errorf("request id %q should have been replaced", got)
			}
			if seen != got {
				t.Errorf("context request id: got %q, want %q", seen, got)
			}
		})
	}
}

func TestPanicRecoveryGin(t *testing.T) {
	r := gin.New()
	r.Use(Gin(GinConfig{}))
	r.Use(PanicRecoveryGin())
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
