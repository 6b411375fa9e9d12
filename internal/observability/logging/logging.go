package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Module names the component that emitted a record.
type Module string

type ServiceInfo struct {
	Name     string
	Version  string
	Revision string
}

type HandlerConfig struct {
	Service       ServiceInfo
	Environment   Environment
	Level         slog.Leveler
	GCPProjectID  string
	DefaultModule Module
}

// NewHandler returns a JSON handler that stamps every record with service
// metadata and with request, module and trace ids found in the context.
func NewHandler(w io.Writer, cfg HandlerConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.Environment != EnvProd,
		ReplaceAttr: replaceAttr(cfg.Environment),
	}

	attrs := []slog.Attr{
		slog.String("service", cfg.Service.Name),
		slog.String("version", cfg.Service.Version),
		slog.String("env", string(cfg.Environment)),
	}
	if cfg.Service.Revision != "" {
		attrs = append(attrs, slog.String("revision", cfg.Service.Revision))
	}

	return &contextHandler{
		next:          slog.NewJSONHandler(w, opts).WithAttrs(attrs),
		projectID:     cfg.GCPProjectID,
		defaultModule: cfg.DefaultModule,
	}
}

// replaceAttr renames the level and message keys to what Cloud Logging
// expects in production.
func replaceAttr(env Environment) func([]string, slog.Attr) slog.Attr {
	if env != EnvProd {
		return nil
	}
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.LevelKey:
			return slog.String("severity", strings.ToUpper(a.Value.String()))
		case slog.MessageKey:
			return slog.String("message", a.Value.String())
		}
		return a
	}
}

type contextHandler struct {
	next          slog.Handler
	projectID     string
	defaultModule Module
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			r.AddAttrs(slog.String("request_id", requestID))
		}

		module := ModuleFromContext(ctx)
		if module == "" {
			module = h.defaultModule
		}
		if module != "" {
			r.AddAttrs(slog.String("module", string(module)))
		}

		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
			r.AddAttrs(gcpTraceAttrs(ctx, h.projectID)...)
		}
	}

	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), projectID: h.projectID, defaultModule: h.defaultModule}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), projectID: h.projectID, defaultModule: h.defaultModule}
}
