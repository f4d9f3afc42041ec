package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewLogged returns a tracer provider that writes every finished span to
// logger at info level. Failed spans are written at warn level.
func NewLogged(logger *slog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(&logExporter{logger: logger}))
}

type logExporter struct {
	logger *slog.Logger
}

func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []slog.Attr{
			slog.String("span", s.Name()),
			slog.String("traceId", s.SpanContext().TraceID().String()),
			slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
		}
		if s.Parent().IsValid() {
			attrs = append(attrs, slog.String("parent", s.Parent().SpanID().String()))
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}

		level := slog.LevelInfo
		if s.Status().Code == codes.Error {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("status", s.Status().Description))
		}

		e.logger.LogAttrs(ctx, level, "span finished", attrs...)
	}
	return nil
}

func (e *logExporter) Shutdown(_ context.Context) error {
	return nil
}
