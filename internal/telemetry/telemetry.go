// Package telemetry installs the tracer provider used by the supervisor and
// turns finished spans into log records.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider wraps an SDK tracer provider whose spans are logged on end.
type Provider struct {
	provider *sdktrace.TracerProvider
}

// NewProvider logs every finished span at debug level, and at warn level
// when it failed or ran longer than slow. A zero slow disables the
// duration check.
func NewProvider(logger *slog.Logger, slow time.Duration) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &spanLogger{logger: logger, slow: slow}
	return &Provider{provider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(p))}
}

func (p *Provider) Tracer(name string) trace.Tracer {
	return p.provider.Tracer(name)
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

type spanLogger struct {
	logger *slog.Logger
	slow   time.Duration
}

func (p *spanLogger) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *spanLogger) OnEnd(span sdktrace.ReadOnlySpan) {
	elapsed := span.EndTime().Sub(span.StartTime())
	args := []any{"span", span.Name(), "duration", elapsed}
	for _, attr := range span.Attributes() {
		args = append(args, string(attr.Key), attributeValue(attr))
	}

	status := span.Status()
	switch {
	case status.Code == codes.Error:
		p.logger.Warn("span failed", append(args, "err", status.Description)...)
	case p.slow > 0 && elapsed > p.slow:
		p.logger.Warn("span slow", append(args, "threshold", p.slow)...)
	default:
		p.logger.Debug("span finished", args...)
	}
}

func (p *spanLogger) Shutdown(context.Context) error {
	return nil
}

func (p *spanLogger) ForceFlush(context.Context) error {
	return nil
}

func attributeValue(attr attribute.KeyValue) any {
	switch attr.Value.Type() {
	case attribute.BOOL:
		return attr.Value.AsBool()
	case attribute.INT64:
		return attr.Value.AsInt64()
	case attribute.FLOAT64:
		return attr.Value.AsFloat64()
	default:
		return attr.Value.Emit()
	}
}
