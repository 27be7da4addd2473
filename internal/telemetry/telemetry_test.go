package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func newTestProvider(t *testing.T, slow time.Duration) (*Provider, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewProvider(logger, slow)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p, &buf
}

func TestSpanLoggerDebugOnSuccess(t *testing.T) {
	t.Parallel()

	p, buf := newTestProvider(t, 0)
	_, span := p.Tracer("test").Start(context.Background(), "autoheal.pass")
	span.SetAttributes(attribute.Int("autoheal.restarted", 2), attribute.Bool("autoheal.dry_run", false))
	span.End()

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "span=autoheal.pass", "autoheal.restarted=2", "autoheal.dry_run=false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSpanLoggerWarnsOnError(t *testing.T) {
	t.Parallel()

	p, buf := newTestProvider(t, 0)
	_, span := p.Tracer("test").Start(context.Background(), "autoheal.restart")
	span.RecordError(errors.New("engine refused"))
	span.SetStatus(codes.Error, "engine refused")
	span.End()

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `err="engine refused"`) {
		t.Fatalf("log output = %s, want warn with error", out)
	}
}

func TestSpanLoggerWarnsWhenSlow(t *testing.T) {
	t.Parallel()

	p, buf := newTestProvider(t, time.Millisecond)
	start := time.Now()
	_, span := p.Tracer("test").Start(context.Background(), "autoheal.pass")
	span.End(trace.WithTimestamp(start.Add(time.Second)))

	if out := buf.String(); !strings.Contains(out, "span slow") {
		t.Fatalf("log output = %s, want slow warning", out)
	}
}
