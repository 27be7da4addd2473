package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"autoheal/internal/heal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ heal.Recorder = (*Metrics)(nil)

// Metrics turns supervision events into prometheus collectors on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	restarts     *prometheus.CounterVec
	giveUps      *prometheus.CounterVec
	recoveries   prometheus.Counter
	tracked      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoheal_passes_total",
				Help: "Supervision passes by result",
			},
			[]string{"result"}, // "ok", "error"
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "autoheal_pass_duration_seconds",
				Help:    "Wall time of successful supervision passes",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		restarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoheal_restarts_total",
				Help: "Container restart attempts by reason and result",
			},
			[]string{"reason", "result"},
		),
		giveUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoheal_give_ups_total",
				Help: "Passes in which a container had exhausted its restart budget",
			},
			[]string{"reason"},
		),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autoheal_recoveries_total",
			Help: "Containers observed healthy again after restarts",
		}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autoheal_tracked_containers",
			Help: "Containers with unresolved restart attempts",
		}),
	}

	m.registry.MustRegister(
		m.passes,
		m.passDuration,
		m.restarts,
		m.giveUps,
		m.recoveries,
		m.tracked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Record updates collectors for ev. It never fails.
func (m *Metrics) Record(_ context.Context, ev heal.Event) error {
	switch ev.Kind {
	case heal.EventRestarted:
		m.restarts.WithLabelValues(ev.Reason.String(), "ok").Inc()
	case heal.EventRestartFailed:
		m.restarts.WithLabelValues(ev.Reason.String(), "error").Inc()
	case heal.EventGaveUp:
		m.giveUps.WithLabelValues(ev.Reason.String()).Inc()
	case heal.EventRecovered:
		m.recoveries.Inc()
	case heal.EventPassCompleted:
		m.passes.WithLabelValues("ok").Inc()
		m.passDuration.Observe(ev.Duration.Seconds())
		m.tracked.Set(float64(ev.Tracked))
	case heal.EventPassFailed:
		m.passes.WithLabelValues("error").Inc()
	}
	return nil
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve listens on addr and serves /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
