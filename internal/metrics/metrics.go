// Package metrics exposes server statistics in the Prometheus format.
// A nil *Metrics is valid and records nothing
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "kilodb"

type Metrics struct {
	registry    *prometheus.Registry
	commands    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	expiredKeys prometheus.Counter
	gcSweeps    prometheus.Counter
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors, on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Number of executed commands by name",
		}, []string{"command"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency, excluding network I/O",
			Buckets:   prometheus.ExponentialBuckets(0.000005, 4, 10),
		}, []string{"command"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Number of error replies by category",
		}, []string{"category"}),
		expiredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_keys_total",
			Help:      "Number of keys deleted because their TTL passed",
		}),
		gcSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_sweeps_total",
			Help:      "Number of active expiration rounds",
		}),
	}

	m.registry.MustRegister(
		m.commands,
		m.duration,
		m.errors,
		m.expiredKeys,
		m.gcSweeps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveCommand records one executed command. errCategory is empty for successful replies
func (m *Metrics) ObserveCommand(name string, elapsed time.Duration, errCategory string) {
	if m == nil {
		return
	}

	m.commands.WithLabelValues(name).Inc()
	m.duration.WithLabelValues(name).Observe(elapsed.Seconds())
	if errCategory != "" {
		m.errors.WithLabelValues(errCategory).Inc()
	}
}

// KeyExpired matches the storage expire hook signature
func (m *Metrics) KeyExpired(string) {
	if m == nil {
		return
	}
	m.expiredKeys.Inc()
}

// GCSweep counts one active expiration round
func (m *Metrics) GCSweep() {
	if m == nil {
		return
	}
	m.gcSweeps.Inc()
}

// RegisterGaugeFunc exposes a value computed at scrape time, e.g. the number of connected clients
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	log.Info("metrics listening", zap.String("address", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
