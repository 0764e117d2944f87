package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runMetrics counts pipeline runs and their output.
type runMetrics struct {
	registry *prometheus.Registry
	unmapped *normalize.MetricsSink
	runs     *prometheus.CounterVec
	records  *prometheus.CounterVec
	triples  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newRunMetrics() (*runMetrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	unmapped, err := normalize.NewMetricsSink(reg)
	if err != nil {
		return nil, err
	}

	m := &runMetrics{
		registry: reg,
		unmapped: unmapped,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semcode",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"pipeline", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semcode",
			Name:      "pipeline_records_total",
			Help:      "Source records read, by outcome.",
		}, []string{"pipeline", "status"}),
		triples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semcode",
			Name:      "pipeline_triples_total",
			Help:      "Triples asserted by pipeline runs.",
		}, []string{"pipeline"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "semcode",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"pipeline"}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.records, m.triples, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register run metrics: %w", err)
		}
	}
	return m, nil
}

// observe records one finished run. stats may be nil when the run never
// started.
func (m *runMetrics) observe(name string, stats *pipeline.Stats, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(name, status).Inc()
	if stats == nil {
		return
	}
	m.records.WithLabelValues(name, "ok").Add(float64(stats.Records - stats.Failed))
	m.records.WithLabelValues(name, "failed").Add(float64(stats.Failed))
	m.triples.WithLabelValues(name).Add(float64(stats.Triples))
	if !stats.Finished.IsZero() {
		m.duration.WithLabelValues(name).Observe(stats.Duration().Seconds())
	}
}

// serve exposes the registry on addr until ctx is done.
func (m *runMetrics) serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics endpoint listening", "addr", ln.Addr().String())
	return nil
}
