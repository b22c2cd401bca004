// Package metrics exposes Prometheus instruments for the tracker.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Price lookup outcomes.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Metrics groups the tracker's instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	priceLookups *prometheus.CounterVec
	datasetRuns  *prometheus.CounterVec
	rowsWritten  *prometheus.GaugeVec
	runDuration  prometheus.Histogram
	lastSuccess  *prometheus.GaugeVec
}

// New creates the instruments and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		priceLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ocean_tracker_price_lookups_total",
				Help: "Historical price lookups by outcome",
			},
			[]string{"result"},
		),
		datasetRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ocean_tracker_dataset_runs_total",
				Help: "Dataset processing attempts by dataset and status",
			},
			[]string{"dataset", "status"},
		),
		rowsWritten: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ocean_tracker_rows_written",
				Help: "Data rows written in the last successful update",
			},
			[]string{"dataset"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ocean_tracker_run_duration_seconds",
				Help:    "Duration of a full scrape cycle",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ocean_tracker_last_success_timestamp_seconds",
				Help: "Unix time of the last successful sheet update",
			},
			[]string{"dataset"},
		),
	}

	m.registry.MustRegister(
		m.priceLookups,
		m.datasetRuns,
		m.rowsWritten,
		m.runDuration,
		m.lastSuccess,
	)
	return m
}

func (m *Metrics) PriceLookup(result string) {
	if m == nil {
		return
	}
	m.priceLookups.WithLabelValues(result).Inc()
}

// DatasetResult records the outcome of one dataset update.
func (m *Metrics) DatasetResult(dataset, status string, rows int) {
	if m == nil {
		return
	}
	m.datasetRuns.WithLabelValues(dataset, status).Inc()
	if status == "ok" {
		m.rowsWritten.WithLabelValues(dataset).Set(float64(rows))
		m.lastSuccess.WithLabelValues(dataset).Set(float64(time.Now().Unix()))
	}
}

func (m *Metrics) RunFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) {
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
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
}
