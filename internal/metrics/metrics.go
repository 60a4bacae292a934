// Package metrics exposes Prometheus instrumentation for the analysis
// and validation services.
package metrics

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the forecast engine.
// Each service creates its own instance with a private registry, so
// analyzer and validator never collide on metric registration.
type Metrics struct {
	registry *prometheus.Registry

	// Analysis pipeline
	RunsTotal        prometheus.Counter
	RunErrors        prometheus.Counter
	RunDur           prometheus.Histogram
	PredictionsTotal *prometheus.CounterVec // labels: timeframe
	ObservationsUsed prometheus.Gauge
	ConfidenceScore  *prometheus.GaugeVec // labels: timeframe
	AugmentFailures  prometheus.Counter

	// Validation pass
	ValidationsTotal   prometheus.Counter
	ValidationMisses   prometheus.Counter
	ValidationAccuracy prometheus.Histogram

	// Storage
	SQLiteWriteDur prometheus.Histogram
}

// New registers and returns all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Total analysis runs started",
		}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_run_errors_total",
			Help: "Analysis runs aborted with an error",
		}),
		RunDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_run_duration_seconds",
			Help:    "Full analysis run latency",
			Buckets: prometheus.DefBuckets,
		}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Predictions persisted (by timeframe)",
		}, []string{"timeframe"}),
		ObservationsUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_observations_used",
			Help: "Observations in the window of the last run",
		}),
		ConfidenceScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forecast_confidence_score",
			Help: "Confidence of the latest prediction (by timeframe)",
		}, []string{"timeframe"}),
		AugmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_augment_failures_total",
			Help: "Rationale augmentation calls that fell back to the deterministic text",
		}),

		ValidationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_validations_total",
			Help: "Predictions validated against realized prices",
		}),
		ValidationMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_validation_misses_total",
			Help: "Past-due predictions left pending (no realized price in tolerance)",
		}),
		ValidationAccuracy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_validation_accuracy",
			Help:    "Accuracy of validated predictions (0-100)",
			Buckets: []float64{0, 50, 70, 80, 85, 90, 95, 99, 100},
		}),

		SQLiteWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_sqlite_write_duration_seconds",
			Help:    "SQLite insert/update latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunErrors,
		m.RunDur,
		m.PredictionsTotal,
		m.ObservationsUsed,
		m.ConfidenceScore,
		m.AugmentFailures,
		m.ValidationsTotal,
		m.ValidationMisses,
		m.ValidationAccuracy,
		m.SQLiteWriteDur,
	)

	return m
}

// Serve starts the /metrics and /healthz HTTP server in a goroutine.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok")
	})
	go func() {
		log.Printf("[metrics] serving on %s (/metrics, /healthz)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}
