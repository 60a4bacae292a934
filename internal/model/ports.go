package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the analysis pipeline from concrete storage
// implementations (SQLite, Redis). The collector that fills the
// observation table and the dashboard that reads results live outside
// this repository; everything meets at these ports.

// ObservationSource reads stored market observations.
type ObservationSource interface {
	// ReadObservations returns observations with Timestamp >= since,
	// ordered ascending and deduplicated by timestamp.
	ReadObservations(ctx context.Context, since time.Time) ([]Observation, error)

	// FindNearestObservation returns the observation closest to at
	// within ±tolerance, or nil if none exists in that window.
	FindNearestObservation(ctx context.Context, at time.Time, tolerance time.Duration) (*Observation, error)
}

// ResultStore persists analysis results and their single validation update.
type ResultStore interface {
	// SaveResult inserts one result atomically and sets its ID.
	SaveResult(ctx context.Context, r *AnalysisResult) error

	// FindPendingValidation returns results whose ValidationTime is
	// before the given instant and whose actual price is still unset.
	FindPendingValidation(ctx context.Context, before time.Time) ([]AnalysisResult, error)

	// UpdateValidation fills actual_price/accuracy/error_percentage for
	// one row. Returns false if the row was already validated — the
	// update is a no-op then, making validation passes idempotent.
	UpdateValidation(ctx context.Context, id int64, actualPrice, accuracy, errorPct float64) (bool, error)

	// ReadValidatedResults returns validated rows for stats aggregation,
	// optionally filtered by timeframe tag ("" = all) and a trailing
	// window start (zero time = no window).
	ReadValidatedResults(ctx context.Context, timeframe string, since time.Time) ([]AnalysisResult, error)
}

// StatusReporter records service run status for the monitoring surface.
type StatusReporter interface {
	UpdateStatus(ctx context.Context, st ServiceStatus) error
}

// ResultCache keeps the latest prediction per timeframe hot for the
// dashboard and publishes run status events.
type ResultCache interface {
	CacheLatest(ctx context.Context, r *AnalysisResult) error
	PublishStatus(ctx context.Context, st ServiceStatus) error
	Close() error
}
