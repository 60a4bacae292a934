// Package validate re-examines past predictions once their horizon has
// elapsed, comparing predicted against realized prices and keeping the
// rolling accuracy record. It runs as its own lower-frequency pass and
// only ever touches rows the analysis pipeline has finished with, so it
// needs no coordination with new runs.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"forecast-systemv1/internal/metrics"
	"forecast-systemv1/internal/model"
)

// ServiceName tags the monitoring row written after each pass.
const ServiceName = "validator"

// Config holds the validation parameters.
type Config struct {
	// Tolerance bounds the realized-price lookup around the row's
	// validation time. No observation inside the window leaves the row
	// pending for a later pass — that is a state, not an error.
	Tolerance time.Duration

	// SuccessThreshold is the accuracy (percent) at or above which a
	// validated prediction counts as a success in AccuracyStats.
	SuccessThreshold float64

	// Interval is the pass cadence, used for the next_run status field.
	Interval time.Duration
}

// DefaultConfig returns a 30 minute lookup tolerance, an 85% success
// threshold and a 15 minute pass interval.
func DefaultConfig() Config {
	return Config{
		Tolerance:        30 * time.Minute,
		SuccessThreshold: 85.0,
		Interval:         15 * time.Minute,
	}
}

// Summary reports one validation pass.
type Summary struct {
	Checked   int // past-due rows examined
	Validated int // rows filled this pass
	Misses    int // rows left pending (no realized price in tolerance)
}

// Validator fills past-due analysis results with realized prices.
type Validator struct {
	cfg    Config
	store  model.ResultStore
	obs    model.ObservationSource
	status model.StatusReporter
	prom   *metrics.Metrics
	log    *slog.Logger
}

// New creates a Validator. status and prom may be nil (tests).
func New(cfg Config, store model.ResultStore, obs model.ObservationSource, status model.StatusReporter, prom *metrics.Metrics, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{cfg: cfg, store: store, obs: obs, status: status, prom: prom, log: log}
}

// Run performs one validation pass over every result whose validation
// time has passed and whose actual price is still unset. Idempotent:
// rows validated by an earlier pass are filtered out by the store query,
// and the update itself refuses to touch an already-validated row.
// Every pass ends with a running→success|error monitoring row.
func (v *Validator) Run(ctx context.Context, now time.Time) (Summary, error) {
	var sum Summary

	v.reportStatus(ctx, model.StatusRunning, "validation in progress", now)

	pending, err := v.store.FindPendingValidation(ctx, now)
	if err != nil {
		v.reportStatus(ctx, model.StatusError, err.Error(), now)
		return sum, err
	}
	sum.Checked = len(pending)

	for i := range pending {
		if err := ctx.Err(); err != nil {
			v.reportStatus(ctx, model.StatusError,
				fmt.Sprintf("pass aborted after %d/%d due rows", i, sum.Checked), now)
			return sum, err
		}
		row := &pending[i]

		obs, err := v.obs.FindNearestObservation(ctx, row.ValidationTime, v.cfg.Tolerance)
		if err != nil {
			v.reportStatus(ctx, model.StatusError, err.Error(), now)
			return sum, err
		}
		if obs == nil || obs.Price <= 0 {
			// Pending state: retried on a later pass.
			sum.Misses++
			if v.prom != nil {
				v.prom.ValidationMisses.Inc()
			}
			continue
		}

		errorPct, accuracy := Score(row.PredictedPrice, obs.Price)
		updated, err := v.store.UpdateValidation(ctx, row.ID, obs.Price, accuracy, errorPct)
		if err != nil {
			v.reportStatus(ctx, model.StatusError, err.Error(), now)
			return sum, err
		}
		if !updated {
			continue // another pass got there first
		}
		sum.Validated++
		if v.prom != nil {
			v.prom.ValidationsTotal.Inc()
			v.prom.ValidationAccuracy.Observe(accuracy)
		}
		v.log.Debug("validated prediction",
			"id", row.ID,
			"timeframe", row.Timeframe,
			"predicted", row.PredictedPrice,
			"actual", obs.Price,
			"accuracy", accuracy,
		)
	}

	v.reportStatus(ctx, model.StatusSuccess,
		fmt.Sprintf("validated %d of %d due predictions (%d still pending)",
			sum.Validated, sum.Checked, sum.Misses), now)
	v.log.Info("validation pass complete",
		"checked", sum.Checked,
		"validated", sum.Validated,
		"pending", sum.Misses,
	)
	return sum, nil
}

// reportStatus writes the monitoring row. It never fails a pass, and
// the write is detached from the pass's context so a terminal status
// still lands after cancellation.
func (v *Validator) reportStatus(ctx context.Context, status, message string, now time.Time) {
	if v.status == nil {
		return
	}
	st := model.ServiceStatus{
		Name:    ServiceName,
		Status:  status,
		Message: message,
		LastRun: now,
		NextRun: now.Add(v.cfg.Interval),
	}
	if err := v.status.UpdateStatus(context.WithoutCancel(ctx), st); err != nil {
		v.log.Warn("status update failed", "err", err)
	}
}

// Score computes (error_percentage, accuracy) for a realized price.
// Accuracy is clamped at zero — a wildly wrong prediction scores 0,
// never negative — and reaches 100 only on an exact match.
func Score(predicted, actual float64) (errorPct, accuracy float64) {
	diff := predicted - actual
	if diff < 0 {
		diff = -diff
	}
	errorPct = diff / actual * 100
	accuracy = 100 - errorPct
	if accuracy < 0 {
		accuracy = 0
	}
	return errorPct, accuracy
}

// StatsFor aggregates validated rows into AccuracyStats, optionally
// filtered by timeframe tag ("" = all) and a trailing window start
// (zero time = everything). Always recomputed from rows — there is no
// separately maintained running total to drift out of sync.
func (v *Validator) StatsFor(ctx context.Context, timeframe string, since time.Time) (model.AccuracyStats, error) {
	rows, err := v.store.ReadValidatedResults(ctx, timeframe, since)
	if err != nil {
		return model.AccuracyStats{}, err
	}
	return Aggregate(rows, timeframe, v.cfg.SuccessThreshold), nil
}

// Aggregate folds validated rows into stats. Rows without a filled
// accuracy are skipped.
func Aggregate(rows []model.AnalysisResult, timeframe string, threshold float64) model.AccuracyStats {
	st := model.AccuracyStats{Timeframe: timeframe}
	sum := 0.0
	for i := range rows {
		r := &rows[i]
		if r.Accuracy == nil {
			continue
		}
		st.ValidatedCount++
		sum += *r.Accuracy
		if *r.Accuracy >= threshold {
			st.SuccessCount++
		}
	}
	if st.ValidatedCount > 0 {
		st.AvgAccuracy = sum / float64(st.ValidatedCount)
		st.SuccessRate = float64(st.SuccessCount) / float64(st.ValidatedCount) * 100
	}
	return st
}
