// Package engine is the top-level orchestrator for one analysis run:
// window → indicators → trend → per-timeframe predictions → persisted
// results. It is scheduling-agnostic — cmd/analyzer owns the ticker and
// calls RunOnce.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"forecast-systemv1/internal/augment"
	"forecast-systemv1/internal/indicator"
	"forecast-systemv1/internal/metrics"
	"forecast-systemv1/internal/model"
	"forecast-systemv1/internal/predict"
	"forecast-systemv1/internal/rationale"
	"forecast-systemv1/internal/trend"
)

// ServiceName tags the monitoring row written after each run.
const ServiceName = "analyzer"

// Config holds the engine parameters.
type Config struct {
	// Timeframes is the fixed horizon set, e.g. 1h,4h,24h,7d,30d.
	Timeframes []model.Timeframe

	// Interval is the analysis run cadence; used for the next_run
	// status field and, when IncludeIntervalTag is set, to derive a
	// dynamic minute-tag timeframe alongside the fixed set.
	Interval           time.Duration
	IncludeIntervalTag bool

	// Lookback bounds how much history one run reads.
	Lookback time.Duration

	Indicator indicator.Config
	Trend     trend.Config
	Predict   predict.Config
}

// Deps are the engine's injected collaborators. Cache, Metrics and
// Logger may be nil.
type Deps struct {
	Observations model.ObservationSource
	Results      model.ResultStore
	Status       model.StatusReporter
	Cache        model.ResultCache
	Augmenter    augment.Augmenter
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Service runs the analysis pipeline.
type Service struct {
	cfg        Config
	timeframes []model.Timeframe // fixed set + optional interval tag
	deps       Deps
	classifier *trend.Classifier
	predictor  *predict.Predictor
	now        func() time.Time
}

// New creates a Service. The dynamic interval tag, when enabled, is
// folded into the timeframe set here and treated like any other
// horizon from then on.
func New(cfg Config, deps Deps) *Service {
	if deps.Augmenter == nil {
		deps.Augmenter = augment.NewNoop()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	tfs := make([]model.Timeframe, 0, len(cfg.Timeframes)+1)
	seen := make(map[string]bool, len(cfg.Timeframes)+1)
	if cfg.IncludeIntervalTag && cfg.Interval > 0 {
		itf := model.TimeframeFromInterval(cfg.Interval)
		tfs = append(tfs, itf)
		seen[itf.Tag] = true
	}
	for _, tf := range cfg.Timeframes {
		if !seen[tf.Tag] {
			seen[tf.Tag] = true
			tfs = append(tfs, tf)
		}
	}
	// Keep the set horizon-sorted after folding the tag in, same order
	// ParseTimeframes produces.
	sort.SliceStable(tfs, func(i, j int) bool { return tfs[i].Horizon < tfs[j].Horizon })

	return &Service{
		cfg:        cfg,
		timeframes: tfs,
		deps:       deps,
		classifier: trend.New(cfg.Trend),
		predictor:  predict.New(cfg.Predict),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Timeframes returns the effective horizon set of this engine.
func (s *Service) Timeframes() []model.Timeframe { return s.timeframes }

// RunOnce executes one full analysis run. Only ErrInsufficientData (or
// a store failure on the way in) aborts the run; per-timeframe
// problems degrade into the status message, unless every timeframe
// failed and nothing was persisted — that run reports an error. A
// cancelled context stops
// between timeframes — predictions already persisted stay valid and
// the next run supersedes the rest.
func (s *Service) RunOnce(ctx context.Context) error {
	start := s.now()
	log := s.deps.Logger

	if m := s.deps.Metrics; m != nil {
		m.RunsTotal.Inc()
		defer func() { m.RunDur.Observe(time.Since(start).Seconds()) }()
	}

	s.reportStatus(ctx, model.StatusRunning, "analysis in progress", start)

	raw, err := s.deps.Observations.ReadObservations(ctx, start.Add(-s.cfg.Lookback))
	if err != nil {
		err = fmt.Errorf("read observations: %w", err)
		s.failRun(ctx, start, err)
		return err
	}

	window, err := BuildWindow(raw)
	if err != nil {
		s.failRun(ctx, start, err)
		return err
	}
	if m := s.deps.Metrics; m != nil {
		m.ObservationsUsed.Set(float64(len(window)))
	}

	// Shared read-only inputs, computed once for all timeframes.
	set := indicator.Calculate(s.cfg.Indicator, window)
	verdict := s.classifier.Classify(set)

	log.Info("analysis inputs ready",
		"observations", len(window),
		"indicators", set.Available(),
		"trend", verdict.Direction,
		"strength", verdict.Strength,
	)

	// Per-timeframe computation is independent and side-effect-free
	// until its own insert, so timeframes run in parallel. Each
	// goroutine persists its own result — one atomic insert per
	// timeframe, no cross-timeframe ordering.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		saved    int
		tfErrors []string
	)
	for _, tf := range s.timeframes {
		if ctx.Err() != nil {
			break // aborted between timeframes
		}
		wg.Add(1)
		go func(tf model.Timeframe) {
			defer wg.Done()
			if err := s.analyzeTimeframe(ctx, set, verdict, tf, start); err != nil {
				mu.Lock()
				tfErrors = append(tfErrors, tf.Tag+": "+err.Error())
				mu.Unlock()
				log.Error("timeframe analysis failed", "timeframe", tf.Tag, "err", err)
				return
			}
			mu.Lock()
			saved++
			mu.Unlock()
		}(tf)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.reportStatus(ctx, model.StatusError,
			fmt.Sprintf("run aborted after %d/%d timeframes", saved, len(s.timeframes)), start)
		return err
	}

	// A run that persisted nothing is a failed run, not a degraded one.
	if saved == 0 && len(tfErrors) > 0 {
		err := fmt.Errorf("all %d timeframes failed: %v", len(s.timeframes), tfErrors)
		s.failRun(ctx, start, err)
		return err
	}

	msg := "analysis completed successfully"
	if len(tfErrors) > 0 {
		msg = fmt.Sprintf("analysis completed with %d failed timeframes: %v", len(tfErrors), tfErrors)
	}
	s.reportStatus(ctx, model.StatusSuccess, msg, start)
	log.Info("analysis run complete", "saved", saved, "timeframes", len(s.timeframes))
	return nil
}

// analyzeTimeframe predicts, composes and persists one timeframe.
func (s *Service) analyzeTimeframe(ctx context.Context, set *model.IndicatorSet, verdict model.TrendVerdict, tf model.Timeframe, runTS time.Time) error {
	pred := s.predictor.Predict(set, verdict, tf)

	facts := rationale.Facts{
		Timeframe:      tf,
		CurrentPrice:   set.CurrentPrice,
		PredictedPrice: pred.PredictedPrice,
		Verdict:        verdict,
		Set:            set,
	}

	// Augmentation is best-effort: any failure falls back to the
	// deterministic rationale without touching price or confidence.
	commentary, err := s.deps.Augmenter.Enhance(ctx, augment.Facts{
		Timeframe:      tf,
		CurrentPrice:   set.CurrentPrice,
		PredictedPrice: pred.PredictedPrice,
		Verdict:        verdict,
		Set:            set,
		BasicReasoning: rationale.Compose(facts),
	})
	if err != nil {
		commentary = ""
		if m := s.deps.Metrics; m != nil {
			m.AugmentFailures.Inc()
		}
		s.deps.Logger.Warn("augmentation unavailable, using deterministic rationale",
			"timeframe", tf.Tag, "err", err)
	}

	result := &model.AnalysisResult{
		Timestamp:           runTS,
		Timeframe:           tf.Tag,
		PredictedPrice:      pred.PredictedPrice,
		ConfidenceScore:     pred.Confidence,
		TrendDirection:      verdict.Direction,
		TechnicalIndicators: string(set.JSON()),
		Reasoning:           rationale.ComposeWith(facts, commentary),
		ValidationTime:      runTS.Add(tf.Horizon),
	}

	writeStart := time.Now()
	if err := s.deps.Results.SaveResult(ctx, result); err != nil {
		return err
	}
	if m := s.deps.Metrics; m != nil {
		m.SQLiteWriteDur.Observe(time.Since(writeStart).Seconds())
		m.PredictionsTotal.WithLabelValues(tf.Tag).Inc()
		m.ConfidenceScore.WithLabelValues(tf.Tag).Set(float64(pred.Confidence))
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.CacheLatest(ctx, result); err != nil {
			s.deps.Logger.Warn("latest cache write failed", "timeframe", tf.Tag, "err", err)
		}
	}
	return nil
}

func (s *Service) failRun(ctx context.Context, runTS time.Time, err error) {
	if m := s.deps.Metrics; m != nil {
		m.RunErrors.Inc()
	}
	s.reportStatus(ctx, model.StatusError, err.Error(), runTS)
}

// reportStatus writes the monitoring row and publishes the status
// event. Status reporting never fails a run, and the write is detached
// from the run's context: an aborted run whose terminal status is
// dropped would leave the monitoring row saying "running" forever.
func (s *Service) reportStatus(ctx context.Context, status, message string, runTS time.Time) {
	ctx = context.WithoutCancel(ctx)
	st := model.ServiceStatus{
		Name:    ServiceName,
		Status:  status,
		Message: message,
		LastRun: runTS,
		NextRun: runTS.Add(s.cfg.Interval),
	}
	if err := s.deps.Status.UpdateStatus(ctx, st); err != nil {
		s.deps.Logger.Warn("status update failed", "err", err)
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.PublishStatus(ctx, st); err != nil {
			s.deps.Logger.Warn("status publish failed", "err", err)
		}
	}
}
