package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forecast-systemv1/config"
	"forecast-systemv1/internal/augment"
	"forecast-systemv1/internal/engine"
	"forecast-systemv1/internal/indicator"
	"forecast-systemv1/internal/logger"
	"forecast-systemv1/internal/metrics"
	"forecast-systemv1/internal/model"
	"forecast-systemv1/internal/notification"
	"forecast-systemv1/internal/predict"
	"forecast-systemv1/internal/store/redis"
	"forecast-systemv1/internal/store/sqlite"
	"forecast-systemv1/internal/trend"
)

func main() {
	cfg := config.Load()
	slogger := logger.Init("analyzer", logger.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[analyzer] sqlite init failed: %v", err)
	}
	defer store.Close()

	var cache model.ResultCache
	if cfg.RedisEnabled {
		c, err := redis.New(redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			slogger.Warn("redis unavailable, caching disabled", "err", err)
		} else {
			cache = c
			defer c.Close()
		}
	}

	var augmenter augment.Augmenter = augment.NewNoop()
	if cfg.AugmentURL != "" {
		h := augment.NewHTTP(augment.HTTPConfig{BaseURL: cfg.AugmentURL, Timeout: cfg.AugmentTimeout})
		if h.Available(context.Background()) {
			augmenter = h
			slogger.Info("rationale augmentation enabled", "url", cfg.AugmentURL)
		} else {
			slogger.Warn("augment endpoint unreachable, running deterministic only", "url", cfg.AugmentURL)
		}
	}

	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.AlertWebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.AlertWebhookURL)
	}

	prom := metrics.New()
	prom.Serve(cfg.MetricsAddr)

	indCfg := indicator.DefaultConfig()
	indCfg.RSIPeriod = cfg.RSIPeriod
	indCfg.BollingerPeriod = cfg.BollingerPeriod
	indCfg.BollingerStdDev = cfg.BollingerStdDev

	predCfg := predict.DefaultConfig()
	predCfg.BaseDriftPct = cfg.BaseDriftPct
	predCfg.MaxDriftPct = cfg.MaxDriftPct
	predCfg.MinIndicators = cfg.MinIndicators

	svc := engine.New(engine.Config{
		Timeframes:         cfg.ParseTimeframes(),
		Interval:           cfg.AnalysisInterval,
		IncludeIntervalTag: cfg.IncludeIntervalTag,
		Lookback:           cfg.Lookback,
		Indicator:          indCfg,
		Trend:              trend.DefaultConfig(),
		Predict:            predCfg,
	}, engine.Deps{
		Observations: store,
		Results:      store,
		Status:       store,
		Cache:        cache,
		Augmenter:    augmenter,
		Metrics:      prom,
		Logger:       slogger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutdown signal received")
		cancel()
	}()

	slogger.Info("analyzer started",
		"interval", cfg.AnalysisInterval,
		"timeframes", len(svc.Timeframes()),
		"db", cfg.SQLitePath,
	)

	run := func() {
		if err := svc.RunOnce(ctx); err != nil {
			if errors.Is(err, model.ErrInsufficientData) {
				slogger.Warn("skipping run, not enough observations")
				return
			}
			if ctx.Err() != nil {
				return
			}
			slogger.Error("analysis run failed", "err", err)
			if nerr := notifier.Send(ctx, notification.Alert{
				Level:   notification.AlertCritical,
				Title:   "analysis run failed",
				Message: err.Error(),
			}); nerr != nil {
				slogger.Warn("alert delivery failed", "err", nerr)
			}
		}
	}

	run()

	ticker := time.NewTicker(cfg.AnalysisInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slogger.Info("analyzer stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
