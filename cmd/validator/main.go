package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forecast-systemv1/config"
	"forecast-systemv1/internal/logger"
	"forecast-systemv1/internal/metrics"
	"forecast-systemv1/internal/notification"
	"forecast-systemv1/internal/store/sqlite"
	"forecast-systemv1/internal/validate"
)

func main() {
	cfg := config.Load()
	slogger := logger.Init("validator", logger.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[validator] sqlite init failed: %v", err)
	}
	defer store.Close()

	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.AlertWebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.AlertWebhookURL)
	}

	prom := metrics.New()
	prom.Serve(cfg.MetricsAddr)

	v := validate.New(validate.Config{
		Tolerance:        cfg.MatchTolerance,
		SuccessThreshold: cfg.SuccessThreshold,
		Interval:         cfg.ValidationInterval,
	}, store, store, store, prom, slogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutdown signal received")
		cancel()
	}()

	slogger.Info("validator started",
		"interval", cfg.ValidationInterval,
		"tolerance", cfg.MatchTolerance,
		"db", cfg.SQLitePath,
	)

	run := func() {
		now := time.Now().UTC()
		sum, err := v.Run(ctx, now)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slogger.Error("validation run failed", "err", err)
			if nerr := notifier.Send(ctx, notification.Alert{
				Level:   notification.AlertCritical,
				Title:   "validation run failed",
				Message: err.Error(),
			}); nerr != nil {
				slogger.Warn("alert delivery failed", "err", nerr)
			}
			return
		}
		slogger.Info("validation run complete",
			"checked", sum.Checked,
			"validated", sum.Validated,
			"misses", sum.Misses,
		)

		// Rolling 7-day accuracy check after each pass that validated
		// something new.
		if sum.Validated == 0 {
			return
		}
		stats, err := v.StatsFor(ctx, "", now.Add(-7*24*time.Hour))
		if err != nil {
			slogger.Warn("accuracy stats unavailable", "err", err)
			return
		}
		if stats.ValidatedCount >= 10 && stats.SuccessRate < 50 {
			if nerr := notifier.Send(ctx, notification.Alert{
				Level: notification.AlertWarning,
				Title: "prediction accuracy degraded",
				Message: fmt.Sprintf("7d success rate %.1f%% over %d validated predictions (avg accuracy %.1f%%)",
					stats.SuccessRate, stats.ValidatedCount, stats.AvgAccuracy),
			}); nerr != nil {
				slogger.Warn("alert delivery failed", "err", nerr)
			}
		}
	}

	run()

	ticker := time.NewTicker(cfg.ValidationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slogger.Info("validator stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
