package model

import (
	"encoding/json"
	"time"
)

// TrendDirection is the categorical trend verdict.
type TrendDirection string

const (
	TrendBullish TrendDirection = "bullish"
	TrendBearish TrendDirection = "bearish"
	TrendNeutral TrendDirection = "neutral"
)

// TrendVerdict fuses the indicator set into one direction with a signed
// strength in [-1,1]. It is a pure function of the IndicatorSet — same
// set, same verdict.
type TrendVerdict struct {
	Direction TrendDirection `json:"direction"`
	Strength  float64        `json:"strength"`
}

// AnalysisResult is one persisted prediction for one timeframe.
// Created once by the analysis pipeline; mutated exactly once by the
// accuracy validator when ValidationTime has passed and a realized
// price was found. ActualPrice, Accuracy and ErrorPercentage stay nil
// until then.
type AnalysisResult struct {
	ID                  int64          `json:"id"`
	Timestamp           time.Time      `json:"timestamp"` // when generated (UTC)
	Timeframe           string         `json:"timeframe"`
	PredictedPrice      float64        `json:"predicted_price"`
	ConfidenceScore     int            `json:"confidence_score"` // [0,95]
	TrendDirection      TrendDirection `json:"trend_direction"`
	TechnicalIndicators string         `json:"technical_indicators"` // IndicatorSet JSON
	Reasoning           string         `json:"reasoning"`
	ValidationTime      time.Time      `json:"validation_time"` // Timestamp + horizon
	ActualPrice         *float64       `json:"actual_price,omitempty"`
	Accuracy            *float64       `json:"accuracy,omitempty"`
	ErrorPercentage     *float64       `json:"error_percentage,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// Validated reports whether the validator has already filled this row.
func (r *AnalysisResult) Validated() bool { return r.ActualPrice != nil }

// JSON returns the JSON-encoded result.
func (r *AnalysisResult) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

// AccuracyStats is a derived view over validated results — never stored,
// always recomputed from rows on demand.
type AccuracyStats struct {
	Timeframe      string  `json:"timeframe,omitempty"` // "" = all timeframes
	ValidatedCount int     `json:"validated_count"`
	AvgAccuracy    float64 `json:"avg_accuracy"`
	SuccessCount   int     `json:"success_count"` // accuracy ≥ threshold
	SuccessRate    float64 `json:"success_rate"`  // percent of validated rows
}

// Service status values reported after each run and validation pass.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// ServiceStatus mirrors the monitoring table row for one service.
type ServiceStatus struct {
	Name    string    `json:"name"` // "analyzer", "validator"
	Status  string    `json:"status"`
	Message string    `json:"message"`
	LastRun time.Time `json:"last_run"`
	NextRun time.Time `json:"next_run"`
}

// JSON returns the JSON-encoded status for PubSub publication.
func (s *ServiceStatus) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
