package engine

import (
	"errors"
	"testing"
	"time"

	"forecast-systemv1/internal/model"
)

func ts(min int) time.Time {
	return time.Date(2024, 6, 1, 0, min, 0, 0, time.UTC)
}

func TestBuildWindow_SortsAscending(t *testing.T) {
	obs := []model.Observation{
		{Timestamp: ts(30), Price: 3},
		{Timestamp: ts(10), Price: 1},
		{Timestamp: ts(20), Price: 2},
	}

	window, err := BuildWindow(obs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(window); i++ {
		if !window[i].Timestamp.After(window[i-1].Timestamp) {
			t.Fatalf("window not strictly ascending at %d: %v", i, window)
		}
	}
	if window[0].Price != 1 || window[2].Price != 3 {
		t.Errorf("unexpected order: %v", window)
	}
}

func TestBuildWindow_DropsNonPositivePrices(t *testing.T) {
	obs := []model.Observation{
		{Timestamp: ts(10), Price: 1},
		{Timestamp: ts(20), Price: 0},
		{Timestamp: ts(30), Price: -5},
		{Timestamp: ts(40), Price: 2},
	}

	window, err := BuildWindow(obs)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 2 {
		t.Fatalf("got %d observations, want 2: %v", len(window), window)
	}
}

func TestBuildWindow_DedupsByTimestampKeepingLatest(t *testing.T) {
	obs := []model.Observation{
		{Timestamp: ts(10), Price: 1, Source: "first"},
		{Timestamp: ts(10), Price: 1.5, Source: "second"},
		{Timestamp: ts(20), Price: 2},
	}

	window, err := BuildWindow(obs)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 2 {
		t.Fatalf("got %d observations, want 2", len(window))
	}
	if window[0].Source != "second" {
		t.Errorf("duplicate timestamp should keep the later entry, got %q", window[0].Source)
	}
}

func TestBuildWindow_EmptyAfterFiltering(t *testing.T) {
	obs := []model.Observation{
		{Timestamp: ts(10), Price: 0},
	}
	if _, err := BuildWindow(obs); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
	if _, err := BuildWindow(nil); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("nil input: err = %v, want ErrInsufficientData", err)
	}
}
