package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"forecast-systemv1/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DBPath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedObservations(t *testing.T, s *Store, obs []model.Observation) {
	t.Helper()
	if err := s.InsertObservations(context.Background(), obs); err != nil {
		t.Fatal(err)
	}
}

func TestObservations_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	vol := 1500.0

	seedObservations(t, s, []model.Observation{
		{Timestamp: base, Price: 0.25, Volume: &vol, Source: "collector"},
		{Timestamp: base.Add(time.Hour), Price: 0.26},
	})

	out, err := s.ReadObservations(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d observations, want 2", len(out))
	}
	if !out[0].Timestamp.Equal(base) || out[0].Price != 0.25 {
		t.Errorf("first row mismatch: %+v", out[0])
	}
	if out[0].Volume == nil || *out[0].Volume != 1500 {
		t.Error("volume lost in round trip")
	}
	if out[1].Volume != nil {
		t.Error("absent volume must come back nil, not zero")
	}
	if out[0].Source != "collector" {
		t.Errorf("source = %q", out[0].Source)
	}
}

func TestObservations_DuplicateTimestampReplaces(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	seedObservations(t, s, []model.Observation{{Timestamp: base, Price: 0.25}})
	seedObservations(t, s, []model.Observation{{Timestamp: base, Price: 0.27}})

	out, err := s.ReadObservations(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("duplicate timestamp should collapse to one row, got %d", len(out))
	}
	if out[0].Price != 0.27 {
		t.Errorf("re-insert should win: price = %v", out[0].Price)
	}
}

func TestObservations_SinceFilter(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var obs []model.Observation
	for i := 0; i < 5; i++ {
		obs = append(obs, model.Observation{Timestamp: base.Add(time.Duration(i) * time.Hour), Price: 0.25})
	}
	seedObservations(t, s, obs)

	out, err := s.ReadObservations(context.Background(), base.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("since filter returned %d rows, want 2", len(out))
	}
}

func TestFindNearestObservation(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	seedObservations(t, s, []model.Observation{
		{Timestamp: base.Add(-20 * time.Minute), Price: 0.24},
		{Timestamp: base.Add(5 * time.Minute), Price: 0.25},
		{Timestamp: base.Add(25 * time.Minute), Price: 0.26},
	})

	o, err := s.FindNearestObservation(context.Background(), base, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if o == nil {
		t.Fatal("expected an observation inside tolerance")
	}
	if o.Price != 0.25 {
		t.Errorf("nearest price = %v, want 0.25 (5 minutes away)", o.Price)
	}
}

func TestFindNearestObservation_NoneInTolerance(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	seedObservations(t, s, []model.Observation{
		{Timestamp: base.Add(-2 * time.Hour), Price: 0.24},
	})

	o, err := s.FindNearestObservation(context.Background(), base, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if o != nil {
		t.Errorf("expected nil outside tolerance, got %+v", o)
	}
}

func TestSaveResult_SetsIDAndRoundTrips(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	r := &model.AnalysisResult{
		Timestamp:           now,
		Timeframe:           "4h",
		PredictedPrice:      0.26250000,
		ConfidenceScore:     72,
		TrendDirection:      model.TrendBullish,
		TechnicalIndicators: `{"current_price":0.25}`,
		Reasoning:           "Analysis for 4 hours timeframe: ...",
		ValidationTime:      now.Add(4 * time.Hour),
	}
	if err := s.SaveResult(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if r.ID == 0 {
		t.Fatal("SaveResult must set the row ID")
	}

	pending, err := s.FindPendingValidation(context.Background(), now.Add(5*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending rows, want 1", len(pending))
	}
	got := pending[0]
	if got.ID != r.ID || got.Timeframe != "4h" || got.PredictedPrice != 0.2625 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TrendDirection != model.TrendBullish {
		t.Errorf("trend = %q", got.TrendDirection)
	}
	if !got.ValidationTime.Equal(now.Add(4 * time.Hour)) {
		t.Errorf("validation time = %v", got.ValidationTime)
	}
	if got.Validated() {
		t.Error("fresh row must not read as validated")
	}
}

func TestFindPendingValidation_OnlyPastDue(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	due := &model.AnalysisResult{
		Timestamp: now.Add(-2 * time.Hour), Timeframe: "1h", PredictedPrice: 0.26,
		ConfidenceScore: 60, TrendDirection: model.TrendNeutral,
		TechnicalIndicators: "{}", Reasoning: "r",
		ValidationTime: now.Add(-time.Hour),
	}
	notDue := &model.AnalysisResult{
		Timestamp: now, Timeframe: "24h", PredictedPrice: 0.30,
		ConfidenceScore: 55, TrendDirection: model.TrendNeutral,
		TechnicalIndicators: "{}", Reasoning: "r",
		ValidationTime: now.Add(24 * time.Hour),
	}
	for _, r := range []*model.AnalysisResult{due, notDue} {
		if err := s.SaveResult(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := s.FindPendingValidation(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != due.ID {
		t.Errorf("pending = %+v, want only the past-due row", pending)
	}
}

func TestUpdateValidation_ExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	r := &model.AnalysisResult{
		Timestamp: now, Timeframe: "1h", PredictedPrice: 0.26,
		ConfidenceScore: 60, TrendDirection: model.TrendBullish,
		TechnicalIndicators: "{}", Reasoning: "r",
		ValidationTime: now.Add(time.Hour),
	}
	if err := s.SaveResult(context.Background(), r); err != nil {
		t.Fatal(err)
	}

	updated, err := s.UpdateValidation(context.Background(), r.ID, 0.25, 96.0, 4.0)
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("first update should apply")
	}

	// Second attempt with different values is refused by the
	// actual_price IS NULL guard.
	updated, err = s.UpdateValidation(context.Background(), r.ID, 0.99, 1.0, 99.0)
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Fatal("second update must be a no-op")
	}

	rows, err := s.ReadValidatedResults(context.Background(), "1h", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d validated rows, want 1", len(rows))
	}
	got := rows[0]
	if *got.ActualPrice != 0.25 || *got.Accuracy != 96.0 || *got.ErrorPercentage != 4.0 {
		t.Errorf("first write must win: %+v", got)
	}
}

func TestReadValidatedResults_Filters(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	insert := func(tag string, ts time.Time) int64 {
		r := &model.AnalysisResult{
			Timestamp: ts, Timeframe: tag, PredictedPrice: 0.26,
			ConfidenceScore: 60, TrendDirection: model.TrendNeutral,
			TechnicalIndicators: "{}", Reasoning: "r",
			ValidationTime: ts.Add(time.Hour),
		}
		if err := s.SaveResult(context.Background(), r); err != nil {
			t.Fatal(err)
		}
		return r.ID
	}

	oldID := insert("1h", now.Add(-48*time.Hour))
	newID := insert("1h", now)
	otherID := insert("24h", now)
	pendingID := insert("1h", now)

	for _, id := range []int64{oldID, newID, otherID} {
		if _, err := s.UpdateValidation(context.Background(), id, 0.25, 96, 4); err != nil {
			t.Fatal(err)
		}
	}
	_ = pendingID // stays unvalidated

	all, err := s.ReadValidatedResults(context.Background(), "", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all validated: got %d, want 3", len(all))
	}

	oneHour, err := s.ReadValidatedResults(context.Background(), "1h", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(oneHour) != 2 {
		t.Errorf("1h filter: got %d, want 2", len(oneHour))
	}

	recent, err := s.ReadValidatedResults(context.Background(), "1h", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Errorf("trailing window: got %d, want 1", len(recent))
	}
}

func TestServiceStatus_Upsert(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := s.UpdateStatus(ctx, model.ServiceStatus{
		Name: "analyzer", Status: model.StatusRunning, Message: "analysis in progress",
		LastRun: now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus(ctx, model.ServiceStatus{
		Name: "analyzer", Status: model.StatusSuccess, Message: "analysis completed successfully",
		LastRun: now, NextRun: now.Add(30 * time.Minute),
	}); err != nil {
		t.Fatal(err)
	}

	st, err := s.ReadStatus(ctx, "analyzer")
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		t.Fatal("status row missing")
	}
	if st.Status != model.StatusSuccess {
		t.Errorf("status = %q, want success after upsert", st.Status)
	}
	if !st.NextRun.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("next_run = %v", st.NextRun)
	}

	missing, err := s.ReadStatus(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("unknown service should read nil, got %+v", missing)
	}
}
