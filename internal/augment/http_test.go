package augment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"forecast-systemv1/internal/model"
)

func testFacts() Facts {
	return Facts{
		Timeframe:      model.Timeframe{Tag: "4h", Horizon: 4 * time.Hour},
		CurrentPrice:   0.25,
		PredictedPrice: 0.2625,
		Verdict:        model.TrendVerdict{Direction: model.TrendBullish, Strength: 0.7},
		Set: &model.IndicatorSet{
			CurrentPrice: 0.25,
			RSI:          &model.RSIValue{Value: 28.5, Zone: model.RSIOversold},
			SMA:          map[int]float64{20: 0.24},
		},
		BasicReasoning: "Analysis for 4 hours timeframe: ...",
	}
}

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAugmenter_Enhance(t *testing.T) {
	var gotBody chatRequest
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Oversold bounce setup.  "}},
			},
		})
	})

	a := NewHTTP(HTTPConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	out, err := a.Enhance(context.Background(), testFacts())
	if err != nil {
		t.Fatal(err)
	}
	if out != "Oversold bounce setup." {
		t.Errorf("content = %q, want trimmed model output", out)
	}

	if gotBody.Stream {
		t.Error("streaming must be disabled")
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("unexpected message shape: %+v", gotBody.Messages)
	}
	prompt := gotBody.Messages[1].Content
	for _, want := range []string{"4h", "$0.25000000", "$0.26250000", "BULLISH", "RSI: 28.50"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestHTTPAugmenter_ErrorStatusSurfaces(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	})

	a := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if _, err := a.Enhance(context.Background(), testFacts()); err == nil {
		t.Error("non-200 response must surface as an error")
	}
}

func TestHTTPAugmenter_EmptyChoicesIsError(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	a := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if _, err := a.Enhance(context.Background(), testFacts()); err == nil {
		t.Error("empty choices must surface as an error")
	}
}

func TestHTTPAugmenter_MalformedJSONIsError(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [`))
	})

	a := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if _, err := a.Enhance(context.Background(), testFacts()); err == nil {
		t.Error("malformed response must surface as an error")
	}
}

func TestHTTPAugmenter_UnreachableEndpoint(t *testing.T) {
	a := NewHTTP(HTTPConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if _, err := a.Enhance(context.Background(), testFacts()); err == nil {
		t.Error("connection failure must surface as an error")
	}
	if a.Available(context.Background()) {
		t.Error("Available must be false for an unreachable endpoint")
	}
}

func TestHTTPAugmenter_Available(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		http.NotFound(w, r)
	})

	a := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if !a.Available(context.Background()) {
		t.Error("Available should be true when /v1/models answers 200")
	}
}

func TestNoop_NeverFails(t *testing.T) {
	out, err := NewNoop().Enhance(context.Background(), testFacts())
	if err != nil || out != "" {
		t.Errorf("Noop = (%q, %v), want empty and nil", out, err)
	}
}
