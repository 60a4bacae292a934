package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifier_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{
		Level:   AlertWarning,
		Title:   "validation accuracy low",
		Message: "1h rolling accuracy 62.5% below threshold 85%",
	})
	if err != nil {
		t.Fatal(err)
	}

	if got["level"] != "WARNING" || got["title"] != "validation accuracy low" {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["ts"]; !ok {
		t.Error("payload missing timestamp")
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"}); err == nil {
		t.Error("non-2xx response must surface as an error")
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	if err := NewLogNotifier().Send(context.Background(), Alert{Level: AlertInfo, Title: "t"}); err != nil {
		t.Errorf("log notifier returned %v", err)
	}
}
