package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matchpulse/core/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{
			BaseURL:      baseURL,
			APIKey:       "test-key",
			TargetHandle: "arn:target/refresh-handler",
			Timeout:      5,
		},
	}
}

func TestCreateTrigger(t *testing.T) {
	var got createTriggerRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/triggers" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createTriggerResponse{Handle: "trigger-123"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	startAt := time.Date(2026, 6, 12, 20, 30, 0, 0, time.UTC)
	payload := json.RawMessage(`{"tournament_id":7}`)

	handle, err := client.CreateTrigger(context.Background(),
		"prod_scores_and_standings_premier_league_20260612_2030",
		"cron(30 20 12 6 ? 2026)", &startAt, payload)
	if err != nil {
		t.Fatalf("CreateTrigger() error = %v", err)
	}

	if handle != "trigger-123" {
		t.Errorf("handle = %q, want %q", handle, "trigger-123")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if got.Name != "prod_scores_and_standings_premier_league_20260612_2030" {
		t.Errorf("request name = %q", got.Name)
	}
	if got.Expression != "cron(30 20 12 6 ? 2026)" {
		t.Errorf("request expression = %q", got.Expression)
	}
	if got.Target != "arn:target/refresh-handler" {
		t.Errorf("request target = %q", got.Target)
	}
	if got.StartAt == nil || !got.StartAt.Equal(startAt) {
		t.Errorf("request start_at = %v, want %v", got.StartAt, startAt)
	}
	if string(got.Payload) != `{"tournament_id":7}` {
		t.Errorf("request payload = %s", got.Payload)
	}
}

func TestCreateTriggerRejectsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	if _, err := client.CreateTrigger(context.Background(), "t", "rate(2 days)", nil, nil); err == nil {
		t.Fatal("Expected error on backend rejection")
	}
}

func TestCreateTriggerRejectsEmptyHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(createTriggerResponse{Message: "accepted"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	if _, err := client.CreateTrigger(context.Background(), "t", "rate(2 days)", nil, nil); err == nil {
		t.Fatal("Expected error when the backend returns no handle")
	}
}
