package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/logger"
)

// Client is the REST bridge to the external scheduling backend that fires
// timed triggers back into the system. It satisfies the TriggerCreator
// contract consumed by the schedule planner.
type Client struct {
	baseURL      string
	apiKey       string
	targetHandle string
	client       *http.Client
	logger       *logger.Logger
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.Scheduler.BaseURL, "/"),
		apiKey:       cfg.Scheduler.APIKey,
		targetHandle: cfg.Scheduler.TargetHandle,
		client: &http.Client{
			Timeout: time.Duration(cfg.Scheduler.Timeout) * time.Second,
		},
		logger: logger.New("scheduler-client"),
	}
}

type createTriggerRequest struct {
	Name       string          `json:"name"`
	Expression string          `json:"expression"`
	StartAt    *time.Time      `json:"start_at,omitempty"`
	Target     string          `json:"target"`
	Payload    json.RawMessage `json:"payload"`
}

type createTriggerResponse struct {
	Handle  string `json:"handle"`
	Message string `json:"message,omitempty"`
}

// CreateTrigger registers one timed trigger with the backend and returns the
// backend's handle for it.
func (c *Client) CreateTrigger(ctx context.Context, name, expression string, startAt *time.Time, payload json.RawMessage) (string, error) {
	body, err := json.Marshal(createTriggerRequest{
		Name:       name,
		Expression: expression,
		StartAt:    startAt,
		Target:     c.targetHandle,
		Payload:    payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal trigger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/triggers", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create trigger %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("scheduling backend returned status %d for trigger %s", resp.StatusCode, name)
	}

	var result createTriggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode trigger response: %w", err)
	}
	if result.Handle == "" {
		return "", fmt.Errorf("scheduling backend returned no handle for trigger %s", name)
	}

	c.logger.Info().
		Str("action", "trigger_created").
		Str("trigger_name", name).
		Str("expression", expression).
		Str("handle", result.Handle).
		Msg("External trigger created")

	return result.Handle, nil
}
