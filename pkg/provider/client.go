package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
)

// Client talks to the fetch gateway that scrapes the upstream provider. The
// gateway drives a single headless browser, so only one session may be live
// at a time; callers obtain one through Acquire and must Close it.
type Client struct {
	baseURL string
	apiKey  string
	pause   time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	slot    chan struct{}
	logger  *logger.Logger
}

func NewClient(cfg *config.Config) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "provider-gateway",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	c := &Client{
		baseURL: strings.TrimRight(cfg.Provider.BaseURL, "/"),
		apiKey:  cfg.Provider.APIKey,
		pause:   cfg.Provider.Pause,
		client: &http.Client{
			Timeout: time.Duration(cfg.Provider.Timeout) * time.Second,
		},
		breaker: breaker,
		slot:    make(chan struct{}, 1),
		logger:  logger.New("provider-client"),
	}
	c.slot <- struct{}{}
	return c
}

// Acquire claims the exclusive fetch session. It blocks until the session is
// free or the context is cancelled. The returned session must be closed on
// every exit path.
func (c *Client) Acquire(ctx context.Context) (*Session, error) {
	select {
	case <-c.slot:
		c.logger.Debug().Str("action", "session_acquired").Msg("Fetch session acquired")
		return &Session{client: c}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to acquire fetch session: %w", ctx.Err())
	}
}

// Session is the single-owner handle over the fetch gateway. It enforces the
// pause between consecutive provider calls; the provider blocks clients that
// hammer it.
type Session struct {
	client   *Client
	lastCall time.Time
	closed   bool
}

// FetchMatch retrieves the raw payload for one match.
func (s *Session) FetchMatch(ctx context.Context, tournament models.Tournament, match models.Match) (*models.ProviderMatch, error) {
	url := fmt.Sprintf("%s/fetch/match?url=%s/%s/%s",
		s.client.baseURL, tournament.BaseURL, match.RoundSlug, match.ExternalID)

	var payload models.ProviderMatch
	if err := s.get(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch match %s: %w", match.ExternalID, err)
	}
	return &payload, nil
}

// FetchStandings retrieves the raw standings table for one tournament.
func (s *Session) FetchStandings(ctx context.Context, tournament models.Tournament) (*models.ProviderStandings, error) {
	url := fmt.Sprintf("%s/fetch/standings?url=%s", s.client.baseURL, tournament.ProviderURL)

	var payload models.ProviderStandings
	if err := s.get(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch standings for %s: %w", tournament.Slug, err)
	}
	return &payload, nil
}

// Close releases the exclusive session back to the client. Safe to call once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.client.slot <- struct{}{}
	s.client.logger.Debug().Str("action", "session_released").Msg("Fetch session released")
}

func (s *Session) get(ctx context.Context, url string, out interface{}) error {
	if s.closed {
		return fmt.Errorf("fetch session already closed")
	}

	// Respect the provider's informal rate limit between calls.
	if wait := s.client.pause - time.Since(s.lastCall); !s.lastCall.IsZero() && wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.lastCall = time.Now()

	start := time.Now()
	body, statusCode, err := s.client.do(ctx, url)
	s.client.logger.LogProviderCall(url, statusCode, time.Since(start), err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	statusCode := 0
	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		statusCode = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, statusCode, err
	}
	return body.([]byte), statusCode, nil
}
