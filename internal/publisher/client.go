// Package publisher talks to the backend that owns the publish pipeline.
// The backend is the sole authority over persisted events: every response
// here replaces the caller's local copy, never merges into it.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// RemoteConflictError reports a backend 409: the slot was taken between the
// client-side check and the commit. Callers must re-fetch and re-suggest,
// never blind-retry the same payload.
type RemoteConflictError struct {
	Message       string
	SuggestedTime *time.Time
}

func (e *RemoteConflictError) Error() string {
	if e.SuggestedTime != nil {
		return fmt.Sprintf("backend rejected slot: %s (suggested %s)", e.Message, e.SuggestedTime.Format(time.RFC3339))
	}
	return fmt.Sprintf("backend rejected slot: %s", e.Message)
}

// ClientConfig configures the backend client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration

	// Metrics receives per-request counters and timings. Nil disables
	// recording.
	Metrics observability.Metrics

	// Circuit breaker settings.
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold uint32
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:                 baseURL,
		Timeout:                 30 * time.Second,
		BreakerMaxRequests:      3,
		BreakerInterval:         60 * time.Second,
		BreakerTimeout:          30 * time.Second,
		BreakerFailureThreshold: 5,
	}
}

// Client is the HTTP client for the backend's scheduled-event surface. All
// calls run through a circuit breaker so a dead backend fails fast instead
// of stalling interactive validation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "publisher-backend",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A 409 is a healthy backend doing its job, not an outage.
			var conflict *RemoteConflictError
			return err == nil || errors.As(err, &conflict)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:     logger,
		metrics:    metrics,
	}
}

// ListEvents fetches the authoritative list of scheduled events.
func (c *Client) ListEvents(ctx context.Context) ([]*domain.ScheduledEvent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/scheduled-events", nil)
	if err != nil {
		return nil, err
	}

	var dtos []EventDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode event list: %w", err)
	}

	events := make([]*domain.ScheduledEvent, 0, len(dtos))
	for _, dto := range dtos {
		event, err := dto.ToDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// CreateEvent submits an accepted candidate. A 409 surfaces as
// *RemoteConflictError carrying the backend's suggested alternative.
func (c *Client) CreateEvent(ctx context.Context, candidate domain.CandidateSlot, viralMusic bool, musicVolume float64) (*domain.ScheduledEvent, error) {
	payload := FromCandidate(candidate, viralMusic, musicVolume)
	body, err := c.do(ctx, http.MethodPost, "/api/scheduled-events", payload)
	if err != nil {
		return nil, err
	}
	return decodeEvent(body)
}

// UpdateEvent applies a partial update and returns the authoritative
// post-update state.
func (c *Client) UpdateEvent(ctx context.Context, remoteID string, patch EventPatch) (*domain.ScheduledEvent, error) {
	body, err := c.do(ctx, http.MethodPatch, "/api/scheduled-events/"+remoteID, patch.toWire())
	if err != nil {
		return nil, err
	}
	return decodeEvent(body)
}

// DeleteEvent removes an event. Absence of the target is not an error.
func (c *Client) DeleteEvent(ctx context.Context, remoteID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/scheduled-events/"+remoteID, nil)
	return err
}

// RetryEvent re-dispatches a failed event in the given mode.
func (c *Client) RetryEvent(ctx context.Context, remoteID string, mode RetryMode) (*domain.ScheduledEvent, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/scheduled-events/"+remoteID+"/retry", retryRequest{Mode: string(mode)})
	if err != nil {
		return nil, err
	}
	return decodeEvent(body)
}

func decodeEvent(body []byte) (*domain.ScheduledEvent, error) {
	var dto EventDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return dto.ToDomain()
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	c.metrics.Counter(observability.MetricBackendRequests, 1, observability.T("method", method))

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			reqBody = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
			// Delete is idempotent.
			return nil, nil
		case resp.StatusCode == http.StatusConflict:
			return nil, parseConflict(body)
		default:
			return nil, fmt.Errorf("backend returned %d for %s %s", resp.StatusCode, method, path)
		}
	})

	c.metrics.Timing(observability.MetricBackendDuration, time.Since(start), observability.T("method", method))
	if err != nil {
		var conflict *RemoteConflictError
		if errors.As(err, &conflict) {
			c.metrics.Counter(observability.MetricBackendConflicts, 1)
		} else {
			c.metrics.Counter(observability.MetricBackendErrors, 1, observability.T("method", method))
		}
	}

	return body, err
}

func parseConflict(body []byte) error {
	var payload conflictPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return &RemoteConflictError{Message: string(body)}
	}

	conflict := &RemoteConflictError{Message: payload.Message}
	if payload.SuggestedTime != "" {
		if at, err := time.Parse(time.RFC3339, payload.SuggestedTime); err == nil {
			conflict.SuggestedTime = &at
		}
	}
	return conflict
}
