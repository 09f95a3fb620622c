// Package insight implements the HTTP client for the natural-language
// analysis backend. The client posts a prepared log slice and reads back a
// prose message. Calls are context-aware, share a rate limiter, and retry on
// transient errors (429, 5xx, transport failures).
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/liftlog/internal/derive"
)

const maxRetries = 4

// ErrEmptyMessage is returned when the backend answers 2xx without a message.
var ErrEmptyMessage = errors.New("insight: response has no message")

// Insight is the backend's answer.
type Insight struct {
	Message string `json:"message"`
}

// Client is the analysis backend HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      bool
	backoff    time.Duration
}

// NewClient creates a Client posting to baseURL. apiKey may be empty when
// the backend needs no authorization.
func NewClient(apiKey, baseURL string, timeout time.Duration, ratePerSec float64, debug bool) *Client {
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		debug:   debug,
		backoff: 500 * time.Millisecond,
	}
}

// SetBackoff changes the base retry delay. Intended for tests.
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

// Analyze sends payload and returns the backend's message.
func (c *Client) Analyze(ctx context.Context, payload derive.AnalysisPayload) (Insight, error) {
	var out Insight
	if c.baseURL == "" {
		return out, errors.New("insight: no backend URL configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("encoding payload: %w", err)
	}
	if err := c.post(ctx, body, &out); err != nil {
		return out, fmt.Errorf("insight %q: %w", payload.Exercise, err)
	}
	if strings.TrimSpace(out.Message) == "" {
		return out, ErrEmptyMessage
	}
	return out, nil
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// post sends body to the backend, handling rate limiting and retries.
func (c *Client) post(ctx context.Context, body []byte, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if c.debug {
		slog.Debug("insight request", "url", c.baseURL, "bytes", len(body), "auth", c.apiKey != "")
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff, "err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "liftlog/1.0")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if c.debug {
			slog.Debug("insight response", "status", resp.StatusCode, "bytes", len(respBody))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var apiErr struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(respBody, &apiErr)
			if apiErr.Error != "" {
				return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, apiErr.Error)
			}
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}
