// Package ratelimit retries Sylve API requests that the server throttles
// (429) or sheds (503), with exponential backoff and Retry-After support.
package ratelimit

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Config holds configuration for the retrying HTTP client.
type Config struct {
	// MaxRetries is the maximum number of retry attempts after a retryable
	// status. Zero means the default of 3; negative disables retries.
	MaxRetries int

	// BaseDelay is the initial delay before the first retry.
	// Default: 1 second
	BaseDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 32 seconds
	MaxDelay time.Duration

	// EnableJitter adds random jitter (±20%) to prevent thundering herd.
	EnableJitter bool

	// HTTPClient performs the requests. Default: a client with a 30s timeout.
	HTTPClient *http.Client

	// Stats is an optional stats tracker for recording throttling events.
	Stats *Stats
}

// Client is an HTTP client that retries throttled requests.
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	enableJitter bool
	stats        *Stats
}

// NewClient creates a new retrying HTTP client with the given configuration.
func NewClient(cfg Config) *Client {
	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = 3
	case maxRetries < 0:
		maxRetries = 0
	}

	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 1 * time.Second
	}

	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 32 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient:   httpClient,
		maxRetries:   maxRetries,
		baseDelay:    baseDelay,
		maxDelay:     maxDelay,
		enableJitter: cfg.EnableJitter,
		stats:        cfg.Stats,
	}
}

// retryable reports whether the server asked us to come back later.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Do performs an HTTP request, retrying 429 and 503 responses. Any other
// status, success or not, is returned to the caller untouched. The header is
// copied onto every attempt and body is re-sent from the start.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		var bodyReader *bytes.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		var req *http.Request
		var err error
		if bodyReader != nil {
			req, err = http.NewRequestWithContext(ctx, method, url, bodyReader)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, url, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header = header.Clone()
		if req.Header == nil {
			req.Header = http.Header{}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		// Out of retries: hand the final response to the caller so its body
		// can still be read.
		if attempt >= c.maxRetries {
			if c.stats != nil {
				c.stats.RecordExhausted()
			}
			return resp, nil
		}

		_ = resp.Body.Close()
		if c.stats != nil {
			c.stats.RecordRateLimit()
		}

		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"))
		delay := c.calculateBackoff(attempt, retryAfter)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// calculateBackoff computes the backoff duration for a given attempt.
func (c *Client) calculateBackoff(attempt int, retryAfter *time.Duration) time.Duration {
	if retryAfter != nil {
		if *retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return *retryAfter
	}

	// Exponential backoff: base * 2^attempt
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt)))

	if delay > c.maxDelay {
		delay = c.maxDelay
	}

	if c.enableJitter {
		jitterFactor := 0.8 + rand.Float64()*0.4 // 0.8 to 1.2
		delay = time.Duration(float64(delay) * jitterFactor)
	}

	return delay
}

// ParseRetryAfter parses the Retry-After header value.
// It supports both seconds format (integer) and HTTP-date format.
// Returns nil if the value is invalid or empty.
func ParseRetryAfter(value string) *time.Duration {
	if value == "" {
		return nil
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds < 0 {
			return nil
		}
		d := time.Duration(seconds) * time.Second
		return &d
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}

	return nil
}

// Stats tracks throttling statistics for a server.
type Stats struct {
	mu              sync.RWMutex
	rateLimitCount  int64
	exhaustedCount  int64
	lastRateLimitAt time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// RecordRateLimit records a retried response.
func (s *Stats) RecordRateLimit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitCount++
	s.lastRateLimitAt = time.Now()
}

// RecordExhausted records a request that ran out of retries.
func (s *Stats) RecordExhausted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhaustedCount++
}

// RateLimitCount returns the total number of retried responses.
func (s *Stats) RateLimitCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rateLimitCount
}

// ExhaustedCount returns how many requests ran out of retries.
func (s *Stats) ExhaustedCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exhaustedCount
}

// LastRateLimitTime returns the time of the last throttling event.
func (s *Stats) LastRateLimitTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRateLimitAt
}
