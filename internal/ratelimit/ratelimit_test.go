package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastClient(maxRetries int) *Client {
	return NewClient(Config{
		MaxRetries:   maxRetries,
		BaseDelay:    10 * time.Millisecond,
		EnableJitter: false,
	})
}

// TestRetryOn429 tests that a 429 response is retried after backoff
func TestRetryOn429(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	resp, err := fastClient(5).Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&requestCount); got != 2 {
		t.Errorf("expected 2 requests (1 retry), got %d", got)
	}
}

// TestRetryOn503 tests that a 503 response is retried like a 429
func TestRetryOn503(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := fastClient(3).Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

// TestExhaustedRetriesReturnLastResponse tests that the final throttled
// response is handed back with its body intact
func TestExhaustedRetriesReturnLastResponse(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","message":"slow_down"}`))
	}))
	defer server.Close()

	stats := NewStats()
	client := NewClient(Config{MaxRetries: 2, BaseDelay: 5 * time.Millisecond, Stats: stats})

	resp, err := client.Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "slow_down") {
		t.Errorf("expected final body to be readable, got %q", body)
	}
	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("expected 3 requests (1 + 2 retries), got %d", got)
	}
	if stats.RateLimitCount() != 2 {
		t.Errorf("expected 2 recorded retries, got %d", stats.RateLimitCount())
	}
	if stats.ExhaustedCount() != 1 {
		t.Errorf("expected 1 exhausted request, got %d", stats.ExhaustedCount())
	}
}

// TestNegativeMaxRetriesDisablesRetry tests that retries can be switched off
func TestNegativeMaxRetriesDisablesRetry(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := fastClient(-1).Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	_ = resp.Body.Close()

	if got := atomic.LoadInt32(&requestCount); got != 1 {
		t.Errorf("expected a single request, got %d", got)
	}
}

// TestNonRetryableStatusPassthrough tests that error statuses other than 429
// and 503 reach the caller without retry
func TestNonRetryableStatusPassthrough(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError} {
		var requestCount int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(status)
		}))

		resp, err := fastClient(3).Do(context.Background(), http.MethodGet, server.URL, nil, nil)
		if err != nil {
			t.Fatalf("status %d: expected no error, got: %v", status, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != status {
			t.Errorf("expected status %d, got %d", status, resp.StatusCode)
		}
		if got := atomic.LoadInt32(&requestCount); got != 1 {
			t.Errorf("status %d: expected 1 request, got %d", status, got)
		}
		server.Close()
	}
}

// TestHeadersAndBodyResentOnRetry tests that every attempt carries the same
// headers and the full body
func TestHeadersAndBodyResentOnRetry(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	var auths []string
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()
		if atomic.AddInt32(&requestCount, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer abc")
	header.Set("Content-Type", "application/json")
	payload := []byte(`{"name":"tank@daily"}`)

	resp, err := fastClient(3).Do(context.Background(), http.MethodPost, server.URL, header, payload)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	_ = resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(bodies))
	}
	for i := range bodies {
		if bodies[i] != string(payload) {
			t.Errorf("attempt %d: expected body %s, got %q", i, payload, bodies[i])
		}
		if auths[i] != "Bearer abc" {
			t.Errorf("attempt %d: expected Authorization header, got %q", i, auths[i])
		}
	}
	if header.Get("Authorization") != "Bearer abc" {
		t.Error("caller header should not be modified")
	}
}

// TestRetryAfterHeaderRespected tests that Retry-After overrides backoff
func TestRetryAfterHeaderRespected(t *testing.T) {
	var requestCount int32
	var first, second time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) == 1 {
			first = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		second = time.Now()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Second})
	resp, err := client.Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	_ = resp.Body.Close()

	if gap := second.Sub(first); gap < 900*time.Millisecond {
		t.Errorf("expected to wait ~1s from Retry-After, waited %v", gap)
	}
}

// TestContextCancellation tests that a cancelled context stops the backoff
func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{MaxRetries: 5, BaseDelay: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Do(ctx, http.MethodGet, server.URL, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation should interrupt the backoff sleep")
	}
}

// TestTransportErrorReturned tests that connection failures surface as errors
func TestTransportErrorReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := fastClient(3).Do(context.Background(), http.MethodGet, url, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a closed server")
	}
}

func TestCalculateBackoff(t *testing.T) {
	client := NewClient(Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := client.calculateBackoff(tt.attempt, nil); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}

	retryAfter := 5 * time.Second
	if got := client.calculateBackoff(0, &retryAfter); got != time.Second {
		t.Errorf("Retry-After should be capped at MaxDelay, got %v", got)
	}
}

func TestCalculateBackoffJitter(t *testing.T) {
	client := NewClient(Config{BaseDelay: 100 * time.Millisecond, EnableJitter: true})
	for i := 0; i < 50; i++ {
		got := client.calculateBackoff(0, nil)
		if got < 80*time.Millisecond || got > 120*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±20%%", got)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if ParseRetryAfter("") != nil {
		t.Error("empty value should yield nil")
	}
	if ParseRetryAfter("soon") != nil {
		t.Error("garbage should yield nil")
	}
	if ParseRetryAfter("-3") != nil {
		t.Error("negative seconds should yield nil")
	}
	if d := ParseRetryAfter("7"); d == nil || *d != 7*time.Second {
		t.Errorf("expected 7s, got %v", d)
	}

	future := time.Now().Add(3 * time.Second).UTC().Format(http.TimeFormat)
	d := ParseRetryAfter(future)
	if d == nil || *d <= 0 || *d > 3*time.Second {
		t.Errorf("expected a positive delay up to 3s, got %v", d)
	}

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	if d := ParseRetryAfter(past); d == nil || *d != 0 {
		t.Errorf("past date should yield zero delay, got %v", d)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.maxRetries != 3 {
		t.Errorf("expected default MaxRetries 3, got %d", client.maxRetries)
	}
	if client.baseDelay != time.Second {
		t.Errorf("expected default BaseDelay 1s, got %v", client.baseDelay)
	}
	if client.maxDelay != 32*time.Second {
		t.Errorf("expected default MaxDelay 32s, got %v", client.maxDelay)
	}
	if client.httpClient == nil || client.httpClient.Timeout != 30*time.Second {
		t.Error("expected a default HTTP client with a 30s timeout")
	}
}

func TestStatsThreadSafety(t *testing.T) {
	stats := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.RecordRateLimit()
			stats.RecordExhausted()
			_ = stats.RateLimitCount()
			_ = stats.LastRateLimitTime()
		}()
	}
	wg.Wait()

	if stats.RateLimitCount() != 50 || stats.ExhaustedCount() != 50 {
		t.Errorf("expected 50/50, got %d/%d", stats.RateLimitCount(), stats.ExhaustedCount())
	}
	if stats.LastRateLimitTime().IsZero() {
		t.Error("expected last rate limit time to be set")
	}
}
