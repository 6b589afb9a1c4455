// Package client talks to the upstream HTTP APIs: OpenWeather current and
// forecast data, the One Call alerts feed, MOENV air quality and the OpenAI
// chat completions endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/circuitbreaker"
	"github.com/kjstillabower/weather-advisor-service/internal/observability"
	"github.com/kjstillabower/weather-advisor-service/internal/traffic"
)

var (
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrCityNotFound    = errors.New("city not found")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
	ErrEmptyResponse   = errors.New("empty response")
)

// API names, used as metric labels, breaker components and traffic tracker names.
const (
	APIOpenWeather = "openweather"
	APIOneCall     = "onecall"
	APIMOENV       = "moenv"
	APIOpenAI      = "openai"
)

// maxErrorBody bounds how much of an error response is copied into the error.
const maxErrorBody = 512

// RetryPolicy configures exponential backoff with jitter.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy is three attempts starting at 100ms, capped at 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// NoRetry makes a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{Attempts: 1}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

// upstream is the plumbing shared by every API client: per-attempt timeout,
// correlation header, status mapping, metrics, breaker and traffic tracking.
type upstream struct {
	api        string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func newUpstream(api string, timeout time.Duration) upstream {
	return upstream{
		api:        api,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetCircuitBreaker wraps every call in cb. nil disables the breaker.
func (u *upstream) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	u.breaker = cb
}

// BreakerState reports the breaker state, closed when none is set.
func (u *upstream) BreakerState() circuitbreaker.State {
	return u.breaker.State()
}

type requestBuilder func(ctx context.Context) (*http.Request, error)

// call runs one attempt through the breaker and records its outcome.
func (u *upstream) call(ctx context.Context, build requestBuilder, out any) error {
	err := u.breaker.Call(ctx, func() error {
		return u.roundTrip(ctx, build, out)
	})
	traffic.Upstream(u.api).Record(err)
	if err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(u.api, string(CategorizeError(err))).Inc()
	}
	return err
}

// callWithRetry retries call on rate limiting, 5xx and timeouts.
func (u *upstream) callWithRetry(ctx context.Context, policy RetryPolicy, build requestBuilder, out any) error {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.WithLabelValues(u.api).Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.backoff(attempt)):
			}
		}

		err := u.call(ctx, build, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("exhausted retries: %w", lastErr)
}

func (u *upstream) roundTrip(ctx context.Context, build requestBuilder, out any) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	req, err := build(reqCtx)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(u.api, "error").Inc()
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(u.api, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(u.api, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("request timeout: %w", err)
		}
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(u.api, status).Inc()
	observability.UpstreamDuration.WithLabelValues(u.api, status).Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := fmt.Sprintf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrCityNotFound, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, detail)
	}
	return fmt.Errorf("%w: %s", ErrUpstreamFailure, detail)
}

func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, circuitbreaker.ErrOpen):
		return false
	case errors.Is(err, ErrRateLimited):
		return true
	case errors.Is(err, ErrUpstreamFailure):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

func validateKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
