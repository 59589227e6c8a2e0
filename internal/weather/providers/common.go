package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/coord-weather/internal/metrics"
	"github.com/i474232898/coord-weather/internal/weather"
)

const (
	maxPayloadBytes = 4 << 20
	maxSnippetBytes = 512
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff retries twice, starting at half a second.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// Option customizes a provider client.
type Option func(*options)

type options struct {
	baseURL string
	backoff BackoffConfig
}

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithBackoff replaces DefaultBackoff.
func WithBackoff(b BackoffConfig) Option {
	return func(o *options) {
		o.backoff = b
	}
}

func applyOptions(defaultBaseURL string, opts []Option) options {
	o := options{
		baseURL: defaultBaseURL,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

var (
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// retryableStatusError is an upstream 429 or 5xx. It counts against the
// circuit breaker and is retried.
type retryableStatusError struct {
	code int
	body string
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// getJSON performs a GET against endpoint?query and returns the body once it
// is known to be well-formed JSON. Every failure is a *weather.ProviderError.
func getJSON(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	endpoint string,
	query url.Values,
) (json.RawMessage, error) {
	u := endpoint
	if len(query) > 0 {
		u = endpoint + "?" + query.Encode()
	}

	resp, err := doRequestWithResilience(ctx, provider, cfg, cb, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &weather.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    readSnippet(resp.Body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, classifyTransportError(provider, err)
	}
	if !json.Valid(body) {
		return nil, &weather.ProviderError{
			Provider: provider,
			Message:  "malformed JSON payload",
		}
	}
	return json.RawMessage(body), nil
}

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker. Non-retryable statuses (4xx other than 429) are
// returned to the caller as a response.
func doRequestWithResilience(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, &weather.ProviderError{Provider: provider, Err: errNoHTTPClient}
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, &weather.ProviderError{Provider: provider, Err: errInvalidConfig}
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, classifyTransportError(provider, ctx.Err())
		}

		req, err := buildRequest()
		if err != nil {
			return nil, &weather.ProviderError{Provider: provider, Message: "build request", Err: err}
		}

		start := time.Now()
		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				defer resp.Body.Close()
				return nil, &retryableStatusError{code: resp.StatusCode, body: readSnippet(resp.Body)}
			}

			return resp, nil
		})
		metrics.ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, &weather.ProviderError{Provider: provider, Message: "unexpected result type from circuit breaker"}
			}
			metrics.ProviderRequests.WithLabelValues(provider, outcomeFor(resp.StatusCode)).Inc()
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequests.WithLabelValues(provider, "circuit_open").Inc()
			return nil, &weather.ProviderError{Provider: provider, Message: "circuit breaker open", Err: err}
		}

		pe := toProviderError(provider, err)
		switch {
		case pe.Timeout:
			metrics.ProviderRequests.WithLabelValues(provider, "timeout").Inc()
			return nil, pe
		case pe.StatusCode != 0:
			metrics.ProviderRequests.WithLabelValues(provider, "http_error").Inc()
		default:
			metrics.ProviderRequests.WithLabelValues(provider, "network_error").Inc()
		}

		if attempt >= cfg.Backoff.MaxRetries {
			return nil, pe
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, classifyTransportError(provider, ctx.Err())
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}

func toProviderError(provider string, err error) *weather.ProviderError {
	var se *retryableStatusError
	if errors.As(err, &se) {
		return &weather.ProviderError{Provider: provider, StatusCode: se.code, Message: se.body}
	}
	return classifyTransportError(provider, err)
}

// classifyTransportError wraps a connection-level failure, flagging deadlines.
func classifyTransportError(provider string, err error) *weather.ProviderError {
	pe := &weather.ProviderError{Provider: provider, Err: err}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		pe.Timeout = true
		pe.Message = "request timed out"
	}
	return pe
}

func outcomeFor(status int) string {
	if status >= 200 && status < 300 {
		return "ok"
	}
	return "http_error"
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxSnippetBytes))
	return strings.TrimSpace(string(b))
}

// decodePayload unmarshals raw into v, reporting a shape mismatch as a
// provider error. Missing fields are not an error.
func decodePayload(provider string, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &weather.ProviderError{Provider: provider, Message: "unexpected payload shape", Err: err}
	}
	return nil
}

// codeString renders a numeric provider code ("800", "1003") as text.
func codeString(v optFloat) *string {
	if v.v == nil {
		return nil
	}
	return weather.Ptr(strconv.FormatFloat(*v.v, 'f', -1, 64))
}

// nonEmpty drops empty strings so they serialize as null.
func nonEmpty(s optText) *string {
	if s.v == nil || strings.TrimSpace(*s.v) == "" {
		return nil
	}
	return s.v
}

// optFloat is a nullable payload number. Numeric strings are accepted; any
// other value decodes as absent instead of failing the payload.
type optFloat struct {
	v *float64
}

func (f *optFloat) UnmarshalJSON(b []byte) error {
	f.v = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		s = string(b)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.v = &v
	return nil
}

func (f optFloat) ptr() *float64 {
	return f.v
}

// optText is a nullable payload string. Non-string values decode as absent.
type optText struct {
	v *string
}

func (t *optText) UnmarshalJSON(b []byte) error {
	t.v = nil
	var s string
	if err := json.Unmarshal(b, &s); err == nil && !bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.v = &s
	}
	return nil
}
