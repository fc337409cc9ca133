// Package ckan is a minimal client for the CKAN action API served by the
// BNDES open-data portal.
package ckan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/telemetry"
	"github.com/DrSkyle/balanco/pkg/version"
)

// DefaultBaseURL is the action endpoint of dadosabertos.bndes.gov.br.
const DefaultBaseURL = "https://dadosabertos.bndes.gov.br/api/3/action"

// Config configures the client.
type Config struct {
	// BaseURL is the CKAN action root (default DefaultBaseURL).
	BaseURL string

	// Timeout for individual requests (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond paces outgoing calls (default: 5). Burst is 1.
	RequestsPerSecond float64

	UserAgent string

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// Client issues CKAN action calls. It holds no per-call state and may be
// shared by concurrent callers.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

// NewClient creates a client, filling defaults for zero fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fmt.Sprintf("%s/%s", version.AppName, version.Current)
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		tracer:  telemetry.Tracer("ckan"),
	}
}

// BaseURL returns the action root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the common CKAN response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *apiError       `json:"error"`
}

type apiError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// call performs GET {base}/{action}?{query} and decodes result into out.
func (c *Client) call(ctx context.Context, action string, query url.Values, out any) error {
	ctx, span := c.tracer.Start(ctx, "ckan.get", trace.WithAttributes(attribute.String("ckan.action", action)))
	defer span.End()

	err := c.do(ctx, action, query, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, action string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return faults.Transport(action, fmt.Errorf("rate limiter: %w", err))
	}

	fullURL := c.baseURL + "/" + action
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return faults.Transport(action, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return faults.Transport(action, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return faults.Transport(action, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return faults.Transport(action, &HTTPError{StatusCode: resp.StatusCode, Message: snippet(body)})
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return faults.Parse(action, fmt.Errorf("decode response: %w", err))
	}
	if env.Success != nil && !*env.Success {
		msg := "request failed"
		if env.Error != nil {
			msg = strings.TrimSpace(env.Error.Type + " " + env.Error.Message)
		}
		return faults.Transport(action, fmt.Errorf("ckan: %s", msg))
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return faults.Parse(action, fmt.Errorf("response has no result"))
	}

	dec = json.NewDecoder(bytes.NewReader(env.Result))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return faults.Parse(action, fmt.Errorf("decode result: %w", err))
	}
	return nil
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
