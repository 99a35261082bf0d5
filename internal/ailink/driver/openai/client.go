// Package openai is a driver for OpenAI-compatible chat completion APIs
// over plain HTTP.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/astrasemi/qualitylens/internal/ailink/driver"
)

// DefaultBaseURL is used when a provider sets no base_url.
const DefaultBaseURL = "https://api.openai.com/v1"

const (
	driverName     = "openai"
	completionPath = "/chat/completions"

	// Upper bound on a response body read into memory.
	maxResponseBytes = 4 << 20
)

// Client calls the chat completions endpoint under BaseURL.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// Timeout bounds one Complete call; zero leaves it to ctx.
	Timeout time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, APIKey: strings.TrimSpace(apiKey)}
}

func (c *Client) Name() string { return driverName }

func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsJSONMode: true}
}

// Complete sends one chat completion. Non-2xx answers are returned as
// *driver.ProviderError.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, errors.New("openai client not configured")
	}
	if c.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	payload, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + completionPath
	trace := driver.TraceEntry{
		Driver:      driverName,
		Endpoint:    endpoint,
		Method:      http.MethodPost,
		Model:       payload.Model,
		PromptSlug:  req.PromptSlug,
		RequestBody: body,
	}
	started := time.Now()

	resp, err := c.roundTrip(ctx, endpoint, body, &trace)
	trace.DurationMs = time.Since(started).Milliseconds()
	if err != nil {
		trace.Error = err.Error()
	}
	driver.Trace(trace)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, endpoint string, body []byte, trace *driver.TraceEntry) (*driver.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	trace.StatusCode = resp.StatusCode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if json.Valid(raw) {
		trace.Response = raw
	}

	if resp.StatusCode/100 != 2 {
		return nil, &driver.ProviderError{
			Provider:    driverName,
			StatusCode:  resp.StatusCode,
			Message:     errorMessage(raw),
			RawResponse: raw,
		}
	}
	return decodeResponse(raw)
}
