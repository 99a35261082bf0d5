// Package client issues the single POST behind the Quality Risk Insight form.
package client

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

	"github.com/astrasemi/qualitylens/internal/insight"
)

const (
	defaultEndpoint = "http://localhost:8080"
	defaultTimeout  = 60 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Client calls the insight endpoint. There is no retry: each Fetch is one
// request.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New returns a client with defaults applied.
func New(endpoint string) *Client {
	url := strings.TrimSpace(endpoint)
	if url == "" {
		url = defaultEndpoint
	}
	return &Client{
		Endpoint: url,
		Timeout:  defaultTimeout,
	}
}

// URL is the full address of the insight endpoint.
func (c *Client) URL() string {
	return strings.TrimRight(c.Endpoint, "/") + insight.Endpoint
}

// Fetch sends req and returns the normalized response. Errors are always
// *TransportError or *ParseError.
func (c *Client) Fetch(ctx context.Context, req insight.Request) (*insight.Response, error) {
	if c == nil {
		return nil, &TransportError{Message: GenericErrorMessage, Err: errors.New("insight client not configured")}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Message: GenericErrorMessage, Err: fmt.Errorf("encode request: %w", err)}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: GenericErrorMessage, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportFailure(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	parsed, err := insight.Decode(respBody)
	if err != nil {
		return nil, &ParseError{Message: GenericErrorMessage, Body: respBody, Err: err}
	}
	return parsed, nil
}

func transportFailure(err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Message: TimeoutMessage, Err: err}
	}
	return &TransportError{Message: GenericErrorMessage, Err: err}
}

// errorMessage extracts the server-provided message from a failure body.
// The flat {"error": "..."} shape is the contract; the nested
// {"error": {"message": "..."}} envelope from infrastructure routes is
// accepted too.
func errorMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return UnknownErrorMessage
	}

	raw, ok := fields["error"]
	if !ok {
		return GenericErrorMessage
	}

	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		if strings.TrimSpace(message) != "" {
			return message
		}
		return GenericErrorMessage
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && strings.TrimSpace(nested.Message) != "" {
		return nested.Message
	}
	return GenericErrorMessage
}
