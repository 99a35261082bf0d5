package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/ailink/content"
	"github.com/astrasemi/qualitylens/internal/ailink/driver"
)

func userRequest(model string) *driver.Request {
	return &driver.Request{Model: model, Messages: []content.Message{content.TextMessage(content.RoleUser, "hi")}}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), userRequest("test"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientRequiresModel(t *testing.T) {
	client := NewClient("", "test-key")
	_, err := client.Complete(context.Background(), userRequest(""))
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

func TestClientSendsRequestAndParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, "gpt-4o", payload["model"])
		require.InDelta(t, 0.7, payload["temperature"], 0.0001)
		require.EqualValues(t, 500, payload["max_tokens"])
		require.Equal(t, map[string]any{"type": "json_object"}, payload["response_format"])

		messages, ok := payload["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		require.Equal(t, "sys", messages[0].(map[string]any)["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"riskLevel\":\"LOW\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	temperature := 0.7
	maxTokens := 500
	resp, err := client.Complete(context.Background(), &driver.Request{
		Model: "gpt-4o",
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, "sys"),
			content.TextMessage(content.RoleUser, "usr"),
		},
		ResponseFormat: &driver.ResponseFormat{Type: "json_object"},
		Temperature:    &temperature,
		MaxTokens:      &maxTokens,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 3, resp.Usage.TotalTokens)
	require.True(t, strings.Contains(resp.Text(), "riskLevel"))
}

func TestClientErrorsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), userRequest("test"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "nope")

	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, http.StatusUnauthorized, perr.StatusCode)
}

func TestClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), userRequest("test"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty response choices")
}

func TestClientHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()
	client.Timeout = 50 * time.Millisecond

	_, err := client.Complete(context.Background(), userRequest("test"))
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientSurfacesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), userRequest("gpt-4o"))
	var perr *driver.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	require.Equal(t, "Rate limit reached", perr.Message)
	require.Contains(t, string(perr.RawResponse), "requests")
}

func TestEncodeContentRejectsNonText(t *testing.T) {
	_, err := encodeRequest(&driver.Request{
		Model: "gpt-4o",
		Messages: []content.Message{{
			Role:    content.RoleUser,
			Content: []content.ContentBlock{{Type: content.ContentTypeJSON, Text: "{}"}},
		}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported content type")

	multi, err := encodeContent([]content.ContentBlock{
		{Type: content.ContentTypeText, Text: "a"},
		{Type: content.ContentTypeText, Text: "b"},
	})
	require.NoError(t, err)
	require.Len(t, multi, 2)
}
