package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/insight"
)

const sampleObservation = "Humidity slightly high in Zone C. Minor particle alert earlier. No visible defects observed."

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(server.URL)
	c.HTTPClient = server.Client()
	return c
}

func TestFetchSendsExactBody(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, insight.Endpoint, r.URL.Path)
		require.Empty(t, r.URL.RawQuery)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Len(t, payload, 2)
		require.Equal(t, sampleObservation, payload["observationText"])
		require.Equal(t, "Cleanroom environment", payload["context"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"riskLevel":"low","keyPoints":["a","b"]}`))
	})

	resp, err := c.Fetch(context.Background(), insight.Request{ObservationText: sampleObservation, Context: "Cleanroom environment"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, insight.RiskLow, resp.RiskLevel)
	assert.Equal(t, []string{"a", "b"}, resp.KeyPoints)
	assert.Equal(t, insight.Disclaimer, resp.Disclaimer)
}

func TestFetchUsesServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"X"}`))
	})

	_, err := c.Fetch(context.Background(), insight.Request{ObservationText: sampleObservation})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusBadRequest, terr.StatusCode)
	assert.Equal(t, "X", terr.Message)
	assert.Equal(t, "X", Message(err))
}

func TestFetchErrorBodyVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unparseable", "<html>bad gateway</html>", UnknownErrorMessage},
		{"empty", "", UnknownErrorMessage},
		{"no error field", `{"detail":"x"}`, GenericErrorMessage},
		{"empty error", `{"error":""}`, GenericErrorMessage},
		{"envelope", `{"error":{"code":"NOT_FOUND","message":"The requested resource was not found"}}`, "The requested resource was not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Fetch(context.Background(), insight.Request{ObservationText: sampleObservation})
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err))
		})
	}
}

func TestFetchUnparseableSuccessIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.Fetch(context.Background(), insight.Request{ObservationText: sampleObservation})
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, insight.ErrInvalidJSON)
	assert.Equal(t, GenericErrorMessage, Message(err))
}

func TestFetchConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).Fetch(context.Background(), insight.Request{ObservationText: sampleObservation})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.StatusCode)
	assert.Equal(t, GenericErrorMessage, Message(err))
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c.Timeout = 20 * time.Millisecond

	_, err := c.Fetch(context.Background(), insight.Request{ObservationText: sampleObservation})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, TimeoutMessage, Message(err))
}

func TestMessageFallbacks(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, GenericErrorMessage, Message(errors.New("boom")))

	_, verr := insight.Validate("short")
	assert.Contains(t, Message(verr), "too short")
}

func TestNewDefaults(t *testing.T) {
	c := New("  ")
	assert.Equal(t, "http://localhost:8080/api/quality-insight", c.URL())
	assert.Equal(t, 60*time.Second, c.Timeout)

	c = New("http://example.test/")
	assert.Equal(t, "http://example.test/api/quality-insight", c.URL())
}
