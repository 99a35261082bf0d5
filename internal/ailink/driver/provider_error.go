package driver

import (
	"fmt"
	"net/http"
)

// ProviderError is a request the provider rejected or failed. StatusCode
// is zero for SDK-backed drivers that expose no HTTP status. RawResponse
// holds the provider's body and never any credential.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
	Err         error
}

func (e *ProviderError) Error() string {
	switch {
	case e == nil:
		return "provider error"
	case e.StatusCode > 0:
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the same request may succeed later: rate
// limiting and upstream 5xx answers.
func (e *ProviderError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
