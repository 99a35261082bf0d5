package ailink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/astrasemi/qualitylens/internal/ailink/driver"
)

// Warning codes attached to degraded and fallback results.
const (
	CodeProviderTimeout     = "AILINK_PROVIDER_TIMEOUT"
	CodeProviderAuth        = "AILINK_PROVIDER_AUTH"
	CodeProviderRateLimit   = "AILINK_PROVIDER_RATE_LIMIT"
	CodeProviderUnavailable = "AILINK_PROVIDER_UNAVAILABLE"
	CodeProviderBadRequest  = "AILINK_PROVIDER_BAD_REQUEST"
	CodeProviderError       = "AILINK_PROVIDER_ERROR"
	CodeProviderConfig      = "AILINK_PROVIDER_CONFIG"
	CodeResponseInvalid     = "AILINK_RESPONSE_INVALID"
)

// RawResponseError is a model answer that could not be turned into an
// insight. Raw always holds a JSON value: the answer itself when it was
// JSON, else the answer as a JSON string.
type RawResponseError struct {
	Err error
	Raw json.RawMessage
}

func newRawResponseError(err error, raw string) *RawResponseError {
	if json.Valid([]byte(raw)) {
		return &RawResponseError{Err: err, Raw: json.RawMessage(raw)}
	}
	quoted, _ := json.Marshal(raw)
	return &RawResponseError{Err: err, Raw: quoted}
}

func (e *RawResponseError) Error() string {
	if e == nil || e.Err == nil {
		return "model response invalid"
	}
	return e.Err.Error()
}

func (e *RawResponseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// classifyStatus maps a provider HTTP status to a warning code and summary.
func classifyStatus(status int) (string, string) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeProviderAuth, "provider authentication failed"
	case status == http.StatusTooManyRequests:
		return CodeProviderRateLimit, "provider rate limited"
	case status >= 500 && status <= 599:
		return CodeProviderUnavailable, "provider unavailable"
	case status >= 400 && status <= 499:
		return CodeProviderBadRequest, "provider rejected request"
	default:
		return CodeProviderError, "provider request failed"
	}
}

// mapProviderError turns a driver or parse failure into the warning carried
// by a degraded or fallback result.
func mapProviderError(err error) *InsightError {
	if err == nil {
		return nil
	}

	var (
		perr *driver.ProviderError
		rerr *RawResponseError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &InsightError{Code: CodeProviderTimeout, Message: "provider request timed out", Retryable: true}
	case errors.As(err, &perr) && perr != nil:
		code, message := classifyStatus(perr.StatusCode)
		return &InsightError{
			Code:      code,
			Message:   message,
			Details:   strings.TrimSpace(perr.Message),
			Retryable: perr.Retryable(),
		}
	case errors.As(err, &rerr):
		return &InsightError{Code: CodeResponseInvalid, Message: "model response could not be parsed", Details: err.Error()}
	default:
		return &InsightError{Code: CodeProviderError, Message: "provider request failed", Details: err.Error()}
	}
}
