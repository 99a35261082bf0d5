// Package errors maps failures to gofulmen error envelopes and writes them
// as HTTP responses. Infrastructure routes get the nested envelope body; the
// insight endpoint gets the flat {"error": "..."} body its clients expect.
package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/metrics"
	"github.com/astrasemi/qualitylens/internal/observability"
	"github.com/astrasemi/qualitylens/internal/server/middleware"
)

// Envelope is the gofulmen error envelope used across the server.
type Envelope = errors.ErrorEnvelope

const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeConfigInvalid      = "CONFIG_INVALID"
)

var statusByCode = map[string]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeValidationFailed:   http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeExternalService:    http.StatusBadGateway,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

func NewNotFoundError(message string) *Envelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *Envelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

// NewConfigInvalidError reports unusable configuration found at startup.
func NewConfigInvalidError(message string) *Envelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

func NewInternalError(message string) *Envelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

// Wrap builds an envelope for code around err, correlated with the request
// id carried by ctx.
func Wrap(ctx context.Context, code string, err error, message string) *Envelope {
	id := correlationID(ctx)
	envelope := errors.NewErrorEnvelope(code, message).
		WithCorrelationID(id).
		WithTraceID(id)
	if err == nil {
		return envelope
	}
	if withCause, ctxErr := envelope.WithContext(map[string]interface{}{"wrapped_error": err.Error()}); ctxErr == nil {
		envelope = withCause
	}
	return envelope
}

func WrapInvalidInput(ctx context.Context, err error, message string) *Envelope {
	return Wrap(ctx, CodeInvalidInput, err, message)
}

func WrapValidationError(ctx context.Context, err error, message string) *Envelope {
	return Wrap(ctx, CodeValidationFailed, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *Envelope {
	return Wrap(ctx, CodeConfigInvalid, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *Envelope {
	envelope, _ := Wrap(ctx, CodeInternal, err, message).WithSeverity(errors.SeverityHigh)
	return envelope
}

func correlationID(ctx context.Context) string {
	if ctx != nil {
		if id := middleware.GetRequestID(ctx); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// EnsureEnvelope returns err as an envelope, wrapping foreign errors as
// internal failures.
func EnsureEnvelope(err error) *Envelope {
	if envelope, ok := err.(*Envelope); ok && envelope != nil {
		return envelope
	}

	envelope := errors.NewErrorEnvelope(CodeInternal, "unexpected error")
	severity := errors.SeverityHigh
	if err == nil {
		envelope = errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		severity = errors.SeverityCritical
	} else {
		envelope, _ = envelope.WithContext(map[string]interface{}{"wrapped_error": err.Error()})
	}
	envelope, _ = envelope.WithSeverity(severity)
	return envelope
}

// EnsureCorrelationID fills in a missing correlation id from the request,
// or a generated fallback when the request has none.
func EnsureCorrelationID(envelope *Envelope, ctx context.Context) *Envelope {
	if envelope == nil || envelope.CorrelationID != "" {
		return envelope
	}
	id := ""
	if ctx != nil {
		id = middleware.GetRequestID(ctx)
	}
	if id == "" {
		id = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(id)
}

func HTTPStatusFromEnvelope(envelope *Envelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode maps an error code to its status; unknown codes are 500.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ResponseDetails merges envelope details with its context; details win.
func ResponseDetails(envelope *Envelope) map[string]interface{} {
	if envelope == nil || len(envelope.Details)+len(envelope.Context) == 0 {
		return nil
	}
	details := make(map[string]interface{}, len(envelope.Details)+len(envelope.Context))
	for key, value := range envelope.Context {
		details[key] = value
	}
	for key, value := range envelope.Details {
		details[key] = value
	}
	return details
}

type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse is the nested body used by infrastructure routes.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError writes err as a nested envelope response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *Envelope) {
	if w == nil {
		return
	}
	envelope, status := finalize(r, envelope)
	writeJSON(w, status, HTTPErrorResponse{Error: HTTPErrorDetail{
		Code:      envelope.Code,
		Message:   envelope.Message,
		Details:   ResponseDetails(envelope),
		RequestID: envelope.CorrelationID,
	}})
}

// RespondWithMessage writes the flat insight error body. The envelope is
// logged and counted but only message reaches the caller, so message must be
// safe to show to end users. An empty message falls back to the envelope's.
func RespondWithMessage(w http.ResponseWriter, r *http.Request, envelope *Envelope, message string) {
	if w == nil {
		return
	}
	if envelope == nil {
		envelope = EnsureEnvelope(nil)
	}
	envelope, status := finalize(r, envelope)
	if message == "" {
		message = envelope.Message
	}
	writeJSON(w, status, insight.ErrorBody{Error: message, RequestID: envelope.CorrelationID})
}

// finalize correlates, logs and counts envelope before it is written.
func finalize(r *http.Request, envelope *Envelope) (*Envelope, int) {
	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	envelope = EnsureCorrelationID(envelope, ctx)
	status := HTTPStatusFromEnvelope(envelope)

	logEnvelope(envelope, status)
	metrics.RecordError(envelope.Code, status)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}
	return envelope, status
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func logEnvelope(envelope *Envelope, status int) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	fields := make([]zap.Field, 0, len(envelope.Context)+4)
	fields = append(fields,
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", status),
		zap.String("request_id", envelope.CorrelationID))
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		logger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		logger.Warn(envelope.Message, fields...)
	default:
		logger.Info(envelope.Message, fields...)
	}
}
