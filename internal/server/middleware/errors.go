package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/metrics"
	"github.com/astrasemi/qualitylens/internal/observability"
)

// Recovery turns a handler panic into a 500. The insight endpoint keeps its
// flat {"error": "..."} contract; other routes get the structured envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			requestID := GetRequestID(r.Context())
			stack := string(debug.Stack())
			metrics.RecordPanic()

			if logger := observability.ServerLogger; logger != nil {
				logger.Error("Recovered handler panic",
					zap.String("path", r.URL.Path),
					zap.String("requestID", requestID),
					zap.Any("panic", recovered),
					zap.String("stack_trace", stack))
			}

			if r.URL.Path == insight.Endpoint {
				writeJSON(w, http.StatusInternalServerError, insight.ErrorBody{
					Error:     "Internal server error",
					RequestID: requestID,
				})
				return
			}

			envelope := errors.NewErrorEnvelope("INTERNAL_ERROR", fmt.Sprintf("panic: %v", recovered)).
				WithCorrelationID(requestID)
			envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error: ErrorDetail{
					Code:      envelope.Code,
					Message:   envelope.Message,
					RequestID: envelope.CorrelationID,
				},
			})
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the structured error body of infrastructure routes.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
