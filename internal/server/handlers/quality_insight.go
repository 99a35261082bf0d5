package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/ailink"
	apperrors "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/metrics"
	"github.com/astrasemi/qualitylens/internal/observability"
	servermw "github.com/astrasemi/qualitylens/internal/server/middleware"
)

// InsightSourceHeader reports which path produced the insight body.
const InsightSourceHeader = "X-Insight-Source"

const (
	msgInvalidJSON = "request body must be valid JSON"
	msgInternal    = "Internal server error"

	maxInsightBodyBytes = 64 << 10
)

// InsightService produces quality insights.
type InsightService interface {
	QualityInsight(ctx context.Context, req ailink.InsightRequest) (*ailink.InsightResult, error)
}

// QualityInsightHandler serves POST /api/quality-insight.
type QualityInsightHandler struct {
	Service InsightService
}

func NewQualityInsightHandler(service InsightService) *QualityInsightHandler {
	return &QualityInsightHandler{Service: service}
}

func (h *QualityInsightHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInsightBodyBytes))
	if err != nil {
		h.fail(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body unreadable"), msgInvalidJSON)
		return
	}

	var req insight.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body is not valid JSON"), msgInvalidJSON)
		return
	}

	if h.Service == nil {
		h.fail(w, r, apperrors.NewInternalError("insight service not configured"), msgInternal)
		return
	}

	result, err := h.Service.QualityInsight(r.Context(), ailink.InsightRequest{Request: req})
	if err != nil {
		var reqErr *ailink.RequestError
		if stderrors.As(err, &reqErr) {
			h.fail(w, r, apperrors.WrapValidationError(r.Context(), err, reqErr.Message), reqErr.Message)
			return
		}
		h.fail(w, r, apperrors.WrapInternal(r.Context(), err, "quality insight failed"), msgInternal)
		return
	}
	if result == nil || result.Response == nil {
		h.fail(w, r, apperrors.NewInternalError("quality insight returned no response"), msgInternal)
		return
	}

	logInsight(r, result)
	metrics.RecordOperation("quality_insight", true)
	metrics.RecordInsight(string(result.Source), string(result.Response.RiskLevel), time.Since(start))
	if result.Usage != nil {
		metrics.RecordInsightTokens(result.Provider, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(InsightSourceHeader, string(result.Source))
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result.Response)
}

func (h *QualityInsightHandler) fail(w http.ResponseWriter, r *http.Request, envelope *apperrors.Envelope, message string) {
	metrics.RecordOperation("quality_insight", false)
	apperrors.RespondWithMessage(w, r, envelope, message)
}

func logInsight(r *http.Request, result *ailink.InsightResult) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("source", string(result.Source)),
		zap.String("risk_level", string(result.Response.RiskLevel)),
	}
	if result.Provider != "" {
		fields = append(fields, zap.String("provider", result.Provider), zap.String("model", result.Model))
	}
	if id := servermw.GetRequestID(r.Context()); id != "" {
		fields = append(fields, zap.String("requestID", id))
	}

	if result.Warning != nil {
		fields = append(fields,
			zap.String("warning_code", result.Warning.Code),
			zap.String("warning", result.Warning.Message),
			zap.String("warning_details", result.Warning.Details),
			zap.Bool("retryable", result.Warning.Retryable),
		)
		logger.Warn("Quality insight served without model output", fields...)
		return
	}
	logger.Info("Quality insight served", fields...)
}
