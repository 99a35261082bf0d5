package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/insight"
)

type stubInsightService struct {
	calls  []ailink.InsightRequest
	result *ailink.InsightResult
	err    error
}

func (s *stubInsightService) QualityInsight(ctx context.Context, req ailink.InsightRequest) (*ailink.InsightResult, error) {
	s.calls = append(s.calls, req)
	return s.result, s.err
}

func postInsight(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, insight.Endpoint, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) insight.ErrorBody {
	t.Helper()
	var body insight.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestQualityInsightHandlerSuccess(t *testing.T) {
	svc := &stubInsightService{result: &ailink.InsightResult{
		Source: ailink.SourceModel,
		Response: &insight.Response{
			RiskLevel:           insight.RiskHigh,
			RiskInterpretation:  "Humidity drift needs follow-up.",
			KeyPoints:           []string{"Humidity high"},
			Actions:             []string{"Log it"},
			ClarifyingQuestions: []string{},
			Disclaimer:          insight.Disclaimer,
		},
	}}

	rec := postInsight(t, NewQualityInsightHandler(svc), `{"observationText":"Humidity slightly high in Zone C.","context":"Cleanroom Environment"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model", rec.Header().Get(InsightSourceHeader))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	require.Len(t, svc.calls, 1)
	assert.Equal(t, "Humidity slightly high in Zone C.", svc.calls[0].ObservationText)
	assert.Equal(t, "Cleanroom Environment", svc.calls[0].Context)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "HIGH", body["riskLevel"])
	assert.Equal(t, []any{}, body["clarifyingQuestions"])
}

func TestQualityInsightHandlerMalformedJSON(t *testing.T) {
	svc := &stubInsightService{}

	for _, body := range []string{"", "{", "not json", `{"observationText": 5}`} {
		rec := postInsight(t, NewQualityInsightHandler(svc), body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "request body must be valid JSON", decodeErrorBody(t, rec).Error, body)
	}
	assert.Empty(t, svc.calls)
}

func TestQualityInsightHandlerValidationMessage(t *testing.T) {
	svc := &stubInsightService{err: &ailink.RequestError{Message: "observationText must be at least 20 characters"}}

	rec := postInsight(t, NewQualityInsightHandler(svc), `{"observationText":"too short"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "observationText must be at least 20 characters", decodeErrorBody(t, rec).Error)
}

func TestQualityInsightHandlerInternalError(t *testing.T) {
	svc := &stubInsightService{err: errors.New("prompt registry exploded")}

	rec := postInsight(t, NewQualityInsightHandler(svc), `{"observationText":"Humidity slightly high in Zone C."}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "Internal server error", body.Error)
	assert.NotContains(t, body.Error, "exploded")
}

func TestQualityInsightHandlerNilResult(t *testing.T) {
	rec := postInsight(t, NewQualityInsightHandler(&stubInsightService{}), `{"observationText":"Humidity slightly high in Zone C."}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQualityInsightHandlerWithoutService(t *testing.T) {
	rec := postInsight(t, NewQualityInsightHandler(nil), `{"observationText":"Humidity slightly high in Zone C."}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeErrorBody(t, rec).Error)
}

func TestQualityInsightHandlerReportsWarningSource(t *testing.T) {
	svc := &stubInsightService{result: &ailink.InsightResult{
		Source:   ailink.SourceDegraded,
		Response: &insight.Response{RiskLevel: insight.RiskMedium, Disclaimer: insight.Disclaimer},
		Warning:  &ailink.InsightError{Code: "AILINK_PROVIDER_UNAVAILABLE", Message: "provider unavailable"},
	}}

	rec := postInsight(t, NewQualityInsightHandler(svc), `{"observationText":"Humidity slightly high in Zone C."}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", rec.Header().Get(InsightSourceHeader))
}
