// Package insight holds the Quality Risk Insight data model shared by the
// backend service, the HTTP client and the form controllers.
package insight

import "strings"

// Endpoint is the path served by the backend and called by the client.
const Endpoint = "/api/quality-insight"

// Observation length bounds, inclusive, counted in characters after trimming.
const (
	MinObservationLength = 20
	MaxObservationLength = 1000
)

// Fixed fallback sentences surfaced whenever a response omits the field.
const (
	Disclaimer            = "This insight is general guidance and not a technical or engineering assessment."
	DefaultInterpretation = "The observation requires attention and follow-up."
	DefaultContext        = "General process note"
)

// RiskLevel is the primary classification returned by the backend.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel uppercases value and falls back to MEDIUM when it is empty
// or not one of the known levels.
func ParseRiskLevel(value string) RiskLevel {
	switch level := RiskLevel(strings.ToUpper(strings.TrimSpace(value))); level {
	case RiskLow, RiskMedium, RiskHigh:
		return level
	default:
		return RiskMedium
	}
}

// Class returns the style class used by renderers for the badge.
func (r RiskLevel) Class() string {
	return "risk-" + strings.ToLower(string(r))
}

// Request is the body sent to the insight endpoint.
type Request struct {
	ObservationText string `json:"observationText"`
	Context         string `json:"context"`
}

// Response is the structured insight rendered by clients.
//
// Decode produces a Response with every default already applied, so renderers
// never need to handle missing fields.
type Response struct {
	RiskLevel           RiskLevel `json:"riskLevel"`
	RiskInterpretation  string    `json:"riskInterpretation"`
	KeyPoints           []string  `json:"keyPoints"`
	Actions             []string  `json:"actions"`
	ClarifyingQuestions []string  `json:"clarifyingQuestions"`
	Disclaimer          string    `json:"disclaimer"`
}

// HasClarifyingQuestions reports whether the questions section should be shown.
func (r *Response) HasClarifyingQuestions() bool {
	return r != nil && len(r.ClarifyingQuestions) > 0
}

// ErrorBody is the failure body returned by the endpoint on any non-2xx status.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
