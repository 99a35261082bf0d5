package ailink

import (
	"github.com/astrasemi/qualitylens/internal/ailink/driver"
	"github.com/astrasemi/qualitylens/internal/insight"
)

// Source records how an insight was produced.
type Source string

const (
	// SourceModel is a parsed model answer.
	SourceModel Source = "model"
	// SourceMock is served when no provider is configured.
	SourceMock Source = "mock"
	// SourceFallback replaces a model answer that could not be parsed.
	SourceFallback Source = "fallback"
	// SourceDegraded replaces a failed provider call.
	SourceDegraded Source = "degraded"
)

// InsightRequest is the high-level request for a quality insight.
type InsightRequest struct {
	Role       string
	PromptSlug string
	Model      string
	TimeoutSec int

	insight.Request
}

// InsightResult is always a renderable response; Warning explains why a
// canned response was used instead of a model answer.
type InsightResult struct {
	Response *insight.Response
	Source   Source
	Provider string
	Model    string
	Usage    *driver.Usage
	Warning  *InsightError
}

// InsightError captures an ailink failure without failing the request.
type InsightError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Retryable is set when the same request may succeed later.
	Retryable bool `json:"retryable,omitempty"`
}

func (e *InsightError) Error() string {
	if e == nil {
		return "ailink error"
	}
	if e.Details != "" {
		return e.Code + ": " + e.Message + ": " + e.Details
	}
	return e.Code + ": " + e.Message
}

// RequestError is a client input problem; Message is safe to return to
// callers verbatim.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "invalid request"
	}
	return e.Message
}
