package ailink

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astrasemi/qualitylens/internal/ailink/content"
	"github.com/astrasemi/qualitylens/internal/ailink/driver"
	"github.com/astrasemi/qualitylens/internal/ailink/prompt"
	"github.com/astrasemi/qualitylens/internal/insight"
)

const (
	defaultPromptSlug  = "quality-insight"
	defaultModel       = "gpt-4o"
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
	defaultTimeout     = 60 * time.Second
	maxTimeout         = 5 * time.Minute
)

// Service coordinates prompt loading, provider selection, and driver execution.
type Service struct {
	Providers *Registry
	Registry  prompt.Registry
}

// ValidateRequest trims and checks an insight request. An empty context is
// replaced with the default context.
func ValidateRequest(req insight.Request) (insight.Request, error) {
	observation := strings.TrimSpace(req.ObservationText)
	switch n := insight.Length(observation); {
	case n == 0:
		return insight.Request{}, &RequestError{Message: "observationText is required"}
	case n < insight.MinObservationLength:
		return insight.Request{}, &RequestError{Message: fmt.Sprintf("observationText must be at least %d characters", insight.MinObservationLength)}
	case n > insight.MaxObservationLength:
		return insight.Request{}, &RequestError{Message: fmt.Sprintf("observationText must be at most %d characters", insight.MaxObservationLength)}
	}

	noteContext := strings.TrimSpace(req.Context)
	if noteContext == "" {
		noteContext = insight.DefaultContext
	}
	return insight.Request{ObservationText: observation, Context: noteContext}, nil
}

// QualityInsight produces an insight for one observation. Only invalid input
// and missing prompt configuration return an error: provider failures and
// unusable model output degrade to canned responses, reported via Warning.
func (s *Service) QualityInsight(ctx context.Context, req InsightRequest) (*InsightResult, error) {
	if s == nil || s.Registry == nil {
		return nil, errors.New("ailink prompt registry not configured")
	}

	input, err := ValidateRequest(req.Request)
	if err != nil {
		return nil, err
	}

	role := cmp.Or(strings.TrimSpace(req.Role), RoleQualityInsight)
	if !s.Providers.Ready(role) {
		return &InsightResult{Response: mockInsight(), Source: SourceMock}, nil
	}

	promptDef, err := s.Registry.Get(cmp.Or(strings.TrimSpace(req.PromptSlug), defaultPromptSlug))
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"observation": input.ObservationText,
		"context":     input.Context,
	}
	systemPrompt, userPrompt, err := renderPrompt(promptDef, vars)
	if err != nil {
		return nil, err
	}

	resolved, err := s.Providers.Resolve(role, promptDef, req.Model)
	if err != nil {
		return &InsightResult{
			Response: degradedInsight(),
			Source:   SourceDegraded,
			Warning:  &InsightError{Code: CodeProviderConfig, Message: "provider could not be resolved", Details: err.Error()},
		}, nil
	}

	driverReq := buildDriverRequest(promptDef, resolved, systemPrompt, userPrompt)

	ctx, cancel := context.WithTimeout(ctx, callTimeout(s.Providers.Config().DefaultTimeout, req.TimeoutSec))
	defer cancel()

	result := &InsightResult{Provider: resolved.ProviderID, Model: resolved.Model}

	resp, err := resolved.Driver.Complete(ctx, driverReq)
	if err != nil {
		result.Response = degradedInsight()
		result.Source = SourceDegraded
		result.Warning = mapProviderError(err)
		return result, nil
	}
	result.Usage = resp.Usage

	parsed, err := parseInsight(promptDef, resp.Text())
	if err != nil {
		result.Response = fallbackInsight()
		result.Source = SourceFallback
		result.Warning = mapProviderError(err)
		return result, nil
	}

	result.Response = parsed
	result.Source = SourceModel
	return result, nil
}

// CallTimeout is how long a provider call may run under the configured
// default timeout when the request sets none.
func CallTimeout(configured time.Duration) time.Duration {
	return callTimeout(configured, 0)
}

// callTimeout is the per-request timeout when set, else the configured
// default, capped at maxTimeout.
func callTimeout(configured time.Duration, requestSec int) time.Duration {
	d := configured
	if requestSec > 0 {
		d = time.Duration(requestSec) * time.Second
	}
	if d <= 0 {
		d = defaultTimeout
	}
	return min(d, maxTimeout)
}

func buildDriverRequest(def *prompt.Prompt, resolved *ResolvedProvider, systemPrompt, userPrompt string) *driver.Request {
	temperature := defaultTemperature
	if t := def.Config.ResponseOpts.Temperature; t != nil {
		temperature = *t
	}
	maxTokens := defaultMaxTokens
	if m := def.Config.ResponseOpts.MaxTokens; m != nil {
		maxTokens = *m
	}

	req := &driver.Request{
		Model: cmp.Or(resolved.Model, defaultModel),
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, systemPrompt),
			content.TextMessage(content.RoleUser, userPrompt),
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		PromptSlug:  def.Config.Slug,
	}
	if def.Config.ResponseOpts.Format == "json_object" && resolved.Driver.Capabilities().SupportsJSONMode {
		req.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
	}
	return req
}

// renderPrompt fills {{name}} placeholders in both templates. Every
// required variable must be non-blank.
func renderPrompt(def *prompt.Prompt, vars map[string]string) (string, string, error) {
	if def == nil {
		return "", "", errors.New("prompt is required")
	}
	pairs := make([]string, 0, 2*len(vars))
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	for _, required := range def.Config.Input.RequiredVariables {
		if strings.TrimSpace(vars[required]) == "" {
			return "", "", fmt.Errorf("required variable %q not provided", required)
		}
	}
	r := strings.NewReplacer(pairs...)

	system := r.Replace(def.Config.SystemTemplate)
	if strings.TrimSpace(system) == "" {
		return "", "", errors.New("system prompt is required")
	}
	user := cmp.Or(def.Config.UserTemplate, "Context: {{context}}\n\nObservation: {{observation}}")
	return system, strings.TrimSpace(r.Replace(user)), nil
}

// parseInsight extracts, validates and normalizes a model answer.
func parseInsight(def *prompt.Prompt, raw string) (*insight.Response, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, newRawResponseError(errors.New("empty response content"), raw)
	}

	fields, err := extractJSON(raw)
	if err != nil {
		return nil, newRawResponseError(err, raw)
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, newRawResponseError(err, raw)
	}
	if err := validateResponse(def, payload); err != nil {
		return nil, newRawResponseError(err, raw)
	}

	parsed, err := normalizeInsight(fields)
	if err != nil {
		return nil, newRawResponseError(err, raw)
	}
	return parsed, nil
}

func validateResponse(def *prompt.Prompt, payload []byte) error {
	validator, err := def.ResponseValidator()
	if err != nil || validator == nil {
		return err
	}
	diagnostics, err := validator.ValidateJSON(payload)
	if err != nil {
		return err
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("response schema validation failed: %s", diagnostics[0].Message)
	}
	return nil
}

// CheckHealth reports whether the default insight prompt is loadable. A
// missing provider is not unhealthy: the service then answers with mocks.
func (s *Service) CheckHealth(ctx context.Context) error {
	if s == nil || s.Registry == nil {
		return errors.New("ailink prompt registry not configured")
	}
	_, err := s.Registry.Get(defaultPromptSlug)
	return err
}
