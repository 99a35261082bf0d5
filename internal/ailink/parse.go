package ailink

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/astrasemi/qualitylens/internal/insight"
)

var (
	fencedJSON  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	outerObject = regexp.MustCompile(`(?s)\{.*\}`)

	errNoJSONObject = errors.New("no JSON object in model response")
)

// extractJSON finds the JSON object in a model answer: first inside a
// ```json fence, then the span from the first '{' to the last '}'.
func extractJSON(text string) (map[string]json.RawMessage, error) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if fields, err := decodeObject(m[1]); err == nil {
			return fields, nil
		}
	}
	if m := outerObject.FindString(text); m != "" {
		if fields, err := decodeObject(m); err == nil {
			return fields, nil
		}
	}
	return nil, errNoJSONObject
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errNoJSONObject
	}
	return fields, nil
}

// normalizeInsight fills keys the model omitted with server defaults. A key
// that is present with the wrong type is an error.
func normalizeInsight(fields map[string]json.RawMessage) (*insight.Response, error) {
	resp := &insight.Response{
		RiskLevel:           insight.RiskMedium,
		RiskInterpretation:  insight.DefaultInterpretation,
		KeyPoints:           append([]string(nil), defaultKeyPoints...),
		Actions:             append([]string(nil), defaultActions...),
		ClarifyingQuestions: []string{},
		Disclaimer:          insight.Disclaimer,
	}

	var level string
	if err := decodeField(fields, "riskLevel", &level); err != nil {
		return nil, err
	}
	if _, ok := fields["riskLevel"]; ok {
		resp.RiskLevel = insight.ParseRiskLevel(level)
	}

	targets := []struct {
		key string
		dst any
	}{
		{"riskInterpretation", &resp.RiskInterpretation},
		{"keyPoints", &resp.KeyPoints},
		{"actions", &resp.Actions},
		{"clarifyingQuestions", &resp.ClarifyingQuestions},
		{"disclaimer", &resp.Disclaimer},
	}
	for _, target := range targets {
		if err := decodeField(fields, target.key, target.dst); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(resp.Disclaimer) == "" {
		resp.Disclaimer = insight.Disclaimer
	}
	for _, list := range []*[]string{&resp.KeyPoints, &resp.Actions, &resp.ClarifyingQuestions} {
		if *list == nil {
			*list = []string{}
		}
	}
	return resp, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
